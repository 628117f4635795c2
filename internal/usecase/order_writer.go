package usecase

import (
	"context"

	"mealmates/internal/domain/model"
	repo "mealmates/internal/repository"

	"github.com/rs/zerolog/log"
)

// orderWriter はヘッダー→明細の順に書く。まとめたTxは張らず、
// 明細で失敗したらヘッダーを消して戻す（insert-then-compensate）
type orderWriter struct {
	orders repo.OrderRepository
	ids    IDGenerator
	clock  Clock
}

func newOrderWriter(orders repo.OrderRepository, ids IDGenerator, clock Clock) *orderWriter {
	return &orderWriter{orders: orders, ids: ids, clock: clock}
}

// write fills id, timestamps and TotalAmount (always the item sum) and
// inserts header then items.
func (w *orderWriter) write(ctx context.Context, header model.Order, items []model.OrderItem) (model.Order, error) {
	now := w.clock.Now()
	header.ID = w.ids.NewID()
	header.CreatedAt = now
	header.UpdatedAt = now
	header.TotalAmount = model.SumOrderItems(items)
	header.Items = nil

	created, err := w.orders.InsertOrder(ctx, header)
	if err != nil {
		return model.Order{}, classifyRepoError("insert order", err)
	}

	rows := make([]model.OrderItem, len(items))
	for i, it := range items {
		it.OrderID = created.ID
		it.CreatedAt = now
		rows[i] = it
	}

	if err := w.orders.InsertOrderItems(ctx, rows); err != nil {
		// リクエストが切れても補償削除は走らせる
		if derr := w.orders.DeleteOrder(context.WithoutCancel(ctx), created.ID); derr != nil {
			log.Error().
				Err(derr).
				Str("order_id", created.ID).
				AnErr("cause", err).
				Msg("compensating delete failed, orphan order header left behind")
		}
		return model.Order{}, &PersistenceError{Op: "insert order items", Err: err}
	}

	created.Items = rows
	return created, nil
}

// カートの行を注文明細に変換（単価はカート追加時点のもの）
func orderItemsFromCart(lines []model.CartLine) []model.OrderItem {
	items := make([]model.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, model.OrderItem{
			MenuItemID:      l.ItemID,
			Name:            l.Name,
			Quantity:        l.Quantity,
			PriceAtOrder:    l.UnitPrice,
			SelectedOptions: model.StringList(append([]string{}, l.SelectedOptions...)),
		})
	}
	return items
}
