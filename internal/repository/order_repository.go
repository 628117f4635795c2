package repository

import (
	"context"
	"time"

	"mealmates/internal/domain/model"
)

// 注文一覧の絞り込み条件
type OrderListFilter struct {
	UserID      *string
	Statuses    []model.OrderStatus
	CreatedFrom *time.Time
	Limit       int
}

// 部分更新。nilの項目は変更しない
type OrderPatch struct {
	Status      *model.OrderStatus
	DismissedAt *time.Time
	DueTime     *time.Time
}

// ヘッダーと明細は別々に書く（まとめたTxは張らない）
type OrderRepository interface {
	InsertOrder(ctx context.Context, order model.Order) (model.Order, error)
	InsertOrderItems(ctx context.Context, items []model.OrderItem) error
	DeleteOrder(ctx context.Context, orderID string) error

	//明細つきで新しい順
	ListOrders(ctx context.Context, f OrderListFilter) ([]model.Order, error)
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	// 無ければ ErrNotFound
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (model.Order, error)
	UpdateOrder(ctx context.Context, orderID string, patch OrderPatch) error
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error
}
