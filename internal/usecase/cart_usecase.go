package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"mealmates/internal/domain/model"
	"mealmates/internal/logistics"
	repo "mealmates/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase は /cart の業務ロジック。
// カート本体はCartRegistryが持つセッションごとのCartLedger
type CartUsecase struct {
	carts  *CartRegistry
	menu   repo.MenuRepository
	orders repo.OrderRepository
}

func NewCartUsecase(carts *CartRegistry, menu repo.MenuRepository, orders repo.OrderRepository) *CartUsecase {
	return &CartUsecase{carts: carts, menu: menu, orders: orders}
}

// price は追加時点の単価
type CartLineResponse struct {
	LineID          string          `json:"line_id"`
	ItemID          string          `json:"item_id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity"`
	SelectedOptions []string        `json:"selected_options"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

type CartResponse struct {
	Lines     []CartLineResponse `json:"lines"`
	Total     decimal.Decimal    `json:"total"`
	ItemCount int                `json:"item_count"`

	// 表示用の目安（分）
	PickupPrepMinutes   int `json:"pickup_prep_minutes"`
	DeliveryPrepMinutes int `json:"delivery_prep_minutes"`
}

type AddCartInput struct {
	MenuItemID string
	Options    []string
}

type ReorderResponse struct {
	Cart CartResponse `json:"cart"`
	// 販売終了などで戻せなかったメニューID
	Skipped []string `json:"skipped"`
}

func (u *CartUsecase) Ledger(ctx context.Context, sessionID string) (*CartLedger, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid cart session")
	}
	return u.carts.Get(ctx, sessionID)
}

func (u *CartUsecase) GetCart(ctx context.Context, sessionID string) (CartResponse, error) {
	l, err := u.Ledger(ctx, sessionID)
	if err != nil {
		return CartResponse{}, err
	}
	return buildCartResponse(l.Lines()), nil
}

// 同じ商品・同じオプションなら数量+1
func (u *CartUsecase) AddItem(ctx context.Context, sessionID string, in AddCartInput) (CartResponse, error) {
	if strings.TrimSpace(in.MenuItemID) == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid menu_item_id")
	}
	l, err := u.Ledger(ctx, sessionID)
	if err != nil {
		return CartResponse{}, err
	}

	item, err := u.menu.FindByID(ctx, in.MenuItemID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return CartResponse{}, classifyRepoError("find menu item", err)
	}
	if !item.IsAvailable {
		return CartResponse{}, NewValidationError("%s is not available right now", item.Name)
	}

	if err := l.AddItem(ctx, item, in.Options); err != nil {
		return CartResponse{}, err
	}
	return buildCartResponse(l.Lines()), nil
}

// 0以下は削除
func (u *CartUsecase) UpdateQuantity(ctx context.Context, sessionID string, lineID string, qty int) (CartResponse, error) {
	if lineID == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid line_id")
	}
	l, err := u.Ledger(ctx, sessionID)
	if err != nil {
		return CartResponse{}, err
	}
	if err := l.UpdateQuantity(ctx, lineID, qty); err != nil {
		return CartResponse{}, err
	}
	return buildCartResponse(l.Lines()), nil
}

func (u *CartUsecase) RemoveItem(ctx context.Context, sessionID string, lineID string) (CartResponse, error) {
	l, err := u.Ledger(ctx, sessionID)
	if err != nil {
		return CartResponse{}, err
	}
	if err := l.RemoveItem(ctx, lineID); err != nil {
		return CartResponse{}, err
	}
	return buildCartResponse(l.Lines()), nil
}

func (u *CartUsecase) Clear(ctx context.Context, sessionID string) (CartResponse, error) {
	l, err := u.Ledger(ctx, sessionID)
	if err != nil {
		return CartResponse{}, err
	}
	if err := l.Clear(ctx); err != nil {
		return CartResponse{}, err
	}
	return buildCartResponse(l.Lines()), nil
}

// Reorder adds every item of one of the user's past orders back into the
// cart at today's menu price. Items no longer on the menu are skipped.
func (u *CartUsecase) Reorder(ctx context.Context, sessionID string, userID string, orderID string) (ReorderResponse, error) {
	if userID == "" {
		return ReorderResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	l, err := u.Ledger(ctx, sessionID)
	if err != nil {
		return ReorderResponse{}, err
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return ReorderResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ReorderResponse{}, classifyRepoError("find order", err)
	}
	// 他人の注文は存在しない扱い
	if o.UserID == nil || *o.UserID != userID {
		return ReorderResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	skipped := []string{}
	for _, it := range o.Items {
		item, err := u.menu.FindByID(ctx, it.MenuItemID)
		if errors.Is(err, repo.ErrNotFound) || (err == nil && !item.IsAvailable) {
			skipped = append(skipped, it.MenuItemID)
			continue
		}
		if err != nil {
			return ReorderResponse{}, classifyRepoError("find menu item", err)
		}
		if err := l.addQuantity(ctx, item, []string(it.SelectedOptions), it.Quantity); err != nil {
			return ReorderResponse{}, err
		}
	}

	return ReorderResponse{Cart: buildCartResponse(l.Lines()), Skipped: skipped}, nil
}

func buildCartResponse(lines []model.CartLine) CartResponse {
	out := CartResponse{
		Lines:     make([]CartLineResponse, 0, len(lines)),
		Total:     cartTotal(lines),
		ItemCount: cartItemCount(lines),
	}
	prep := make([]logistics.PrepItem, 0, len(lines))
	for _, l := range lines {
		opts := l.SelectedOptions
		if opts == nil {
			opts = []string{}
		}
		out.Lines = append(out.Lines, CartLineResponse{
			LineID:          l.LineID,
			ItemID:          l.ItemID,
			Name:            l.Name,
			Price:           l.UnitPrice,
			Quantity:        l.Quantity,
			SelectedOptions: opts,
			LineTotal:       l.LineTotal(),
		})
		prep = append(prep, logistics.PrepItem{
			PrepTimeMinutes:      l.PrepTimeMinutes,
			DeliveryExtraMinutes: l.DeliveryExtraMinutes,
			Quantity:             l.Quantity,
		})
	}
	if len(lines) > 0 {
		out.PickupPrepMinutes = logistics.CalculateTotalPrepTime(prep, false)
		out.DeliveryPrepMinutes = logistics.CalculateTotalPrepTime(prep, true)
	}
	return out
}
