package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"mealmates/internal/domain/model"
	repo "mealmates/internal/repository"

	"github.com/shopspring/decimal"
)

// ログインユーザー自身の注文履歴
type OrderUsecase struct {
	orders repo.OrderRepository
}

func NewOrderUsecase(orders repo.OrderRepository) *OrderUsecase {
	return &OrderUsecase{orders: orders}
}

type OrderItemOutput struct {
	MenuItemID      string          `json:"menu_item_id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity"`
	SelectedOptions []string        `json:"selected_options"`
}

type OrderOutput struct {
	ID            string            `json:"id"`
	CustomerName  string            `json:"customer_name"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	PaymentMethod string            `json:"payment_method"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	DueTime       time.Time         `json:"due_time"`
	CreatedAt     time.Time         `json:"created_at"`
	Items         []OrderItemOutput `json:"items"`
}

const myOrdersLimit = 50

// MyOrdersQuery は注文履歴の絞り込み条件
type MyOrdersQuery struct {
	// ActiveOnly なら pending / preparing のみ返す
	ActiveOnly bool
	Limit      int
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID string, q MyOrdersQuery) ([]OrderOutput, error) {
	if userID == "" {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if q.Limit < 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if q.Limit == 0 || q.Limit > myOrdersLimit {
		q.Limit = myOrdersLimit
	}

	filter := repo.OrderListFilter{UserID: &userID, Limit: q.Limit}
	if q.ActiveOnly {
		filter.Statuses = []model.OrderStatus{model.OrderStatusPending, model.OrderStatusPreparing}
	}

	orders, err := u.orders.ListOrders(ctx, filter)
	if err != nil {
		return []OrderOutput{}, classifyRepoError("list orders", err)
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o))
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID string, orderID string) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return OrderOutput{}, classifyRepoError("find order", err)
	}
	if o.UserID == nil || *o.UserID != userID {
		//他人の注文は「存在しない扱い」にする
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	return toOrderOutput(o), nil
}

func toOrderOutput(o model.Order) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(o.Items))
	for _, it := range o.Items {
		opts := []string(it.SelectedOptions)
		if opts == nil {
			opts = []string{}
		}
		outItems = append(outItems, OrderItemOutput{
			MenuItemID:      it.MenuItemID,
			Name:            it.Name,
			Price:           it.PriceAtOrder,
			Quantity:        it.Quantity,
			SelectedOptions: opts,
		})
	}

	return OrderOutput{
		ID:            o.ID,
		CustomerName:  o.CustomerName,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PaymentMethod: string(o.PaymentMethod),
		TotalAmount:   o.TotalAmount,
		DueTime:       o.EffectiveDueTime(),
		CreatedAt:     o.CreatedAt,
		Items:         outItems,
	}
}
