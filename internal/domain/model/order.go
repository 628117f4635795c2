package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// pending/preparingはまだ厨房で対応中
func (s OrderStatus) IsActive() bool {
	return s == OrderStatusPending || s == OrderStatusPreparing
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodStripe PaymentMethod = "stripe"
	PaymentMethodManual PaymentMethod = "manual"
)

// 注文ヘッダー
// TotalAmountは作成時の明細合計で固定（メニュー価格の変更は反映しない）
type Order struct {
	ID              string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          *string         `gorm:"type:varchar(64);index" json:"user_id"`
	CustomerName    string          `gorm:"type:varchar(255);not null;default:''" json:"customer_name"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(20);not null" json:"payment_status"`
	PaymentMethod   PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentIntentID *string         `gorm:"type:varchar(255);uniqueIndex" json:"payment_intent_id,omitempty"`
	DueTime         *time.Time      `json:"due_time"`
	DismissedAt     *time.Time      `gorm:"index" json:"dismissed_at,omitempty"`
	CreatedAt       time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

// due_timeが無い注文はcreated_atを期限として扱う
func (o Order) EffectiveDueTime() time.Time {
	if o.DueTime != nil {
		return *o.DueTime
	}
	return o.CreatedAt
}

func (o Order) IsDismissed() bool {
	return o.DismissedAt != nil
}
