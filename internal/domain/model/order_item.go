package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細
// PriceAtOrderはカート追加時点の単価スナップショット
type OrderItem struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID         string          `gorm:"type:uuid;not null;index" json:"order_id"`
	MenuItemID      string          `gorm:"type:varchar(64);not null;index" json:"menu_item_id"`
	Name            string          `gorm:"type:varchar(255);not null;default:''" json:"name"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	PriceAtOrder    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price_at_order"`
	SelectedOptions StringList      `gorm:"type:jsonb" json:"selected_options"`
	CreatedAt       time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.PriceAtOrder.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// 明細合計（ヘッダーのTotalAmountと必ず一致させる）
func SumOrderItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}
