package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// カートの1行
// UnitPriceは追加時点の価格（あとからカタログを読み直さない）
type CartLine struct {
	LineID               string          `json:"line_id"`
	ItemID               string          `json:"item_id"`
	Name                 string          `json:"name"`
	UnitPrice            decimal.Decimal `json:"unit_price"`
	Quantity             int             `json:"quantity"`
	SelectedOptions      []string        `json:"selected_options"`
	PrepTimeMinutes      *int            `json:"prep_time,omitempty"`
	DeliveryExtraMinutes *int            `json:"delivery_extra_time,omitempty"`
}

// itemIDとオプションの並びから行IDを作る。
// オプションが違えば別の行になる
func CartLineID(itemID string, options []string) string {
	if len(options) == 0 {
		return itemID
	}
	return itemID + "|" + strings.Join(options, ",")
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
