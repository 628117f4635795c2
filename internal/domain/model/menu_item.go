package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// メニュー（カタログ）。ここでは読み取りのみ
type MenuItem struct {
	ID                   string          `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name                 string          `gorm:"type:varchar(255);not null" json:"name"`
	Price                decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	PrepTimeMinutes      *int            `json:"prep_time,omitempty"`
	DeliveryExtraMinutes *int            `json:"delivery_extra_time,omitempty"`
	IsAvailable          bool            `gorm:"not null;default:true" json:"is_available"`
	CreatedAt            time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
