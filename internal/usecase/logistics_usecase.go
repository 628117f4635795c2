package usecase

import (
	"context"

	"mealmates/internal/logistics"
)

// 配達見積もりと営業時間の表示用
type LogisticsUsecase struct {
	settings SettingsProvider
	clock    Clock
}

func NewLogisticsUsecase(sp SettingsProvider, clock Clock) *LogisticsUsecase {
	return &LogisticsUsecase{settings: sp, clock: clock}
}

type DeliveryQuoteOutput struct {
	logistics.DeliveryQuote
	DistanceKm float64 `json:"distance_km"`
}

type StoreStatusOutput struct {
	Open     bool   `json:"open"`
	Timezone string `json:"timezone"`
}

// QuoteDelivery estimates the delivery fee from the cafe to (lat, lng).
// The fee is shown to the customer only; it is not part of the order total.
func (u *LogisticsUsecase) QuoteDelivery(ctx context.Context, lat, lng float64) (DeliveryQuoteOutput, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return DeliveryQuoteOutput{}, NewValidationError("invalid coordinates")
	}
	cfg, err := u.settings.Current(ctx)
	if err != nil {
		return DeliveryQuoteOutput{}, err
	}
	if !cfg.Delivery.Enabled {
		return DeliveryQuoteOutput{}, NewValidationError("delivery is not available")
	}

	km := logistics.CalculateDistance(cfg.Delivery.CafeLat, cfg.Delivery.CafeLng, lat, lng)
	return DeliveryQuoteOutput{
		DeliveryQuote: logistics.CalculateDeliveryCost(km, cfg.Delivery),
		DistanceKm:    km,
	}, nil
}

func (u *LogisticsUsecase) StoreStatus(ctx context.Context) (StoreStatusOutput, error) {
	cfg, err := u.settings.Current(ctx)
	if err != nil {
		return StoreStatusOutput{}, err
	}
	now := u.clock.Now().In(cfg.Location())
	return StoreStatusOutput{
		Open:     logistics.IsStoreOpen(cfg.OpeningHours, now),
		Timezone: cfg.Timezone,
	}, nil
}
