// Package logistics has the pure helpers used for ETA and delivery display.
// Nothing here changes checkout eligibility or the committed order total.
package logistics

import (
	"math"
	"time"

	"mealmates/internal/settings"

	"github.com/shopspring/decimal"
)

const (
	DefaultPrepMinutes          = 5
	DefaultDeliveryExtraMinutes = 0
	// 梱包などの固定バッファ
	PackingBufferMinutes = 5

	earthRadiusKm = 6371.0
)

// 配達エリア外のときの理由
const ReasonTooFar = "Too far away"

type PrepItem struct {
	PrepTimeMinutes      *int
	DeliveryExtraMinutes *int
	Quantity             int
}

// 0 は未設定扱い（メニュー側で0分を登録しても既定値になる）
func orDefault(v *int, def int) int {
	if v == nil || *v == 0 {
		return def
	}
	return *v
}

// CalculateTotalPrepTime estimates minutes until the order is ready.
// Each line counts (prep + delivery extra when delivering) × quantity, plus
// a fixed packing buffer.
func CalculateTotalPrepTime(items []PrepItem, isDelivery bool) int {
	total := 0
	for _, it := range items {
		prep := orDefault(it.PrepTimeMinutes, DefaultPrepMinutes)
		extra := 0
		if isDelivery {
			extra = orDefault(it.DeliveryExtraMinutes, DefaultDeliveryExtraMinutes)
		}
		total += (prep + extra) * it.Quantity
	}
	return total + PackingBufferMinutes
}

// CalculateDistance returns the great-circle distance in km (haversine).
func CalculateDistance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := deg2rad(lat2 - lat1)
	dLng := deg2rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func deg2rad(deg float64) float64 {
	return deg * (math.Pi / 180)
}

type DeliveryQuote struct {
	Allowed bool            `json:"allowed"`
	Cost    decimal.Decimal `json:"cost"`
	Reason  string          `json:"reason,omitempty"`
}

// CalculateDeliveryCost quotes base fee + km × per-km fee, rounded to cents.
// The quote is an estimate; it is not added to the order total.
// Zero-valued fee settings fall back to the defaults.
func CalculateDeliveryCost(distanceKm float64, cfg settings.DeliveryConfig) DeliveryQuote {
	baseFee, feePerKm, maxKm := cfg.BaseFee, cfg.FeePerKm, cfg.MaxDistanceKm
	if baseFee.IsZero() {
		baseFee = settings.DefaultDeliveryBaseFee
	}
	if feePerKm.IsZero() {
		feePerKm = settings.DefaultDeliveryFeePerKm
	}
	if maxKm == 0 {
		maxKm = settings.DefaultMaxDistanceKm
	}

	if distanceKm > maxKm {
		return DeliveryQuote{Allowed: false, Cost: decimal.Zero, Reason: ReasonTooFar}
	}
	cost := baseFee.Add(decimal.NewFromFloat(distanceKm).Mul(feePerKm))
	return DeliveryQuote{Allowed: true, Cost: cost.Round(2)}
}

// IsStoreOpen reports whether now falls in today's [start, end) window.
// now should already be in the restaurant's location.
func IsStoreOpen(hours settings.OpeningHours, now time.Time) bool {
	if !hours.Enabled {
		return true
	}
	day := hours.Day(now.Weekday())
	if !day.IsOpen {
		return false
	}
	start, ok := minuteOfDay(day.Start)
	if !ok {
		return false
	}
	end, ok := minuteOfDay(day.End)
	if !ok {
		return false
	}
	cur := now.Hour()*60 + now.Minute()
	return cur >= start && cur < end
}

func minuteOfDay(hhmm string) (int, bool) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
