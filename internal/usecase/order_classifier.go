package usecase

import (
	"sort"
	"time"

	"mealmates/internal/domain/model"
)

type ClassifiedOrders struct {
	Live     []model.Order
	Archived []model.Order
}

// IsLive reports whether an order belongs on the live board: still active,
// not dismissed, and no older than autoArchiveHours.
func IsLive(o model.Order, autoArchiveHours int, now time.Time) bool {
	if !o.Status.IsActive() || o.IsDismissed() {
		return false
	}
	return now.Sub(o.CreatedAt) <= time.Duration(autoArchiveHours)*time.Hour
}

// ClassifyOrders splits orders into live and archived buckets.
// Live is oldest first, archived is newest first.
func ClassifyOrders(orders []model.Order, autoArchiveHours int, now time.Time) ClassifiedOrders {
	out := ClassifiedOrders{Live: []model.Order{}, Archived: []model.Order{}}
	for _, o := range orders {
		if IsLive(o, autoArchiveHours, now) {
			out.Live = append(out.Live, o)
		} else {
			out.Archived = append(out.Archived, o)
		}
	}

	sort.SliceStable(out.Live, func(i, j int) bool {
		return out.Live[i].CreatedAt.Before(out.Live[j].CreatedAt)
	})
	sort.SliceStable(out.Archived, func(i, j int) bool {
		return out.Archived[i].CreatedAt.After(out.Archived[j].CreatedAt)
	})
	return out
}
