package usecase_test

import (
	"testing"
	"time"

	"mealmates/internal/domain/model"
	"mealmates/internal/usecase"

	"github.com/stretchr/testify/assert"
)

func ago(d time.Duration) time.Time { return baseNow.Add(-d) }

func ids(orders []model.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}

func TestClassifyOrders(t *testing.T) {
	dismissedAt := ago(time.Minute)
	orders := []model.Order{
		{ID: "recent", Status: model.OrderStatusPending, CreatedAt: ago(time.Hour)},
		{ID: "47h", Status: model.OrderStatusPreparing, CreatedAt: ago(47 * time.Hour)},
		{ID: "49h", Status: model.OrderStatusPending, CreatedAt: ago(49 * time.Hour)},
		{ID: "done", Status: model.OrderStatusCompleted, CreatedAt: ago(30 * time.Minute)},
		{ID: "dismissed", Status: model.OrderStatusPending, CreatedAt: ago(2 * time.Hour), DismissedAt: &dismissedAt},
		{ID: "cancelled", Status: model.OrderStatusCancelled, CreatedAt: ago(3 * time.Hour)},
	}

	got := usecase.ClassifyOrders(orders, 48, baseNow)

	// liveは古い順、archivedは新しい順
	assert.Equal(t, []string{"47h", "recent"}, ids(got.Live))
	assert.Equal(t, []string{"done", "dismissed", "cancelled", "49h"}, ids(got.Archived))
}

func TestClassifyOrders_EmptyInput(t *testing.T) {
	got := usecase.ClassifyOrders(nil, 48, baseNow)
	assert.NotNil(t, got.Live)
	assert.NotNil(t, got.Archived)
	assert.Empty(t, got.Live)
	assert.Empty(t, got.Archived)
}

func TestIsLive_ArchiveWindowBoundary(t *testing.T) {
	o := model.Order{Status: model.OrderStatusPending, CreatedAt: ago(48 * time.Hour)}
	assert.True(t, usecase.IsLive(o, 48, baseNow))

	o.CreatedAt = ago(48*time.Hour + time.Second)
	assert.False(t, usecase.IsLive(o, 48, baseNow))
}
