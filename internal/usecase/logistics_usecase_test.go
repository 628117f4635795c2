package usecase_test

import (
	"context"
	"testing"
	"time"

	"mealmates/internal/settings"
	"mealmates/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogisticsUsecase_QuoteDelivery(t *testing.T) {
	ctx := context.Background()
	cfg := settings.Defaults()

	t.Run("disabled", func(t *testing.T) {
		uc := usecase.NewLogisticsUsecase(staticSettings{s: cfg}, &fixedClock{now: baseNow})
		_, err := uc.QuoteDelivery(ctx, 0, 0)
		assertErrContains(t, err, "delivery is not available")
	})

	enabled := cfg
	enabled.Delivery.Enabled = true
	enabled.Delivery.CafeLat = -36.8485
	enabled.Delivery.CafeLng = 174.7633
	uc := usecase.NewLogisticsUsecase(staticSettings{s: enabled}, &fixedClock{now: baseNow})

	t.Run("same spot is base fee", func(t *testing.T) {
		q, err := uc.QuoteDelivery(ctx, -36.8485, 174.7633)
		require.NoError(t, err)
		assert.True(t, q.Allowed)
		assert.True(t, q.Cost.Equal(dec("5")), "cost=%s", q.Cost)
		assert.InDelta(t, 0, q.DistanceKm, 1e-9)
	})

	t.Run("bad coordinates", func(t *testing.T) {
		_, err := uc.QuoteDelivery(ctx, 91, 0)
		var verr *usecase.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestLogisticsUsecase_StoreStatus(t *testing.T) {
	cfg := settings.Defaults()
	cfg.OpeningHours.Enabled = true

	open := usecase.NewLogisticsUsecase(staticSettings{s: cfg}, &fixedClock{now: baseNow})
	st, err := open.StoreStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Open)
	assert.Equal(t, "UTC", st.Timezone)

	late := usecase.NewLogisticsUsecase(staticSettings{s: cfg}, &fixedClock{now: baseNow.Add(8 * time.Hour)})
	st, err = late.StoreStatus(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Open)
}
