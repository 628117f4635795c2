package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"mealmates/internal/infra/notify"
	"mealmates/internal/usecase"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogNotifier_WritesStructuredWarning(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewLogNotifier(zerolog.New(&buf))

	err := n.NotifyUrgent(context.Background(), usecase.UrgencyNotification{
		OrderID:        "o-1",
		CustomerName:   "Ana",
		Status:         "pending",
		WaitingMinutes: 22,
		CreatedAt:      time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "o-1", entry["order_id"])
	assert.Equal(t, float64(22), entry["waiting_minutes"])
}
