package notify

import (
	"context"

	"mealmates/internal/usecase"

	"github.com/rs/zerolog"
)

// RabbitMQが無い環境向け。ログに出すだけ
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) NotifyUrgent(ctx context.Context, n usecase.UrgencyNotification) error {
	l.logger.Warn().
		Str("order_id", n.OrderID).
		Str("customer_name", n.CustomerName).
		Str("status", n.Status).
		Int("waiting_minutes", n.WaitingMinutes).
		Msg("order waiting too long")
	return nil
}
