package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"mealmates/internal/domain/model"

	"github.com/rs/zerolog/log"
)

// この時間を超えて待っている注文は1回だけ通知する
const UrgencyThreshold = 15 * time.Minute

type UrgencyNotification struct {
	OrderID        string    `json:"order_id"`
	CustomerName   string    `json:"customer_name"`
	Status         string    `json:"status"`
	WaitingMinutes int       `json:"waiting_minutes"`
	CreatedAt      time.Time `json:"created_at"`
}

type Notifier interface {
	NotifyUrgent(ctx context.Context, n UrgencyNotification) error
}

// 注文一覧を開いているスタッフの数
type OrderViewTracker struct {
	viewers atomic.Int64
}

func NewOrderViewTracker() *OrderViewTracker {
	return &OrderViewTracker{}
}

// Enter records a viewer; call leave when the view closes.
func (t *OrderViewTracker) Enter() (leave func()) {
	t.viewers.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { t.viewers.Add(-1) })
	}
}

func (t *OrderViewTracker) Viewing() bool {
	return t.viewers.Load() > 0
}

type UrgencyNotifier struct {
	notifier Notifier
	views    *OrderViewTracker
	settings SettingsProvider
	clock    Clock

	mu       sync.Mutex
	notified map[string]struct{}
}

func NewUrgencyNotifier(notifier Notifier, views *OrderViewTracker, sp SettingsProvider, clock Clock) *UrgencyNotifier {
	return &UrgencyNotifier{
		notifier: notifier,
		views:    views,
		settings: sp,
		clock:    clock,
		notified: map[string]struct{}{},
	}
}

// Scan notifies once for each live order waiting longer than the threshold.
// Nothing is sent while someone is viewing the order list. Returns how many
// notifications were sent.
func (n *UrgencyNotifier) Scan(ctx context.Context, live []model.Order, now time.Time) int {
	if n.views != nil && n.views.Viewing() {
		return 0
	}

	sent := 0
	for _, o := range live {
		if !o.Status.IsActive() {
			continue
		}
		waited := now.Sub(o.CreatedAt)
		if waited <= UrgencyThreshold {
			continue
		}
		if !n.mark(o.ID) {
			continue
		}

		err := n.notifier.NotifyUrgent(ctx, UrgencyNotification{
			OrderID:        o.ID,
			CustomerName:   o.CustomerName,
			Status:         string(o.Status),
			WaitingMinutes: int(waited / time.Minute),
			CreatedAt:      o.CreatedAt,
		})
		if err != nil {
			// 次のスキャンで再送できるように戻す
			n.unmark(o.ID)
			log.Warn().Err(err).Str("order_id", o.ID).Msg("urgency notification failed")
			continue
		}
		sent++
	}
	return sent
}

// HandleRefresh is registered on OrderHistory.OnRefresh.
func (n *UrgencyNotifier) HandleRefresh(ctx context.Context, orders []model.Order) {
	cfg, err := n.settings.Current(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("urgency scan skipped: settings unavailable")
		return
	}
	now := n.clock.Now()
	n.forgetMissing(orders)
	live := ClassifyOrders(orders, cfg.Archive.AutoArchiveHours, now).Live
	n.Scan(ctx, live, now)
}

// 一覧から消えた注文はもう追わない
func (n *UrgencyNotifier) forgetMissing(orders []model.Order) {
	seen := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		seen[o.ID] = struct{}{}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for id := range n.notified {
		if _, ok := seen[id]; !ok {
			delete(n.notified, id)
		}
	}
}

func (n *UrgencyNotifier) mark(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.notified[id]; ok {
		return false
	}
	n.notified[id] = struct{}{}
	return true
}

func (n *UrgencyNotifier) unmark(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.notified, id)
}
