package usecase

import (
	"context"
	"sync"
	"time"

	"mealmates/internal/domain/model"
	repo "mealmates/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	historyListLimit = 500
	snapshotAttempts = 3
)

// OrderHistory caches the result of ListOrders for the admin views.
//
// Each Refresh takes a generation number; if Invalidate or a newer Refresh
// bumped the generation before the response arrived, the response is
// dropped. Locally excluded orders (optimistic dismiss) are reported as
// dismissed until the stored row catches up or the exclusion is reverted.
type OrderHistory struct {
	orders repo.OrderRepository

	mu         sync.Mutex
	cached     []model.Order
	loaded     bool
	generation uint64
	excluded   map[string]time.Time
	hooks      []func(ctx context.Context, orders []model.Order)
}

func NewOrderHistory(orders repo.OrderRepository) *OrderHistory {
	return &OrderHistory{orders: orders, excluded: map[string]time.Time{}}
}

// OnRefresh registers fn to run after every applied refresh.
func (h *OrderHistory) OnRefresh(fn func(ctx context.Context, orders []model.Order)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, fn)
}

// Invalidate marks the cache stale; in-flight refreshes are discarded.
func (h *OrderHistory) Invalidate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.generation++
	h.loaded = false
}

func (h *OrderHistory) Refresh(ctx context.Context) error {
	_, _, err := h.refresh(ctx)
	return err
}

// refresh returns the view built from this response and whether it was
// applied to the cache.
func (h *OrderHistory) refresh(ctx context.Context) ([]model.Order, bool, error) {
	h.mu.Lock()
	h.generation++
	gen := h.generation
	h.mu.Unlock()

	orders, err := h.orders.ListOrders(ctx, repo.OrderListFilter{Limit: historyListLimit})
	if err != nil {
		return nil, false, classifyRepoError("list orders", err)
	}

	h.mu.Lock()
	if gen != h.generation {
		view := h.viewLocked(orders)
		h.mu.Unlock()
		log.Debug().Uint64("generation", gen).Msg("discarding stale order history response")
		return view, false, nil
	}
	h.cached = orders
	h.loaded = true
	// 保存済みになった除外は不要
	for _, o := range orders {
		if o.IsDismissed() {
			delete(h.excluded, o.ID)
		}
	}
	view := h.viewLocked(h.cached)
	hooks := append([]func(context.Context, []model.Order){}, h.hooks...)
	h.mu.Unlock()

	for _, fn := range hooks {
		fn(ctx, view)
	}
	return view, true, nil
}

// Snapshot returns the cached orders, loading them first if needed.
// 読み込み中に Invalidate され続けたら最後に取得した結果をそのまま返す
func (h *OrderHistory) Snapshot(ctx context.Context) ([]model.Order, error) {
	var last []model.Order
	for attempt := 0; attempt < snapshotAttempts; attempt++ {
		h.mu.Lock()
		if h.loaded {
			view := h.viewLocked(h.cached)
			h.mu.Unlock()
			return view, nil
		}
		h.mu.Unlock()

		view, applied, err := h.refresh(ctx)
		if err != nil {
			return nil, err
		}
		if applied {
			return view, nil
		}
		last = view
	}
	return last, nil
}

// Exclude hides an order from the live bucket before the store confirms it.
func (h *OrderHistory) Exclude(orderID string, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.excluded[orderID] = at
}

func (h *OrderHistory) Include(orderID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.excluded, orderID)
}

// 呼び出し側にはコピーを渡す
func (h *OrderHistory) viewLocked(orders []model.Order) []model.Order {
	out := make([]model.Order, len(orders))
	copy(out, orders)
	for i := range out {
		if at, ok := h.excluded[out[i].ID]; ok && out[i].DismissedAt == nil {
			t := at
			out[i].DismissedAt = &t
		}
	}
	return out
}
