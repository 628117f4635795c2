package usecase

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"mealmates/internal/domain/model"
	repo "mealmates/internal/repository"

	"github.com/shopspring/decimal"
)

type CartActionType string

const (
	CartActionAddItem        CartActionType = "add_item"
	CartActionRemoveItem     CartActionType = "remove_item"
	CartActionUpdateQuantity CartActionType = "update_quantity"
	CartActionClear          CartActionType = "clear"
	CartActionHydrate        CartActionType = "hydrate"
	// 注文済みの行を数量ぶん差し引く
	CartActionConsume CartActionType = "consume"
)

// カートへの変更はすべてこのアクションで表す
type CartAction struct {
	Type CartActionType

	// add_item
	Line model.CartLine

	// remove_item / update_quantity
	LineID   string
	Quantity int

	// hydrate / consume
	Lines []model.CartLine
}

// reduceCart は純粋関数。引数のlinesは書き換えず新しいスライスを返す
func reduceCart(lines []model.CartLine, a CartAction) []model.CartLine {
	switch a.Type {
	case CartActionAddItem:
		qty := a.Line.Quantity
		if qty <= 0 {
			qty = 1
		}
		lineID := model.CartLineID(a.Line.ItemID, a.Line.SelectedOptions)
		next := cloneLines(lines)
		for i := range next {
			if next[i].LineID == lineID {
				next[i].Quantity += qty
				return next
			}
		}
		l := cloneLine(a.Line)
		l.LineID = lineID
		l.Quantity = qty
		return append(next, l)

	case CartActionRemoveItem:
		next := make([]model.CartLine, 0, len(lines))
		for _, l := range lines {
			if l.LineID != a.LineID {
				next = append(next, cloneLine(l))
			}
		}
		return next

	case CartActionUpdateQuantity:
		// 0以下は削除と同じ
		if a.Quantity <= 0 {
			return reduceCart(lines, CartAction{Type: CartActionRemoveItem, LineID: a.LineID})
		}
		next := cloneLines(lines)
		for i := range next {
			if next[i].LineID == a.LineID {
				next[i].Quantity = a.Quantity
			}
		}
		return next

	case CartActionClear:
		return []model.CartLine{}

	case CartActionConsume:
		used := make(map[string]int, len(a.Lines))
		for _, l := range a.Lines {
			used[l.LineID] += l.Quantity
		}
		next := make([]model.CartLine, 0, len(lines))
		for _, l := range lines {
			l = cloneLine(l)
			l.Quantity -= used[l.LineID]
			if l.Quantity > 0 {
				next = append(next, l)
			}
		}
		return next

	case CartActionHydrate:
		next := make([]model.CartLine, 0, len(a.Lines))
		for _, l := range a.Lines {
			if l.Quantity <= 0 {
				continue
			}
			l = cloneLine(l)
			if l.LineID == "" {
				l.LineID = model.CartLineID(l.ItemID, l.SelectedOptions)
			}
			next = append(next, l)
		}
		return next
	}
	return cloneLines(lines)
}

func cloneLine(l model.CartLine) model.CartLine {
	if l.SelectedOptions != nil {
		l.SelectedOptions = append([]string(nil), l.SelectedOptions...)
	}
	return l
}

func cloneLines(lines []model.CartLine) []model.CartLine {
	out := make([]model.CartLine, len(lines))
	for i, l := range lines {
		out[i] = cloneLine(l)
	}
	return out
}

// CartLedger is one session's cart. Mutations are serialized and every
// mutation is written to the CartStore before it becomes visible, so the
// in-memory lines never run ahead of storage.
type CartLedger struct {
	sessionID string
	store     repo.CartStore

	mu    sync.Mutex
	lines []model.CartLine

	submitting atomic.Bool
}

func newCartLedger(sessionID string, store repo.CartStore, stored []model.CartLine) *CartLedger {
	return &CartLedger{
		sessionID: sessionID,
		store:     store,
		lines:     reduceCart(nil, CartAction{Type: CartActionHydrate, Lines: stored}),
	}
}

func (l *CartLedger) SessionID() string { return l.sessionID }

// Dispatch applies the action and persists the result.
// 保存に失敗したらメモリ上の行は変更前のまま
func (l *CartLedger) Dispatch(ctx context.Context, a CartAction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := reduceCart(l.lines, a)
	if err := l.store.Save(ctx, l.sessionID, next); err != nil {
		return classifyRepoError("save cart", err)
	}
	l.lines = next
	return nil
}

// メニューの現在価格をスナップショットして1つ追加
func (l *CartLedger) AddItem(ctx context.Context, item model.MenuItem, options []string) error {
	return l.addQuantity(ctx, item, options, 1)
}

func (l *CartLedger) addQuantity(ctx context.Context, item model.MenuItem, options []string, qty int) error {
	return l.Dispatch(ctx, CartAction{
		Type: CartActionAddItem,
		Line: model.CartLine{
			ItemID:               item.ID,
			Name:                 item.Name,
			UnitPrice:            item.Price,
			Quantity:             qty,
			SelectedOptions:      options,
			PrepTimeMinutes:      item.PrepTimeMinutes,
			DeliveryExtraMinutes: item.DeliveryExtraMinutes,
		},
	})
}

// 無い行を消してもエラーにしない
func (l *CartLedger) RemoveItem(ctx context.Context, lineID string) error {
	return l.Dispatch(ctx, CartAction{Type: CartActionRemoveItem, LineID: lineID})
}

func (l *CartLedger) UpdateQuantity(ctx context.Context, lineID string, qty int) error {
	return l.Dispatch(ctx, CartAction{Type: CartActionUpdateQuantity, LineID: lineID, Quantity: qty})
}

func (l *CartLedger) Clear(ctx context.Context) error {
	return l.Dispatch(ctx, CartAction{Type: CartActionClear})
}

// Consume removes what was just ordered. Lines added or increased since the
// snapshot was taken stay in the cart.
func (l *CartLedger) Consume(ctx context.Context, submitted []model.CartLine) error {
	return l.Dispatch(ctx, CartAction{Type: CartActionConsume, Lines: submitted})
}

// Lines returns a copy of the current lines.
func (l *CartLedger) Lines() []model.CartLine {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneLines(l.lines)
}

// 毎回計算する（キャッシュしない）
func (l *CartLedger) Total() decimal.Decimal {
	return cartTotal(l.Lines())
}

func (l *CartLedger) ItemCount() int {
	return cartItemCount(l.Lines())
}

func (l *CartLedger) IsEmpty() bool {
	return len(l.Lines()) == 0
}

// BeginSubmit marks a checkout as in flight. The second caller gets ok=false
// until release is called.
func (l *CartLedger) BeginSubmit() (release func(), ok bool) {
	if !l.submitting.CompareAndSwap(false, true) {
		return func() {}, false
	}
	return func() { l.submitting.Store(false) }, true
}

func cartTotal(lines []model.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, ln := range lines {
		total = total.Add(ln.LineTotal())
	}
	return total
}

func cartItemCount(lines []model.CartLine) int {
	n := 0
	for _, ln := range lines {
		n += ln.Quantity
	}
	return n
}

const (
	DefaultCartIdleTTL = 30 * time.Minute
	DefaultMaxCarts    = 10000
	// 上限超過でも、これより最近使われたカートは追い出さない
	minEvictIdle = time.Minute
)

type cartEntry struct {
	ledger   *CartLedger
	lastUsed time.Time
}

// CartRegistry holds one CartLedger per session, loaded from the store on
// first use. Ledgers idle longer than the TTL are dropped and rehydrated
// from the store on the next request; a ledger with a checkout in flight is
// never dropped.
type CartRegistry struct {
	store    repo.CartStore
	clock    Clock
	idleTTL  time.Duration
	maxCarts int

	mu      sync.Mutex
	entries map[string]*cartEntry
}

type CartRegistryOption func(*CartRegistry)

func WithMaxCarts(n int) CartRegistryOption {
	return func(r *CartRegistry) { r.maxCarts = n }
}

func NewCartRegistry(store repo.CartStore, clock Clock, idleTTL time.Duration, opts ...CartRegistryOption) *CartRegistry {
	if idleTTL <= 0 {
		idleTTL = DefaultCartIdleTTL
	}
	r := &CartRegistry{
		store:    store,
		clock:    clock,
		idleTTL:  idleTTL,
		maxCarts: DefaultMaxCarts,
		entries:  map[string]*cartEntry{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *CartRegistry) Get(ctx context.Context, sessionID string) (*CartLedger, error) {
	if l, ok := r.touch(sessionID); ok {
		return l, nil
	}

	stored, err := r.store.Load(ctx, sessionID)
	if err != nil {
		return nil, classifyRepoError("load cart", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock.Now()
	// 読み込み中に他のリクエストが作っていたらそちらを使う
	if e, ok := r.entries[sessionID]; ok {
		e.lastUsed = now
		return e.ledger, nil
	}
	l := newCartLedger(sessionID, r.store, stored)
	r.entries[sessionID] = &cartEntry{ledger: l, lastUsed: now}
	if len(r.entries) > r.maxCarts {
		r.evictLocked(now)
	}
	return l, nil
}

func (r *CartRegistry) touch(sessionID string) (*CartLedger, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[sessionID]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.clock.Now()
	return e.ledger, true
}

// Sweep drops ledgers idle longer than the TTL and reports how many went.
func (r *CartRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked(r.clock.Now(), r.idleTTL)
}

// Len is the number of ledgers held in memory.
func (r *CartRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *CartRegistry) sweepLocked(now time.Time, idle time.Duration) int {
	n := 0
	for id, e := range r.entries {
		if now.Sub(e.lastUsed) < idle || e.ledger.submitting.Load() {
			continue
		}
		delete(r.entries, id)
		n++
	}
	return n
}

// 上限を超えたら古い順に追い出す（直近に使われたものは残す）
func (r *CartRegistry) evictLocked(now time.Time) {
	if r.sweepLocked(now, r.idleTTL) > 0 && len(r.entries) <= r.maxCarts {
		return
	}
	victims := make([]string, 0, len(r.entries))
	for id, e := range r.entries {
		if now.Sub(e.lastUsed) >= minEvictIdle && !e.ledger.submitting.Load() {
			victims = append(victims, id)
		}
	}
	sort.Slice(victims, func(i, j int) bool {
		return r.entries[victims[i]].lastUsed.Before(r.entries[victims[j]].lastUsed)
	})
	for _, id := range victims {
		if len(r.entries) <= r.maxCarts {
			return
		}
		delete(r.entries, id)
	}
}
