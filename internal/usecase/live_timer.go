package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"mealmates/internal/domain/model"

	"github.com/rs/zerolog/log"
)

type CountdownClass string

const (
	CountdownOverdue CountdownClass = "overdue"
	CountdownDueSoon CountdownClass = "due-soon"
	CountdownOkay    CountdownClass = "okay"
)

const (
	DefaultTickInterval = 60 * time.Second
	dueSoonMinutes      = 10
	minutesPerDay       = 24 * 60
)

type Countdown struct {
	Text  string         `json:"text"`
	Class CountdownClass `json:"class"`
}

// FormatCountdown renders the time left until due, rounded up to the minute.
func FormatCountdown(due, now time.Time) Countdown {
	mins := int(math.Ceil(float64(due.Sub(now)) / float64(time.Minute)))

	if mins < 0 {
		abs := -mins
		switch {
		case abs < 60:
			return Countdown{Text: fmt.Sprintf("%dm ago", abs), Class: CountdownOverdue}
		case abs < minutesPerDay:
			return Countdown{Text: fmt.Sprintf("%dh ago", abs/60), Class: CountdownOverdue}
		default:
			return Countdown{Text: fmt.Sprintf("%dd ago", abs/minutesPerDay), Class: CountdownOverdue}
		}
	}

	class := CountdownOkay
	if mins <= dueSoonMinutes {
		class = CountdownDueSoon
	}
	switch {
	case mins == 0:
		return Countdown{Text: "Due Now", Class: class}
	case mins < 60:
		return Countdown{Text: fmt.Sprintf("%dm", mins), Class: class}
	case mins < minutesPerDay:
		return Countdown{Text: fmt.Sprintf("%dh %dm", mins/60, mins%60), Class: class}
	default:
		return Countdown{Text: fmt.Sprintf("In %dd", mins/minutesPerDay), Class: class}
	}
}

// tickごとに送る差分（文字列とクラスだけ）
type CountdownUpdate struct {
	OrderID string         `json:"order_id"`
	Text    string         `json:"text"`
	Class   CountdownClass `json:"class"`
}

type CountdownSink interface {
	PushCountdowns(ctx context.Context, updates []CountdownUpdate) error
}

type LiveOrderSource interface {
	LiveOrders(ctx context.Context) ([]model.Order, error)
}

// LiveTicker pushes countdown updates for live orders on a fixed interval.
// Start replaces any previous run; Stop waits for the run to exit.
type LiveTicker struct {
	source   LiveOrderSource
	clock    Clock
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLiveTicker(source LiveOrderSource, clock Clock, interval time.Duration) *LiveTicker {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &LiveTicker{source: source, clock: clock, interval: interval}
}

// Start begins a new run bound to ctx and returns a channel closed when that
// run ends (ctx done, Stop, a newer Start, or the sink failing).
func (t *LiveTicker) Start(ctx context.Context, sink CountdownSink) <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go t.run(runCtx, sink, done)
	return done
}

func (t *LiveTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *LiveTicker) stopLocked() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	t.cancel = nil
	t.done = nil
}

func (t *LiveTicker) run(ctx context.Context, sink CountdownSink, done chan struct{}) {
	defer close(done)

	if !t.tick(ctx, sink) {
		return
	}
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !t.tick(ctx, sink) {
				return
			}
		}
	}
}

// falseなら終了
func (t *LiveTicker) tick(ctx context.Context, sink CountdownSink) bool {
	orders, err := t.source.LiveOrders(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		log.Warn().Err(err).Msg("live ticker: load live orders")
		return true
	}

	now := t.clock.Now()
	updates := make([]CountdownUpdate, 0, len(orders))
	for _, o := range orders {
		cd := FormatCountdown(o.EffectiveDueTime(), now)
		updates = append(updates, CountdownUpdate{OrderID: o.ID, Text: cd.Text, Class: cd.Class})
	}

	if err := sink.PushCountdowns(ctx, updates); err != nil {
		log.Debug().Err(err).Msg("live ticker: sink closed")
		return false
	}
	return true
}

// 見ている人（viewer）ごとに1つのtickerを持つ。同じviewerが開き直したら前のrunは止まる
type LiveTickerRegistry struct {
	source   LiveOrderSource
	clock    Clock
	interval time.Duration

	mu      sync.Mutex
	tickers map[string]*LiveTicker
}

func NewLiveTickerRegistry(source LiveOrderSource, clock Clock, interval time.Duration) *LiveTickerRegistry {
	return &LiveTickerRegistry{source: source, clock: clock, interval: interval, tickers: map[string]*LiveTicker{}}
}

func (r *LiveTickerRegistry) Start(ctx context.Context, viewerID string, sink CountdownSink) <-chan struct{} {
	r.mu.Lock()
	t, ok := r.tickers[viewerID]
	if !ok {
		t = NewLiveTicker(r.source, r.clock, r.interval)
		r.tickers[viewerID] = t
	}
	r.mu.Unlock()

	return t.Start(ctx, sink)
}

func (r *LiveTickerRegistry) Stop(viewerID string) {
	r.mu.Lock()
	t, ok := r.tickers[viewerID]
	r.mu.Unlock()
	if ok {
		t.Stop()
	}
}

// StopAll is called on shutdown.
func (r *LiveTickerRegistry) StopAll() {
	r.mu.Lock()
	all := make([]*LiveTicker, 0, len(r.tickers))
	for _, t := range r.tickers {
		all = append(all, t)
	}
	r.mu.Unlock()

	for _, t := range all {
		t.Stop()
	}
}
