package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mealmates/internal/domain/model"
	"mealmates/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		name  string
		delta time.Duration
		text  string
		class usecase.CountdownClass
	}{
		{"due now", 0, "Due Now", usecase.CountdownDueSoon},
		{"just overdue rounds to now", -30 * time.Second, "Due Now", usecase.CountdownDueSoon},
		{"partial minute rounds up", 30 * time.Second, "1m", usecase.CountdownDueSoon},
		{"ten minutes is due soon", 10 * time.Minute, "10m", usecase.CountdownDueSoon},
		{"eleven minutes is okay", 11 * time.Minute, "11m", usecase.CountdownOkay},
		{"hours and minutes", 90 * time.Minute, "1h 30m", usecase.CountdownOkay},
		{"days ahead", 25 * time.Hour, "In 1d", usecase.CountdownOkay},
		{"minutes ago", -5 * time.Minute, "5m ago", usecase.CountdownOverdue},
		{"hours ago", -61 * time.Minute, "1h ago", usecase.CountdownOverdue},
		{"days ago", -25 * time.Hour, "1d ago", usecase.CountdownOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usecase.FormatCountdown(baseNow.Add(tt.delta), baseNow)
			assert.Equal(t, usecase.Countdown{Text: tt.text, Class: tt.class}, got)
		})
	}
}

type staticLiveSource struct{ orders []model.Order }

func (s staticLiveSource) LiveOrders(ctx context.Context) ([]model.Order, error) {
	return s.orders, nil
}

// recordingSink はpushを数えてchannelに流す
type recordingSink struct {
	mu     sync.Mutex
	pushes [][]usecase.CountdownUpdate
	ch     chan struct{}
	err    error
}

func newRecordingSink() *recordingSink {
	return &recordingSink{ch: make(chan struct{}, 100)}
}

func (s *recordingSink) PushCountdowns(ctx context.Context, updates []usecase.CountdownUpdate) error {
	s.mu.Lock()
	s.pushes = append(s.pushes, updates)
	s.mu.Unlock()
	select {
	case s.ch <- struct{}{}:
	default:
	}
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pushes)
}

func waitPush(t *testing.T, s *recordingSink) {
	t.Helper()
	select {
	case <-s.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("no countdown push")
	}
}

func waitClosed(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ticker run did not end")
	}
}

func TestLiveTicker_PushesImmediatelyThenOnInterval(t *testing.T) {
	due := baseNow.Add(20 * time.Minute)
	src := staticLiveSource{orders: []model.Order{{ID: "o1", CreatedAt: baseNow, DueTime: &due}}}
	ticker := usecase.NewLiveTicker(src, &fixedClock{now: baseNow}, 5*time.Millisecond)
	sink := newRecordingSink()

	done := ticker.Start(context.Background(), sink)
	waitPush(t, sink)
	waitPush(t, sink)
	ticker.Stop()
	waitClosed(t, done)

	sink.mu.Lock()
	first := sink.pushes[0]
	sink.mu.Unlock()
	assert.Equal(t, []usecase.CountdownUpdate{{OrderID: "o1", Text: "20m", Class: usecase.CountdownOkay}}, first)

	// 止めた後は増えない
	n := sink.count()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, sink.count())
}

func TestLiveTicker_RestartEndsPreviousRun(t *testing.T) {
	ticker := usecase.NewLiveTicker(staticLiveSource{}, &fixedClock{now: baseNow}, time.Hour)

	first := ticker.Start(context.Background(), newRecordingSink())
	second := ticker.Start(context.Background(), newRecordingSink())

	waitClosed(t, first)
	select {
	case <-second:
		t.Fatal("second run should still be active")
	default:
	}

	ticker.Stop()
	waitClosed(t, second)
}

func TestLiveTicker_SinkErrorEndsRun(t *testing.T) {
	ticker := usecase.NewLiveTicker(staticLiveSource{}, &fixedClock{now: baseNow}, time.Millisecond)
	sink := newRecordingSink()
	sink.err = errors.New("client gone")

	done := ticker.Start(context.Background(), sink)
	waitClosed(t, done)
	assert.Equal(t, 1, sink.count())
}

func TestLiveTicker_ContextCancelEndsRun(t *testing.T) {
	ticker := usecase.NewLiveTicker(staticLiveSource{}, &fixedClock{now: baseNow}, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := ticker.Start(ctx, newRecordingSink())
	cancel()
	waitClosed(t, done)
}

func TestLiveTickerRegistry_OneRunPerViewer(t *testing.T) {
	reg := usecase.NewLiveTickerRegistry(staticLiveSource{}, &fixedClock{now: baseNow}, time.Hour)

	a1 := reg.Start(context.Background(), "staff-a", newRecordingSink())
	b := reg.Start(context.Background(), "staff-b", newRecordingSink())
	a2 := reg.Start(context.Background(), "staff-a", newRecordingSink())

	// 同じ人の2本目で1本目は終わる。他の人には影響しない
	waitClosed(t, a1)
	select {
	case <-b:
		t.Fatal("other viewer's run should be active")
	default:
	}

	reg.StopAll()
	waitClosed(t, a2)
	waitClosed(t, b)
}

func TestLiveTickerRegistry_StopUnknownViewer(t *testing.T) {
	reg := usecase.NewLiveTickerRegistry(staticLiveSource{}, &fixedClock{now: baseNow}, time.Hour)
	require.NotPanics(t, func() { reg.Stop("nobody") })
}
