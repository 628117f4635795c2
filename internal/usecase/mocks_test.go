package usecase_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"mealmates/internal/domain/model"
	repo "mealmates/internal/repository"
	"mealmates/internal/settings"
	"mealmates/internal/usecase"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

// Return(nil, err) なら受け取った注文をそのまま返す
func (m *OrderRepoMock) InsertOrder(ctx context.Context, order model.Order) (model.Order, error) {
	args := m.Called(ctx, order)
	if o, ok := args.Get(0).(model.Order); ok {
		return o, args.Error(1)
	}
	return order, args.Error(1)
}

func (m *OrderRepoMock) InsertOrderItems(ctx context.Context, items []model.OrderItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *OrderRepoMock) DeleteOrder(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *OrderRepoMock) ListOrders(ctx context.Context, f repo.OrderListFilter) ([]model.Order, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (model.Order, error) {
	args := m.Called(ctx, paymentIntentID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) UpdateOrder(ctx context.Context, orderID string, patch repo.OrderPatch) error {
	args := m.Called(ctx, orderID, patch)
	return args.Error(0)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

type MenuRepoMock struct{ mock.Mock }

func (m *MenuRepoMock) FindByID(ctx context.Context, id string) (model.MenuItem, error) {
	args := m.Called(ctx, id)
	it, _ := args.Get(0).(model.MenuItem)
	return it, args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	panic("not used in usecase tests")
}

type SettingsRepoMock struct{ mock.Mock }

func (m *SettingsRepoMock) Load(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *SettingsRepoMock) Save(ctx context.Context, version int, payload []byte) error {
	args := m.Called(ctx, version, payload)
	return args.Error(0)
}

// TxManagerMock は WithinTx の中で渡す repos を固定する
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders    repo.OrderRepository
	auditLogs repo.AuditLogRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository       { return r.orders }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository { return r.auditLogs }

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) NotifyUrgent(ctx context.Context, n usecase.UrgencyNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type PaymentGatewayMock struct{ mock.Mock }

func (m *PaymentGatewayMock) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal) (usecase.PaymentIntent, error) {
	args := m.Called(ctx, amount)
	pi, _ := args.Get(0).(usecase.PaymentIntent)
	return pi, args.Error(1)
}

func (m *PaymentGatewayMock) RetrievePaymentIntent(ctx context.Context, intentID string) (usecase.PaymentIntentDetails, error) {
	args := m.Called(ctx, intentID)
	pi, _ := args.Get(0).(usecase.PaymentIntentDetails)
	return pi, args.Error(1)
}

// =====================
// Fakes
// =====================

// memCartStore はSaveのたびにコピーを持つ。saveErrが入っていれば失敗する
type memCartStore struct {
	mu      sync.Mutex
	data    map[string][]model.CartLine
	saveErr error
	saves   int
}

func newMemCartStore() *memCartStore {
	return &memCartStore{data: map[string][]model.CartLine{}}
}

func (s *memCartStore) Load(ctx context.Context, sessionID string) ([]model.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.CartLine(nil), s.data[sessionID]...), nil
}

func (s *memCartStore) Save(ctx context.Context, sessionID string, lines []model.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.data[sessionID] = append([]model.CartLine(nil), lines...)
	return nil
}

func (s *memCartStore) stored(sessionID string) []model.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[sessionID]
}

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("order-%d", g.n)
}

type staticSettings struct{ s settings.Schema }

func (p staticSettings) Current(ctx context.Context) (settings.Schema, error) { return p.s, nil }

// =====================
// Helpers
// =====================

var baseNow = time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func burger() model.MenuItem {
	return model.MenuItem{ID: "burger", Name: "Burger", Price: dec("6.00"), PrepTimeMinutes: intPtr(10), IsAvailable: true}
}

func fries() model.MenuItem {
	return model.MenuItem{ID: "fries", Name: "Fries", Price: dec("3.50"), IsAvailable: true}
}

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func assertHTTPStatus(t *testing.T, err error, status int) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok, "want HTTPError, got %v", err) {
		assert.Equal(t, status, he.Status)
	}
}
