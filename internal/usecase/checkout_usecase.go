package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mealmates/internal/domain/model"
	repo "mealmates/internal/repository"
	"mealmates/internal/settings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	ReasonCashDisabled = "Pay on Pickup is currently disabled."
	paymentSucceeded   = "succeeded"
)

type CartTotals struct {
	Total     decimal.Decimal
	ItemCount int
}

type CashEligibility struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CanPayWithCash checks the rules in a fixed order and reports the first one
// that fails: cash disabled, amount over the limit, too many items.
func CanPayWithCash(cart CartTotals, cfg settings.PaymentConfig) CashEligibility {
	if !cfg.EnableCash {
		return CashEligibility{Allowed: false, Reason: ReasonCashDisabled}
	}
	if cart.Total.GreaterThan(cfg.MaxCashAmount) {
		return CashEligibility{
			Allowed: false,
			Reason:  fmt.Sprintf("Orders over $%s require online payment.", cfg.MaxCashAmount.String()),
		}
	}
	if cart.ItemCount > cfg.MaxCashItems {
		return CashEligibility{
			Allowed: false,
			Reason:  fmt.Sprintf("Orders with more than %d items require online payment.", cfg.MaxCashItems),
		}
	}
	return CashEligibility{Allowed: true}
}

// 注文者。ログインユーザーかゲスト名のどちらかが必要
type CustomerIdentity struct {
	UserID      *string
	DisplayName string
}

func (c CustomerIdentity) validate() error {
	if c.UserID != nil && strings.TrimSpace(*c.UserID) != "" {
		return nil
	}
	if strings.TrimSpace(c.DisplayName) != "" {
		return nil
	}
	return NewValidationError("a signed-in user or a guest name is required")
}

type CheckoutInput struct {
	Identity CustomerIdentity
	// 受け取り希望時刻（なければ作成時刻扱い）
	DueTime *time.Time
}

// 外部の決済処理から返ってきた結果
type PaymentConfirmation struct {
	Status          string `json:"status"`
	PaymentIntentID string `json:"payment_intent_id"`
}

type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// 決済サービス側で見た intent の状態
type PaymentIntentDetails struct {
	ID     string
	Status string
	Amount decimal.Decimal
}

// 決済サービスに存在しない intent
var ErrPaymentIntentNotFound = errors.New("payment intent not found")

type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal) (PaymentIntent, error)
	RetrievePaymentIntent(ctx context.Context, intentID string) (PaymentIntentDetails, error)
}

type CheckoutUsecase struct {
	settings SettingsProvider
	payments PaymentGateway
	orders   repo.OrderRepository
	writer   *orderWriter
	history  *OrderHistory
}

func NewCheckoutUsecase(
	sp SettingsProvider,
	payments PaymentGateway,
	orders repo.OrderRepository,
	history *OrderHistory,
	ids IDGenerator,
	clock Clock,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		settings: sp,
		payments: payments,
		orders:   orders,
		writer:   newOrderWriter(orders, ids, clock),
		history:  history,
	}
}

// Eligibility is the advisory check used to render payment options.
func (u *CheckoutUsecase) Eligibility(ctx context.Context, cart *CartLedger) (CashEligibility, error) {
	cfg, err := u.settings.Current(ctx)
	if err != nil {
		return CashEligibility{}, err
	}
	lines := cart.Lines()
	return CanPayWithCash(CartTotals{Total: cartTotal(lines), ItemCount: cartItemCount(lines)}, cfg.Payment), nil
}

// SubmitCashOrder re-checks eligibility against fresh settings, writes the
// order and clears the cart. Returns the new order id.
func (u *CheckoutUsecase) SubmitCashOrder(ctx context.Context, cart *CartLedger, in CheckoutInput) (string, error) {
	release, ok := cart.BeginSubmit()
	if !ok {
		return "", NewValidationError("order submission already in progress")
	}
	defer release()

	if err := in.Identity.validate(); err != nil {
		return "", err
	}
	lines := cart.Lines()
	if len(lines) == 0 {
		return "", NewValidationError("cart is empty")
	}

	cfg, err := u.settings.Current(ctx)
	if err != nil {
		return "", err
	}
	elig := CanPayWithCash(CartTotals{Total: cartTotal(lines), ItemCount: cartItemCount(lines)}, cfg.Payment)
	if !elig.Allowed {
		return "", NewValidationError("%s", elig.Reason)
	}

	order, err := u.writer.write(ctx, model.Order{
		UserID:        in.Identity.UserID,
		CustomerName:  strings.TrimSpace(in.Identity.DisplayName),
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		PaymentMethod: model.PaymentMethodCash,
		DueTime:       in.DueTime,
	}, orderItemsFromCart(lines))
	if err != nil {
		return "", err
	}

	u.afterSubmit(ctx, cart, lines, order.ID)
	return order.ID, nil
}

// SubmitPaidOrder records an order whose payment already succeeded.
//
// The browser's confirmation is only a hint: the intent is read back from the
// payment service and must have succeeded for exactly the cart total. An
// intent that already has an order returns that order (double submit or
// replay). Any failure after the payment is verified is a
// PaymentReconciliationError and the cart is left as is so staff can rebuild
// the order. Never retried.
func (u *CheckoutUsecase) SubmitPaidOrder(ctx context.Context, cart *CartLedger, confirmation PaymentConfirmation, in CheckoutInput) (string, error) {
	if confirmation.Status != paymentSucceeded {
		return "", NewValidationError("payment was not completed (status %q)", confirmation.Status)
	}
	intentID := strings.TrimSpace(confirmation.PaymentIntentID)
	if intentID == "" {
		return "", NewValidationError("payment intent id is required")
	}

	if id, found, err := u.orderForIntent(ctx, intentID); err != nil || found {
		return id, err
	}

	release, ok := cart.BeginSubmit()
	if !ok {
		// 先に走っている送信がこの intent の注文を作る
		return "", NewHTTPError(http.StatusConflict, "payment is still being recorded, please check your orders shortly")
	}
	defer release()

	paid, err := u.verifyPayment(ctx, intentID)
	if err != nil {
		return "", err
	}

	reconcile := func(err error) error {
		log.Error().
			Err(err).
			Str("payment_intent_id", intentID).
			Str("cart_session", cart.SessionID()).
			Msg("payment taken but order not saved")
		return &PaymentReconciliationError{PaymentIntentID: intentID, Err: err}
	}

	if err := in.Identity.validate(); err != nil {
		return "", reconcile(err)
	}
	lines := cart.Lines()
	if len(lines) == 0 {
		return "", reconcile(NewValidationError("cart is empty"))
	}
	if total := cartTotal(lines); !paid.Amount.Equal(total) {
		return "", reconcile(NewValidationError("paid amount %s does not match cart total %s", paid.Amount.StringFixed(2), total.StringFixed(2)))
	}

	order, err := u.writer.write(ctx, model.Order{
		UserID:          in.Identity.UserID,
		CustomerName:    strings.TrimSpace(in.Identity.DisplayName),
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPaid,
		PaymentMethod:   model.PaymentMethodStripe,
		PaymentIntentID: &intentID,
		DueTime:         in.DueTime,
	}, orderItemsFromCart(lines))
	if errors.Is(err, repo.ErrDuplicate) {
		// 別セッションから同じ intent で先に保存された
		if id, found, ferr := u.orderForIntent(ctx, intentID); ferr == nil && found {
			return id, nil
		}
	}
	if err != nil {
		return "", reconcile(err)
	}

	u.afterSubmit(ctx, cart, lines, order.ID)
	return order.ID, nil
}

func (u *CheckoutUsecase) orderForIntent(ctx context.Context, intentID string) (string, bool, error) {
	o, err := u.orders.FindByPaymentIntentID(ctx, intentID)
	if errors.Is(err, repo.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, classifyRepoError("find order by payment intent", err)
	}
	return o.ID, true, nil
}

func (u *CheckoutUsecase) verifyPayment(ctx context.Context, intentID string) (PaymentIntentDetails, error) {
	if u.payments == nil {
		return PaymentIntentDetails{}, NewHTTPError(http.StatusServiceUnavailable, "payment service not configured")
	}
	pi, err := u.payments.RetrievePaymentIntent(ctx, intentID)
	if errors.Is(err, ErrPaymentIntentNotFound) {
		return PaymentIntentDetails{}, NewValidationError("unknown payment")
	}
	if err != nil {
		return PaymentIntentDetails{}, &NetworkError{Err: err}
	}
	if pi.ID != intentID || pi.Status != paymentSucceeded {
		return PaymentIntentDetails{}, NewValidationError("payment was not completed (status %q)", pi.Status)
	}
	return pi, nil
}

// CreatePaymentIntent asks the payment service for a client secret covering
// the cart total.
func (u *CheckoutUsecase) CreatePaymentIntent(ctx context.Context, cart *CartLedger) (PaymentIntent, error) {
	cfg, err := u.settings.Current(ctx)
	if err != nil {
		return PaymentIntent{}, err
	}
	if !cfg.Payment.EnableStripe {
		return PaymentIntent{}, NewValidationError("online payment is currently disabled")
	}
	total := cart.Total()
	if !total.IsPositive() {
		return PaymentIntent{}, NewValidationError("cart is empty")
	}
	if u.payments == nil {
		return PaymentIntent{}, NewHTTPError(http.StatusServiceUnavailable, "payment service not configured")
	}

	pi, err := u.payments.CreatePaymentIntent(ctx, total)
	if err != nil {
		return PaymentIntent{}, &NetworkError{Err: err}
	}
	return pi, nil
}

// 注文は保存済み。ここでの失敗はログだけ
// 送信中にカートへ追加された分は残す
func (u *CheckoutUsecase) afterSubmit(ctx context.Context, cart *CartLedger, submitted []model.CartLine, orderID string) {
	if err := cart.Consume(ctx, submitted); err != nil {
		log.Warn().Err(err).Str("order_id", orderID).Msg("order saved but cart clear failed")
	}
	u.history.Invalidate()
	if err := u.history.Refresh(ctx); err != nil {
		log.Warn().Err(err).Str("order_id", orderID).Msg("order history refresh failed")
	}
}
