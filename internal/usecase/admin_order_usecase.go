package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"mealmates/internal/domain/model"
	repo "mealmates/internal/repository"

	"github.com/rs/zerolog/log"
)

// スタッフ操作の実行者
type Actor struct {
	UserID string
	Role   model.Role
}

var (
	errUnauthorized = NewHTTPError(http.StatusUnauthorized, "unauthorized")
	errForbidden    = NewHTTPError(http.StatusForbidden, "forbidden")
)

type ManualOrderItem struct {
	MenuItemID string   `json:"menu_item_id" validate:"required"`
	Quantity   int      `json:"quantity" validate:"min=1,max=99"`
	Options    []string `json:"options"`
}

// DuePreset（0/10/15/30/60分後）かDueAt("HH:MM")のどちらか一方
type ManualOrderInput struct {
	CustomerName string            `json:"customer_name" validate:"required,max=255"`
	DuePreset    *int              `json:"due_preset" validate:"omitempty,oneof=0 10 15 30 60"`
	DueAt        string            `json:"due_at" validate:"omitempty,datetime=15:04"`
	Items        []ManualOrderItem `json:"items" validate:"required,min=1,dive"`
}

type ManualOrderValidator interface {
	ValidateManualOrder(ctx context.Context, in ManualOrderInput) error
}

// 一覧の1行。liveの注文だけCountdownが付く
type BoardOrder struct {
	OrderOutput
	Countdown *Countdown `json:"countdown,omitempty"`
}

type OrderBoard struct {
	Live     []BoardOrder `json:"live"`
	Archived []BoardOrder `json:"archived"`
}

// 許可するステータス遷移
var orderTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending:   {model.OrderStatusPreparing, model.OrderStatusCancelled},
	model.OrderStatusPreparing: {model.OrderStatusCompleted, model.OrderStatusCancelled},
}

func canTransition(from, to model.OrderStatus) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	menu      repo.MenuRepository
	auditRepo repo.AuditLogRepository
	history   *OrderHistory
	settings  SettingsProvider
	validator ManualOrderValidator
	writer    *orderWriter
	clock     Clock
}

func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	menu repo.MenuRepository,
	auditRepo repo.AuditLogRepository,
	history *OrderHistory,
	sp SettingsProvider,
	validator ManualOrderValidator,
	ids IDGenerator,
	clock Clock,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{
		tx:        tx,
		orders:    orders,
		menu:      menu,
		auditRepo: auditRepo,
		history:   history,
		settings:  sp,
		validator: validator,
		writer:    newOrderWriter(orders, ids, clock),
		clock:     clock,
	}
}

func requireStaff(actor Actor) error {
	if actor.UserID == "" {
		return errUnauthorized
	}
	if !actor.Role.IsStaff() {
		return errForbidden
	}
	return nil
}

// Board returns the live and archived buckets, with countdowns for live orders.
func (u *AdminOrderUsecase) Board(ctx context.Context, actor Actor) (OrderBoard, error) {
	if err := requireStaff(actor); err != nil {
		return OrderBoard{}, err
	}
	classified, err := u.classify(ctx)
	if err != nil {
		return OrderBoard{}, err
	}

	now := u.clock.Now()
	board := OrderBoard{
		Live:     make([]BoardOrder, 0, len(classified.Live)),
		Archived: make([]BoardOrder, 0, len(classified.Archived)),
	}
	for _, o := range classified.Live {
		cd := FormatCountdown(o.EffectiveDueTime(), now)
		board.Live = append(board.Live, BoardOrder{OrderOutput: toOrderOutput(o), Countdown: &cd})
	}
	for _, o := range classified.Archived {
		board.Archived = append(board.Archived, BoardOrder{OrderOutput: toOrderOutput(o)})
	}
	return board, nil
}

// LiveOrders feeds the countdown ticker.
func (u *AdminOrderUsecase) LiveOrders(ctx context.Context) ([]model.Order, error) {
	classified, err := u.classify(ctx)
	if err != nil {
		return nil, err
	}
	return classified.Live, nil
}

func (u *AdminOrderUsecase) classify(ctx context.Context) (ClassifiedOrders, error) {
	cfg, err := u.settings.Current(ctx)
	if err != nil {
		return ClassifiedOrders{}, err
	}
	orders, err := u.history.Snapshot(ctx)
	if err != nil {
		return ClassifiedOrders{}, err
	}
	return ClassifyOrders(orders, cfg.Archive.AutoArchiveHours, u.clock.Now()), nil
}

// Dismiss moves an order out of the live list right away and then records
// the dismissal. If the write fails the order comes back.
func (u *AdminOrderUsecase) Dismiss(ctx context.Context, actor Actor, orderID string) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	if strings.TrimSpace(orderID) == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	at := u.clock.Now()
	err := Optimistic(ctx,
		func() { u.history.Exclude(orderID, at) },
		func(ctx context.Context) error {
			return u.orders.UpdateOrder(ctx, orderID, repo.OrderPatch{DismissedAt: &at})
		},
		func() { u.history.Include(orderID) },
	)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return classifyRepoError("dismiss order", err)
	}

	u.audit(ctx, actor, model.AuditActionDismissOrder, orderID, nil, map[string]interface{}{"dismissed_at": at})
	return nil
}

// Delete removes an order for good. Only the highest role may do it and the
// caller must echo the order id back as confirmation. The list is refreshed
// only after the store confirms.
func (u *AdminOrderUsecase) Delete(ctx context.Context, actor Actor, orderID string, confirmation string) error {
	if actor.UserID == "" {
		return errUnauthorized
	}
	if !actor.Role.IsHighest() {
		return NewHTTPError(http.StatusForbidden, "only the highest role can delete orders")
	}
	if strings.TrimSpace(orderID) == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if confirmation != orderID {
		return NewValidationError("confirmation does not match the order id")
	}

	before, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return classifyRepoError("find order", err)
	}

	if err := u.orders.DeleteOrder(ctx, orderID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return classifyRepoError("delete order", err)
	}

	u.refreshHistory(ctx, orderID)
	u.audit(ctx, actor, model.AuditActionDeleteOrder, orderID, toOrderOutput(before), nil)
	return nil
}

// CreateManualOrder records a phone or walk-in order. Payment was taken in
// person, so cash limits do not apply.
func (u *AdminOrderUsecase) CreateManualOrder(ctx context.Context, actor Actor, in ManualOrderInput) (OrderOutput, error) {
	if err := requireStaff(actor); err != nil {
		return OrderOutput{}, err
	}
	if err := u.validator.ValidateManualOrder(ctx, in); err != nil {
		return OrderOutput{}, NewValidationError("%s", err.Error())
	}

	cfg, err := u.settings.Current(ctx)
	if err != nil {
		return OrderOutput{}, err
	}
	now := u.clock.Now()
	due, err := resolveDueTime(in, now, cfg.Location())
	if err != nil {
		return OrderOutput{}, err
	}

	items := make([]model.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		mi, err := u.menu.FindByID(ctx, it.MenuItemID)
		if errors.Is(err, repo.ErrNotFound) {
			return OrderOutput{}, NewValidationError("unknown menu item %q", it.MenuItemID)
		}
		if err != nil {
			return OrderOutput{}, classifyRepoError("find menu item", err)
		}
		items = append(items, model.OrderItem{
			MenuItemID:      mi.ID,
			Name:            mi.Name,
			Quantity:        it.Quantity,
			PriceAtOrder:    mi.Price,
			SelectedOptions: model.StringList(append([]string{}, it.Options...)),
		})
	}

	order, err := u.writer.write(ctx, model.Order{
		CustomerName:  strings.TrimSpace(in.CustomerName),
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPaid,
		PaymentMethod: model.PaymentMethodManual,
		DueTime:       &due,
	}, items)
	if err != nil {
		return OrderOutput{}, err
	}

	out := toOrderOutput(order)
	u.refreshHistory(ctx, order.ID)
	u.audit(ctx, actor, model.AuditActionCreateManualOrder, order.ID, nil, out)
	return out, nil
}

// resolveDueTime turns a preset offset or an "HH:MM" time of day into an
// absolute time. A time of day already past today means tomorrow.
func resolveDueTime(in ManualOrderInput, now time.Time, loc *time.Location) (time.Time, error) {
	if in.DuePreset != nil {
		return now.Add(time.Duration(*in.DuePreset) * time.Minute), nil
	}

	hm, err := time.Parse("15:04", in.DueAt)
	if err != nil {
		return time.Time{}, NewValidationError("invalid due time %q", in.DueAt)
	}
	local := now.In(loc)
	due := time.Date(local.Year(), local.Month(), local.Day(), hm.Hour(), hm.Minute(), 0, 0, loc)
	if !due.After(local) {
		due = due.AddDate(0, 0, 1)
	}
	return due, nil
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

// UpdateStatus moves an order along pending → preparing → completed, or to
// cancelled from either active state. Same status is a no-op.
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actor Actor, orderID string, in AdminUpdateOrderStatusInput) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	if strings.TrimSpace(orderID) == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if !newStatus.Valid() {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	changed := false
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return classifyRepoError("find order", err)
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			return nil
		}
		// 終端ガード
		if !o.Status.IsActive() {
			return NewHTTPError(http.StatusBadRequest, "cannot change "+string(o.Status)+" order")
		}
		if !canTransition(o.Status, newStatus) {
			return NewHTTPError(http.StatusBadRequest, "cannot change order from "+string(o.Status)+" to "+string(newStatus))
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return classifyRepoError("update order status", err)
		}

		// 監査ログ（UPDATE_ORDER_STATUS）も同じTxで
		entry := model.NewOrderAudit(actor.UserID, model.AuditActionUpdateOrderStatus, orderID, u.clock.Now()).
			WithSnapshots(map[string]model.OrderStatus{"status": o.Status}, map[string]model.OrderStatus{"status": newStatus})
		if err := r.AuditLogs().Create(ctx, entry); err != nil {
			return classifyRepoError("write audit log", err)
		}

		changed = true
		return nil
	})
	if err != nil {
		return err
	}

	if changed {
		u.refreshHistory(ctx, orderID)
	}
	return nil
}

// 書き込みは成功済み。一覧の更新失敗はログだけ
func (u *AdminOrderUsecase) refreshHistory(ctx context.Context, orderID string) {
	u.history.Invalidate()
	if err := u.history.Refresh(ctx); err != nil {
		log.Warn().Err(err).Str("order_id", orderID).Msg("order history refresh failed")
	}
}

func (u *AdminOrderUsecase) audit(ctx context.Context, actor Actor, action model.AuditAction, orderID string, before, after interface{}) {
	entry := model.NewOrderAudit(actor.UserID, action, orderID, u.clock.Now()).WithSnapshots(before, after)
	if err := u.auditRepo.Create(ctx, entry); err != nil {
		log.Warn().Err(err).Str("order_id", orderID).Str("action", string(action)).Msg("audit log failed")
	}
}
