package handler

import (
	"net/http"
	"time"

	"mealmates/internal/config"
	"mealmates/internal/middleware"
	"mealmates/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	carts *usecase.CartUsecase
	uc    *usecase.CheckoutUsecase
}

func NewCheckoutHandler(carts *usecase.CartUsecase, uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{carts: carts, uc: uc}
}

type CashCheckoutRequest struct {
	DueTime *time.Time `json:"due_time"`
}

type PaidCheckoutRequest struct {
	Status          string     `json:"status"`
	PaymentIntentID string     `json:"payment_intent_id"`
	DueTime         *time.Time `json:"due_time"`
}

type CheckoutResponse struct {
	OrderID string `json:"order_id"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/checkout")
	g.Use(middleware.OptionalAuthJWT(cfg))

	g.GET("/eligibility", h.eligibility)
	g.POST("/payment-intent", h.paymentIntent)
	g.POST("/cash", h.submitCash)
	g.POST("/paid", h.submitPaid)
}

func (h *CheckoutHandler) ledger(c echo.Context) (*usecase.CartLedger, error) {
	session, ok := getCartSession(c)
	if !ok {
		return nil, usecase.NewHTTPError(http.StatusBadRequest, "invalid cart session")
	}
	return h.carts.Ledger(c.Request().Context(), session)
}

func (h *CheckoutHandler) eligibility(c echo.Context) error {
	cart, err := h.ledger(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Eligibility(c.Request().Context(), cart)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) paymentIntent(c echo.Context) error {
	cart, err := h.ledger(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.CreatePaymentIntent(c.Request().Context(), cart)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) submitCash(c echo.Context) error {
	cart, err := h.ledger(c)
	if err != nil {
		return writeError(c, err)
	}

	var req CashCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	id, err := h.uc.SubmitCashOrder(c.Request().Context(), cart, usecase.CheckoutInput{
		Identity: getCustomerIdentity(c),
		DueTime:  req.DueTime,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, CheckoutResponse{OrderID: id})
}

// カード決済成功後に呼ばれる。ここで失敗しても自動再送はさせない
func (h *CheckoutHandler) submitPaid(c echo.Context) error {
	var req PaidCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	cart, err := h.ledger(c)
	if err != nil {
		// 支払い済みならカートが読めなくても照合エラーとして返す
		if req.Status == "succeeded" && req.PaymentIntentID != "" {
			err = &usecase.PaymentReconciliationError{PaymentIntentID: req.PaymentIntentID, Err: err}
		}
		return writeError(c, err)
	}

	id, err := h.uc.SubmitPaidOrder(c.Request().Context(), cart, usecase.PaymentConfirmation{
		Status:          req.Status,
		PaymentIntentID: req.PaymentIntentID,
	}, usecase.CheckoutInput{
		Identity: getCustomerIdentity(c),
		DueTime:  req.DueTime,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, CheckoutResponse{OrderID: id})
}
