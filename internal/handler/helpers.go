package handler

import (
	"errors"
	"net/http"
	"strings"

	"mealmates/internal/domain/model"
	"mealmates/internal/middleware"
	"mealmates/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	HeaderCartSession = "X-Cart-Session"
	HeaderGuestName   = "X-Guest-Name"

	CodeValidation            = "validation"
	CodePersistence           = "persistence"
	CodePaymentReconciliation = "payment_reconciliation"
	CodeNetwork               = "network"

	MsgPaymentReconciliation = "Payment worked, but the order could not be saved. Please contact staff."
	MsgPersistence           = "Could not save. Nothing was charged, please try again."
	MsgNetwork               = "Connection problem, please try again."
)

type ErrorResponse struct {
	Error           string `json:"error"`
	Code            string `json:"code,omitempty"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
}

// usecaseのエラーをHTTPに変換する
// 決済済みの保存失敗は他と文言を分ける（再試行させない）
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	var recon *usecase.PaymentReconciliationError
	if errors.As(err, &recon) {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:           MsgPaymentReconciliation,
			Code:            CodePaymentReconciliation,
			PaymentIntentID: recon.PaymentIntentID,
		})
	}

	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	var verr *usecase.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: verr.Message, Code: CodeValidation})
	}

	var nerr *usecase.NetworkError
	if errors.As(err, &nerr) {
		log.Warn().Err(err).Str("path", c.Path()).Msg("storage unavailable")
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: MsgNetwork, Code: CodeNetwork})
	}

	var perr *usecase.PersistenceError
	if errors.As(err, &perr) {
		log.Error().Err(err).Str("path", c.Path()).Msg("persistence failed")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: MsgPersistence, Code: CodePersistence})
	}

	//500
	log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func getUserIDFromContext(c echo.Context) (string, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

func getActorFromContext(c echo.Context) (usecase.Actor, bool) {
	id, ok := getUserIDFromContext(c)
	if !ok {
		return usecase.Actor{}, false
	}
	role, _ := c.Get(middleware.CtxUserRoleKey).(model.Role)
	return usecase.Actor{UserID: id, Role: role}, true
}

// カートのセッションIDはUUIDのみ受け付ける
func getCartSession(c echo.Context) (string, bool) {
	raw := strings.TrimSpace(c.Request().Header.Get(HeaderCartSession))
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// ログインしていればユーザー、していなければゲスト名
func getCustomerIdentity(c echo.Context) usecase.CustomerIdentity {
	ident := usecase.CustomerIdentity{
		DisplayName: strings.TrimSpace(c.Request().Header.Get(HeaderGuestName)),
	}
	if id, ok := getUserIDFromContext(c); ok {
		ident.UserID = &id
		if name, ok := c.Get(middleware.CtxUserNameKey).(string); ok && name != "" {
			ident.DisplayName = name
		}
	}
	return ident
}
