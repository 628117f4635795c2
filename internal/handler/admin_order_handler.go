package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"mealmates/internal/config"
	"mealmates/internal/domain/model"
	"mealmates/internal/middleware"
	"mealmates/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc      *usecase.AdminOrderUsecase
	tickers *usecase.LiveTickerRegistry
	views   *usecase.OrderViewTracker
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase, tickers *usecase.LiveTickerRegistry, views *usecase.OrderViewTracker) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc, tickers: tickers, views: views}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.RoleGuard(model.RoleManager))

	admin.GET("/orders", h.board)
	admin.GET("/orders/live/stream", h.liveStream)
	admin.POST("/orders/manual", h.createManual)
	admin.POST("/orders/:id/dismiss", h.dismiss)
	admin.PUT("/orders/:id/status", h.updateStatus)
	// 確認としてURLのidと同じ値を?confirm=で送る
	admin.DELETE("/orders/:id", h.delete)
}

func (h *AdminOrderHandler) board(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.Board(c.Request().Context(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) dismiss(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.Dismiss(c.Request().Context(), actor, c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminOrderHandler) delete(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.Delete(c.Request().Context(), actor, c.Param("id"), c.QueryParam("confirm")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminOrderHandler) createManual(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req usecase.ManualOrderInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.CreateManualOrder(c.Request().Context(), actor, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.UpdateStatus(c.Request().Context(), actor, c.Param("id"), usecase.AdminUpdateOrderStatusInput{
		Status: req.Status,
	}); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// liveStream はSSEで残り時間だけを送り続ける。接続している間が「一覧を見ている」状態
func (h *AdminOrderHandler) liveStream(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	leave := h.views.Enter()
	defer leave()

	ctx := c.Request().Context()
	done := h.tickers.Start(ctx, actor.UserID, &sseSink{res: res})

	select {
	case <-ctx.Done():
		// 書き込み中のtickが終わるのを待ってから返す
		<-done
	case <-done:
	}
	return nil
}

type sseSink struct {
	res *echo.Response
}

func (s *sseSink) PushCountdowns(ctx context.Context, updates []usecase.CountdownUpdate) error {
	b, err := json.Marshal(updates)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.res, "event: countdown\ndata: %s\n\n", b); err != nil {
		return err
	}
	s.res.Flush()
	return nil
}
