package handler

import (
	"net/http"
	"strconv"

	"mealmates/internal/config"
	"mealmates/internal/middleware"
	"mealmates/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 会員の注文トラッキング
// ゲスト注文は user_id を持たないのでここには出てこない
type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	mine := e.Group("/orders", middleware.AuthJWT(cfg))
	mine.GET("", h.listMine)
	mine.GET("/:id", h.showMine)
}

// GET /orders?active=true&limit=20
func (h *OrderHandler) listMine(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	q := usecase.MyOrdersQuery{}
	if raw := c.QueryParam("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid active", Code: CodeValidation})
		}
		q.ActiveOnly = active
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit", Code: CodeValidation})
	}
	q.Limit = limit

	orders, err := h.uc.ListMyOrders(c.Request().Context(), actor.UserID, q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) showMine(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	order, err := h.uc.GetMyOrderDetail(c.Request().Context(), actor.UserID, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}
