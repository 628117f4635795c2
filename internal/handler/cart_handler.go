package handler

import (
	"net/http"

	"mealmates/internal/config"
	"mealmates/internal/middleware"
	"mealmates/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP。カートはX-Cart-Sessionヘッダーで識別する
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	MenuItemID string   `json:"menu_item_id"`
	Options    []string `json:"options"`
}

// line_idは「item|opt1,opt2」形式なのでパスではなくbodyで受け取る
type UpdateCartLineRequest struct {
	LineID   string `json:"line_id"`
	Quantity int    `json:"quantity"`
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/cart", middleware.OptionalAuthJWT(cfg), requireCartSession)

	g.GET("", h.getCart)
	g.DELETE("", h.clear)
	g.POST("/items", h.addItem)
	g.PATCH("/items", h.updateLine)
	g.DELETE("/items", h.removeLine)
	g.POST("/reorder/:orderId", h.reorder, middleware.AuthJWT(cfg))
}

func (h *CartHandler) getCart(c echo.Context) error {
	session := cartSessionOf(c)

	out, err := h.uc.GetCart(c.Request().Context(), session)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addItem(c echo.Context) error {
	session := cartSessionOf(c)

	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AddItem(c.Request().Context(), session, usecase.AddCartInput{
		MenuItemID: req.MenuItemID,
		Options:    req.Options,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) updateLine(c echo.Context) error {
	session := cartSessionOf(c)

	var req UpdateCartLineRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateQuantity(c.Request().Context(), session, req.LineID, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) removeLine(c echo.Context) error {
	session := cartSessionOf(c)

	lineID := c.QueryParam("line_id")
	if lineID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid line_id"})
	}

	out, err := h.uc.RemoveItem(c.Request().Context(), session, lineID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) clear(c echo.Context) error {
	session := cartSessionOf(c)

	out, err := h.uc.Clear(c.Request().Context(), session)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) reorder(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	session := cartSessionOf(c)

	out, err := h.uc.Reorder(c.Request().Context(), session, userID, c.Param("orderId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

const ctxCartSessionKey = "cart_session"

// セッションIDが無い/不正なリクエストはハンドラまで来ない
func requireCartSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, ok := getCartSession(c)
		if !ok {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid cart session", Code: CodeValidation})
		}
		c.Set(ctxCartSessionKey, session)
		return next(c)
	}
}

func cartSessionOf(c echo.Context) string {
	s, _ := c.Get(ctxCartSessionKey).(string)
	return s
}
