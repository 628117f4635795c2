package handler

import (
	"io"
	"net/http"

	"mealmates/internal/config"
	"mealmates/internal/domain/model"
	"mealmates/internal/middleware"
	"mealmates/internal/settings"
	"mealmates/internal/usecase"

	"github.com/labstack/echo/v4"
)

type SettingsHandler struct {
	svc *usecase.SettingsService
}

func NewSettingsHandler(svc *usecase.SettingsService) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

func (h *SettingsHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	e.GET("/settings", h.get)

	admin := e.Group("/admin/settings")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.RoleGuard(model.RoleOwner))
	admin.PUT("", h.put)
}

func (h *SettingsHandler) get(c echo.Context) error {
	out, err := h.svc.Current(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 送られてこなかった項目はデフォルトになる
func (h *SettingsHandler) put(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	next, err := settings.Parse(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeValidation})
	}

	out, err := h.svc.Save(c.Request().Context(), actor, next)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
