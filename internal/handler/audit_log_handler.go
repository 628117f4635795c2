package handler

import (
	"net/http"
	"strconv"

	"mealmates/internal/config"
	"mealmates/internal/domain/model"
	"mealmates/internal/middleware"
	repo "mealmates/internal/repository"
	"mealmates/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuditLogHandler struct {
	uc *usecase.AuditLogUsecase
}

func NewAuditLogHandler(uc *usecase.AuditLogUsecase) *AuditLogHandler {
	return &AuditLogHandler{uc: uc}
}

func (h *AuditLogHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/admin/audit-logs")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.RoleGuard(model.RoleOwner))
	g.GET("", h.list)
}

// ?resource_id=&action=&limit=&offset=
func (h *AuditLogHandler) list(c echo.Context) error {
	actor, ok := getActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var f repo.AuditLogFilter
	if v := c.QueryParam("resource_id"); v != "" {
		f.ResourceID = &v
	}
	if v := c.QueryParam("action"); v != "" {
		a := model.AuditAction(v)
		if !a.Valid() {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown action", Code: CodeValidation})
		}
		f.Action = &a
	}
	var err error
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}
	if f.Offset, err = queryInt(c, "offset"); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset"})
	}

	logs, err := h.uc.List(c.Request().Context(), actor, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, logs)
}

func queryInt(c echo.Context, key string) (int, error) {
	v := c.QueryParam(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
