package middleware

import (
	"net/http"

	"mealmates/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// contextに入っているroleがmin以上かどうかを確認します。
func RoleGuard(min model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxUserRoleKey).(model.Role)
			if !ok || role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			if !role.AtLeast(min) {
				return c.JSON(http.StatusForbidden, errorJSON(string(min)+" only"))
			}

			return next(c)
		}
	}
}
