package server

import (
	"net/http"

	"mealmates/internal/config"
	"mealmates/internal/handler"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Cart       *handler.CartHandler
	Checkout   *handler.CheckoutHandler
	Orders     *handler.OrderHandler
	AdminOrder *handler.AdminOrderHandler
	Settings   *handler.SettingsHandler
	Logistics  *handler.LogisticsHandler
	AuditLogs  *handler.AuditLogHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	h.Cart.RegisterRoutes(e, cfg)
	h.Checkout.RegisterRoutes(e, cfg)
	h.Orders.RegisterRoutes(e, cfg)
	h.AdminOrder.RegisterRoutes(e, cfg)
	h.Settings.RegisterRoutes(e, cfg)
	h.Logistics.RegisterRoutes(e)
	h.AuditLogs.RegisterRoutes(e, cfg)
}
