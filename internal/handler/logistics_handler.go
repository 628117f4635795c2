package handler

import (
	"net/http"
	"strconv"

	"mealmates/internal/usecase"

	"github.com/labstack/echo/v4"
)

type LogisticsHandler struct {
	uc *usecase.LogisticsUsecase
}

func NewLogisticsHandler(uc *usecase.LogisticsUsecase) *LogisticsHandler {
	return &LogisticsHandler{uc: uc}
}

func (h *LogisticsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/logistics/delivery-quote", h.deliveryQuote)
	e.GET("/logistics/store-status", h.storeStatus)
}

func (h *LogisticsHandler) deliveryQuote(c echo.Context) error {
	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid lat"})
	}
	lng, err := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid lng"})
	}

	out, err := h.uc.QuoteDelivery(c.Request().Context(), lat, lng)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LogisticsHandler) storeStatus(c echo.Context) error {
	out, err := h.uc.StoreStatus(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
