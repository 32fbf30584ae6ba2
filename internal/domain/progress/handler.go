package progress

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/carefolio/api/internal/platform/auth"
	"github.com/carefolio/api/internal/platform/httperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/progress", h.Create)
	api.GET("/progress", h.List)
	api.GET("/progress/stats", h.GetStats)
}

func (h *Handler) Create(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	l, err := h.svc.Create(ctx, auth.UserIDFromContext(ctx), in)
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()

	var q Query
	if s := c.QueryParam("start_date"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid start_date")
		}
		q.From = t
	}
	if s := c.QueryParam("end_date"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid end_date")
		}
		q.To = t
	}
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		q.Limit = n
	}

	items, err := h.svc.List(ctx, auth.UserIDFromContext(ctx), q)
	if err != nil {
		return httperr.HTTP(err)
	}
	if items == nil {
		items = []*Log{}
	}
	return c.JSON(http.StatusOK, map[string]any{"logs": items, "count": len(items)})
}

func (h *Handler) GetStats(c echo.Context) error {
	ctx := c.Request().Context()

	days := 0
	if s := c.QueryParam("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid days")
		}
		days = n
	}
	if days == 0 {
		days = defaultStatsDays
	}

	st, err := h.svc.Stats(ctx, auth.UserIDFromContext(ctx), days)
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"stats":  st,
		"period": fmt.Sprintf("%d days", days),
	})
}
