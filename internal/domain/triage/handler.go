package triage

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carefolio/api/internal/platform/auth"
	"github.com/carefolio/api/internal/platform/httperr"
	"github.com/carefolio/api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/triage", h.Submit)
	api.GET("/triage/latest", h.Latest)
	api.GET("/triage/history", h.History)
}

type submitRequest struct {
	InputData *Inputs `json:"input_data"`
}

func (h *Handler) Submit(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.InputData == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "input data required")
	}

	ctx := c.Request().Context()
	rec, err := h.svc.Submit(ctx, auth.UserIDFromContext(ctx), *req.InputData)
	if err != nil {
		return httperr.HTTP(err)
	}

	message := "Wellness pathway assigned. Follow your personalized plan."
	if rec.RequiresDoctor {
		message = "Expert pathway recommended. Please consult with a doctor."
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"triage":  rec,
		"message": message,
	})
}

func (h *Handler) Latest(c echo.Context) error {
	ctx := c.Request().Context()
	rec, err := h.svc.Latest(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) History(c echo.Context) error {
	ctx := c.Request().Context()
	p := pagination.FromContext(c)
	items, total, err := h.svc.History(ctx, auth.UserIDFromContext(ctx), p.Limit, p.Offset)
	if err != nil {
		return httperr.HTTP(err)
	}
	if items == nil {
		items = []*Record{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}
