package consultation

import (
	"net/http"

	"github.com/google/uuid"
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
	api.POST("/consultation/request", h.Request, auth.RequireRole(auth.RolePatient))
	api.GET("/consultation/my", h.ListMine)
	api.GET("/consultation/:consultationId", h.Get)

	api.PUT("/consultation/:consultationId/status", h.UpdateStatus, auth.RequireRole(auth.RoleDoctor))
	api.PUT("/consultation/:consultationId/notes", h.AddNotes, auth.RequireRole(auth.RoleDoctor))
	api.PUT("/consultation/:consultationId/rate", h.Rate, auth.RequireRole(auth.RolePatient))
}

func (h *Handler) Request(c echo.Context) error {
	var req RequestInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	cons, err := h.svc.Request(ctx, auth.UserIDFromContext(ctx), req)
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, cons)
}

func (h *Handler) ListMine(c echo.Context) error {
	ctx := c.Request().Context()
	pg := pagination.FromContext(c)
	f := Filter{
		Status: Status(c.QueryParam("status")),
		Limit:  pg.Limit,
		Offset: pg.Offset,
	}

	items, total, err := h.svc.ListMine(ctx, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx), f)
	if err != nil {
		return httperr.HTTP(err)
	}
	if items == nil {
		items = []*Consultation{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("consultationId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consultation id")
	}

	ctx := c.Request().Context()
	cons, err := h.svc.Get(ctx, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx), id)
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, cons)
}

type statusRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("consultationId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consultation id")
	}

	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	cons, err := h.svc.UpdateStatus(ctx, auth.UserIDFromContext(ctx), id, req.Status)
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) AddNotes(c echo.Context) error {
	id, err := uuid.Parse(c.Param("consultationId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consultation id")
	}

	var req NotesInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	cons, err := h.svc.AddNotes(ctx, auth.UserIDFromContext(ctx), id, req)
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, cons)
}

type rateRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

func (h *Handler) Rate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("consultationId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consultation id")
	}

	var req rateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	cons, err := h.svc.Rate(ctx, auth.UserIDFromContext(ctx), id, req.Rating, req.Feedback)
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, cons)
}
