package plan

import (
	"encoding/json"
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
	api.POST("/meal-plan/generate", h.generate(VariantMeal))
	api.GET("/meal-plan/active", h.active(VariantMeal))
	api.GET("/meal-plan/history", h.history(VariantMeal))

	api.POST("/exercise-plan/generate", h.generate(VariantExercise))
	api.GET("/exercise-plan/active", h.active(VariantExercise))
	api.GET("/exercise-plan/history", h.history(VariantExercise))

	doctor := api.Group("", auth.RequireRole(auth.RoleDoctor))
	doctor.POST("/doctor/patients/:patientId/plans/:variant", h.CreateByDoctor)
}

type generateRequest struct {
	InputParams json.RawMessage `json:"input_params"`
}

func (h *Handler) generate(variant Variant) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req generateRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if len(req.InputParams) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "input parameters required")
		}

		ctx := c.Request().Context()
		p, err := h.svc.Generate(ctx, auth.UserIDFromContext(ctx), variant, req.InputParams)
		if err != nil {
			return httperr.HTTP(err)
		}
		return c.JSON(http.StatusCreated, p)
	}
}

func (h *Handler) active(variant Variant) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		p, err := h.svc.Active(ctx, auth.UserIDFromContext(ctx), variant)
		if err != nil {
			return httperr.HTTP(err)
		}
		return c.JSON(http.StatusOK, p)
	}
}

func (h *Handler) history(variant Variant) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		pg := pagination.FromContext(c)
		items, total, err := h.svc.History(ctx, auth.UserIDFromContext(ctx), variant, pg.Limit, pg.Offset)
		if err != nil {
			return httperr.HTTP(err)
		}
		if items == nil {
			items = []*Plan{}
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}
}

type doctorPlanRequest struct {
	Plan json.RawMessage `json:"plan"`
}

func (h *Handler) CreateByDoctor(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	variant := Variant(c.Param("variant"))

	var req doctorPlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Plan) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "plan body required")
	}

	ctx := c.Request().Context()
	p, err := h.svc.CreateByDoctor(ctx, auth.UserIDFromContext(ctx), patientID, variant, req.Plan)
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, p)
}
