package identity

import (
	"net/http"
	"strconv"

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

// RegisterRoutes wires the public auth endpoints and the authenticated
// identity surface. public carries no auth middleware.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.POST("/auth/register", h.Register)
	public.POST("/auth/login", h.Login)

	api.GET("/auth/me", h.Me)
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/:doctorId", h.GetDoctor)

	doctor := api.Group("", auth.RequireRole(auth.RoleDoctor))
	doctor.PUT("/doctor/profile", h.UpdateDoctorProfile)
	doctor.GET("/doctor/patients", h.ListPatients)
	doctor.GET("/doctor/patients/:patientId/summary", h.PatientSummary)

	patient := api.Group("", auth.RequireRole(auth.RolePatient))
	patient.POST("/subscription/upgrade", h.Upgrade)
	patient.POST("/subscription/cancel", h.CancelSubscription)

	admin := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/users", h.ListUsers)
	admin.PUT("/users/:userId/premium", h.SetPremium)
	admin.PUT("/users/:userId/assign-doctor", h.AssignDoctor)
	admin.PUT("/users/:userId/active", h.SetActive)
	admin.PUT("/doctors/:doctorId/verify", h.VerifyDoctor)
	admin.GET("/stats", h.Stats)
}

type authResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, token, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, authResponse{Token: token, User: u})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, token, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, authResponse{Token: token, User: u})
}

func (h *Handler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	u, err := h.svc.Me(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	f := DoctorFilter{Specialization: c.QueryParam("specialization")}
	if v := c.QueryParam("verified"); v != "" {
		verified := v == "true"
		f.Verified = &verified
	}

	doctors, err := h.svc.ListDoctors(c.Request().Context(), f)
	if err != nil {
		return httperr.HTTP(err)
	}
	if doctors == nil {
		doctors = []*User{}
	}
	return c.JSON(http.StatusOK, doctors)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}

	u, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) UpdateDoctorProfile(c echo.Context) error {
	var req DoctorProfileUpdate
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	u, err := h.svc.UpdateDoctorProfile(ctx, auth.UserIDFromContext(ctx), req)
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ListPatients(c echo.Context) error {
	ctx := c.Request().Context()
	patients, err := h.svc.ListPatients(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return httperr.HTTP(err)
	}
	if patients == nil {
		patients = []*User{}
	}
	return c.JSON(http.StatusOK, patients)
}

func (h *Handler) PatientSummary(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	ctx := c.Request().Context()
	sum, err := h.svc.Summary(ctx, auth.UserIDFromContext(ctx), patientID)
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, sum)
}

type upgradeRequest struct {
	Plan SubscriptionPlan `json:"plan"`
}

func (h *Handler) Upgrade(c echo.Context) error {
	var req upgradeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	u, err := h.svc.Upgrade(ctx, auth.UserIDFromContext(ctx), req.Plan)
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) CancelSubscription(c echo.Context) error {
	ctx := c.Request().Context()
	u, err := h.svc.CancelSubscription(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ListUsers(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := UserFilter{Role: c.QueryParam("role"), Limit: pg.Limit, Offset: pg.Offset}
	if v := c.QueryParam("is_premium"); v != "" {
		premium := v == "true"
		f.IsPremium = &premium
	}

	users, total, err := h.svc.ListUsers(c.Request().Context(), f)
	if err != nil {
		return httperr.HTTP(err)
	}
	if users == nil {
		users = []*User{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, total, pg.Limit, pg.Offset))
}

type premiumRequest struct {
	IsPremium    bool   `json:"is_premium"`
	DurationDays int    `json:"duration_days"`
	Duration     string `json:"premium_duration"`
}

func (h *Handler) SetPremium(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	var req premiumRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	days := req.DurationDays
	if days == 0 && req.Duration != "" {
		days, _ = strconv.Atoi(req.Duration)
	}

	u, err := h.svc.SetPremium(c.Request().Context(), userID, req.IsPremium, days)
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, u)
}

type assignDoctorRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
}

func (h *Handler) AssignDoctor(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	var req assignDoctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := h.svc.AssignDoctor(c.Request().Context(), userID, req.DoctorID)
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, u)
}

type activeRequest struct {
	IsActive bool `json:"is_active"`
}

func (h *Handler) SetActive(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	var req activeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := h.svc.SetActive(c.Request().Context(), userID, req.IsActive)
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, u)
}

type verifyRequest struct {
	IsVerified bool `json:"is_verified"`
}

func (h *Handler) VerifyDoctor(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}

	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := h.svc.VerifyDoctor(c.Request().Context(), doctorID, req.IsVerified)
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return httperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, stats)
}
