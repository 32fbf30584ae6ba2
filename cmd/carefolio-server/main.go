package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carefolio/api/internal/config"
	"github.com/carefolio/api/internal/domain/consultation"
	"github.com/carefolio/api/internal/domain/identity"
	"github.com/carefolio/api/internal/domain/plan"
	"github.com/carefolio/api/internal/domain/profile"
	"github.com/carefolio/api/internal/domain/progress"
	"github.com/carefolio/api/internal/domain/triage"
	"github.com/carefolio/api/internal/platform/auth"
	"github.com/carefolio/api/internal/platform/db"
	"github.com/carefolio/api/internal/platform/httperr"
	"github.com/carefolio/api/internal/platform/middleware"
	"github.com/carefolio/api/internal/platform/notify"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "carefolio-server",
		Short: "Carefolio care-coordination API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	// Route groups: public carries no auth, api requires a bearer token.
	public := e.Group("/api")
	public.Use(middleware.RateLimit(rateLimitCfg))

	api := e.Group("/api")
	if cfg.IsDev() {
		api.Use(auth.DevMiddleware([]byte(cfg.JWTSecret)))
	} else {
		api.Use(auth.Middleware([]byte(cfg.JWTSecret)))
	}
	api.Use(middleware.RateLimit(rateLimitCfg))

	// Repositories
	userRepo := identity.NewRepoPG(pool)
	profileRepo := profile.NewRepoPG(pool)
	triageRepo := triage.NewRepoPG(pool)
	planRepo := plan.NewRepoPG(pool)
	progressRepo := progress.NewRepoPG(pool)
	consultationRepo := consultation.NewRepoPG(pool)
	notifyRepo := notify.NewRepoPG(pool)

	// Services
	notifySvc := notify.NewService(notifyRepo, logger)
	profileSvc := profile.NewService(profileRepo, notifySvc)
	progressSvc := progress.NewService(progressRepo, notifySvc)
	triageSvc := triage.NewService(triageRepo, &profileMerger{profiles: profileSvc}, notifySvc)

	// identity and plan reference each other (assignment checks one way,
	// the patient summary the other), so the records aggregate is completed
	// after both services exist.
	records := &clinicalRecords{profiles: profileSvc, progress: progressSvc, consultations: consultationRepo}
	identitySvc := identity.NewService(userRepo, records, notifySvc, []byte(cfg.JWTSecret))

	predictor := plan.NewHTTPPredictor(cfg.MealPredictorURL, cfg.ExercisePredictorURL, cfg.PredictorTimeout)
	planSvc := plan.NewService(planRepo, predictor, identitySvc, &profileMerger{profiles: profileSvc}, notifySvc, logger)
	records.plans = planSvc

	consultationSvc := consultation.NewService(consultationRepo, identitySvc, identitySvc, identitySvc, notifySvc)

	// Handlers
	identity.NewHandler(identitySvc).RegisterRoutes(public, api)
	profile.NewHandler(profileSvc).RegisterRoutes(api)
	progress.NewHandler(progressSvc).RegisterRoutes(api)
	triage.NewHandler(triageSvc).RegisterRoutes(api)
	plan.NewHandler(planSvc).RegisterRoutes(api)
	consultation.NewHandler(consultationSvc).RegisterRoutes(api)
	notify.NewHandler(notifySvc).RegisterRoutes(api)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// profileMerger adapts the profile service for the triage and plan domains:
// triage submissions merge into the profile, and doctor-authored plans
// snapshot the profile's attributes.
type profileMerger struct {
	profiles *profile.Service
}

func (a *profileMerger) MergeTriageInputs(ctx context.Context, userID uuid.UUID, in triage.Inputs) error {
	u := profile.Update{
		Age:      in.Age,
		HeightCM: in.HeightCM,
		WeightKG: in.WeightKG,
		BMI:      in.BMI,
	}
	if in.Conditions != nil {
		conditions := in.Conditions
		u.Conditions = &conditions
	}
	return a.profiles.MergeAttributes(ctx, userID, u)
}

func (a *profileMerger) Snapshot(ctx context.Context, userID uuid.UUID) (json.RawMessage, error) {
	p, err := a.profiles.Get(ctx, userID)
	if httperr.IsKind(err, httperr.KindNotFound) {
		return json.RawMessage(`{}`), nil
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Age        *int     `json:"age,omitempty"`
		HeightCM   *float64 `json:"height_cm,omitempty"`
		WeightKG   *float64 `json:"weight_kg,omitempty"`
		Conditions []string `json:"conditions,omitempty"`
	}{p.Age, p.HeightCM, p.WeightKG, p.Conditions})
}

// clinicalRecords aggregates the clinical domains behind the
// identity.ClinicalRecords interface for the doctor's patient summary.
type clinicalRecords struct {
	profiles      *profile.Service
	progress      *progress.Service
	plans         *plan.Service
	consultations consultation.Repository
}

func (a *clinicalRecords) ProfileOf(ctx context.Context, userID uuid.UUID) (any, error) {
	p, err := a.profiles.Get(ctx, userID)
	if httperr.IsKind(err, httperr.KindNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (a *clinicalRecords) RecentVitals(ctx context.Context, userID uuid.UUID, limit int) (any, error) {
	vitals, err := a.profiles.ListVitals(ctx, userID, profile.VitalsQuery{Limit: limit})
	if err != nil {
		return nil, err
	}
	// Newest first for the summary view.
	for i, j := 0, len(vitals)-1; i < j; i, j = i+1, j-1 {
		vitals[i], vitals[j] = vitals[j], vitals[i]
	}
	return vitals, nil
}

func (a *clinicalRecords) RecentProgress(ctx context.Context, userID uuid.UUID, limit int) (any, error) {
	return a.progress.Recent(ctx, userID, limit)
}

func (a *clinicalRecords) ActivePlan(ctx context.Context, userID uuid.UUID, variant string) (any, error) {
	p, err := a.plans.Active(ctx, userID, plan.Variant(variant))
	if httperr.IsKind(err, httperr.KindNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (a *clinicalRecords) RecentConsultations(ctx context.Context, doctorID, patientID uuid.UUID, limit int) (any, error) {
	return a.consultations.ListBetween(ctx, doctorID, patientID, limit)
}
