// Package server assembles the patient API: middleware, auth and routes.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ehr/patientor/internal/config"
	"github.com/ehr/patientor/internal/domain/diagnosis"
	"github.com/ehr/patientor/internal/domain/patient"
	"github.com/ehr/patientor/internal/platform/auth"
	"github.com/ehr/patientor/internal/platform/db"
	"github.com/ehr/patientor/internal/platform/middleware"
	"github.com/ehr/patientor/internal/platform/phi"
	"github.com/ehr/patientor/internal/seed"
)

const version = "0.1.0"

type Deps struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Pool      *pgxpool.Pool // nil when running on memory repositories
	Patients  *patient.Service
	Diagnoses *diagnosis.Service
	Audit     []middleware.AuditRecorder
}

// NewDeps builds the services over PostgreSQL when pool is set, otherwise
// over in-memory repositories.
func NewDeps(cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool) (Deps, error) {
	var (
		patients  patient.Repository
		diagnoses diagnosis.Repository
	)
	if pool != nil {
		var opts []patient.RepoOption
		if cfg.PHIEncryptionKey != "" {
			key, err := phi.ParseKey(cfg.PHIEncryptionKey)
			if err != nil {
				return Deps{}, err
			}
			c, err := phi.NewCipher(key)
			if err != nil {
				return Deps{}, err
			}
			opts = append(opts, patient.WithSSNCipher(c))
			logger.Info().Msg("ssn encryption at rest enabled")
		}
		patients = patient.NewRepoPG(pool, opts...)
		diagnoses = diagnosis.NewRepoPG(pool)
	} else {
		patients = patient.NewMemoryRepo()
		diagnoses = diagnosis.NewMemoryRepo()
	}
	return Deps{
		Config:    cfg,
		Logger:    logger,
		Pool:      pool,
		Patients:  patient.NewService(patients),
		Diagnoses: diagnosis.NewService(diagnoses),
	}, nil
}

// Seed loads the demo data into the services of d.
func (d Deps) Seed(ctx context.Context) error {
	n, err := seed.Load(ctx, d.Diagnoses, d.Patients)
	if err != nil {
		return fmt.Errorf("seed data: %w", err)
	}
	d.Logger.Info().
		Int("diagnoses", n.Diagnoses).
		Int("patients", n.Patients).
		Int("entries", n.Entries).
		Msg("seed data loaded")
	return nil
}

func New(d Deps) *echo.Echo {
	cfg := d.Config

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(d.Logger)

	e.Use(middleware.Recovery(d.Logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(d.Logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))

	if cfg.AuthSecret == "" {
		d.Logger.Warn().Msg("AUTH_SECRET not set: every request is granted admin access")
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			SigningKey: []byte(cfg.AuthSecret),
			Issuer:     cfg.AuthIssuer,
			Skipper:    auth.AuthSkipper,
		}))
	}

	e.Use(middleware.Audit(d.Logger, d.Audit...))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(d.Pool))

	api := e.Group("/api")
	api.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})
	patient.NewHandler(d.Patients).RegisterRoutes(api)
	diagnosis.NewHandler(d.Diagnoses).RegisterRoutes(api)

	return e
}
