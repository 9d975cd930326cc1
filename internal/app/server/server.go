package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"peopleguard/internal/domain/audit"
	"peopleguard/internal/domain/auth"
	"peopleguard/internal/domain/cases"
	"peopleguard/internal/domain/dashboard"
	"peopleguard/internal/domain/employees"
	"peopleguard/internal/domain/leave"
	"peopleguard/internal/domain/letters"
	"peopleguard/internal/domain/notifications"
	"peopleguard/internal/domain/qr"
	"peopleguard/internal/platform/config"
	cryptoutil "peopleguard/internal/platform/crypto"
	"peopleguard/internal/platform/db"
	"peopleguard/internal/platform/email"
	"peopleguard/internal/platform/jobs"
	"peopleguard/internal/platform/metrics"
	"peopleguard/internal/platform/storage"
	"peopleguard/internal/requestctx"
	"peopleguard/internal/transport/http/api"
	audithandler "peopleguard/internal/transport/http/handlers/audit"
	authhandler "peopleguard/internal/transport/http/handlers/auth"
	casehandler "peopleguard/internal/transport/http/handlers/cases"
	dashboardhandler "peopleguard/internal/transport/http/handlers/dashboard"
	employeehandler "peopleguard/internal/transport/http/handlers/employees"
	filehandler "peopleguard/internal/transport/http/handlers/files"
	leavehandler "peopleguard/internal/transport/http/handlers/leave"
	letterhandler "peopleguard/internal/transport/http/handlers/letters"
	notificationshandler "peopleguard/internal/transport/http/handlers/notifications"
	qrhandler "peopleguard/internal/transport/http/handlers/qr"
	"peopleguard/internal/transport/http/middleware"
)

const (
	devJWTSecret         = "peopleguard-dev-secret"
	refreshPurgeInterval = 6 * time.Hour
	permissionCacheTTL   = 30 * time.Second
	shutdownTimeout      = 15 * time.Second
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector
}

// New connects to the database, applies migrations and seed data when
// enabled, and assembles the application.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}
	app, err := Build(cfg, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return app, nil
}

// Build wires services, handlers and background jobs on an open pool.
func Build(cfg config.Config, pool *pgxpool.Pool) (*App, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		slog.Warn("JWT_SECRET not set, using development secret")
		secret = devJWTSecret
	}
	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, err
	}
	collector := metrics.New()
	files := storage.New(cfg.StorageRoot, cfg.MaxUploadBytes, crypto)

	notifier := notifications.New(notifications.NewStore(pool), email.New(cfg), cfg.EmailFrom)
	auditSvc := audit.New(audit.NewStore(pool), cfg.AuditExportMaxRows, collector)
	authSvc := auth.NewService(auth.NewStore(pool), crypto, secret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	employeeSvc := employees.NewService(employees.NewStore(pool))
	caseSvc := cases.NewService(cases.NewStore(pool), files, notifier, collector)
	letterSvc := letters.NewService(letters.NewStore(pool), files, cfg.WarningLetterDir)
	leaveSvc := leave.NewService(leave.NewStore(pool), auditSvc, notifier)
	qrSvc := qr.NewService(qr.NewStore(pool), files, notifier, authSvc, cfg.QRPublicBaseURL, cfg.QRTokenTTL, cfg.QRAllowAnonymous)
	dashboardSvc := dashboard.NewService(dashboard.NewStore(pool))
	perms := middleware.NewPermissionCache(authSvc, permissionCacheTTL)
	idem := middleware.NewIdempotencyStore(pool)

	jobsSvc := jobs.New(pool, collector)
	registerJobs(jobsSvc, cfg, auditSvc, qrSvc, authSvc, idem)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	if cfg.MetricsEnabled {
		router.Use(collector.Instrument)
	}
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes, cfg.MaxUploadBytes))
	router.Use(middleware.Auth(secret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.Audit(auditSvc))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if cfg.MetricsEnabled {
		router.Method(http.MethodGet, "/metrics", collector.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authSvc, perms, auditSvc, cfg.RefreshCookieName, cfg.CookieSecure).RegisterRoutes(r)
		employeehandler.NewHandler(employeeSvc, perms).RegisterRoutes(r)
		casehandler.NewHandler(caseSvc, letterSvc, perms).RegisterRoutes(r)
		letterhandler.NewHandler(letterSvc, perms).RegisterRoutes(r)
		leavehandler.NewHandler(leaveSvc, perms).RegisterRoutes(r)
		qrhandler.NewHandler(qrSvc, perms, idem).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc, perms, cfg.AuditRetentionDays).RegisterRoutes(r)
		dashboardhandler.NewHandler(dashboardSvc, perms).RegisterRoutes(r)
		notificationshandler.NewHandler(notifier).RegisterRoutes(r)
		filehandler.NewHandler(files).RegisterRoutes(r)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", middleware.GetRequestID(r.Context()))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", middleware.GetRequestID(r.Context()))
	})

	return &App{Config: cfg, DB: pool, Router: router, Jobs: jobsSvc, Metrics: collector}, nil
}

func registerJobs(j *jobs.Service, cfg config.Config, auditSvc *audit.Service, qrSvc *qr.Service, authSvc *auth.Service, idem *middleware.IdempotencyStore) {
	system := audit.Actor{UserName: "System", Endpoint: "job", Method: "JOB"}
	j.Every(jobs.JobAuditRetention, cfg.AuditCleanupInterval, func(ctx context.Context) (any, error) {
		actor := system
		actor.RequestID = requestctx.GetRequestID(ctx)
		deleted, err := auditSvc.Cleanup(ctx, cfg.AuditRetentionDays, actor)
		return map[string]any{"deleted": deleted, "retentionDays": cfg.AuditRetentionDays}, err
	})
	j.Every(jobs.JobQRExpiry, cfg.QRExpiryInterval, func(ctx context.Context) (any, error) {
		expired, err := qrSvc.ExpireTokens(ctx)
		return map[string]any{"expired": expired}, err
	})
	j.Every(jobs.JobRefreshPurge, refreshPurgeInterval, func(ctx context.Context) (any, error) {
		purged, err := authSvc.PurgeExpiredRefreshTokens(ctx)
		return map[string]any{"purged": purged}, err
	})
	j.Every(jobs.JobIdempotency, refreshPurgeInterval, func(ctx context.Context) (any, error) {
		purged, err := idem.Purge(ctx)
		return map[string]any{"purged": purged}, err
	})
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// Run serves the API until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, cfg config.Config) error {
	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	jobsCtx, stopJobs := context.WithCancel(ctx)
	defer stopJobs()
	app.Jobs.Start(jobsCtx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("PeopleGuard server listening", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
