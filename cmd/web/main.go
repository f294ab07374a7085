package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/linarqa/linarqa-web/api/controllers"
	"github.com/linarqa/linarqa-web/api/middleware"
	"github.com/linarqa/linarqa-web/api/routes"
	"github.com/linarqa/linarqa-web/api/views"
	"github.com/linarqa/linarqa-web/internal/apiclient"
	"github.com/linarqa/linarqa-web/internal/fetchguard"
	"github.com/linarqa/linarqa-web/internal/i18n"
	"github.com/linarqa/linarqa-web/internal/media"
	"github.com/linarqa/linarqa-web/internal/notifications"
	"github.com/linarqa/linarqa-web/pkg/auth/session"
	"github.com/linarqa/linarqa-web/pkg/config"
	"github.com/linarqa/linarqa-web/pkg/db"
	"github.com/linarqa/linarqa-web/pkg/enums"
	"github.com/linarqa/linarqa-web/pkg/logger"
	"github.com/linarqa/linarqa-web/pkg/metrics"
	"github.com/linarqa/linarqa-web/pkg/migrate"
	"github.com/linarqa/linarqa-web/pkg/redis"
	"github.com/linarqa/linarqa-web/pkg/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "web"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "web",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, counter, closeStore, err := openStorage(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap storage", err)
		os.Exit(1)
	}

	if cfg.App.IsProd() {
		if cfg.Storage.Driver == config.StorageMemory {
			logg.Warn(ctx, "memory storage in production: browser sessions are lost on restart")
		}
		if !cfg.Session.Secure {
			logg.Warn(ctx, "session cookie is not marked Secure")
		}
	}

	sessions, err := session.NewManager(store, cfg.Session)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client, err := apiclient.New(cfg.API,
		apiclient.WithMetrics(metrics.NewUpstreamMetrics(registry)),
		apiclient.WithLogger(logg),
	)
	if err != nil {
		logg.Error(ctx, "failed to create school api client", err)
		os.Exit(1)
	}

	catalog, err := i18n.NewCatalog()
	if err != nil {
		logg.Error(ctx, "failed to load translations", err)
		os.Exit(1)
	}
	language, err := enums.ParseLanguage(cfg.I18n.DefaultLanguage)
	if err != nil {
		logg.Error(ctx, "invalid default language", err)
		os.Exit(1)
	}

	renderer, err := views.New(logg)
	if err != nil {
		logg.Error(ctx, "failed to parse templates", err)
		os.Exit(1)
	}

	processor := media.NewProcessor(cfg.Media)
	deps := &controllers.Deps{
		Views: renderer,
		Services: controllers.NewServiceFactory(controllers.ServiceConfig{
			Backend:             store,
			Media:               processor,
			TrackingConcurrency: cfg.Belongings.TrackingConcurrency,
			BadgeTTL:            notifications.DefaultBadgeTTL,
			Logger:              logg,
		}),
		Guard:  fetchguard.New(),
		Media:  processor,
		Logger: logg,
	}

	router := routes.NewRouter(cfg, logg, deps, routes.Options{
		Browser: middleware.BrowserConfig{
			Sessions:     sessions,
			Backend:      store,
			Client:       client,
			Catalog:      catalog,
			Language:     language,
			Cookie:       cfg.Session,
			ThemeMetrics: metrics.NewThemeMetrics(registry),
		},
		Counter: counter,
		Ready:   map[string]controllers.Pinger{"storage": store},
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"storage": cfg.Storage.Driver,
		"api":     cfg.API.BaseURL,
	})
	logg.Info(logCtx, "starting web server")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(logCtx, "web server stopped unexpectedly", multierr.Append(err, closeStore()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := multierr.Combine(server.Shutdown(shutdownCtx), closeStore()); err != nil {
			logg.Error(logCtx, "graceful shutdown failed", err)
		}
	}
}

// openStorage connects the configured backend and returns it together with
// its login counter and closer.
func openStorage(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.Backend, storage.Counter, func() error, error) {
	switch cfg.Storage.Driver {
	case config.StorageRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, nil, nil, err
		}
		backend := storage.NewRedis(client)
		return backend, backend, client.Close, nil

	case config.StorageSQL:
		client, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := migrate.MaybeRunDev(ctx, cfg, logg, client); err != nil {
			return nil, nil, nil, multierr.Append(err, client.Close())
		}
		backend := storage.NewSQL(client)
		return backend, backend, client.Close, nil
	}

	backend := storage.NewMemory()
	return backend, backend, func() error { return nil }, nil
}
