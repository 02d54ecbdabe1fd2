package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dmfarley/bidwatch/internal/api/handlers"
	"github.com/dmfarley/bidwatch/internal/api/middleware"
	"github.com/dmfarley/bidwatch/internal/config"
	"github.com/dmfarley/bidwatch/internal/ebay"
	"github.com/dmfarley/bidwatch/internal/engine"
	"github.com/dmfarley/bidwatch/internal/gateway"
	"github.com/dmfarley/bidwatch/internal/store"
	"github.com/dmfarley/bidwatch/pkg/logger"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and update scheduler",
		RunE:  runServe,
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	ctx := context.Background()

	st, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	gw, err := buildGateway(cfg, log)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	eng := engine.NewEngine(st, buildSource(cfg, log), gw,
		engine.WithLogger(log),
		engine.WithShippedCategory(cfg.Discord.ShippedCategoryID),
		engine.WithArchiveCategory(cfg.Discord.ArchiveCategoryID),
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recovery(log))
	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Metrics())

	health := handlers.NewHealthHandler(st)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("bidwatch", Version))
	handlers.RegisterListingRoutes(api, handlers.NewListingsHandler(st))
	handlers.RegisterActionRoutes(api, handlers.NewActionsHandler(eng))

	// The scheduler only runs when listing intake is configured; an
	// API-only deployment still serves queries and manual actions.
	var sched *engine.Scheduler
	if len(cfg.Discord.IntakeChannels) > 0 {
		sched, err = engine.NewScheduler(eng, cfg.Schedule.TickInterval, log)
		if err != nil {
			return fmt.Errorf("creating scheduler: %w", err)
		}
		sched.Start()
	} else {
		log.Warn("no intake channels configured, scheduler disabled")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", "addr", addr)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	if sched != nil {
		<-sched.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	log.Info("server stopped")
	return nil
}

func buildStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "postgres":
		return store.NewPostgresStore(ctx, cfg.Store.Postgres.DSN())
	case "redis":
		return store.NewRedisStore(
			ctx,
			cfg.Store.Redis.Addr,
			cfg.Store.Redis.Password,
			cfg.Store.Redis.DB,
			cfg.Store.Redis.Key,
		)
	default:
		return store.NewFileStore(cfg.Store.File.Path), nil
	}
}

func buildSource(cfg *config.Config, log *slog.Logger) ebay.Source {
	scrape := ebay.NewScrapeSource(
		ebay.WithScrapeRateLimit(cfg.Ebay.RateLimit.PerSecond, cfg.Ebay.RateLimit.Burst),
	)

	var api ebay.Source
	if cfg.Ebay.APIEnabled() {
		tokens := ebay.NewOAuthTokenProvider(
			cfg.Ebay.AppID,
			cfg.Ebay.CertID,
			ebay.WithTokenURL(cfg.Ebay.TokenURL),
		)
		api = ebay.NewAPISource(tokens,
			ebay.WithItemURL(cfg.Ebay.ItemURL),
			ebay.WithMarketplace(cfg.Ebay.Marketplace),
			ebay.WithAPIRateLimit(cfg.Ebay.RateLimit.PerSecond, cfg.Ebay.RateLimit.Burst),
		)
	}

	return ebay.NewFallbackSource(api, scrape, log)
}

func buildGateway(cfg *config.Config, log *slog.Logger) (gateway.Gateway, error) {
	if cfg.Discord.Token == "" {
		log.Warn("no discord token configured, gateway running in noop mode")
		return gateway.NewNoopGateway(log), nil
	}
	return gateway.NewDiscordGateway(cfg.Discord.Token)
}
