package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dhoini/clearpath-signup/internal/api/rest"
	"github.com/Dhoini/clearpath-signup/internal/metrics"
	"github.com/Dhoini/clearpath-signup/internal/service"
	"github.com/gin-gonic/gin"
)

const runtimeMetricsInterval = 15 * time.Second

func runServer() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	log := a.log
	cfg := a.cfg

	// Запускаем сбор метрик процесса
	metrics.NewRuntimeMetrics(a.registry, Version, log).Run(ctx, runtimeMetricsInterval)

	identity := a.identity()
	sessions := service.NewSessionService(a.provider, identity, a.publisher, a.reporter, a.metrics, log)
	baseline := service.NewBaselineService(a.store, a.mirrorIdentity(identity), a.cache, a.publisher, a.reporter, a.metrics, log)
	dashboard := service.NewDashboardService(a.provider, a.cache, cfg.Dashboard.PageSize, a.metrics, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := rest.SetupRouter(rest.Deps{
		Sessions:       sessions,
		Baseline:       baseline,
		Dashboard:      dashboard,
		AdminToken:     cfg.Admin.Token,
		AdminJWTSecret: cfg.Admin.JWTSecret,
		HasStripeKey:   a.provider.Configured(),
		AppEnv:         cfg.App.Env,
		Registry:       a.registry,
		Reporter:       a.reporter,
		Log:            log,
	})

	server := rest.NewServer(router, cfg.Server, log)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error("Server error: %v", err)
			return err
		}
		return nil
	case sig := <-quit:
		log.Info("Received signal %s", sig)
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("Server forced to shutdown: %v", err)
		return err
	}

	log.Info("Server stopped gracefully")
	return nil
}
