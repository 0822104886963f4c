package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bayesim/internal/api"
	"bayesim/internal/config"
	"bayesim/internal/container"
	"bayesim/ui"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

// main serves the HTML UI and the JSON API side by side over one container.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.Open(ctx, appConfig)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer c.Shutdown(context.Background())

	uiApp, err := ui.NewApp(ui.Config{
		Port:    appConfig.Server.Port,
		Inputs:  appConfig.Inputs(),
		Samples: appConfig.Sampling.SampleCount,
		Seed:    appConfig.Sampling.Seed,
		Workers: appConfig.Sampling.Workers,
	}, c.Simulation, c.Exporter, c.Logger)
	if err != nil {
		log.Fatalf("Failed to create UI: %v", err)
	}

	handler := api.NewSimulationHandler(c.Simulation, c.Hub(), c.APIDefaults(), c.Logger)
	servers := []*http.Server{
		{Addr: ":" + appConfig.Server.Port, Handler: uiApp},
		{Addr: ":" + appConfig.Server.APIPort, Handler: api.NewRouter(appConfig.Server.GinMode, handler, c.Hub())},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			c.Logger.Info("listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			_ = srv.Shutdown(shutdownCtx)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
