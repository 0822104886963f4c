package main

import (
	"context"
	"log"

	"bayesim/internal/config"
	"bayesim/internal/container"
	"bayesim/ui"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	c, err := container.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer c.Shutdown(ctx)

	app, err := ui.NewApp(ui.Config{
		Port:    cfg.Server.Port,
		Inputs:  cfg.Inputs(),
		Samples: cfg.Sampling.SampleCount,
		Seed:    cfg.Sampling.Seed,
		Workers: cfg.Sampling.Workers,
	}, c.Simulation, c.Exporter, c.Logger)
	if err != nil {
		log.Fatal("Failed to create UI app:", err)
	}

	log.Printf("Starting UI on http://localhost:%s", cfg.Server.Port)
	log.Fatal(app.Start())
}
