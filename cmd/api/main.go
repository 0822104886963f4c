package main

import (
	"context"
	"log"

	"bayesim/internal/api"
	"bayesim/internal/config"
	"bayesim/internal/container"

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

	handler := api.NewSimulationHandler(c.Simulation, c.Hub(), c.APIDefaults(), c.Logger)
	router := api.NewRouter(cfg.Server.GinMode, handler, c.Hub())

	c.Logger.Info("Starting API on :%s", cfg.Server.APIPort)
	if err := router.Run(":" + cfg.Server.APIPort); err != nil {
		log.Fatal("Server failed:", err)
	}
}
