package main

import (
	"context"
	"flag"
	"log"
	"os"

	"bayesim/adapters/postgres"
	"bayesim/adapters/postgres/migrations"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	status := flag.Bool("status", false, "Show migration status instead of applying")
	flag.Parse()

	databaseURL := os.Getenv("DATABASE_URL")
	if flag.NArg() > 0 {
		databaseURL = flag.Arg(0)
	}
	if databaseURL == "" {
		log.Fatal("Usage: migrate [-status] <database_url> (or set DATABASE_URL)")
	}

	ctx := context.Background()
	db, err := postgres.Connect(ctx, databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrator := migrations.NewMigrator(db.DB, os.Stdout)
	if *status {
		err = migrator.Status(ctx)
	} else {
		err = migrator.Up(ctx)
	}
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
}
