package container

import (
	"context"
	"fmt"

	"bayesim/adapters/excel"
	"bayesim/adapters/memory"
	"bayesim/adapters/postgres"
	"bayesim/adapters/postgres/migrations"
	"bayesim/adapters/rng"
	"bayesim/app"
	"bayesim/internal"
	"bayesim/internal/api"
	"bayesim/internal/config"
	"bayesim/internal/errors"
	"bayesim/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Ports
	Ledger   ports.LedgerPort
	RNG      ports.RNGPort
	Exporter ports.BatchExporterPort

	// Services
	Simulation *app.SimulationService
	SSEHub     *api.SSEHub
}

// New creates a container with the in-memory ledger. Call
// InitWithDatabase to switch the ledger to postgres.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Ledger:   memory.NewInMemoryLedgerAdapter(),
		RNG:      rng.NewSeededAdapter(),
		Exporter: excel.NewWorkbookExporter(),
	}
	c.initServices()
	return c, nil
}

// Open builds a container from cfg, connecting to postgres and applying
// migrations when DATABASE_URL is set.
func Open(ctx context.Context, cfg *config.Config) (*Container, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		c.Logger.Info("DATABASE_URL not set, using in-memory run ledger")
		return c, nil
	}

	db, err := postgres.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database").WithCause(err)
	}
	if err := migrations.NewMigrator(db.DB, nil).Up(ctx); err != nil {
		db.Close()
		return nil, errors.DatabaseError("database migration failed").WithCause(err)
	}
	if err := c.InitWithDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// InitWithDatabase switches the ledger to the postgres repository
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db
	c.Ledger = postgres.NewRunRepository(db)
	c.initServices()
	c.Logger.Info("using postgres run ledger")
	return nil
}

func (c *Container) initServices() {
	c.Simulation = app.NewSimulationService(c.Ledger, c.RNG, c.Logger).WithLimits(app.Limits{
		MaxSamples: c.Config.Sampling.MaxSamples,
		MaxWorkers: c.Config.Sampling.MaxWorkers,
	})
}

// Hub returns the run event hub, starting it on first use
func (c *Container) Hub() *api.SSEHub {
	if c.SSEHub == nil {
		c.SSEHub = api.NewSSEHub(c.Logger)
	}
	return c.SSEHub
}

// APIDefaults returns the request defaults of the JSON API
func (c *Container) APIDefaults() api.Defaults {
	return api.Defaults{
		Inputs:  c.Config.Inputs(),
		Samples: c.Config.Sampling.SampleCount,
		Seed:    c.Config.Sampling.Seed,
		Workers: c.Config.Sampling.Workers,
	}
}

// Shutdown releases held resources
func (c *Container) Shutdown(ctx context.Context) error {
	if c.SSEHub != nil {
		c.SSEHub.Stop()
		c.SSEHub = nil
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return errors.Wrap(err, "failed to close database")
		}
		c.DB = nil
	}
	return nil
}
