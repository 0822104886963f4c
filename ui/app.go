package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bayesim/app"
	"bayesim/domain/scenario"
	"bayesim/internal"
	"bayesim/internal/report"
	"bayesim/ports"
)

//go:embed templates/* static/*
var embeddedFiles embed.FS

// App represents the UI application
type App struct {
	router    *chi.Mux
	service   *app.SimulationService
	exporter  ports.BatchExporterPort
	templates *template.Template
	config    Config
	logger    *internal.Logger
}

// Config holds UI application configuration
type Config struct {
	Port    string
	Inputs  scenario.Inputs
	Samples int
	Seed    int64
	Workers int
}

// NewApp creates a new UI application
func NewApp(config Config, service *app.SimulationService, exporter ports.BatchExporterPort, logger *internal.Logger) (*App, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}

	funcMap := template.FuncMap{
		"pct": report.Percent,
		"mul": func(a, b float64) float64 { return a * b },
		"add": func(a, b int) int { return a + b },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:    chi.NewRouter(),
		service:   service,
		exporter:  exporter,
		templates: templates,
		config:    config,
		logger:    logger.With("ui"),
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))

	// Serve static files
	staticFS := http.FileServer(http.FS(embeddedFiles))
	a.router.Handle("/static/*", staticFS)
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Post("/simulate", a.handleSimulate)
	a.router.Get("/runs", a.handleRuns)
	a.router.Get("/runs/{id}", a.handleRun)
	a.router.Get("/runs/{id}/export.xlsx", a.handleExport)
}

// ServeHTTP lets the app be mounted or tested as a plain handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Start serves the UI on the configured port.
func (a *App) Start() error {
	addr := ":" + a.config.Port
	a.logger.Info("listening on %s", addr)
	return http.ListenAndServe(addr, a.router)
}
