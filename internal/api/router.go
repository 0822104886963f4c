package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the JSON API routes.
func NewRouter(mode string, handler *SimulationHandler, hub *SSEHub) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.POST("/simulate", handler.Simulate)
	api.GET("/runs", handler.ListRuns)
	api.GET("/runs/:id", handler.GetRun)
	api.GET("/runs/:id/report", handler.GetReport)
	if hub != nil {
		api.GET("/events", hub.HandleSSE)
	}
	return router
}
