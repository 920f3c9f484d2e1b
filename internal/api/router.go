// Package api exposes stress sweeps over HTTP.
package api

import (
	"net/http"

	"rent-stress/internal/api/handlers"
	"rent-stress/internal/api/middleware"
	"rent-stress/internal/config"
	"rent-stress/internal/scenario"

	"github.com/gin-gonic/gin"
)

// Options carries the optional collaborators of the router.
type Options struct {
	Runs        handlers.RunStore // nil disables the run archive
	Cache       *scenario.Cache   // nil recomputes every sweep
	CORSOrigins []string          // empty allows any origin
}

// NewRouter builds the gin engine.
func NewRouter(cfg *config.Config, opts Options) *gin.Engine {
	runs := opts.Runs
	router := gin.New()

	router.Use(middleware.CORS(opts.CORSOrigins...))
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	presetHandler := handlers.NewPresetHandler(cfg)
	stressHandler := handlers.NewStressHandler(cfg, runs, opts.Cache)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "archive": runs != nil})
	})

	api := router.Group("/api/v1")
	{
		api.GET("/presets", presetHandler.ListPresets)

		api.POST("/stress", stressHandler.RunStress)
		api.GET("/stress", stressHandler.ListRuns)
		api.GET("/stress/:id", stressHandler.GetRun)
		api.GET("/stress/:id/rows", stressHandler.GetRows)

		api.GET("/breakeven", stressHandler.BreakEven)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})

	return router
}
