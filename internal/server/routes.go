package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dreamforge-ai/dreamforge/internal/api"
	"github.com/dreamforge-ai/dreamforge/internal/app"
)

func (s *Server) SetupRoutes(app *app.App) {
	// Health check endpoint
	s.ginEngine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiV1 := s.ginEngine.Group("/api/v1")

	apiV1.POST("/generate", handlerWrapper(app, api.Generate))
	apiV1.GET("/generations", handlerWrapper(app, api.ListGenerations))
	apiV1.GET("/generations/search", handlerWrapper(app, api.SearchGenerations))
	apiV1.GET("/generations/context", handlerWrapper(app, api.GetSimilarContext))
	apiV1.GET("/generations/:id/lineage", handlerWrapper(app, api.GetLineage))
	apiV1.GET("/generations/:id/image", handlerWrapper(app, api.GetImage))
	apiV1.GET("/generations/:id/model", handlerWrapper(app, api.GetModel))
	apiV1.POST("/generations/:id/edit", handlerWrapper(app, api.EditGeneration))
	apiV1.DELETE("/generations/:id", handlerWrapper(app, api.DeleteGeneration))
	apiV1.DELETE("/generations", handlerWrapper(app, api.ClearGenerations))

	apiV1.GET("/db/info", handlerWrapper(app, api.GetDBInfo))
}

func handlerWrapper(app *app.App, f func(c *gin.Context)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set("app", app)
		f(ctx)
	}
}
