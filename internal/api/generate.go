package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dreamforge-ai/dreamforge/internal/app"
	"github.com/dreamforge-ai/dreamforge/internal/services/pipeline"
)

type generateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

func Generate(c *gin.Context) {
	data := generateRequest{}
	if err := c.BindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "failed to parse request body"})
		return
	}

	app := c.MustGet("app").(*app.App)
	if app.Pipeline == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "generation pipeline is not configured"})
		return
	}

	result, err := app.Pipeline.Generate(c.Request.Context(), data.Prompt)
	if err != nil {
		app.Logger.Error("generation failed", zap.String("prompt", data.Prompt), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "operation failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func EditGeneration(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid generation id"})
		return
	}

	data := generateRequest{}
	if err := c.BindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "failed to parse request body"})
		return
	}

	app := c.MustGet("app").(*app.App)
	if app.Pipeline == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "generation pipeline is not configured"})
		return
	}

	result, err := app.Pipeline.Edit(c.Request.Context(), id, data.Prompt)
	if err != nil {
		if errors.Is(err, pipeline.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "generation not found"})
			return
		}

		app.Logger.Error("edit failed", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "operation failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}
