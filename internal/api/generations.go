package api

import (
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/dreamforge-ai/dreamforge/internal/app"
)

const defaultListLimit = 10

func ListGenerations(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid limit"})
			return
		}
		limit = parsed
	}

	gens := app.Store.ListRecent(c.Request.Context(), limit)
	c.JSON(http.StatusOK, gin.H{"generations": gens})
}

func SearchGenerations(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	gens := app.Store.Search(c.Request.Context(), c.Query("q"))
	c.JSON(http.StatusOK, gin.H{"generations": gens})
}

func GetSimilarContext(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	prompt := c.Query("prompt")
	if prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "prompt is required"})
		return
	}

	gen := app.Store.SimilarContext(c.Request.Context(), prompt)
	if gen == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "no similar generation found"})
		return
	}

	c.JSON(http.StatusOK, gen)
}

func GetLineage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid generation id"})
		return
	}

	app := c.MustGet("app").(*app.App)
	lineage := app.Store.EditLineage(c.Request.Context(), id)
	if lineage == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "generation not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"lineage": lineage})
}

func DeleteGeneration(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid generation id"})
		return
	}

	app := c.MustGet("app").(*app.App)
	if !app.Store.Delete(c.Request.Context(), id) {
		c.JSON(http.StatusNotFound, gin.H{"message": "generation not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func ClearGenerations(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	if !app.Store.ClearAll(c.Request.Context()) {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "operation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func GetDBInfo(c *gin.Context) {
	app := c.MustGet("app").(*app.App)
	c.JSON(http.StatusOK, app.Store.Introspect(c.Request.Context()))
}

func GetImage(c *gin.Context) {
	serveBlob(c, func(imagePath, modelPath string) string { return imagePath })
}

func GetModel(c *gin.Context) {
	serveBlob(c, func(imagePath, modelPath string) string { return modelPath })
}

func serveBlob(c *gin.Context, pick func(imagePath, modelPath string) string) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid generation id"})
		return
	}

	app := c.MustGet("app").(*app.App)
	gen := app.Store.Get(c.Request.Context(), id)
	if gen == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "generation not found"})
		return
	}

	path := pick(gen.ImagePath, gen.ModelPath)
	if path == "" || !app.BlobStore.Exists(path) {
		c.JSON(http.StatusNotFound, gin.H{"message": "blob not found"})
		return
	}

	content, err := app.BlobStore.Load(path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to load blob"})
		return
	}

	c.Data(http.StatusOK, mimetype.Detect(content).String(), content)
}
