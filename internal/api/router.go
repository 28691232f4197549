package api

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
)

// multipartOverhead is the slack allowed on top of the image for form encoding.
const multipartOverhead = 1 << 20

// RouterConfig holds the HTTP settings the router needs.
type RouterConfig struct {
	AllowedOrigins []string
	Debug          bool
}

// NewRouter wires the middleware and routes.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(Recovery(h.Logger))
	r.Use(requestid.New())
	r.Use(Logger(h.Logger))
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	r.GET("/", h.Root)
	r.POST("/analyze-image", BodySizeLimit(h.MaxUploadBytes+multipartOverhead), h.AnalyzeImage)
	r.GET("/recipeStream", h.RecipeStream)
	r.GET("/generateImage", h.GenerateImage)
	r.GET("/shelf-life", h.ShelfLifeTable)
	r.GET("/shelf-life/:name", h.ShelfLife)
	r.GET("/recipes", h.GetRecipes)
	r.GET("/recipes/:id", h.GetRecipe)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
