package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wastetofeast/internal/ingredient"
	"wastetofeast/internal/platform/imaging"
	"wastetofeast/internal/recipe"
	"wastetofeast/internal/shelflife"
	"wastetofeast/internal/stream"
)

// IngredientDetector lists the ingredients visible in an image as comma-separated text.
type IngredientDetector interface {
	DetectIngredients(ctx context.Context, imageData []byte, format string) (string, error)
}

// RecipeStreamer streams one recipe to a sink.
type RecipeStreamer interface {
	Run(ctx context.Context, req recipe.Request, sink stream.Sink) error
}

// Illustrator renders a picture of a named dish as base64.
type Illustrator interface {
	Illustrate(ctx context.Context, recipeName string) (string, error)
}

// Handler handles HTTP requests.
type Handler struct {
	Detector       IngredientDetector
	Streamer       RecipeStreamer
	Illustrator    Illustrator
	Store          recipe.Store
	Logger         *zap.Logger
	MaxUploadBytes int64
	MaxImageWidth  uint
}

// NewHandler creates a new Handler.
func NewHandler(detector IngredientDetector, streamer RecipeStreamer, illustrator Illustrator, store recipe.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Detector:       detector,
		Streamer:       streamer,
		Illustrator:    illustrator,
		Store:          store,
		Logger:         logger,
		MaxUploadBytes: 5 << 20,
		MaxImageWidth:  1024,
	}
}

// Root reports that the server is up.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Server is running!"})
}

// AnalyzeImage detects the ingredients in an uploaded photo and attaches their shelf life.
func (h *Handler) AnalyzeImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondError(c, http.StatusRequestEntityTooLarge, "Image too large", recipe.ErrSizeLimitExceeded)
			return
		}
		respondError(c, http.StatusBadRequest, "No image file provided", err)
		return
	}
	if file.Size > h.MaxUploadBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "Image too large", recipe.ErrSizeLimitExceeded)
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to read image", err)
		return
	}
	defer src.Close()

	imageData, err := io.ReadAll(src)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to read image", err)
		return
	}

	ctx := c.Request.Context()
	imageHash := imaging.Hash(imageData)
	log := h.Logger.With(zap.String("image_hash", imageHash), zap.Int64("size", file.Size))

	detected, err := h.Store.GetAnalysis(ctx, imageHash)
	if err != nil {
		log.Warn("Failed to read cached image analysis", zap.Error(err))
	}

	if detected == "" {
		resized, format, err := imaging.Downscale(imageData, h.MaxImageWidth)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Unsupported image", err)
			return
		}

		log.Info("Analyzing image", zap.String("format", format))
		detected, err = h.Detector.DetectIngredients(ctx, resized, format)
		if err != nil {
			log.Error("Ingredient detection failed", zap.Error(err))
			respondError(c, http.StatusBadGateway, "Failed to analyze image",
				&recipe.ExternalServiceError{Service: "image analysis", Err: err})
			return
		}

		if err := h.Store.SaveAnalysis(ctx, imageHash, detected); err != nil {
			log.Warn("Failed to save image analysis", zap.Error(err))
		}
	} else {
		log.Info("Image analysis found in store")
	}

	records, err := ingredient.Extract(detected)
	if err != nil {
		respondError(c, http.StatusUnprocessableEntity, "Failed to analyze image", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ingredients": records})
}

// RecipeStream streams a generated recipe as server-sent events.
func (h *Handler) RecipeStream(c *gin.Context) {
	var req recipe.Request
	_ = c.ShouldBindQuery(&req)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	log := h.Logger.With(zap.String("cuisine", req.Cuisine), zap.String("meal_type", req.MealType))
	start := time.Now()

	err := h.Streamer.Run(c.Request.Context(), req, newSSESink(c))
	switch {
	case err == nil:
		log.Info("Recipe stream closed", zap.Duration("elapsed", time.Since(start)))
	case errors.Is(err, context.Canceled):
		log.Info("Client left before the recipe stream finished")
	case recipe.IsValidationError(err):
		log.Warn("Rejected recipe request", zap.Error(err))
	default:
		log.Error("Recipe stream failed", zap.Error(err))
	}
}

// GenerateImage returns an illustration of the named recipe.
func (h *Handler) GenerateImage(c *gin.Context) {
	recipeName := c.Query("recipeName")
	if recipeName == "" {
		respondError(c, http.StatusBadRequest, "Recipe name is required", nil)
		return
	}

	image, err := h.Illustrator.Illustrate(c.Request.Context(), recipeName)
	if err != nil {
		h.Logger.Error("Image generation failed", zap.String("recipe", recipeName), zap.Error(err))
		respondError(c, http.StatusBadGateway, "Failed to generate image", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"imageUrl": image})
}

// ShelfLifeTable returns every known ingredient with its shelf life.
func (h *Handler) ShelfLifeTable(c *gin.Context) {
	names := shelflife.Names()
	records := make([]ingredient.Record, 0, len(names))
	for _, name := range names {
		records = append(records, ingredient.Record{Name: name, ShelfLife: shelflife.LookupOrUnknown(name)})
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": records})
}

// ShelfLife returns the shelf life of a single ingredient. Unknown names report "Varies".
func (h *Handler) ShelfLife(c *gin.Context) {
	name := ingredient.Normalize(c.Param("name"))
	if name == "" {
		respondError(c, http.StatusBadRequest, "Ingredient name is required", nil)
		return
	}
	life, known := shelflife.Lookup(name)
	if !known {
		life = shelflife.Unknown
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "shelfLife": life, "known": known})
}

// GetRecipes handles requests to retrieve recipes based on cuisine or meal type.
func (h *Handler) GetRecipes(c *gin.Context) {
	cuisine := c.Query("cuisine")
	mealType := c.Query("mealType")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	recipes, err := h.Store.ListRecipes(ctx, cuisine, mealType)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			respondError(c, http.StatusRequestTimeout, "Database query timed out after 5 seconds", err)
			return
		}
		respondError(c, http.StatusInternalServerError, "Database error", err)
		return
	}

	c.JSON(http.StatusOK, recipes)
}

// GetRecipe handles requests to retrieve a single recipe by id.
func (h *Handler) GetRecipe(c *gin.Context) {
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Store.GetRecipe(ctx, id)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			respondError(c, http.StatusRequestTimeout, "Database query timed out after 5 seconds", err)
			return
		}
		respondError(c, http.StatusInternalServerError, "Database error", err)
		return
	}

	if rec == nil {
		respondError(c, http.StatusNotFound, "Recipe not found", nil)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func respondError(c *gin.Context, status int, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = err.Error()
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, body)
}
