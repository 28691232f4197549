package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"wastetofeast/internal/platform/imaging"
	"wastetofeast/internal/recipe"
	"wastetofeast/internal/stream"
)

const generatedRecipe = `Tomato Onion Skillet
DETAILS:
• Cuisine: Italian
• Meal Type: Dinner
• Cooking Time: Less than 30 minutes
• Complexity: Beginner
INGREDIENTS:
• 4 tomatoes
• 1 onion
INSTRUCTIONS:
1. Slice the onion.
2. Cook with the tomatoes.
COOKING TIPS:
• Use ripe tomatoes.
SERVINGS: 2
`

// mockDetector is a mock of the vision model.
type mockDetector struct {
	result string
	err    error
	calls  int
}

func (m *mockDetector) DetectIngredients(ctx context.Context, imageData []byte, format string) (string, error) {
	m.calls++
	return m.result, m.err
}

// mockGenerator is a mock of the text model.
type mockGenerator struct {
	text string
	err  error
}

func (m *mockGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	return m.text, m.err
}

// mockIllustrator is a mock of the illustrator.
type mockIllustrator struct {
	image    string
	err      error
	received string
}

func (m *mockIllustrator) Illustrate(ctx context.Context, recipeName string) (string, error) {
	m.received = recipeName
	return m.image, m.err
}

type testServer struct {
	router      *gin.Engine
	detector    *mockDetector
	generator   *mockGenerator
	illustrator *mockIllustrator
	store       *recipe.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zaptest.NewLogger(t)
	ts := &testServer{
		detector:    &mockDetector{result: "Tomatoes, Onions, Unknownveg"},
		generator:   &mockGenerator{text: generatedRecipe},
		illustrator: &mockIllustrator{image: "aW1hZ2U="},
		store:       recipe.NewMemoryStore(),
	}
	streamer := stream.New(ts.generator, 0, logger, stream.WithHistory(ts.store))
	handler := NewHandler(ts.detector, streamer, ts.illustrator, ts.store, logger)
	ts.router = NewRouter(handler, RouterConfig{AllowedOrigins: []string{"http://localhost:3000"}, Debug: true})
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	return rr
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, "fridge.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze-image", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeEvents(t *testing.T, body string) []stream.Event {
	t.Helper()
	var events []stream.Event
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var e stream.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &e))
		events = append(events, e)
	}
	require.NoError(t, scanner.Err())
	return events
}

func streamQuery(req recipe.Request) string {
	q := url.Values{}
	for k, v := range req.Query() {
		q.Set(k, v)
	}
	return "/recipeStream?" + q.Encode()
}

var validRequest = recipe.Request{
	Ingredients: "tomatoes, onions",
	MealType:    recipe.MealDinner,
	Cuisine:     "Italian",
	CookingTime: recipe.TimeUnder30,
	Complexity:  recipe.Beginner,
}

func TestRoot(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Server is running!"}`, rr.Body.String())
}

func TestAnalyzeImage(t *testing.T) {
	ts := newTestServer(t)
	imageData := testPNG(t, 32, 16)

	rr := ts.do(uploadRequest(t, "image", imageData))

	// Assert the response status code
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Ingredients []struct {
			Name      string `json:"name"`
			ShelfLife struct {
				Room         string `json:"room"`
				Refrigerated string `json:"refrigerated"`
				Frozen       string `json:"frozen"`
			} `json:"shelfLife"`
		} `json:"ingredients"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Ingredients, 3)
	assert.Equal(t, "tomatoes", resp.Ingredients[0].Name)
	assert.Equal(t, "5-7 days", resp.Ingredients[0].ShelfLife.Room)
	assert.Equal(t, "onions", resp.Ingredients[1].Name)
	assert.Equal(t, "unknownveg", resp.Ingredients[2].Name)
	assert.Equal(t, "Varies", resp.Ingredients[2].ShelfLife.Frozen)

	// Assert that the analysis was saved to the store
	saved, err := ts.store.GetAnalysis(context.Background(), imaging.Hash(imageData))
	require.NoError(t, err)
	assert.Equal(t, "Tomatoes, Onions, Unknownveg", saved)
}

func TestAnalyzeImage_AnalysisFoundInStore(t *testing.T) {
	ts := newTestServer(t)
	imageData := testPNG(t, 8, 8)
	require.NoError(t, ts.store.SaveAnalysis(context.Background(), imaging.Hash(imageData), "garlic"))

	rr := ts.do(uploadRequest(t, "image", imageData))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"garlic"`)
	assert.Zero(t, ts.detector.calls)
}

func TestAnalyzeImage_Errors(t *testing.T) {
	t.Run("no file", func(t *testing.T) {
		ts := newTestServer(t)

		rr := ts.do(uploadRequest(t, "file", testPNG(t, 4, 4)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "No image file provided")
	})

	t.Run("not an image", func(t *testing.T) {
		ts := newTestServer(t)

		rr := ts.do(uploadRequest(t, "image", []byte("plain text")))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Zero(t, ts.detector.calls)
	})

	t.Run("too large", func(t *testing.T) {
		ts := newTestServer(t)

		rr := ts.do(uploadRequest(t, "image", bytes.Repeat([]byte{0xff}, 7<<20)))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
		assert.Zero(t, ts.detector.calls)
	})

	t.Run("model failure", func(t *testing.T) {
		ts := newTestServer(t)
		ts.detector.err = errors.New("quota exceeded")

		rr := ts.do(uploadRequest(t, "image", testPNG(t, 4, 4)))

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "Failed to analyze image", body["error"])
		assert.Contains(t, body["details"], "quota exceeded")
	})

	t.Run("no ingredients", func(t *testing.T) {
		ts := newTestServer(t)
		ts.detector.result = " , ,"

		rr := ts.do(uploadRequest(t, "image", testPNG(t, 4, 4)))

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, rr.Body.String(), recipe.ErrNoIngredientsDetected.Error())
	})
}

func TestRecipeStream(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(httptest.NewRequest(http.MethodGet, streamQuery(validRequest), nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/event-stream")

	events := decodeEvents(t, rr.Body.String())
	require.NotEmpty(t, events)
	assert.Equal(t, stream.Close(), events[len(events)-1])

	var buf strings.Builder
	for _, e := range events[:len(events)-1] {
		require.Equal(t, stream.KindChunk, e.Kind)
		buf.WriteString(e.Chunk)
	}
	want, err := recipe.Normalize(generatedRecipe)
	require.NoError(t, err)
	assert.Equal(t, want, buf.String())

	view := recipe.RenderFinal(buf.String())
	assert.Equal(t, "Tomato Onion Skillet", view.Title)
	assert.Equal(t, "2", view.Servings)

	// Assert that the recipe was recorded in the history
	require.Eventually(t, func() bool {
		recipes, _ := ts.store.ListRecipes(context.Background(), "italian", "")
		return len(recipes) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRecipeStream_ValidationError(t *testing.T) {
	ts := newTestServer(t)
	req := validRequest
	req.Cuisine = ""

	rr := ts.do(httptest.NewRequest(http.MethodGet, streamQuery(req), nil))

	events := decodeEvents(t, rr.Body.String())
	require.Len(t, events, 1)
	assert.Equal(t, stream.KindError, events[0].Kind)
	assert.Contains(t, events[0].Message, "cuisine")
}

func TestRecipeStream_GeneratorFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.generator.err = errors.New("model overloaded")

	rr := ts.do(httptest.NewRequest(http.MethodGet, streamQuery(validRequest), nil))

	events := decodeEvents(t, rr.Body.String())
	require.Len(t, events, 1)
	assert.Equal(t, stream.KindError, events[0].Kind)
	assert.Contains(t, events[0].Message, "model overloaded")
}

func TestGenerateImage(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(httptest.NewRequest(http.MethodGet, "/generateImage?recipeName=Tomato+Onion+Skillet", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"imageUrl":"aW1hZ2U="}`, rr.Body.String())
	assert.Equal(t, "Tomato Onion Skillet", ts.illustrator.received)
}

func TestGenerateImage_Errors(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(httptest.NewRequest(http.MethodGet, "/generateImage", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	ts.illustrator.err = errors.New("image api down")
	rr = ts.do(httptest.NewRequest(http.MethodGet, "/generateImage?recipeName=Stew", nil))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "image api down")
}

func TestShelfLife(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(httptest.NewRequest(http.MethodGet, "/shelf-life/Sunflower%20Seeds", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"known":true`)

	rr = ts.do(httptest.NewRequest(http.MethodGet, "/shelf-life/dragonfruit", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"known":false`)
	assert.Contains(t, rr.Body.String(), `"room":"Varies"`)

	rr = ts.do(httptest.NewRequest(http.MethodGet, "/shelf-life", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"tomatoes"`)
}

func TestGetRecipes(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, ts.store.SaveRecipe(ctx, &recipe.Record{ID: "a", Title: "Pasta", Cuisine: "Italian", MealType: "Dinner"}))
	require.NoError(t, ts.store.SaveRecipe(ctx, &recipe.Record{ID: "b", Title: "Congee", Cuisine: "Chinese", MealType: "Breakfast"}))

	rr := ts.do(httptest.NewRequest(http.MethodGet, "/recipes?cuisine=Italian", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	var recipes []recipe.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &recipes))
	require.Len(t, recipes, 1)
	assert.Equal(t, "Pasta", recipes[0].Title)

	rr = ts.do(httptest.NewRequest(http.MethodGet, "/recipes/b", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Congee")

	rr = ts.do(httptest.NewRequest(http.MethodGet, "/recipes/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
