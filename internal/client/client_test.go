package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastetofeast/internal/recipe"
	"wastetofeast/internal/stream"
)

var validRequest = recipe.Request{
	Ingredients: "tomatoes, onions",
	MealType:    recipe.MealDinner,
	Cuisine:     "Italian",
	CookingTime: recipe.TimeUnder30,
	Complexity:  recipe.Beginner,
}

func writeEvent(t *testing.T, w http.ResponseWriter, e stream.Event) {
	t.Helper()
	data, err := json.Marshal(e)
	assert.NoError(t, err)
	fmt.Fprintf(w, "event:message\ndata:%s\n\n", data)
	w.(http.Flusher).Flush()
}

func collect(events *[]stream.Event) func(stream.Event) error {
	return func(e stream.Event) error {
		*events = append(*events, e)
		return nil
	}
}

func TestStreamRecipe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recipeStream", r.URL.Path)
		assert.Equal(t, "Italian", r.URL.Query().Get("cuisine"))
		assert.Equal(t, recipe.TimeUnder30, r.URL.Query().Get("cookingTime"))
		w.Header().Set("Content-Type", "text/event-stream")
		writeEvent(t, w, stream.Chunk("Pasta\n"))
		writeEvent(t, w, stream.Chunk("DETAILS:\n"))
		writeEvent(t, w, stream.Close())
		// Anything after the terminal event is ignored.
		writeEvent(t, w, stream.Chunk("late\n"))
	}))
	defer srv.Close()

	var events []stream.Event
	err := New(srv.URL).StreamRecipe(context.Background(), validRequest, collect(&events))

	require.NoError(t, err)
	assert.Equal(t, []stream.Event{stream.Chunk("Pasta\n"), stream.Chunk("DETAILS:\n"), stream.Close()}, events)
}

func TestStreamRecipe_OutlivesRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for i := 0; i < 5; i++ {
			writeEvent(t, w, stream.Chunk(fmt.Sprintf("line %d\n", i)))
			time.Sleep(100 * time.Millisecond)
		}
		writeEvent(t, w, stream.Close())
	}))
	defer srv.Close()

	var events []stream.Event
	err := New(srv.URL).SetTimeout(200*time.Millisecond).StreamRecipe(context.Background(), validRequest, collect(&events))

	require.NoError(t, err)
	require.Len(t, events, 6)
	assert.Equal(t, stream.Close(), events[5])
}

func TestStreamRecipe_DataWithSpace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "data: {\"action\":\"error\",\"message\":\"please fill in all fields\"}\n\n")
	}))
	defer srv.Close()

	var events []stream.Event
	err := New(srv.URL).StreamRecipe(context.Background(), validRequest, collect(&events))

	require.NoError(t, err)
	assert.Equal(t, []stream.Event{stream.Error("please fill in all fields")}, events)
}

func TestStreamRecipe_EndsEarly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEvent(t, w, stream.Chunk("Pasta\n"))
	}))
	defer srv.Close()

	var events []stream.Event
	err := New(srv.URL).StreamRecipe(context.Background(), validRequest, collect(&events))

	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Len(t, events, 1)
}

func TestStreamRecipe_HandlerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEvent(t, w, stream.Chunk("Pasta\n"))
		writeEvent(t, w, stream.Close())
	}))
	defer srv.Close()

	stop := errors.New("stop")
	err := New(srv.URL).StreamRecipe(context.Background(), validRequest, func(stream.Event) error { return stop })

	assert.ErrorIs(t, err, stop)
}

func TestAnalyzeImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		file, header, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		assert.Equal(t, "fridge.jpg", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ingredients":[{"name":"tomatoes","shelfLife":{"room":"5-7 days","refrigerated":"1-2 weeks","frozen":"6-8 months"}}]}`)
	}))
	defer srv.Close()

	records, err := New(srv.URL).AnalyzeImage(context.Background(), "fridge.jpg", []byte("jpeg bytes"))

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "tomatoes", records[0].Name)
	assert.Equal(t, "1-2 weeks", records[0].ShelfLife.Refrigerated)
}

func TestAnalyzeImage_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"too large", http.StatusRequestEntityTooLarge, recipe.ErrSizeLimitExceeded},
		{"no ingredients", http.StatusUnprocessableEntity, recipe.ErrNoIngredientsDetected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				io.WriteString(w, `{"error":"Failed to analyze image","details":"nope"}`)
			}))
			defer srv.Close()

			_, err := New(srv.URL).AnalyzeImage(context.Background(), "a.png", []byte("x"))

			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("model failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			io.WriteString(w, `{"error":"Failed to analyze image","details":"quota"}`)
		}))
		defer srv.Close()

		_, err := New(srv.URL).AnalyzeImage(context.Background(), "a.png", []byte("x"))

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadGateway, apiErr.Status)
		assert.Equal(t, "quota", apiErr.Details)
	})
}

func TestGenerateImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Tomato Stew", r.URL.Query().Get("recipeName"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"imageUrl":"aW1n"}`)
	}))
	defer srv.Close()

	image, err := New(srv.URL).GenerateImage(context.Background(), "Tomato Stew")

	require.NoError(t, err)
	assert.Equal(t, "aW1n", image)
}

func TestShelfLifeAndRecipes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/shelf-life/garlic":
			io.WriteString(w, `{"name":"garlic","shelfLife":{"room":"3-5 months","refrigerated":"Not recommended","frozen":"10-12 months"},"known":true}`)
		case "/recipes":
			assert.Equal(t, "Dinner", r.URL.Query().Get("mealType"))
			io.WriteString(w, `[{"id":"1","title":"Pasta","mealType":"Dinner"}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)

	life, known, err := c.ShelfLife(context.Background(), "garlic")
	require.NoError(t, err)
	assert.True(t, known)
	assert.Equal(t, "3-5 months", life.Room)

	recipes, err := c.Recipes(context.Background(), "", "Dinner")
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Pasta", recipes[0].Title)
}
