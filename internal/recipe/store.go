package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store defines the persistence operations for image analyses and recipe history.
type Store interface {
	GetAnalysis(ctx context.Context, imageHash string) (string, error)
	SaveAnalysis(ctx context.Context, imageHash, detected string) error
	SaveRecipe(ctx context.Context, record *Record) error
	GetRecipe(ctx context.Context, id string) (*Record, error)
	ListRecipes(ctx context.Context, cuisine, mealType string) ([]*Record, error)
}

// PostgresStore implements Store for PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS image_analysis (
	image_hash TEXT PRIMARY KEY,
	detected TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS recipes (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	ingredients TEXT NOT NULL,
	meal_type TEXT NOT NULL,
	cuisine TEXT NOT NULL,
	cooking_time TEXT NOT NULL,
	complexity TEXT NOT NULL,
	text TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

// NewPostgresStore connects to the database and creates the tables if needed.
func NewPostgresStore(dataSourceName string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return newPostgresStore(db)
}

// newPostgresStore takes ownership of db: it is closed when the tables cannot be created.
func newPostgresStore(db *sqlx.DB) (*PostgresStore, error) {
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close releases the database connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// GetAnalysis returns the cached detection text for an image, or "" when none exists.
func (s *PostgresStore) GetAnalysis(ctx context.Context, imageHash string) (string, error) {
	var detected string
	err := s.db.GetContext(ctx, &detected, "SELECT detected FROM image_analysis WHERE image_hash = $1", imageHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get image analysis: %w", err)
	}
	return detected, nil
}

// SaveAnalysis stores the detection text for an image.
func (s *PostgresStore) SaveAnalysis(ctx context.Context, imageHash, detected string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO image_analysis (image_hash, detected) VALUES ($1, $2) ON CONFLICT (image_hash) DO UPDATE SET detected = $2",
		imageHash,
		detected,
	)
	if err != nil {
		return fmt.Errorf("failed to save image analysis: %w", err)
	}
	return nil
}

// SaveRecipe stores a completed recipe.
func (s *PostgresStore) SaveRecipe(ctx context.Context, record *Record) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO recipes (id, title, ingredients, meal_type, cuisine, cooking_time, complexity, text, created_at)
		VALUES (:id, :title, :ingredients, :meal_type, :cuisine, :cooking_time, :complexity, :text, :created_at)
		ON CONFLICT (id) DO NOTHING`,
		record,
	)
	if err != nil {
		return fmt.Errorf("failed to save recipe: %w", err)
	}
	return nil
}

// GetRecipe returns a recipe by id, or nil when it does not exist.
func (s *PostgresStore) GetRecipe(ctx context.Context, id string) (*Record, error) {
	var r Record
	err := s.db.GetContext(ctx, &r, "SELECT * FROM recipes WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &r, nil
}

// ListRecipes returns recipes, newest first, optionally filtered by cuisine and meal type.
func (s *PostgresStore) ListRecipes(ctx context.Context, cuisine, mealType string) ([]*Record, error) {
	var args []interface{}
	query := "SELECT * FROM recipes WHERE 1=1"

	paramCount := 1
	if cuisine != "" {
		query += fmt.Sprintf(" AND lower(cuisine) = lower($%d)", paramCount)
		args = append(args, cuisine)
		paramCount++
	}
	if mealType != "" {
		query += fmt.Sprintf(" AND lower(meal_type) = lower($%d)", paramCount)
		args = append(args, mealType)
	}
	query += " ORDER BY created_at DESC"

	recipes := []*Record{}
	if err := s.db.SelectContext(ctx, &recipes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

// MemoryStore implements Store in process memory. It is used when no database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	analyses map[string]string
	recipes  []*Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{analyses: make(map[string]string)}
}

func (m *MemoryStore) GetAnalysis(_ context.Context, imageHash string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.analyses[imageHash], nil
}

func (m *MemoryStore) SaveAnalysis(_ context.Context, imageHash, detected string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses[imageHash] = detected
	return nil
}

func (m *MemoryStore) SaveRecipe(_ context.Context, record *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if slices.ContainsFunc(m.recipes, func(r *Record) bool { return r.ID == record.ID }) {
		return nil
	}
	saved := *record
	m.recipes = append(m.recipes, &saved)
	return nil
}

func (m *MemoryStore) GetRecipe(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.recipes {
		if r.ID == id {
			found := *r
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) ListRecipes(_ context.Context, cuisine, mealType string) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recipes := []*Record{}
	for i := len(m.recipes) - 1; i >= 0; i-- {
		r := m.recipes[i]
		matchCuisine := cuisine == "" || strings.EqualFold(r.Cuisine, cuisine)
		matchMealType := mealType == "" || strings.EqualFold(r.MealType, mealType)
		if matchCuisine && matchMealType {
			found := *r
			recipes = append(recipes, &found)
		}
	}
	return recipes, nil
}
