package recipe

import (
	"fmt"
	"strings"
	"time"
)

// Meal types offered by the recipe form.
const (
	MealBreakfast = "Breakfast"
	MealLunch     = "Lunch"
	MealDinner    = "Dinner"
	MealSnack     = "Snack"
)

// Cooking time options offered by the recipe form.
const (
	TimeUnder30  = "Less than 30 minutes"
	Time30To60   = "30-60 minutes"
	TimeOverHour = "More than 1 hour"
)

// Complexity options offered by the recipe form.
const (
	Beginner     = "Beginner"
	Intermediate = "Intermediate"
	Advanced     = "Advanced"
)

// MealTypes, CookingTimes and Complexities list the form choices in display order.
var (
	MealTypes    = []string{MealBreakfast, MealLunch, MealDinner, MealSnack}
	CookingTimes = []string{TimeUnder30, Time30To60, TimeOverHour}
	Complexities = []string{Beginner, Intermediate, Advanced}
)

// Request holds the recipe form inputs. One Request triggers exactly one stream.
type Request struct {
	Ingredients string `json:"ingredients" form:"ingredients"`
	MealType    string `json:"mealType" form:"mealType"`
	Cuisine     string `json:"cuisine" form:"cuisine"`
	CookingTime string `json:"cookingTime" form:"cookingTime"`
	Complexity  string `json:"complexity" form:"complexity"`
}

// Validate returns a *ValidationError for the first empty field.
func (r Request) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"ingredients", r.Ingredients},
		{"mealType", r.MealType},
		{"cuisine", r.Cuisine},
		{"cookingTime", r.CookingTime},
		{"complexity", r.Complexity},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.name}
		}
	}
	return nil
}

// Query returns the request as URL query parameters.
func (r Request) Query() map[string]string {
	return map[string]string{
		"ingredients": r.Ingredients,
		"mealType":    r.MealType,
		"cuisine":     r.Cuisine,
		"cookingTime": r.CookingTime,
		"complexity":  r.Complexity,
	}
}

const promptTemplate = `Generate a recipe using the following ingredients: %s.
The recipe should be for a %s and should be %s to make.
The cuisine should be %s.
The cooking time should be %s.

Provide the recipe in exactly the following format, with each section header on its own line and no markdown:
[Recipe Name]
DETAILS:
• Cuisine: [Cuisine]
• Meal Type: [Meal Type]
• Cooking Time: [Cooking Time]
• Complexity: [Complexity]
INGREDIENTS:
• [Ingredient 1]
• [Ingredient 2]
...
INSTRUCTIONS:
1. [Step 1]
2. [Step 2]
...
COOKING TIPS:
• [Tip 1]
• [Tip 2]
...
SERVINGS: [Number of Servings]
`

// Prompt builds the generation prompt. The same request always yields the same prompt.
func (r Request) Prompt() string {
	return fmt.Sprintf(promptTemplate,
		strings.TrimSpace(r.Ingredients),
		strings.TrimSpace(r.MealType),
		strings.TrimSpace(r.Complexity),
		strings.TrimSpace(r.Cuisine),
		strings.TrimSpace(r.CookingTime),
	)
}

// Record is a completed recipe kept in the history store.
type Record struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Ingredients string    `json:"ingredients" db:"ingredients"`
	MealType    string    `json:"mealType" db:"meal_type"`
	Cuisine     string    `json:"cuisine" db:"cuisine"`
	CookingTime string    `json:"cookingTime" db:"cooking_time"`
	Complexity  string    `json:"complexity" db:"complexity"`
	Text        string    `json:"text" db:"text"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
