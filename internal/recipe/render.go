package recipe

import (
	"regexp"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// DefaultServings is reported until a SERVINGS line has arrived.
const DefaultServings = "4"

var (
	cuisinePattern     = regexp.MustCompile(`• Cuisine: (.*?)\n`)
	mealTypePattern    = regexp.MustCompile(`• Meal Type: (.*?)\n`)
	cookingTimePattern = regexp.MustCompile(`• Cooking Time: (.*?)\n`)
	complexityPattern  = regexp.MustCompile(`• Complexity: (.*?)\n`)
	servingsPattern    = regexp.MustCompile(`SERVINGS: (\d+)`)
	numberedStep       = regexp.MustCompile(`^\d+\.\s*`)
)

var markerPatterns = map[string]*regexp.Regexp{
	MarkerIngredients:  regexp.MustCompile(`(?m)^` + MarkerIngredients),
	MarkerInstructions: regexp.MustCompile(`(?m)^` + MarkerInstructions),
	MarkerTips:         regexp.MustCompile(`(?m)^` + MarkerTips),
	MarkerServings:     regexp.MustCompile(`(?m)^` + MarkerServings),
}

// View is the structured form of a (possibly partial) recipe buffer.
// Empty strings and nil slices mean the data has not arrived yet.
type View struct {
	Title        string   `json:"title"`
	Cuisine      string   `json:"cuisine,omitempty"`
	MealType     string   `json:"mealType,omitempty"`
	CookingTime  string   `json:"cookingTime,omitempty"`
	Complexity   string   `json:"complexity,omitempty"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	Tips         []string `json:"tips"`
	Servings     string   `json:"servings"`
}

// Render derives a View from the buffer received so far. It is recomputed from
// scratch on every call and tolerates any prefix of a recipe: a section whose
// closing marker has not arrived yet renders empty.
func Render(buf string) View {
	return render(buf, false)
}

// RenderFinal derives a View from a complete buffer. The end of the buffer
// closes any section whose closing marker is absent.
func RenderFinal(buf string) View {
	return render(buf, true)
}

func render(buf string, final bool) View {
	title, _, _ := strings.Cut(buf, "\n")
	v := View{
		Title:       strings.TrimSpace(title),
		Cuisine:     firstCapture(cuisinePattern, buf),
		MealType:    firstCapture(mealTypePattern, buf),
		CookingTime: firstCapture(cookingTimePattern, buf),
		Complexity:  firstCapture(complexityPattern, buf),
		Servings:    DefaultServings,
	}

	if body, ok := between(buf, MarkerIngredients, MarkerInstructions, final); ok {
		v.Ingredients = bulletItems(body)
	}
	if body, ok := between(buf, MarkerInstructions, MarkerTips, final); ok {
		v.Instructions = lo.FilterMap(strings.Split(body, "\n"), func(line string, _ int) (string, bool) {
			line = strings.TrimSpace(line)
			if !numberedStep.MatchString(line) {
				return "", false
			}
			return strings.TrimSpace(numberedStep.ReplaceAllString(line, "")), true
		})
	}
	if body, ok := between(buf, MarkerTips, MarkerServings, final); ok {
		v.Tips = bulletItems(body)
	}
	if servings := firstCapture(servingsPattern, buf); servings != "" {
		v.Servings = servings
	}
	return v
}

// Complete reports whether the view holds a usable recipe.
func (v View) Complete() bool {
	return v.Title != "" && len(v.Ingredients) > 0 && len(v.Instructions) > 0
}

// Equal reports whether two views render identically.
func (v View) Equal(o View) bool {
	return v.Title == o.Title &&
		v.Cuisine == o.Cuisine &&
		v.MealType == o.MealType &&
		v.CookingTime == o.CookingTime &&
		v.Complexity == o.Complexity &&
		v.Servings == o.Servings &&
		slices.Equal(v.Ingredients, o.Ingredients) &&
		slices.Equal(v.Instructions, o.Instructions) &&
		slices.Equal(v.Tips, o.Tips)
}

func firstCapture(re *regexp.Regexp, buf string) string {
	m := re.FindStringSubmatch(buf)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// between returns the text after the open marker and before the closing marker.
func between(buf, open, closing string, final bool) (string, bool) {
	loc := markerPatterns[open].FindStringIndex(buf)
	if loc == nil {
		return "", false
	}
	rest := buf[loc[1]:]
	if end := markerPatterns[closing].FindStringIndex(rest); end != nil {
		return rest[:end[0]], true
	}
	if final {
		return rest, true
	}
	return "", false
}

func bulletItems(body string) []string {
	return lo.FilterMap(strings.Split(body, "\n"), func(line string, _ int) (string, bool) {
		if !strings.Contains(line, Bullet) {
			return "", false
		}
		item := strings.TrimSpace(strings.Replace(line, Bullet, "", 1))
		return item, item != ""
	})
}
