package recipe

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Section markers, in the order they appear in a normalized recipe.
const (
	MarkerDetails      = "DETAILS"
	MarkerIngredients  = "INGREDIENTS"
	MarkerInstructions = "INSTRUCTIONS"
	MarkerTips         = "COOKING TIPS"
	MarkerServings     = "SERVINGS"
)

// Bullet prefixes every item of a bulleted section.
const Bullet = "•"

type section int

const (
	sectionTitle section = iota
	sectionDetails
	sectionIngredients
	sectionInstructions
	sectionTips
	sectionServings
	sectionIgnored
)

var headers = []struct {
	name    string
	section section
}{
	{MarkerDetails, sectionDetails},
	{MarkerIngredients, sectionIngredients},
	{MarkerInstructions, sectionInstructions},
	{MarkerTips, sectionTips},
	{MarkerServings, sectionServings},
	// Sections older prompts asked for. Their content is dropped.
	{"CALORIES", sectionIgnored},
	{"SHELF LIFE", sectionIgnored},
}

var (
	bulletPrefix   = regexp.MustCompile(`^[•\-*+]\s*`)
	stepPrefix     = regexp.MustCompile(`^(?:(?i:step)\s*)?\d+\s*[.):]\s*`)
	titlePrefix    = regexp.MustCompile(`^(?i:recipe name|recipe|title)\s*:\s*`)
	firstNumber    = regexp.MustCompile(`\d+`)
	emphasisMarker = strings.NewReplacer("**", "", "__", "")
)

// Normalize rewrites generated recipe text into the canonical layout: the title
// line followed by the DETAILS, INGREDIENTS, INSTRUCTIONS and COOKING TIPS
// sections and, when a number was found, a SERVINGS line. Every line is trimmed,
// blank lines are dropped and the result ends with a newline.
//
// Text without a title, an ingredient or an instruction step is rejected with
// ErrMalformedRecipe.
func Normalize(text string) (string, error) {
	var (
		title        string
		details      []string
		ingredients  []string
		instructions []string
		tips         []string
		servings     string
	)

	current := sectionTitle
	for _, raw := range strings.Split(text, "\n") {
		line := cleanLine(raw)
		if line == "" {
			continue
		}

		if sec, rest, ok := matchHeader(line); ok {
			current = sec
			if rest == "" {
				continue
			}
			line = rest
		}

		switch current {
		case sectionTitle:
			if title == "" {
				title = cleanTitle(line)
			}
		case sectionDetails:
			details = appendItem(details, bulletPrefix.ReplaceAllString(line, ""))
		case sectionIngredients:
			ingredients = appendItem(ingredients, bulletPrefix.ReplaceAllString(line, ""))
		case sectionInstructions:
			step := bulletPrefix.ReplaceAllString(line, "")
			instructions = appendItem(instructions, stepPrefix.ReplaceAllString(step, ""))
		case sectionTips:
			tips = appendItem(tips, bulletPrefix.ReplaceAllString(line, ""))
		case sectionServings:
			if servings == "" {
				servings = firstNumber.FindString(line)
			}
		}
	}

	switch {
	case title == "":
		return "", fmt.Errorf("%w: title", ErrMalformedRecipe)
	case len(ingredients) == 0:
		return "", fmt.Errorf("%w: %s", ErrMalformedRecipe, MarkerIngredients)
	case len(instructions) == 0:
		return "", fmt.Errorf("%w: %s", ErrMalformedRecipe, MarkerInstructions)
	}

	var b strings.Builder
	b.WriteString(title + "\n")
	writeBulleted(&b, MarkerDetails, details)
	writeBulleted(&b, MarkerIngredients, ingredients)
	b.WriteString(MarkerInstructions + ":\n")
	for i, step := range instructions {
		b.WriteString(strconv.Itoa(i+1) + ". " + step + "\n")
	}
	writeBulleted(&b, MarkerTips, tips)
	if servings != "" {
		b.WriteString(MarkerServings + ": " + servings + "\n")
	}
	return b.String(), nil
}

// Lines splits normalized text into its non-empty lines, each with a trailing newline.
func Lines(text string) []string {
	return lo.FilterMap(strings.Split(text, "\n"), func(line string, _ int) (string, bool) {
		if strings.TrimSpace(line) == "" {
			return "", false
		}
		return line + "\n", true
	})
}

func cleanLine(raw string) string {
	line := strings.TrimSpace(emphasisMarker.Replace(raw))
	line = strings.TrimLeft(line, "#")
	return strings.TrimSpace(line)
}

func cleanTitle(line string) string {
	title := titlePrefix.ReplaceAllString(line, "")
	title = strings.TrimPrefix(title, "[")
	title = strings.TrimSuffix(title, "]")
	return strings.TrimSpace(title)
}

// matchHeader reports whether line is a section header. Text following the
// header's colon is returned as rest.
func matchHeader(line string) (section, string, bool) {
	candidate := strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
	for _, h := range headers {
		n := len(h.name)
		if len(candidate) < n || !strings.EqualFold(candidate[:n], h.name) {
			continue
		}
		rest := strings.TrimSpace(candidate[n:])
		if rest == "" {
			return h.section, "", true
		}
		if rest[0] == ':' {
			return h.section, strings.TrimSpace(rest[1:]), true
		}
	}
	return sectionTitle, "", false
}

func appendItem(items []string, item string) []string {
	item = strings.TrimSpace(item)
	if item == "" {
		return items
	}
	return append(items, item)
}

func writeBulleted(b *strings.Builder, marker string, items []string) {
	b.WriteString(marker + ":\n")
	for _, item := range items {
		b.WriteString(Bullet + " " + item + "\n")
	}
}
