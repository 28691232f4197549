package main

import (
	"fmt"
	"io"
	"sync"

	"wastetofeast/internal/recipe"
)

// printer writes a recipe to a terminal as it grows. Every item is printed
// once, in section order, as soon as its section has closed.
type printer struct {
	mu  sync.Mutex
	w   io.Writer
	out struct {
		title, details, servings bool
		ingredients, steps, tips int
	}
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

// Update prints whatever the view adds to what was already printed.
func (p *printer) Update(v recipe.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.print(v, false)
}

// Finish prints the rest of the final view.
func (p *printer) Finish(v recipe.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.print(v, true)
}

func (p *printer) print(v recipe.View, final bool) {
	if !p.out.title && v.Title != "" && (final || v.Cuisine != "" || len(v.Ingredients) > 0) {
		fmt.Fprintf(p.w, "%s\n\n", v.Title)
		p.out.title = true
	}
	if !p.out.details && v.Complexity != "" {
		fmt.Fprintf(p.w, "%s | %s | %s | %s\n", v.Cuisine, v.MealType, v.CookingTime, v.Complexity)
		p.out.details = true
	}

	p.out.ingredients = p.items("Ingredients:", v.Ingredients, p.out.ingredients, func(i int, s string) string {
		return "  • " + s
	})
	p.out.steps = p.items("Instructions:", v.Instructions, p.out.steps, func(i int, s string) string {
		return fmt.Sprintf("  %d. %s", i+1, s)
	})
	p.out.tips = p.items("Cooking tips:", v.Tips, p.out.tips, func(i int, s string) string {
		return "  • " + s
	})

	if final && !p.out.servings {
		fmt.Fprintf(p.w, "\nServings: %s\n", v.Servings)
		p.out.servings = true
	}
}

func (p *printer) items(heading string, items []string, printed int, format func(int, string) string) int {
	if len(items) <= printed {
		return printed
	}
	if printed == 0 {
		fmt.Fprintf(p.w, "\n%s\n", heading)
	}
	for i := printed; i < len(items); i++ {
		fmt.Fprintln(p.w, format(i, items[i]))
	}
	return len(items)
}
