// Command feast photographs leftovers into a recipe: it uploads an image,
// streams a recipe for the detected ingredients and saves an illustration.
package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"wastetofeast/internal/client"
	"wastetofeast/internal/ingredient"
	"wastetofeast/internal/logger"
	"wastetofeast/internal/recipe"
)

func main() {
	flags := pflag.NewFlagSet("feast", pflag.ExitOnError)
	flags.String("server", "http://localhost:3001", "recipe server URL")
	flags.String("image", "", "photo of the ingredients to analyze")
	flags.String("ingredients", "", "comma-separated ingredients; skips image analysis")
	flags.String("meal-type", recipe.MealDinner, "Breakfast, Lunch, Dinner or Snack")
	flags.String("cuisine", "Any", "cuisine of the recipe")
	flags.String("cooking-time", recipe.TimeUnder30, "cooking time")
	flags.String("complexity", recipe.Beginner, "Beginner, Intermediate or Advanced")
	flags.String("out", "", "write the illustration to this PNG file")
	flags.Duration("timeout", 30*time.Second, "timeout for non-streaming requests")
	flags.String("log-level", "warn", "log level")
	_ = flags.Parse(os.Args[1:])

	v := viper.New()
	v.SetEnvPrefix("FEAST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read flags: %v\n", err)
		os.Exit(2)
	}

	log, err := logger.New(v.GetString("log-level"), "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, v, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, v *viper.Viper, log *zap.Logger) error {
	api := client.New(v.GetString("server")).SetTimeout(v.GetDuration("timeout"))

	ingredients := v.GetString("ingredients")
	if ingredients == "" {
		path := v.GetString("image")
		if path == "" {
			return errors.New("either --image or --ingredients is required")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		records, err := api.AnalyzeImage(ctx, filepath.Base(path), data)
		if err != nil {
			return err
		}
		printIngredients(os.Stdout, records)
		ingredients = ingredient.Names(records)
	}

	req := recipe.Request{
		Ingredients: ingredients,
		MealType:    v.GetString("meal-type"),
		Cuisine:     v.GetString("cuisine"),
		CookingTime: v.GetString("cooking-time"),
		Complexity:  v.GetString("complexity"),
	}

	p := newPrinter(os.Stdout)
	session := client.NewSession(api, log, client.Callbacks{
		OnUpdate:   p.Update,
		OnRendered: p.Finish,
	})
	if err := session.Submit(ctx, req); err != nil {
		return err
	}
	session.Wait()

	snap := session.Snapshot()
	switch snap.State {
	case client.StateFailed:
		return snap.Err
	case client.StateRendered:
	default:
		return ctx.Err()
	}

	out := v.GetString("out")
	if out == "" || snap.Image == "" {
		return nil
	}
	image, err := base64.StdEncoding.DecodeString(snap.Image)
	if err != nil {
		return fmt.Errorf("failed to decode illustration: %w", err)
	}
	if err := os.WriteFile(out, image, 0o644); err != nil {
		return fmt.Errorf("failed to save illustration: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\nIllustration saved to %s\n", out)
	return nil
}

func printIngredients(w io.Writer, records []ingredient.Record) {
	fmt.Fprintln(w, "Detected ingredients:")
	width := lo.Max(lo.Map(records, func(r ingredient.Record, _ int) int { return len(r.Name) }))
	for _, r := range records {
		fmt.Fprintf(w, "  %-*s  room %s | fridge %s | freezer %s\n",
			width, r.Name, r.ShelfLife.Room, r.ShelfLife.Refrigerated, r.ShelfLife.Frozen)
	}
	fmt.Fprintln(w)
}
