// Command fitgen calls the FitGen generation API from the terminal.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/hbollon/go-edlib"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"github.com/fdg312/fitgen/internal/client"
	"github.com/fdg312/fitgen/internal/generation"
	"github.com/fdg312/fitgen/internal/prompts"
)

var commands = []string{"meal-plan", "workout", "split", "health"}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: fitgen [-base URL] [-token JWT] [-dev] <command> [flags]")
	fmt.Fprintln(w, "commands: "+strings.Join(commands, ", "))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("fitgen", flag.ContinueOnError)
	global.SetOutput(stderr)
	base := global.String("base", os.Getenv("API_BASE_URL"), "API base URL (env API_BASE_URL)")
	token := global.String("token", os.Getenv("FITGEN_TOKEN"), "bearer token (env FITGEN_TOKEN)")
	dev := global.Bool("dev", true, "use the local development gateway when -base is empty")
	verbose := global.Bool("v", false, "log retries to stderr")
	global.Usage = func() { usage(stderr) }
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		usage(stderr)
		return 2
	}

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}).Level(level).With().Timestamp().Logger()

	c := client.New(client.ResolveBaseURL(*base, *dev), client.WithToken(*token), client.WithLogger(logger))

	name, rest := global.Arg(0), global.Args()[1:]
	var (
		result any
		err    error
	)
	switch name {
	case "meal-plan":
		result, err = mealPlan(ctx, c, rest, stderr)
	case "workout":
		result, err = workout(ctx, c, rest, stderr)
	case "split":
		result, err = split(ctx, c, rest, stderr)
	case "health":
		result, err = c.Health(ctx)
	default:
		fmt.Fprintf(stderr, "unknown command %q", name)
		if s := suggest(name); s != "" {
			fmt.Fprintf(stderr, ", did you mean %q?", s)
		}
		fmt.Fprintln(stderr)
		usage(stderr)
		return 2
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 0 && apiErr.Err != nil && isUsageError(apiErr.Err) {
			return 2
		}
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func isUsageError(err error) bool {
	var v *generation.ValidationError
	return errors.As(err, &v)
}

// suggest returns the closest known command, if it is close enough.
func suggest(name string) string {
	best, err := edlib.FuzzySearchThreshold(name, commands, 0.5, edlib.Levenshtein)
	if err != nil {
		return ""
	}
	return best
}

func mealPlan(ctx context.Context, c *client.Client, args []string, stderr io.Writer) (any, error) {
	fs := flag.NewFlagSet("meal-plan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	raw := fs.String("prompt", "", "send this prompt text instead of rendering one")
	budget := fs.String("budget", "", "weekly budget, e.g. $60")
	preference := fs.String("preference", "", "dietary preference")
	days := fs.Int("days", 7, "number of days")
	age := fs.Int("age", 0, "age in years")
	weight := fs.Float64("weight", 0, "current weight, kg")
	height := fs.Float64("height", 0, "height, cm")
	target := fs.Float64("target-weight", 0, "target weight, kg")
	goal := fs.String("goal", "", "fitness goal")
	frequency := fs.String("frequency", "", "workout frequency")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	prompt := *raw
	if strings.TrimSpace(prompt) == "" {
		prompt = prompts.MealPlan(prompts.MealPlanParams{
			Age:              positiveInt(*age),
			WeightKg:         positiveFloat(*weight),
			HeightCm:         positiveFloat(*height),
			TargetWeightKg:   positiveFloat(*target),
			Goal:             *goal,
			WorkoutFrequency: *frequency,
			Budget:           *budget,
			Preference:       *preference,
			Days:             *days,
		})
	}

	plan, err := c.GenerateMealPlan(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func workout(ctx context.Context, c *client.Client, args []string, stderr io.Writer) (any, error) {
	fs := flag.NewFlagSet("workout", flag.ContinueOnError)
	fs.SetOutput(stderr)
	muscles := fs.String("muscles", "", "comma separated target muscles")
	frequency := fs.String("frequency", "", "training frequency")
	experience := fs.String("experience", "", "experience level")
	location := fs.String("location", "", "Home or Gym")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var targets []string
	for _, m := range strings.Split(*muscles, ",") {
		if m = strings.TrimSpace(m); m != "" {
			targets = append(targets, m)
		}
	}

	return c.GenerateWorkout(ctx, generation.WorkoutRequest{
		TargetMuscles: targets,
		Frequency:     *frequency,
		Experience:    *experience,
		Location:      *location,
	})
}

func split(ctx context.Context, c *client.Client, args []string, stderr io.Writer) (any, error) {
	fs := flag.NewFlagSet("split", flag.ContinueOnError)
	fs.SetOutput(stderr)
	experience := fs.String("experience", "", "experience level")
	days := fs.String("days", "", "training days per week (3-6)")
	location := fs.String("location", "", "Home or Gym")
	goal := fs.String("goal", "", "training goal")
	cardio := fs.Bool("cardio", false, "include cardio sessions")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return c.GenerateWorkoutSplit(ctx, generation.WorkoutSplitRequest{
		Experience:    *experience,
		DaysPerWeek:   generation.NumericString(*days),
		Location:      *location,
		Goal:          *goal,
		IncludeCardio: *cardio,
	})
}

func positiveInt(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}

func positiveFloat(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
