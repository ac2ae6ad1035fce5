package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/nextmeal/internal/config"
	"github.com/hpungsan/nextmeal/internal/errors"
	"github.com/hpungsan/nextmeal/internal/ops"
	"github.com/hpungsan/nextmeal/internal/web"
)

// maxStdinBytes caps the meal JSON read from stdin.
const maxStdinBytes = 1 << 20

// newCLIApp creates the CLI application with all commands.
func newCLIApp(svc ops.Predictor, cfg *config.Config, logger *zap.Logger) *cli.App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &cli.App{
		Name:    "nextmeal",
		Usage:   "Predict the calories of your next meal from the last three",
		Version: Version,
		// --meal values are comma-separated key=value lists
		DisableSliceFlagSeparator: true,
		Commands: []*cli.Command{
			predictCmd(svc),
			encodeCmd(),
			statusCmd(svc),
			defaultsCmd(),
			serveCmd(svc, cfg, logger),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

var mealFlag = &cli.StringSliceFlag{
	Name:    "meal",
	Aliases: []string{"m"},
	Usage:   "Meal as key=value pairs, oldest first; repeat 3 times (e.g. protein=20,carbs=50,fat=15,type=Breakfast,hour=8,day=Monday)",
}

// predictCmd creates the predict command.
func predictCmd(svc ops.Predictor) *cli.Command {
	return &cli.Command{
		Name:  "predict",
		Usage: "Predict next-meal calories (3x --meal, or a JSON meal array on stdin)",
		Flags: []cli.Flag{mealFlag},
		Action: func(c *cli.Context) error {
			meals, err := mealsFromContext(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Predict(c.Context, svc, ops.PredictInput{Meals: meals})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// encodeCmd creates the encode command.
func encodeCmd() *cli.Command {
	return &cli.Command{
		Name:  "encode",
		Usage: "Show the feature matrix for three meals without running the model",
		Flags: []cli.Flag{mealFlag},
		Action: func(c *cli.Context) error {
			meals, err := mealsFromContext(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Encode(ops.EncodeInput{Meals: meals})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// statusCmd creates the status command.
func statusCmd(svc ops.Predictor) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Load the model and scaler and report whether prediction is available",
		Action: func(c *cli.Context) error {
			output := ops.Status(svc)
			if err := outputJSON(output); err != nil {
				return err
			}
			if !output.Available {
				return cli.Exit(fmt.Sprintf("[%s] %s", errors.ErrArtifactUnavailable, output.Error), 1)
			}
			return nil
		},
	}
}

// defaultsCmd creates the defaults command.
func defaultsCmd() *cli.Command {
	return &cli.Command{
		Name:  "defaults",
		Usage: "Print the default meal values offered by the form",
		Action: func(c *cli.Context) error {
			return outputJSON(ops.Defaults(time.Now()))
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(svc ops.Predictor, cfg *config.Config, logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the prediction form in a browser",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: cfg.WebBind, Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: cfg.WebPort, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv, err := web.NewServer(svc, Version, serveAddr(cfg, c.String("bind"), c.Int("port")), logger)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv, logger)
		},
	}
}

// Helper functions

// serveAddr applies the --bind and --port flags to a copy of cfg.
func serveAddr(cfg *config.Config, bind string, port int) string {
	serve := *cfg
	serve.WebBind = bind
	serve.WebPort = port
	return serve.WebAddr()
}

// mealsFromContext reads meals from --meal flags, or from stdin when none are given.
func mealsFromContext(c *cli.Context) ([]ops.MealInput, error) {
	if flags := c.StringSlice("meal"); len(flags) > 0 {
		meals := make([]ops.MealInput, len(flags))
		for i, s := range flags {
			m, err := parseMealFlag(s)
			if err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("--meal %d: %s", i+1, err))
			}
			meals[i] = m
		}
		return meals, nil
	}

	if !stdinHasData() {
		return nil, errors.NewInvalidRequest("provide 3 --meal flags or pipe a JSON meal array via stdin")
	}
	data, err := readStdin(maxStdinBytes)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	return parseMealsJSON(data)
}

// mealKeys maps accepted --meal keys to canonical field names.
var mealKeys = map[string]string{
	"protein": "protein_g", "protein_g": "protein_g", "p": "protein_g",
	"carbs": "carbs_g", "carbs_g": "carbs_g", "c": "carbs_g",
	"fat": "fat_g", "fat_g": "fat_g", "f": "fat_g",
	"type": "meal_type", "meal_type": "meal_type", "t": "meal_type",
	"hour": "hour_of_day", "hour_of_day": "hour_of_day", "h": "hour_of_day",
	"day": "day_of_week", "day_of_week": "day_of_week", "d": "day_of_week",
}

var mealFields = []string{"protein_g", "carbs_g", "fat_g", "meal_type", "hour_of_day", "day_of_week"}

// parseMealFlag parses "protein=20,carbs=50,fat=15,type=Breakfast,hour=8,day=Monday".
// Every field is required; range checks happen in ops.
func parseMealFlag(s string) (ops.MealInput, error) {
	var in ops.MealInput
	seen := make(map[string]bool, len(mealFields))

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return in, fmt.Errorf("expected key=value, got %q", part)
		}
		field, ok := mealKeys[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			return in, fmt.Errorf("unknown key %q", key)
		}
		if seen[field] {
			return in, fmt.Errorf("%s given twice", field)
		}
		seen[field] = true
		value = strings.TrimSpace(value)

		var err error
		switch field {
		case "protein_g":
			in.ProteinG, err = strconv.ParseFloat(value, 64)
		case "carbs_g":
			in.CarbsG, err = strconv.ParseFloat(value, 64)
		case "fat_g":
			in.FatG, err = strconv.ParseFloat(value, 64)
		case "hour_of_day":
			in.Hour, err = strconv.Atoi(value)
		case "meal_type":
			in.MealType = value
		case "day_of_week":
			in.DayOfWeek = ops.Day(value)
		}
		if err != nil {
			return in, fmt.Errorf("%s: invalid number %q", field, value)
		}
	}

	var missing []string
	for _, f := range mealFields {
		if !seen[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return in, fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	return in, nil
}

// parseMealsJSON accepts either a bare array of meals or {"meals": [...]}.
func parseMealsJSON(data string) ([]ops.MealInput, error) {
	trimmed := strings.TrimSpace(data)
	if trimmed == "" {
		return nil, errors.NewInvalidRequest("stdin is empty")
	}

	var meals []ops.MealInput
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &meals); err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid meal JSON: %v", err))
		}
		return meals, nil
	}

	var wrapped ops.PredictInput
	if err := json.Unmarshal([]byte(trimmed), &wrapped); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid meal JSON: %v", err))
	}
	return wrapped.Meals, nil
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var nErr *errors.NextMealError
	if stderrors.As(err, &nErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", nErr.Code, nErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most limit bytes from stdin.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("stdin exceeds %d bytes", limit)
	}
	return strings.TrimSpace(string(data)), nil
}
