// Package ops holds the operations shared by the CLI, web and MCP surfaces.
// It is the only caller of the prediction core and the only layer that
// raises INVALID_REQUEST for meal input.
package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hpungsan/nextmeal/internal/errors"
	"github.com/hpungsan/nextmeal/internal/meal"
	"github.com/hpungsan/nextmeal/internal/predict"
)

// Predictor is the prediction service consumed by ops.
type Predictor interface {
	Predict(ctx context.Context, seq meal.Sequence) (*predict.Result, error)
	Status() predict.Status
}

// MealInput is one meal as submitted by a collector. Meal type and weekday
// are names matched case-insensitively; the weekday may also be its
// Monday-based index.
type MealInput struct {
	ProteinG  float64 `json:"protein_g"`
	CarbsG    float64 `json:"carbs_g"`
	FatG      float64 `json:"fat_g"`
	MealType  string  `json:"meal_type"`
	Hour      int     `json:"hour_of_day"`
	DayOfWeek Day     `json:"day_of_week"`
}

// Day is a submitted weekday, either a name or a Monday-based index.
// JSON numbers are decoded as meal.Weekday indexes and kept in decimal form.
type Day string

// UnmarshalJSON accepts a JSON string or number.
func (d *Day) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		*d = Day(name)
		return nil
	}
	var w meal.Weekday
	if err := w.UnmarshalJSON(b); err != nil {
		return err
	}
	*d = Day(strconv.Itoa(int(w)))
	return nil
}

// ParseMeal converts and validates one meal input.
func ParseMeal(in MealInput) (meal.Record, error) {
	t, err := meal.ParseType(in.MealType)
	if err != nil {
		return meal.Record{}, err
	}
	day, err := parseDay(string(in.DayOfWeek))
	if err != nil {
		return meal.Record{}, err
	}
	r := meal.Record{
		ProteinG: in.ProteinG,
		CarbsG:   in.CarbsG,
		FatG:     in.FatG,
		Type:     t,
		Hour:     in.Hour,
		Day:      day,
	}
	if err := r.Validate(); err != nil {
		return meal.Record{}, err
	}
	return r, nil
}

func parseDay(s string) (meal.Weekday, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.NewInvalidRequest("day_of_week is required")
	}
	if idx, err := strconv.Atoi(s); err == nil {
		d := meal.Weekday(idx)
		if !d.Valid() {
			return 0, errors.NewInvalidRequest(fmt.Sprintf("day_of_week index %d out of range", idx))
		}
		return d, nil
	}
	return meal.ParseWeekday(s)
}

// ParseMeals requires exactly three meals, oldest first, and validates each.
func ParseMeals(inputs []MealInput) (meal.Sequence, error) {
	var seq meal.Sequence
	if len(inputs) != meal.SequenceLen {
		return seq, errors.NewInvalidRequest(fmt.Sprintf("exactly %d meals are required, got %d", meal.SequenceLen, len(inputs)))
	}
	for i, in := range inputs {
		r, err := ParseMeal(in)
		if err != nil {
			return seq, prefixMeal(i, err)
		}
		seq[i] = r
	}
	return seq, nil
}

func prefixMeal(i int, err error) error {
	if nErr, ok := err.(*errors.NextMealError); ok && nErr.Code == errors.ErrInvalidRequest {
		return errors.NewInvalidRequest(fmt.Sprintf("meal %d: %s", i+1, nErr.Message))
	}
	return err
}

// MealOutput is the normalized view of one accepted meal.
type MealOutput struct {
	ProteinG  float64      `json:"protein_g"`
	CarbsG    float64      `json:"carbs_g"`
	FatG      float64      `json:"fat_g"`
	MealType  string       `json:"meal_type"`
	Hour      int          `json:"hour_of_day"`
	DayOfWeek meal.Weekday `json:"day_of_week"`
}

func mealOutputs(seq meal.Sequence) []MealOutput {
	out := make([]MealOutput, len(seq))
	for i, r := range seq {
		out[i] = MealOutput{
			ProteinG:  r.ProteinG,
			CarbsG:    r.CarbsG,
			FatG:      r.FatG,
			MealType:  string(r.Type),
			Hour:      r.Hour,
			DayOfWeek: r.Day,
		}
	}
	return out
}
