package ops

import (
	"time"

	"github.com/hpungsan/nextmeal/internal/meal"
)

// DefaultsOutput is what a collector pre-fills for a fresh form.
type DefaultsOutput struct {
	Meals     []MealOutput `json:"meals"`
	MealTypes []string     `json:"meal_types"`
	Weekdays  []string     `json:"weekdays"`
}

// Defaults returns the pre-filled values for three meals on now's weekday.
func Defaults(now time.Time) *DefaultsOutput {
	var seq meal.Sequence
	for i := range seq {
		seq[i] = meal.Default(now)
	}
	types := make([]string, len(meal.DisplayTypes))
	for i, t := range meal.DisplayTypes {
		types[i] = string(t)
	}
	return &DefaultsOutput{
		Meals:     mealOutputs(seq),
		MealTypes: types,
		Weekdays:  append([]string(nil), meal.Weekdays[:]...),
	}
}
