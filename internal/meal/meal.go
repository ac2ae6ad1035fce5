// Package meal defines the meal records collected for a prediction and the
// category orderings the trained model depends on.
package meal

import (
	"fmt"
	"math"

	"github.com/hpungsan/nextmeal/internal/errors"
)

// SequenceLen is the number of meals a prediction consumes.
const SequenceLen = 3

// Type is the categorical kind of a meal.
type Type string

const (
	Breakfast Type = "Breakfast"
	Lunch     Type = "Lunch"
	Dinner    Type = "Dinner"
	Snack     Type = "Snack"
)

// DisplayTypes is the order meal types are offered to users.
var DisplayTypes = [4]Type{Breakfast, Lunch, Dinner, Snack}

// TrainingTypes is the one-hot column order the model was fit with
// (alphabetical, as produced by the training-time encoder). It differs from
// DisplayTypes and must never be derived from it.
var TrainingTypes = [4]Type{Breakfast, Dinner, Lunch, Snack}

// Record is one observed or hypothetical meal.
type Record struct {
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
	Type     Type    `json:"meal_type"`
	Hour     int     `json:"hour_of_day"`
	Day      Weekday `json:"day_of_week"`
}

// Sequence is three meals ordered oldest to newest.
type Sequence [SequenceLen]Record

// Valid reports whether t is one of the known meal types.
func (t Type) Valid() bool {
	for _, known := range DisplayTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseType resolves a meal type name, ignoring case and surrounding whitespace.
func ParseType(s string) (Type, error) {
	t := Type(Canonical(s))
	if !t.Valid() {
		return "", errors.NewInvalidRequest(fmt.Sprintf("unknown meal type %q (want one of Breakfast, Lunch, Dinner, Snack)", s))
	}
	return t, nil
}

// Validate checks the ranges the collector is expected to enforce.
func (r Record) Validate() error {
	macros := []struct {
		name  string
		value float64
	}{
		{"protein_g", r.ProteinG},
		{"carbs_g", r.CarbsG},
		{"fat_g", r.FatG},
	}
	for _, m := range macros {
		if math.IsNaN(m.value) || math.IsInf(m.value, 0) {
			return errors.NewInvalidRequest(fmt.Sprintf("%s must be a finite number", m.name))
		}
		if m.value < 0 {
			return errors.NewInvalidRequest(fmt.Sprintf("%s must be non-negative", m.name))
		}
	}
	if !r.Type.Valid() {
		return errors.NewInvalidRequest(fmt.Sprintf("unknown meal type %q", r.Type))
	}
	if r.Hour < 0 || r.Hour > 23 {
		return errors.NewInvalidRequest("hour_of_day must be between 0 and 23")
	}
	if !r.Day.Valid() {
		return errors.NewInvalidRequest(fmt.Sprintf("day_of_week index %d out of range", int(r.Day)))
	}
	return nil
}

// Validate checks every record, reporting the first failing meal by position.
func (s Sequence) Validate() error {
	for i, r := range s {
		if err := r.Validate(); err != nil {
			if nErr, ok := err.(*errors.NextMealError); ok {
				return errors.NewInvalidRequest(fmt.Sprintf("meal %d: %s", i+1, nErr.Message))
			}
			return err
		}
	}
	return nil
}
