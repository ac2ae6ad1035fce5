// Package features turns a meal sequence into the numeric tensor the calorie
// model was trained on. Everything here is pure and deterministic.
package features

import (
	"fmt"

	"github.com/hpungsan/nextmeal/internal/meal"
)

const (
	// Width is the number of features per meal.
	Width = 9
	// Steps is the number of timesteps (meals) per sample.
	Steps = meal.SequenceLen
)

// Vector is the encoding of one meal.
type Vector [Width]float64

// Matrix is a meal sequence encoded row per meal, oldest first.
type Matrix [Steps]Vector

// Names returns the feature names in column order.
func Names() []string {
	return []string{
		"protein_g",
		"carbs_g",
		"fat_g",
		"hour_of_day",
		"day_of_week",
		"is_breakfast",
		"is_dinner",
		"is_lunch",
		"is_snack",
	}
}

// Encode converts one meal into its feature vector. The one-hot slots follow
// meal.TrainingTypes, not the display order.
func Encode(r meal.Record) Vector {
	v := Vector{
		r.ProteinG,
		r.CarbsG,
		r.FatG,
		float64(r.Hour),
		float64(r.Day),
	}
	for i, t := range meal.TrainingTypes {
		if r.Type == t {
			v[5+i] = 1
		}
	}
	return v
}

// EncodeSequence stacks the encoded meals in input order.
func EncodeSequence(seq meal.Sequence) Matrix {
	var m Matrix
	for i, r := range seq {
		m[i] = Encode(r)
	}
	return m
}

// Rows returns a copy of the matrix as an (n, Width) slice, the shape scalers consume.
func (m Matrix) Rows() [][]float64 {
	rows := make([][]float64, len(m))
	for i := range m {
		row := make([]float64, Width)
		copy(row, m[i][:])
		rows[i] = row
	}
	return rows
}

// MatrixFromRows converts (Steps, Width) rows back into a Matrix.
func MatrixFromRows(rows [][]float64) (Matrix, error) {
	var m Matrix
	if len(rows) != Steps {
		return m, fmt.Errorf("expected %d rows, got %d", Steps, len(rows))
	}
	for i, row := range rows {
		if len(row) != Width {
			return m, fmt.Errorf("row %d: expected %d columns, got %d", i, Width, len(row))
		}
		copy(m[i][:], row)
	}
	return m, nil
}
