package ops

import (
	"context"
	"time"

	"github.com/hpungsan/nextmeal/internal/errors"
)

// PredictInput contains parameters for the Predict operation.
type PredictInput struct {
	Meals []MealInput `json:"meals"`
}

// PredictOutput contains the result of the Predict operation.
type PredictOutput struct {
	ID          string       `json:"id"`
	Calories    int          `json:"calories"`
	Unit        string       `json:"unit"`
	Meals       []MealOutput `json:"meals"`
	PredictedAt time.Time    `json:"predicted_at"`
}

// Predict validates three meals and predicts the calories of the next one.
func Predict(ctx context.Context, svc Predictor, input PredictInput) (*PredictOutput, error) {
	seq, err := ParseMeals(input.Meals)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, errors.NewArtifactUnavailable(nil)
	}

	res, err := svc.Predict(ctx, seq)
	if err != nil {
		return nil, err
	}

	return &PredictOutput{
		ID:          res.ID,
		Calories:    res.Calories,
		Unit:        "kcal",
		Meals:       mealOutputs(seq),
		PredictedAt: res.PredictedAt,
	}, nil
}
