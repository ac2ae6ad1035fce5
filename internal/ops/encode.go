package ops

import "github.com/hpungsan/nextmeal/internal/features"

// EncodeInput contains parameters for the Encode operation.
type EncodeInput struct {
	Meals []MealInput `json:"meals"`
}

// EncodeOutput is the (Steps, Width) matrix the model would receive before scaling.
type EncodeOutput struct {
	FeatureNames []string     `json:"feature_names"`
	Shape        []int        `json:"shape"`
	Matrix       [][]float64  `json:"matrix"`
	Meals        []MealOutput `json:"meals"`
}

// Encode validates three meals and returns their encoding without touching
// the model or scaler.
func Encode(input EncodeInput) (*EncodeOutput, error) {
	seq, err := ParseMeals(input.Meals)
	if err != nil {
		return nil, err
	}
	m := features.EncodeSequence(seq)
	return &EncodeOutput{
		FeatureNames: features.Names(),
		Shape:        []int{features.Steps, features.Width},
		Matrix:       m.Rows(),
		Meals:        mealOutputs(seq),
	}, nil
}
