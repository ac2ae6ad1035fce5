// Package artifact loads the externally trained calorie model and its fitted
// feature scaler. Both are treated as opaque, immutable handles once loaded.
package artifact

import (
	"context"
	"time"

	"github.com/hpungsan/nextmeal/internal/features"
)

// Scaler is a pre-fitted per-feature normalization transform. It is never refit.
type Scaler interface {
	// Transform normalizes (n, features.Width) rows and returns new rows of the same shape.
	Transform(rows [][]float64) ([][]float64, error)
	// Kind names the scaler family, e.g. "standard".
	Kind() string
}

// Model is a trained sequence model consuming (1, Steps, Width) tensors.
type Model interface {
	// Predict runs a forward pass. The output is (batch, outputs).
	Predict(ctx context.Context, input features.Tensor) (features.Tensor, error)
	// Kind names the model backend, e.g. "lstm".
	Kind() string
}

// Bundle is the loaded model/scaler pair shared read-only by all requests.
type Bundle struct {
	Model    Model
	Scaler   Scaler
	LoadedAt time.Time
}
