// Package predict runs the encoded meal matrix through the fitted scaler and
// model and turns the model output into a whole-kilocalorie estimate.
package predict

import (
	"context"
	"fmt"
	"math"

	"github.com/hpungsan/nextmeal/internal/artifact"
	"github.com/hpungsan/nextmeal/internal/errors"
	"github.com/hpungsan/nextmeal/internal/features"
)

// Invoker holds read-only handles to a loaded model and scaler.
type Invoker struct {
	model  artifact.Model
	scaler artifact.Scaler
}

// Output is one successful invocation.
type Output struct {
	Calories int
	Raw      float64
}

// NewInvoker returns an invoker over the given handles.
func NewInvoker(model artifact.Model, scaler artifact.Scaler) *Invoker {
	return &Invoker{model: model, scaler: scaler}
}

// Invoke scales m, reshapes it to (1, Steps, Width), runs the model and
// truncates the single output toward zero. Every failure, including a panic
// inside the scaler or model, comes back as INFERENCE_FAILURE.
func (inv *Invoker) Invoke(ctx context.Context, m features.Matrix) (out Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = Output{}, errors.NewInferenceFailure(fmt.Errorf("%v", r))
		}
	}()

	raw, err := inv.run(ctx, m)
	if err != nil {
		return Output{}, errors.NewInferenceFailure(err)
	}
	return Output{Calories: Truncate(raw), Raw: raw}, nil
}

func (inv *Invoker) run(ctx context.Context, m features.Matrix) (float64, error) {
	if inv.model == nil || inv.scaler == nil {
		return 0, fmt.Errorf("model and scaler are required")
	}

	scaled, err := inv.scaler.Transform(m.Rows())
	if err != nil {
		return 0, fmt.Errorf("scale: %w", err)
	}
	input, err := features.Reshape(scaled)
	if err != nil {
		return 0, err
	}

	result, err := inv.model.Predict(ctx, input)
	if err != nil {
		return 0, err
	}
	if err := result.Validate(); err != nil {
		return 0, err
	}
	if len(result.Data) != 1 {
		return 0, fmt.Errorf("model returned %d values with shape %v, want exactly one", len(result.Data), result.Shape)
	}

	v := result.Data[0]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("model returned non-finite value %v", v)
	}
	// int conversion of a float outside the int64 range is implementation-defined
	if v >= math.MaxInt64 || v < math.MinInt64 {
		return 0, fmt.Errorf("model output %v out of integer range", v)
	}
	return v, nil
}

// Truncate drops the fractional part toward zero: 512.9 -> 512, -3.7 -> -3.
func Truncate(v float64) int {
	return int(math.Trunc(v))
}
