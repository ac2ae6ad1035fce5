package predict

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/nextmeal/internal/artifact"
	"github.com/hpungsan/nextmeal/internal/errors"
	"github.com/hpungsan/nextmeal/internal/features"
	"github.com/hpungsan/nextmeal/internal/meal"
)

type modelFunc func(ctx context.Context, in features.Tensor) (features.Tensor, error)

func (f modelFunc) Predict(ctx context.Context, in features.Tensor) (features.Tensor, error) {
	return f(ctx, in)
}
func (modelFunc) Kind() string { return "func" }

func constModel(v float64) modelFunc {
	return func(context.Context, features.Tensor) (features.Tensor, error) {
		return features.Tensor{Shape: []int{1, 1}, Data: []float64{v}}, nil
	}
}

func identityScaler(t *testing.T) artifact.Scaler {
	t.Helper()
	s, err := artifact.NewStandardScaler(nil, []float64{1, 1, 1, 1, 1, 1, 1, 1, 1})
	require.NoError(t, err)
	return s
}

func scenario() meal.Sequence {
	return meal.Sequence{
		{ProteinG: 20, CarbsG: 50, FatG: 15, Type: meal.Breakfast, Hour: 8, Day: meal.Monday},
		{ProteinG: 35, CarbsG: 40, FatG: 20, Type: meal.Lunch, Hour: 13, Day: meal.Monday},
		{ProteinG: 25, CarbsG: 90, FatG: 10, Type: meal.Dinner, Hour: 20, Day: meal.Monday},
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{512.9, 512},
		{512.0, 512},
		{0.99, 0},
		{-3.7, -3},
		{-0.2, 0},
	}
	for _, tc := range tests {
		if got := Truncate(tc.in); got != tc.want {
			t.Errorf("Truncate(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestInvoke_ScalesThenReshapes(t *testing.T) {
	scaler, err := artifact.NewStandardScaler(
		[]float64{10, 0, 0, 0, 0, 0, 0, 0, 0},
		[]float64{2, 1, 1, 1, 1, 1, 1, 1, 1},
	)
	require.NoError(t, err)

	var seen features.Tensor
	model := modelFunc(func(_ context.Context, in features.Tensor) (features.Tensor, error) {
		seen = in
		return features.Tensor{Shape: []int{1, 1}, Data: []float64{512.9}}, nil
	})

	out, err := NewInvoker(model, scaler).Invoke(context.Background(), features.EncodeSequence(scenario()))
	require.NoError(t, err)
	require.Equal(t, 512, out.Calories)
	require.Equal(t, 512.9, out.Raw)

	require.Equal(t, []int{1, 3, 9}, seen.Shape)
	require.Len(t, seen.Data, 27)
	// protein column (20, 35, 25) scaled by (x-10)/2
	require.Equal(t, 5.0, seen.Data[0])
	require.Equal(t, 12.5, seen.Data[9])
	require.Equal(t, 7.5, seen.Data[18])
	// hour column is untouched
	require.Equal(t, 13.0, seen.Data[12])
}

func TestInvoke_AcceptsAnySingleValueShape(t *testing.T) {
	model := modelFunc(func(context.Context, features.Tensor) (features.Tensor, error) {
		return features.Tensor{Shape: []int{1}, Data: []float64{-3.7}}, nil
	})
	out, err := NewInvoker(model, identityScaler(t)).Invoke(context.Background(), features.Matrix{})
	require.NoError(t, err)
	require.Equal(t, -3, out.Calories)
}

func TestInvoke_Failures(t *testing.T) {
	tests := []struct {
		name  string
		model artifact.Model
		want  string
	}{
		{
			name: "model error",
			model: modelFunc(func(context.Context, features.Tensor) (features.Tensor, error) {
				return features.Tensor{}, fmt.Errorf("shape mismatch")
			}),
			want: "prediction failed: shape mismatch",
		},
		{
			name: "model panic",
			model: modelFunc(func(context.Context, features.Tensor) (features.Tensor, error) {
				panic("index out of range")
			}),
			want: "index out of range",
		},
		{
			name: "two outputs",
			model: modelFunc(func(context.Context, features.Tensor) (features.Tensor, error) {
				return features.Tensor{Shape: []int{1, 2}, Data: []float64{1, 2}}, nil
			}),
			want: "want exactly one",
		},
		{
			name: "inconsistent shape",
			model: modelFunc(func(context.Context, features.Tensor) (features.Tensor, error) {
				return features.Tensor{Shape: []int{1, 3}, Data: []float64{1}}, nil
			}),
			want: "needs 3 values",
		},
		{name: "nan", model: constModel(math.NaN()), want: "non-finite"},
		{name: "inf", model: constModel(math.Inf(1)), want: "non-finite"},
		{name: "above int range", model: constModel(1e19), want: "model output 1e+19 out of integer range"},
		{name: "below int range", model: constModel(-1e19), want: "out of integer range"},
		{name: "huge", model: constModel(1e300), want: "out of integer range"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewInvoker(tc.model, identityScaler(t)).Invoke(context.Background(), features.Matrix{})
			require.True(t, errors.Is(err, errors.ErrInferenceFailure), "got %v", err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

type panicScaler struct{}

func (panicScaler) Transform([][]float64) ([][]float64, error) { panic("scaler exploded") }
func (panicScaler) Kind() string                               { return "panic" }

func TestInvoke_ScalerPanic(t *testing.T) {
	_, err := NewInvoker(constModel(1), panicScaler{}).Invoke(context.Background(), features.Matrix{})
	require.True(t, errors.Is(err, errors.ErrInferenceFailure))
	require.Contains(t, err.Error(), "scaler exploded")
}

func TestInvoke_MissingHandles(t *testing.T) {
	_, err := NewInvoker(nil, nil).Invoke(context.Background(), features.Matrix{})
	require.True(t, errors.Is(err, errors.ErrInferenceFailure))
}

func bundleLoader(model artifact.Model, scaler artifact.Scaler) *artifact.Loader {
	return artifact.NewLoaderFunc(func() (*artifact.Bundle, error) {
		return &artifact.Bundle{Model: model, Scaler: scaler, LoadedAt: time.Now()}, nil
	})
}

func TestService_EndToEndScenario(t *testing.T) {
	var seen features.Tensor
	model := modelFunc(func(_ context.Context, in features.Tensor) (features.Tensor, error) {
		seen = in
		return features.Tensor{Shape: []int{1, 1}, Data: []float64{742.6}}, nil
	})
	svc := NewService(bundleLoader(model, identityScaler(t)), nil)

	res, err := svc.Predict(context.Background(), scenario())
	require.NoError(t, err)
	require.Equal(t, 742, res.Calories)
	require.Len(t, res.ID, 26)
	require.False(t, res.PredictedAt.IsZero())

	require.Equal(t, features.Vector{20, 50, 15, 8, 0, 1, 0, 0, 0}, res.Encoded[0])
	require.Equal(t, features.Vector{35, 40, 20, 13, 0, 0, 0, 1, 0}, res.Encoded[1])
	require.Equal(t, features.Vector{25, 90, 10, 20, 0, 0, 1, 0, 0}, res.Encoded[2])
	require.Equal(t, res.Encoded.Tensor(), seen)
}

func TestService_FailureContainment(t *testing.T) {
	calls := 0
	model := modelFunc(func(context.Context, features.Tensor) (features.Tensor, error) {
		calls++
		if calls == 1 {
			panic("transient forward pass failure")
		}
		return features.Tensor{Shape: []int{1, 1}, Data: []float64{512.9}}, nil
	})
	svc := NewService(bundleLoader(model, identityScaler(t)), nil)

	_, err := svc.Predict(context.Background(), scenario())
	require.True(t, errors.Is(err, errors.ErrInferenceFailure))

	res, err := svc.Predict(context.Background(), scenario())
	require.NoError(t, err)
	require.Equal(t, 512, res.Calories)
}

func TestService_Unavailable(t *testing.T) {
	loads := 0
	loader := artifact.NewLoaderFunc(func() (*artifact.Bundle, error) {
		loads++
		return nil, fmt.Errorf("open model.json: no such file")
	})
	svc := NewService(loader, nil)

	_, err := svc.Predict(context.Background(), scenario())
	require.True(t, errors.Is(err, errors.ErrArtifactUnavailable))
	_, err = svc.Predict(context.Background(), scenario())
	require.True(t, errors.Is(err, errors.ErrArtifactUnavailable))

	status := svc.Status()
	require.False(t, status.Available)
	require.Contains(t, status.Error, "no such file")
	require.Equal(t, 1, loads)
}

func TestService_Status(t *testing.T) {
	svc := NewService(bundleLoader(constModel(1), identityScaler(t)), nil)
	status := svc.Status()
	require.True(t, status.Available)
	require.Equal(t, "func", status.ModelKind)
	require.Equal(t, artifact.ScalerStandard, status.ScalerKind)
	require.NotNil(t, status.LoadedAt)
}

func TestService_UniqueRequestIDs(t *testing.T) {
	svc := NewService(bundleLoader(constModel(1), identityScaler(t)), nil)
	a, err := svc.Predict(context.Background(), scenario())
	require.NoError(t, err)
	b, err := svc.Predict(context.Background(), scenario())
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)
}
