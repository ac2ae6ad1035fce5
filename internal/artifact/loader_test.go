package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/nextmeal/internal/errors"
	"github.com/hpungsan/nextmeal/internal/features"
)

type stubModel struct{}

func (stubModel) Predict(context.Context, features.Tensor) (features.Tensor, error) {
	return features.Tensor{Shape: []int{1, 1}, Data: []float64{1}}, nil
}
func (stubModel) Kind() string { return "stub" }

func TestLoader_MemoizesSuccess(t *testing.T) {
	calls := 0
	scaler, err := NewStandardScaler(nil, make([]float64, features.Width))
	require.NoError(t, err)

	l := NewLoaderFunc(func() (*Bundle, error) {
		calls++
		return &Bundle{Model: stubModel{}, Scaler: scaler}, nil
	})

	first, err := l.Load()
	require.NoError(t, err)
	second, err := l.Load()
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, 1, calls)
}

func TestLoader_MemoizesFailure(t *testing.T) {
	calls := 0
	l := NewLoaderFunc(func() (*Bundle, error) {
		calls++
		return nil, fmt.Errorf("model.json: no such file")
	})

	for i := 0; i < 3; i++ {
		b, err := l.Load()
		require.Nil(t, b)
		require.True(t, errors.Is(err, errors.ErrArtifactUnavailable), "got %v", err)
		require.Contains(t, err.Error(), "model.json: no such file")
	}
	require.Equal(t, 1, calls)
}

func TestLoader_ConcurrentFirstUse(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	scaler, err := NewStandardScaler(nil, make([]float64, features.Width))
	require.NoError(t, err)

	l := NewLoaderFunc(func() (*Bundle, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return &Bundle{Model: stubModel{}, Scaler: scaler}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.Load()
		}()
	}
	wg.Wait()
	require.Equal(t, 1, calls)
}

func TestLoader_PanicAndIncompleteBundle(t *testing.T) {
	l := NewLoaderFunc(func() (*Bundle, error) { panic("corrupt weights") })
	_, err := l.Load()
	require.True(t, errors.Is(err, errors.ErrArtifactUnavailable))
	require.Contains(t, err.Error(), "corrupt weights")

	l = NewLoaderFunc(func() (*Bundle, error) { return &Bundle{Model: stubModel{}}, nil })
	_, err = l.Load()
	require.True(t, errors.Is(err, errors.ErrArtifactUnavailable))
}

func TestNewLoader_FromFiles(t *testing.T) {
	dir := t.TempDir()
	model, err := json.Marshal(proteinSumModel())
	require.NoError(t, err)
	modelPath := writeFile(t, dir, "model.json", string(model))
	scalerPath := writeFile(t, dir, "scaler.json", `{"kind":"standard","scale":[1,1,1,1,1,1,1,1,1]}`)

	l := NewLoader(Spec{ModelKind: ModelLSTM, ModelPath: modelPath, ScalerPath: scalerPath}, nil)
	b, err := l.Load()
	require.NoError(t, err)
	require.Equal(t, ModelLSTM, b.Model.Kind())
	require.Equal(t, ScalerStandard, b.Scaler.Kind())
	require.False(t, b.LoadedAt.IsZero())
}

func TestNewLoader_MissingScaler(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(Spec{ModelPath: dir + "/model.json", ScalerPath: dir + "/scaler.json"}, nil)

	_, err := l.Load()
	require.True(t, errors.Is(err, errors.ErrArtifactUnavailable))
	require.Contains(t, err.Error(), "scaler")
}

func TestNewLoader_TFServing(t *testing.T) {
	srv := newTFServer(t, `{"predictions":[[42]]}`)
	dir := t.TempDir()
	scalerPath := writeFile(t, dir, "scaler.yaml", "kind: standard\nscale: [1, 1, 1, 1, 1, 1, 1, 1, 1]\n")

	l := NewLoader(Spec{ModelKind: "TFServing", ModelURL: srv.URL, ModelName: "calories", ScalerPath: scalerPath}, nil)
	b, err := l.Load()
	require.NoError(t, err)
	require.Equal(t, ModelTFServing, b.Model.Kind())
}

func TestLoadModel_UnknownKind(t *testing.T) {
	_, err := LoadModel(context.Background(), Spec{ModelKind: "onnx"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported model kind")
}
