package artifact

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ModelLSTM is the kind of a Keras LSTM exported as JSON weights.
const ModelLSTM = LayerLSTM

// Spec says where the model and scaler live.
type Spec struct {
	ModelKind    string
	ModelPath    string
	ModelURL     string
	ModelName    string
	ModelTimeout time.Duration
	ScalerPath   string
}

// LoadModel builds the model named by spec.ModelKind. Remote models are probed
// once so an unreachable server disables prediction up front.
func LoadModel(ctx context.Context, spec Spec) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(spec.ModelKind)) {
	case "", ModelLSTM:
		return LoadLSTM(spec.ModelPath)
	case ModelTFServing:
		m, err := NewRemoteModel(spec.ModelURL, spec.ModelName, spec.ModelTimeout)
		if err != nil {
			return nil, err
		}
		if err := m.Probe(ctx); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported model kind %q", spec.ModelKind)
	}
}
