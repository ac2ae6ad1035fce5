package artifact

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/nextmeal/internal/errors"
)

// loadTimeout bounds the one-time load, including a remote probe.
const loadTimeout = 30 * time.Second

// Loader loads the model/scaler pair at most once per process. Both success
// and failure are memoized; there is no reload.
type Loader struct {
	load func() (*Bundle, error)

	once   sync.Once
	bundle *Bundle
	err    error
}

// NewLoader returns a loader for the artifacts described by spec.
func NewLoader(spec Spec, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return NewLoaderFunc(func() (*Bundle, error) {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		start := time.Now()
		scaler, err := LoadScaler(spec.ScalerPath)
		if err != nil {
			logger.Error("scaler load failed", zap.String("path", spec.ScalerPath), zap.Error(err))
			return nil, fmt.Errorf("scaler: %w", err)
		}
		model, err := LoadModel(ctx, spec)
		if err != nil {
			logger.Error("model load failed",
				zap.String("kind", spec.ModelKind),
				zap.String("path", spec.ModelPath),
				zap.String("url", spec.ModelURL),
				zap.Error(err))
			return nil, fmt.Errorf("model: %w", err)
		}
		logger.Info("artifacts loaded",
			zap.String("model_kind", model.Kind()),
			zap.String("scaler_kind", scaler.Kind()),
			zap.Duration("took", time.Since(start)))
		return &Bundle{Model: model, Scaler: scaler, LoadedAt: time.Now()}, nil
	})
}

// NewLoaderFunc wraps an arbitrary load function with the same memoization.
func NewLoaderFunc(fn func() (*Bundle, error)) *Loader {
	return &Loader{load: fn}
}

// Load returns the loaded bundle, running the load on first use only.
// A failed load is reported as ARTIFACT_UNAVAILABLE on every call.
func (l *Loader) Load() (*Bundle, error) {
	l.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				l.bundle, l.err = nil, errors.NewArtifactUnavailable(fmt.Errorf("panic during load: %v", r))
			}
		}()
		b, err := l.load()
		switch {
		case err != nil:
			l.err = errors.NewArtifactUnavailable(err)
		case b == nil || b.Model == nil || b.Scaler == nil:
			l.err = errors.NewArtifactUnavailable(fmt.Errorf("incomplete artifact bundle"))
		default:
			l.bundle = b
		}
	})
	return l.bundle, l.err
}
