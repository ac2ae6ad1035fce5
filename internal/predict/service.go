package predict

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/nextmeal/internal/artifact"
	"github.com/hpungsan/nextmeal/internal/errors"
	"github.com/hpungsan/nextmeal/internal/features"
	"github.com/hpungsan/nextmeal/internal/meal"
)

// Loader yields the process-wide artifact bundle.
type Loader interface {
	Load() (*artifact.Bundle, error)
}

// Result is a completed prediction.
type Result struct {
	ID          string          `json:"id"`
	Calories    int             `json:"calories"`
	Raw         float64         `json:"raw"`
	Encoded     features.Matrix `json:"encoded"`
	PredictedAt time.Time       `json:"predicted_at"`
}

// Status reports whether prediction is available.
type Status struct {
	Available  bool       `json:"available"`
	ModelKind  string     `json:"model_kind,omitempty"`
	ScalerKind string     `json:"scaler_kind,omitempty"`
	LoadedAt   *time.Time `json:"loaded_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Service encodes meal sequences and runs them through the loaded artifacts.
type Service struct {
	loader Loader
	logger *zap.Logger
	now    func() time.Time
}

// NewService returns a service backed by loader.
func NewService(loader Loader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{loader: loader, logger: logger, now: time.Now}
}

// Predict encodes seq and returns the predicted kilocalories of the next meal.
// The sequence is expected to be validated by the caller.
func (s *Service) Predict(ctx context.Context, seq meal.Sequence) (*Result, error) {
	id := newRequestID(s.now())
	log := s.logger.With(zap.String("request_id", id))

	bundle, err := s.loader.Load()
	if err != nil {
		log.Warn("prediction unavailable", zap.Error(err))
		return nil, err
	}

	encoded := features.EncodeSequence(seq)
	start := time.Now()
	out, err := NewInvoker(bundle.Model, bundle.Scaler).Invoke(ctx, encoded)
	if err != nil {
		log.Error("prediction failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		return nil, err
	}

	log.Info("prediction complete",
		zap.Int("calories", out.Calories),
		zap.Float64("raw", out.Raw),
		zap.Duration("took", time.Since(start)))

	return &Result{
		ID:          id,
		Calories:    out.Calories,
		Raw:         out.Raw,
		Encoded:     encoded,
		PredictedAt: s.now().UTC(),
	}, nil
}

// Status forces the one-time load and reports the outcome.
func (s *Service) Status() Status {
	bundle, err := s.loader.Load()
	if err != nil {
		msg := err.Error()
		var nErr *errors.NextMealError
		if stderrors.As(err, &nErr) {
			msg = nErr.Message
		}
		return Status{Error: msg}
	}
	loadedAt := bundle.LoadedAt
	return Status{
		Available:  true,
		ModelKind:  bundle.Model.Kind(),
		ScalerKind: bundle.Scaler.Kind(),
		LoadedAt:   &loadedAt,
	}
}

func newRequestID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}
