package ops

import "github.com/hpungsan/nextmeal/internal/predict"

// StatusOutput reports whether predictions can be served.
type StatusOutput struct {
	predict.Status
}

// Status forces the one-time artifact load and reports the outcome.
func Status(svc Predictor) *StatusOutput {
	if svc == nil {
		return &StatusOutput{Status: predict.Status{Error: "prediction service is not configured"}}
	}
	return &StatusOutput{Status: svc.Status()}
}
