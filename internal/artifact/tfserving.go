package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hpungsan/nextmeal/internal/features"
)

// ModelTFServing is the kind of a model served by TensorFlow Serving over REST.
const ModelTFServing = "tfserving"

// DefaultRemoteTimeout bounds one predict call when no timeout is configured.
const DefaultRemoteTimeout = 10 * time.Second

// RemoteModel calls a TensorFlow Serving REST endpoint.
type RemoteModel struct {
	name    string
	baseURL string
	client  *http.Client
}

type predictRequest struct {
	Instances [][][]float64 `json:"instances"`
}

type predictResponse struct {
	Predictions []json.RawMessage `json:"predictions"`
	Error       string            `json:"error,omitempty"`
}

type modelStatusResponse struct {
	ModelVersionStatus []struct {
		Version string `json:"version"`
		State   string `json:"state"`
	} `json:"model_version_status"`
}

// NewRemoteModel returns a client for {baseURL}/v1/models/{name}.
func NewRemoteModel(baseURL, name string, timeout time.Duration) (*RemoteModel, error) {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid model url %q", baseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("model url must be http or https, got %q", u.Scheme)
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("model name is required for tfserving")
	}
	return &RemoteModel{
		name:    name,
		baseURL: strings.TrimRight(u.String(), "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Kind implements Model.
func (m *RemoteModel) Kind() string { return ModelTFServing }

func (m *RemoteModel) modelURL() string {
	return fmt.Sprintf("%s/v1/models/%s", m.baseURL, url.PathEscape(m.name))
}

// Probe checks that the served model has a version in the AVAILABLE state.
func (m *RemoteModel) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.modelURL(), nil)
	if err != nil {
		return err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", m.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("probe %s: status %d", m.name, resp.StatusCode)
	}
	var status modelStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("probe %s: %w", m.name, err)
	}
	for _, v := range status.ModelVersionStatus {
		if v.State == "AVAILABLE" {
			return nil
		}
	}
	return fmt.Errorf("model %s has no available version", m.name)
}

// Predict implements Model.
func (m *RemoteModel) Predict(ctx context.Context, input features.Tensor) (features.Tensor, error) {
	instances, err := input.Sequences()
	if err != nil {
		return features.Tensor{}, err
	}
	payload, err := json.Marshal(predictRequest{Instances: instances})
	if err != nil {
		return features.Tensor{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.modelURL()+":predict", bytes.NewReader(payload))
	if err != nil {
		return features.Tensor{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return features.Tensor{}, err
	}
	defer resp.Body.Close()

	var body predictResponse
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &body) == nil && body.Error != "" {
			return features.Tensor{}, fmt.Errorf("tfserving error: %s", body.Error)
		}
		return features.Tensor{}, fmt.Errorf("tfserving returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return features.Tensor{}, fmt.Errorf("decode predictions: %w", err)
	}
	if len(body.Predictions) != len(instances) {
		return features.Tensor{}, fmt.Errorf("tfserving returned %d predictions for %d instances", len(body.Predictions), len(instances))
	}

	out := features.Tensor{}
	width := -1
	for i, p := range body.Predictions {
		values, err := flattenPrediction(p)
		if err != nil {
			return features.Tensor{}, fmt.Errorf("prediction %d: %w", i, err)
		}
		if width >= 0 && len(values) != width {
			return features.Tensor{}, fmt.Errorf("prediction %d has %d values, want %d", i, len(values), width)
		}
		width = len(values)
		out.Data = append(out.Data, values...)
	}
	out.Shape = []int{len(body.Predictions), width}
	return out, nil
}

// flattenPrediction accepts a bare number or a (nested) array of numbers.
func flattenPrediction(raw json.RawMessage) ([]float64, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return []float64{n}, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("prediction is neither a number nor an array")
	}
	var out []float64
	for _, item := range list {
		values, err := flattenPrediction(item)
		if err != nil {
			return nil, err
		}
		out = append(out, values...)
	}
	return out, nil
}
