package artifact

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/nextmeal/internal/features"
)

// Scaler kinds.
const (
	ScalerStandard = "standard"
	ScalerMinMax   = "minmax"
)

// ScalerFile is the exported form of a fitted scikit-learn scaler.
// Standard scalers use Mean and Scale (mean_, scale_); min-max scalers use
// Min and Scale (min_, scale_).
type ScalerFile struct {
	Kind         string    `json:"kind" yaml:"kind"`
	FeatureNames []string  `json:"feature_names,omitempty" yaml:"feature_names,omitempty"`
	Mean         []float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	Min          []float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Scale        []float64 `json:"scale" yaml:"scale"`
}

// StandardScaler applies (x - mean) / scale per column.
type StandardScaler struct {
	mean  []float64
	scale []float64
}

// MinMaxScaler applies x*scale + min per column.
type MinMaxScaler struct {
	min   []float64
	scale []float64
}

// NewStandardScaler builds a standard scaler. A nil mean centers nothing; a zero
// scale is treated as 1, as scikit-learn does for constant columns.
func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if mean == nil {
		mean = make([]float64, len(scale))
	}
	if len(mean) != features.Width || len(scale) != features.Width {
		return nil, fmt.Errorf("standard scaler needs %d means and scales, got %d and %d", features.Width, len(mean), len(scale))
	}
	s := make([]float64, len(scale))
	for i, v := range scale {
		if v == 0 {
			v = 1
		}
		s[i] = v
	}
	return &StandardScaler{mean: slices.Clone(mean), scale: s}, nil
}

// NewMinMaxScaler builds a min-max scaler from fitted min_ and scale_ vectors.
func NewMinMaxScaler(min, scale []float64) (*MinMaxScaler, error) {
	if len(min) != features.Width || len(scale) != features.Width {
		return nil, fmt.Errorf("minmax scaler needs %d mins and scales, got %d and %d", features.Width, len(min), len(scale))
	}
	return &MinMaxScaler{min: slices.Clone(min), scale: slices.Clone(scale)}, nil
}

// Kind implements Scaler.
func (s *StandardScaler) Kind() string { return ScalerStandard }

// Transform implements Scaler.
func (s *StandardScaler) Transform(rows [][]float64) ([][]float64, error) {
	return transformRows(rows, func(col int, x float64) float64 {
		return (x - s.mean[col]) / s.scale[col]
	})
}

// Kind implements Scaler.
func (s *MinMaxScaler) Kind() string { return ScalerMinMax }

// Transform implements Scaler.
func (s *MinMaxScaler) Transform(rows [][]float64) ([][]float64, error) {
	return transformRows(rows, func(col int, x float64) float64 {
		return x*s.scale[col] + s.min[col]
	})
}

func transformRows(rows [][]float64, fn func(col int, x float64) float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != features.Width {
			return nil, fmt.Errorf("scaler expects %d features, row %d has %d", features.Width, i, len(row))
		}
		scaled := make([]float64, len(row))
		for col, x := range row {
			scaled[col] = fn(col, x)
		}
		out[i] = scaled
	}
	return out, nil
}

// LoadScaler reads a scaler from a .json, .yaml or .yml file.
func LoadScaler(path string) (Scaler, error) {
	data, err := readArtifact(path, ".json", ".yaml", ".yml")
	if err != nil {
		return nil, err
	}

	var file ScalerFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &file)
	default:
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("decode scaler %s: %w", path, err)
	}
	return file.Build()
}

// Build validates the exported parameters and returns the matching Scaler.
func (f ScalerFile) Build() (Scaler, error) {
	if len(f.FeatureNames) > 0 && !slices.Equal(f.FeatureNames, features.Names()) {
		return nil, fmt.Errorf("scaler feature order %v does not match encoder order %v", f.FeatureNames, features.Names())
	}
	switch f.Kind {
	case ScalerStandard:
		return NewStandardScaler(f.Mean, f.Scale)
	case ScalerMinMax:
		return NewMinMaxScaler(f.Min, f.Scale)
	default:
		return nil, fmt.Errorf("unsupported scaler kind %q", f.Kind)
	}
}
