package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/hpungsan/nextmeal/internal/features"
)

// Layer types understood by the LSTM evaluator.
const (
	LayerLSTM    = "lstm"
	LayerDense   = "dense"
	LayerDropout = "dropout"
)

// LSTMFile is a Keras Sequential model exported as JSON weights
// (layer.get_weights() per layer, in model order).
type LSTMFile struct {
	InputShape []int       `json:"input_shape"`
	Layers     []LayerFile `json:"layers"`
}

// LayerFile is one exported layer. LSTM kernels are (in, 4*units) with Keras
// gate order i, f, c, o; dense kernels are (in, out).
type LayerFile struct {
	Type                string      `json:"type"`
	Units               int         `json:"units,omitempty"`
	Kernel              [][]float64 `json:"kernel,omitempty"`
	RecurrentKernel     [][]float64 `json:"recurrent_kernel,omitempty"`
	Bias                []float64   `json:"bias,omitempty"`
	Activation          string      `json:"activation,omitempty"`
	RecurrentActivation string      `json:"recurrent_activation,omitempty"`
	ReturnSequences     bool        `json:"return_sequences,omitempty"`
}

// LSTMModel evaluates an exported Keras LSTM stack in pure Go.
// It holds no mutable state, so one instance serves concurrent requests.
type LSTMModel struct {
	steps  int
	width  int
	layers []layer
}

type layer struct {
	kind       string
	units      int
	in         int
	kernel     [][]float64
	recurrent  [][]float64
	bias       []float64
	act        activation
	recAct     activation
	returnSeqs bool
}

type activation func(float64) float64

var activations = map[string]activation{
	"linear":       func(x float64) float64 { return x },
	"relu":         func(x float64) float64 { return math.Max(0, x) },
	"tanh":         math.Tanh,
	"sigmoid":      func(x float64) float64 { return 1 / (1 + math.Exp(-x)) },
	"hard_sigmoid": func(x float64) float64 { return math.Max(0, math.Min(1, 0.2*x+0.5)) },
}

func resolveActivation(name, fallback string) (activation, error) {
	if name == "" {
		name = fallback
	}
	fn, ok := activations[name]
	if !ok {
		return nil, fmt.Errorf("unsupported activation %q", name)
	}
	return fn, nil
}

// LoadLSTM reads an exported model from a .json file.
func LoadLSTM(path string) (*LSTMModel, error) {
	data, err := readArtifact(path, ".json")
	if err != nil {
		return nil, err
	}
	var file LSTMFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	return NewLSTMModel(file)
}

// NewLSTMModel validates every weight shape against the layer chain and
// returns the evaluator. The final layer must produce one value per sample.
func NewLSTMModel(file LSTMFile) (*LSTMModel, error) {
	if len(file.InputShape) != 2 {
		return nil, fmt.Errorf("input_shape must be [steps, features], got %v", file.InputShape)
	}
	steps, width := file.InputShape[0], file.InputShape[1]
	if steps != features.Steps || width != features.Width {
		return nil, fmt.Errorf("model input shape [%d, %d] does not match encoder shape [%d, %d]", steps, width, features.Steps, features.Width)
	}

	m := &LSTMModel{steps: steps, width: width}
	dim, sequence := width, true
	for i, lf := range file.Layers {
		switch lf.Type {
		case LayerDropout:
			continue
		case LayerLSTM:
			if !sequence {
				return nil, fmt.Errorf("layer %d: lstm needs sequence input", i)
			}
			l, err := buildLSTM(lf, dim)
			if err != nil {
				return nil, fmt.Errorf("layer %d: %w", i, err)
			}
			m.layers = append(m.layers, l)
			dim, sequence = l.units, l.returnSeqs
		case LayerDense:
			l, err := buildDense(lf, dim)
			if err != nil {
				return nil, fmt.Errorf("layer %d: %w", i, err)
			}
			m.layers = append(m.layers, l)
			dim = l.units
		default:
			return nil, fmt.Errorf("layer %d: unsupported layer type %q", i, lf.Type)
		}
	}
	if len(m.layers) == 0 {
		return nil, fmt.Errorf("model has no layers")
	}
	if sequence {
		return nil, fmt.Errorf("model output is still a sequence; last lstm must not return sequences")
	}
	if dim != 1 {
		return nil, fmt.Errorf("model must output a single value, got %d", dim)
	}
	return m, nil
}

func buildLSTM(lf LayerFile, in int) (layer, error) {
	u := lf.Units
	if u <= 0 {
		return layer{}, fmt.Errorf("lstm units must be positive")
	}
	if err := checkMatrix(lf.Kernel, in, 4*u, "kernel"); err != nil {
		return layer{}, err
	}
	if err := checkMatrix(lf.RecurrentKernel, u, 4*u, "recurrent_kernel"); err != nil {
		return layer{}, err
	}
	if len(lf.Bias) != 4*u {
		return layer{}, fmt.Errorf("bias has %d values, want %d", len(lf.Bias), 4*u)
	}
	act, err := resolveActivation(lf.Activation, "tanh")
	if err != nil {
		return layer{}, err
	}
	recAct, err := resolveActivation(lf.RecurrentActivation, "sigmoid")
	if err != nil {
		return layer{}, err
	}
	return layer{
		kind:       LayerLSTM,
		units:      u,
		in:         in,
		kernel:     lf.Kernel,
		recurrent:  lf.RecurrentKernel,
		bias:       slices.Clone(lf.Bias),
		act:        act,
		recAct:     recAct,
		returnSeqs: lf.ReturnSequences,
	}, nil
}

func buildDense(lf LayerFile, in int) (layer, error) {
	if len(lf.Kernel) == 0 {
		return layer{}, fmt.Errorf("dense kernel is empty")
	}
	out := len(lf.Kernel[0])
	if err := checkMatrix(lf.Kernel, in, out, "kernel"); err != nil {
		return layer{}, err
	}
	if len(lf.Bias) != out {
		return layer{}, fmt.Errorf("bias has %d values, want %d", len(lf.Bias), out)
	}
	act, err := resolveActivation(lf.Activation, "linear")
	if err != nil {
		return layer{}, err
	}
	return layer{
		kind:   LayerDense,
		units:  out,
		in:     in,
		kernel: lf.Kernel,
		bias:   slices.Clone(lf.Bias),
		act:    act,
	}, nil
}

func checkMatrix(m [][]float64, rows, cols int, name string) error {
	if len(m) != rows {
		return fmt.Errorf("%s has %d rows, want %d", name, len(m), rows)
	}
	for i, r := range m {
		if len(r) != cols {
			return fmt.Errorf("%s row %d has %d columns, want %d", name, i, len(r), cols)
		}
	}
	return nil
}

// Kind implements Model.
func (m *LSTMModel) Kind() string { return LayerLSTM }

// Predict implements Model.
func (m *LSTMModel) Predict(ctx context.Context, input features.Tensor) (features.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return features.Tensor{}, err
	}
	batch, err := input.Sequences()
	if err != nil {
		return features.Tensor{}, err
	}
	if input.Shape[1] != m.steps || input.Shape[2] != m.width {
		return features.Tensor{}, fmt.Errorf("input shape %v does not match model shape [batch, %d, %d]", input.Shape, m.steps, m.width)
	}

	out := features.Tensor{Shape: []int{len(batch), 1}}
	for _, seq := range batch {
		out.Data = append(out.Data, m.forward(seq)...)
	}
	return out, nil
}

// forward runs one sample through the layer chain.
func (m *LSTMModel) forward(seq [][]float64) []float64 {
	var flat []float64
	sequence := true
	for _, l := range m.layers {
		switch l.kind {
		case LayerLSTM:
			outputs := l.runLSTM(seq)
			if l.returnSeqs {
				seq = outputs
			} else {
				flat, sequence = outputs[len(outputs)-1], false
			}
		case LayerDense:
			if sequence {
				// Dense on a sequence applies to the last axis of every step.
				next := make([][]float64, len(seq))
				for t, x := range seq {
					next[t] = l.dense(x)
				}
				seq = next
			} else {
				flat = l.dense(flat)
			}
		}
	}
	return flat
}

// runLSTM returns the hidden state after every timestep.
func (l layer) runLSTM(seq [][]float64) [][]float64 {
	u := l.units
	h := make([]float64, u)
	c := make([]float64, u)
	outputs := make([][]float64, 0, len(seq))
	z := make([]float64, 4*u)

	for _, x := range seq {
		copy(z, l.bias)
		for i, xi := range x {
			if xi == 0 {
				continue
			}
			row := l.kernel[i]
			for j := range z {
				z[j] += xi * row[j]
			}
		}
		for i, hi := range h {
			if hi == 0 {
				continue
			}
			row := l.recurrent[i]
			for j := range z {
				z[j] += hi * row[j]
			}
		}

		next := make([]float64, u)
		for j := 0; j < u; j++ {
			in := l.recAct(z[j])
			forget := l.recAct(z[u+j])
			cand := l.act(z[2*u+j])
			outGate := l.recAct(z[3*u+j])
			c[j] = forget*c[j] + in*cand
			next[j] = outGate * l.act(c[j])
		}
		h = next
		outputs = append(outputs, next)
	}
	return outputs
}

func (l layer) dense(x []float64) []float64 {
	y := slices.Clone(l.bias)
	for i, xi := range x {
		row := l.kernel[i]
		for j := range y {
			y[j] += xi * row[j]
		}
	}
	for j := range y {
		y[j] = l.act(y[j])
	}
	return y
}
