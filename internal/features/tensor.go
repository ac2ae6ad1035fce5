package features

import "fmt"

// Tensor is a dense row-major float tensor.
type Tensor struct {
	Shape []int
	Data  []float64
}

// Reshape turns (Steps, Width) rows into a single-sample (1, Steps, Width) tensor.
func Reshape(rows [][]float64) (Tensor, error) {
	m, err := MatrixFromRows(rows)
	if err != nil {
		return Tensor{}, fmt.Errorf("reshape to (1, %d, %d): %w", Steps, Width, err)
	}
	return m.Tensor(), nil
}

// Tensor returns the matrix as a (1, Steps, Width) tensor.
func (m Matrix) Tensor() Tensor {
	data := make([]float64, 0, Steps*Width)
	for i := range m {
		data = append(data, m[i][:]...)
	}
	return Tensor{Shape: []int{1, Steps, Width}, Data: data}
}

// Len returns the number of elements implied by the shape.
func (t Tensor) Len() int {
	if len(t.Shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Validate checks that the data length matches the shape.
func (t Tensor) Validate() error {
	if t.Len() != len(t.Data) {
		return fmt.Errorf("tensor shape %v needs %d values, has %d", t.Shape, t.Len(), len(t.Data))
	}
	return nil
}

// Sequences returns a rank-3 tensor as [batch][step][feature].
func (t Tensor) Sequences() ([][][]float64, error) {
	if len(t.Shape) != 3 {
		return nil, fmt.Errorf("expected rank-3 tensor, got shape %v", t.Shape)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	batch, steps, width := t.Shape[0], t.Shape[1], t.Shape[2]
	out := make([][][]float64, batch)
	for b := 0; b < batch; b++ {
		out[b] = make([][]float64, steps)
		for s := 0; s < steps; s++ {
			start := (b*steps + s) * width
			row := make([]float64, width)
			copy(row, t.Data[start:start+width])
			out[b][s] = row
		}
	}
	return out, nil
}
