package bounds

import (
	"fmt"

	"github.com/wrx812/DeepConcolic/tensor"
)

// Box is a closed per-dimension interval over flat input vectors.
type Box struct {
	Low []float64
	Up  []float64
}

// New builds a box from explicit per-dimension bounds.
func New(low, up []float64) (Box, error) {
	if len(low) != len(up) {
		return Box{}, fmt.Errorf("bound lengths differ: %d vs %d", len(low), len(up))
	}
	for i := range low {
		if low[i] > up[i] {
			return Box{}, fmt.Errorf("dimension %d: lower bound %g above upper bound %g", i, low[i], up[i])
		}
	}
	return Box{Low: append([]float64(nil), low...), Up: append([]float64(nil), up...)}, nil
}

// NewUniform builds an n-dimensional box with the same interval in
// every dimension.
func NewUniform(low, up float64, n int) (Box, error) {
	if low > up {
		return Box{}, fmt.Errorf("lower bound %g above upper bound %g", low, up)
	}
	b := Box{Low: make([]float64, n), Up: make([]float64, n)}
	for i := 0; i < n; i++ {
		b.Low[i] = low
		b.Up[i] = up
	}
	return b, nil
}

// Dim returns the number of dimensions.
func (b Box) Dim() int {
	return len(b.Low)
}

// Width returns the width of dimension i.
func (b Box) Width(i int) float64 {
	return b.Up[i] - b.Low[i]
}

// Contains reports whether every element of the 1-D tensor x lies
// within the box.
func (b Box) Contains(x *tensor.Tensor) bool {
	if len(x.Data) != b.Dim() {
		return false
	}
	for i, v := range x.Data {
		if v < b.Low[i] || v > b.Up[i] {
			return false
		}
	}
	return true
}
