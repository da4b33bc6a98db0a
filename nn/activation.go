package nn

import (
	"fmt"
	"math"
)

// Activation is a per-neuron nonlinearity applied after a layer's
// affine transform. PiecewiseLinear reports whether the activation is
// linearized in place by the LP relaxation (ReLU and identity); any
// other activation needs the successor layer's encoding as well.
type Activation interface {
	Apply(v float64) float64
	PiecewiseLinear() bool
	fmt.Stringer
}

var ActivationLookup = map[string]Activation{
	"relu":     ReLU{},
	"identity": Identity{},
	"sigmoid":  Sigmoid{},
	"tanh":     Tanh{},
}

type ReLU struct{}

func (ReLU) Apply(v float64) float64 {
	return math.Max(0, v)
}

func (ReLU) PiecewiseLinear() bool {
	return true
}

func (ReLU) String() string {
	return "relu"
}

type Identity struct{}

func (Identity) Apply(v float64) float64 {
	return v
}

func (Identity) PiecewiseLinear() bool {
	return true
}

func (Identity) String() string {
	return "identity"
}

type Sigmoid struct{}

func (Sigmoid) Apply(v float64) float64 {
	return 1.0 / (1.0 + math.Exp(-v))
}

func (Sigmoid) PiecewiseLinear() bool {
	return false
}

func (Sigmoid) String() string {
	return "sigmoid"
}

type Tanh struct{}

func (Tanh) Apply(v float64) float64 {
	return math.Tanh(v)
}

func (Tanh) PiecewiseLinear() bool {
	return false
}

func (Tanh) String() string {
	return "tanh"
}
