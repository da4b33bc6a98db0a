package nn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/wrx812/DeepConcolic/tensor"
)

// Layer is a fully-connected layer: y = act(W x + b).
type Layer struct {
	W   *mat.Dense
	B   []float64
	Act Activation
}

// NewLayer allocates a zero-weight layer of the given dimensions.
func NewLayer(in, out int, act Activation) *Layer {
	return &Layer{
		W:   mat.NewDense(out, in, nil),
		B:   make([]float64, out),
		Act: act,
	}
}

// In returns the layer's input dimension.
func (l *Layer) In() int {
	_, c := l.W.Dims()
	return c
}

// Out returns the layer's output dimension.
func (l *Layer) Out() int {
	r, _ := l.W.Dims()
	return r
}

// Forward applies the layer to a 1-D input tensor.
func (l *Layer) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if len(x.Shape) != 1 || x.Shape[0] != l.In() {
		return nil, fmt.Errorf("layer expects input of shape [%d], got %v", l.In(), x.Shape)
	}
	out := tensor.New(l.Out())
	for i := 0; i < l.Out(); i++ {
		sum := l.B[i]
		for j := 0; j < l.In(); j++ {
			sum += l.W.At(i, j) * x.Data[j]
		}
		out.Data[i] = l.Act.Apply(sum)
	}
	return out, nil
}

// Network chains fully-connected layers in order.
type Network struct {
	Name   string
	Layers []*Layer
}

// InputSize returns the dimension of the network's input.
func (n *Network) InputSize() int {
	if len(n.Layers) == 0 {
		return 0
	}
	return n.Layers[0].In()
}

// Forward applies each layer in sequence.
func (n *Network) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	var err error
	out := x
	for i, layer := range n.Layers {
		out, err = layer.Forward(out)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return out, nil
}

// Ref returns a handle on the layer at the given index.
func (n *Network) Ref(index int) (LayerRef, error) {
	if index < 0 || index >= len(n.Layers) {
		return LayerRef{}, fmt.Errorf("layer index %d out of range [0, %d)", index, len(n.Layers))
	}
	return LayerRef{Index: index, Layer: n.Layers[index]}, nil
}

// LayerRef is a handle on one layer of a network, identifying it by
// position. Consumers use Index together with the layer's activation
// kind to locate the matching LP encoding depth.
type LayerRef struct {
	Index int
	Layer *Layer
}

// NewRandomNetwork builds a network with the given architecture
// (neurons per layer, input first) and uniform random weights in
// [-1, 1]. Hidden layers use ReLU, the last layer uses identity.
func NewRandomNetwork(name string, arch []int, rng *rand.Rand) (*Network, error) {
	if len(arch) < 2 {
		return nil, fmt.Errorf("architecture must have at least 2 layers (input and output)")
	}
	net := &Network{Name: name}
	for i := 1; i < len(arch); i++ {
		var act Activation = ReLU{}
		if i == len(arch)-1 {
			act = Identity{}
		}
		l := NewLayer(arch[i-1], arch[i], act)
		for r := 0; r < arch[i]; r++ {
			l.B[r] = 2*rng.Float64() - 1
			for c := 0; c < arch[i-1]; c++ {
				l.W.Set(r, c, 2*rng.Float64()-1)
			}
		}
		net.Layers = append(net.Layers, l)
	}
	return net, nil
}
