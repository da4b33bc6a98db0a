package bounds

import (
	"fmt"

	"github.com/wrx812/DeepConcolic/nn"
)

// LayerBounds holds per-neuron reachable value intervals for one layer.
// Pre bounds the affine output W x + b, Post bounds the activation
// output.
type LayerBounds struct {
	PreLow, PreUp   []float64
	PostLow, PostUp []float64
}

// Propagate runs interval arithmetic through the network, starting
// from the given input box. Activations are assumed monotone
// nondecreasing, which holds for every kind in nn.ActivationLookup.
func Propagate(net *nn.Network, in Box) ([]LayerBounds, error) {
	if net.InputSize() != in.Dim() {
		return nil, fmt.Errorf("input box has %d dimensions, network expects %d", in.Dim(), net.InputSize())
	}
	low, up := in.Low, in.Up
	out := make([]LayerBounds, len(net.Layers))
	for li, l := range net.Layers {
		n := l.Out()
		lb := LayerBounds{
			PreLow:  make([]float64, n),
			PreUp:   make([]float64, n),
			PostLow: make([]float64, n),
			PostUp:  make([]float64, n),
		}
		for i := 0; i < n; i++ {
			lo, hi := l.B[i], l.B[i]
			for j := 0; j < l.In(); j++ {
				w := l.W.At(i, j)
				if w >= 0 {
					lo += w * low[j]
					hi += w * up[j]
				} else {
					lo += w * up[j]
					hi += w * low[j]
				}
			}
			lb.PreLow[i] = lo
			lb.PreUp[i] = hi
			lb.PostLow[i] = l.Act.Apply(lo)
			lb.PostUp[i] = l.Act.Apply(hi)
		}
		out[li] = lb
		low, up = lb.PostLow, lb.PostUp
	}
	return out, nil
}
