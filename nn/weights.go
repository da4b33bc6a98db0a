package nn

import (
	"fmt"

	"github.com/wrx812/DeepConcolic/utils"
)

// layerKey names layers inside a ModelWeights map by position.
func layerKey(i int) string {
	return fmt.Sprintf("layer_%d", i)
}

// FromWeights reconstructs a network from serialized model weights.
func FromWeights(w *utils.ModelWeights) (*Network, error) {
	net := &Network{Name: w.Name}
	for i := 0; ; i++ {
		lw, ok := w.Layers[layerKey(i)]
		if !ok {
			break
		}
		if lw.Weight == nil || len(lw.Weight.Shape) != 2 {
			return nil, fmt.Errorf("layer %d: missing or non 2-D weight", i)
		}
		act, ok := ActivationLookup[lw.Activation]
		if !ok {
			return nil, fmt.Errorf("layer %d: unknown activation %q", i, lw.Activation)
		}
		out, in := lw.Weight.Shape[0], lw.Weight.Shape[1]
		l := NewLayer(in, out, act)
		for r := 0; r < out; r++ {
			for c := 0; c < in; c++ {
				l.W.Set(r, c, lw.Weight.Data[r*in+c])
			}
		}
		if lw.Bias != nil {
			if len(lw.Bias.Data) != out {
				return nil, fmt.Errorf("layer %d: bias length %d, want %d", i, len(lw.Bias.Data), out)
			}
			copy(l.B, lw.Bias.Data)
		}
		net.Layers = append(net.Layers, l)
	}
	if len(net.Layers) == 0 {
		return nil, fmt.Errorf("no layers found in model weights")
	}
	if len(net.Layers) != len(w.Layers) {
		return nil, fmt.Errorf("model weights name %d layers but only %d are consecutively indexed",
			len(w.Layers), len(net.Layers))
	}
	return net, nil
}

// Weights serializes the network into the model weights format.
func (n *Network) Weights() *utils.ModelWeights {
	w := &utils.ModelWeights{
		Version: "1.0",
		Name:    n.Name,
		Layers:  make(map[string]utils.LayerWeight, len(n.Layers)),
	}
	for i, l := range n.Layers {
		out, in := l.W.Dims()
		wd := &utils.WeightData{
			Name:  layerKey(i) + "_weight",
			Shape: []int{out, in},
			Data:  make([]float64, out*in),
		}
		for r := 0; r < out; r++ {
			for c := 0; c < in; c++ {
				wd.Data[r*in+c] = l.W.At(r, c)
			}
		}
		bd := &utils.WeightData{
			Name:  layerKey(i) + "_bias",
			Shape: []int{out},
			Data:  append([]float64(nil), l.B...),
		}
		w.Layers[layerKey(i)] = utils.LayerWeight{
			Weight:     wd,
			Bias:       bd,
			Activation: l.Act.String(),
		}
	}
	return w
}
