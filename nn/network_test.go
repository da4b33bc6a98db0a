package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrx812/DeepConcolic/tensor"
)

func TestLayerForward(t *testing.T) {
	// y = relu(W x + b) with W = [[1, -1], [2, 0]], b = [0, -1]
	l := NewLayer(2, 2, ReLU{})
	l.W.Set(0, 0, 1)
	l.W.Set(0, 1, -1)
	l.W.Set(1, 0, 2)
	l.B[1] = -1

	out, err := l.Forward(tensor.NewWithData([]float64{1, 3}))
	require.NoError(t, err)

	// row 0: 1 - 3 = -2 -> relu -> 0; row 1: 2 - 1 = 1
	assert.Equal(t, []float64{0, 1}, out.Data)
}

func TestLayerForwardShapeMismatch(t *testing.T) {
	l := NewLayer(2, 2, ReLU{})
	_, err := l.Forward(tensor.NewWithData([]float64{1, 2, 3}))
	assert.Error(t, err)
}

func TestNetworkForward(t *testing.T) {
	// Identity second layer on top of a ReLU layer
	l1 := NewLayer(1, 1, ReLU{})
	l1.W.Set(0, 0, -1)
	l2 := NewLayer(1, 1, Identity{})
	l2.W.Set(0, 0, 3)
	net := &Network{Name: "toy", Layers: []*Layer{l1, l2}}

	out, err := net.Forward(tensor.NewWithData([]float64{-2}))
	require.NoError(t, err)
	assert.Equal(t, []float64{6}, out.Data)

	out, err = net.Forward(tensor.NewWithData([]float64{2}))
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, out.Data)
}

func TestRef(t *testing.T) {
	net, err := NewRandomNetwork("toy", []int{3, 4, 2}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	ref, err := net.Ref(1)
	require.NoError(t, err)
	assert.Equal(t, 1, ref.Index)
	assert.Equal(t, 2, ref.Layer.Out())

	_, err = net.Ref(2)
	assert.Error(t, err)
}

func TestActivationKinds(t *testing.T) {
	assert.True(t, ReLU{}.PiecewiseLinear())
	assert.True(t, Identity{}.PiecewiseLinear())
	assert.False(t, Sigmoid{}.PiecewiseLinear())
	assert.False(t, Tanh{}.PiecewiseLinear())

	assert.Equal(t, 0.0, ReLU{}.Apply(-3))
	assert.Equal(t, 3.0, ReLU{}.Apply(3))
	assert.InDelta(t, 0.5, Sigmoid{}.Apply(0), 1e-12)
}

func TestWeightsRoundTrip(t *testing.T) {
	net, err := NewRandomNetwork("toy", []int{2, 3, 1}, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	back, err := FromWeights(net.Weights())
	require.NoError(t, err)
	require.Len(t, back.Layers, 2)

	x := tensor.NewWithData([]float64{0.3, -0.7})
	want, err := net.Forward(x)
	require.NoError(t, err)
	got, err := back.Forward(x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want.Data, got.Data, 1e-12)

	// activation kinds survive the round trip
	assert.Equal(t, "relu", back.Layers[0].Act.String())
	assert.Equal(t, "identity", back.Layers[1].Act.String())
}

func TestFromWeightsUnknownActivation(t *testing.T) {
	net, err := NewRandomNetwork("toy", []int{2, 2}, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	w := net.Weights()
	lw := w.Layers["layer_0"]
	lw.Activation = "swish"
	w.Layers["layer_0"] = lw

	_, err = FromWeights(w)
	assert.Error(t, err)
}
