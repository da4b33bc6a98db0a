// Package encoding builds the per-layer LP abstraction of a
// feedforward network: one set of named decision variables per layer
// and the base linear constraints relating them to the previous
// layer's variables.
package encoding

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/wrx812/DeepConcolic/bounds"
	"github.com/wrx812/DeepConcolic/lp"
	"github.com/wrx812/DeepConcolic/nn"
)

// LayerEncoder holds one layer's decision variables and base
// constraints. preVars are the affine outputs z = W u + b, outVars the
// activation outputs; the two alias each other when the activation is
// encoded in place without fresh variables.
type LayerEncoder struct {
	depth   int
	preVars []*lp.Var
	outVars []*lp.Var
	constrs []*lp.Constraint
}

func (e *LayerEncoder) Depth() int {
	return e.depth
}

// Vars returns the variables this encoder owns, without duplicates.
func (e *LayerEncoder) Vars() []*lp.Var {
	if len(e.outVars) > 0 && len(e.preVars) > 0 && e.outVars[0] == e.preVars[0] {
		return e.preVars
	}
	return append(append([]*lp.Var(nil), e.preVars...), e.outVars...)
}

// OutVars returns the activation-output variables, the ones the next
// layer's affine rows reference.
func (e *LayerEncoder) OutVars() []*lp.Var {
	return e.outVars
}

func (e *LayerEncoder) Constraints() []*lp.Constraint {
	return e.constrs
}

// InputEncoder owns the symbolic input variables, bounded by the
// input box.
type InputEncoder struct {
	vars  []*lp.Var
	shape []int
}

func (e *InputEncoder) InVars() []*lp.Var {
	return e.vars
}

func (e *InputEncoder) Shape() []int {
	return e.shape
}

// BuildEncoder constructs the encoder for one layer, given the
// previous layer's output variables and the layer's propagated value
// bounds.
type BuildEncoder func(depth int, layer *nn.Layer, prev []*lp.Var, lb bounds.LayerBounds) (*LayerEncoder, error)

// TriangleEncoder is the default BuildEncoder. Affine outputs are tied
// to the previous layer by equality rows; ReLU outputs use the
// triangle relaxation over the propagated pre-activation interval
// (exact equality when the interval does not straddle zero); identity
// outputs alias the affine variables; any other activation is bounded
// by its reachable value interval only.
func TriangleEncoder(depth int, layer *nn.Layer, prev []*lp.Var, lb bounds.LayerBounds) (*LayerEncoder, error) {
	if layer.In() != len(prev) {
		return nil, errors.Errorf("layer %d expects %d inputs, previous encoder provides %d",
			depth, layer.In(), len(prev))
	}
	e := &LayerEncoder{depth: depth}
	n := layer.Out()
	for i := 0; i < n; i++ {
		z := lp.NewVar(fmt.Sprintf("z_l%d_%d", depth, i), lb.PreLow[i], lb.PreUp[i])
		e.preVars = append(e.preVars, z)

		// z_i - sum_j w_ij u_j = b_i
		aff := lp.NewExpr().Add(1, z)
		for j, u := range prev {
			if w := layer.W.At(i, j); w != 0 {
				aff.Add(-w, u)
			}
		}
		e.constrs = append(e.constrs,
			lp.NewConstraint(fmt.Sprintf("enc_l%d_aff_%d", depth, i), aff, lp.EQ, layer.B[i]))
	}

	switch layer.Act.(type) {
	case nn.Identity:
		e.outVars = e.preVars
	case nn.ReLU:
		for i := 0; i < n; i++ {
			lo, hi := lb.PreLow[i], lb.PreUp[i]
			z := e.preVars[i]
			a := lp.NewVar(fmt.Sprintf("a_l%d_%d", depth, i), lb.PostLow[i], lb.PostUp[i])
			e.outVars = append(e.outVars, a)
			switch {
			case hi <= 0:
				// neuron is inactive over the whole box
				e.constrs = append(e.constrs,
					lp.NewConstraint(fmt.Sprintf("enc_l%d_relu_off_%d", depth, i),
						lp.NewExpr().Add(1, a), lp.EQ, 0))
			case lo >= 0:
				// neuron is active over the whole box
				e.constrs = append(e.constrs,
					lp.NewConstraint(fmt.Sprintf("enc_l%d_relu_on_%d", depth, i),
						lp.NewExpr().Add(1, a).Add(-1, z), lp.EQ, 0))
			default:
				// triangle relaxation: a >= z, a >= 0 (var bound), and
				// (hi-lo) a - hi z <= -hi*lo
				e.constrs = append(e.constrs,
					lp.NewConstraint(fmt.Sprintf("enc_l%d_relu_pos_%d", depth, i),
						lp.NewExpr().Add(1, a).Add(-1, z), lp.GE, 0),
					lp.NewConstraint(fmt.Sprintf("enc_l%d_relu_up_%d", depth, i),
						lp.NewExpr().Add(hi-lo, a).Add(-hi, z), lp.LE, -hi*lo))
			}
		}
	default:
		// non-piecewise-linear activations are abstracted by their
		// reachable value interval
		for i := 0; i < n; i++ {
			a := lp.NewVar(fmt.Sprintf("a_l%d_%d", depth, i), lb.PostLow[i], lb.PostUp[i])
			e.outVars = append(e.outVars, a)
		}
	}
	return e, nil
}

// SetupLayerEncoders runs interval propagation and builds one encoder
// per depth in [first, upto]. The input encoder represents the input
// of layer first: the caller's input box when first is 0, and the
// propagated reachable interval of layer first-1 otherwise. The third
// result is the per-depth variable count, for reporting.
func SetupLayerEncoders(net *nn.Network, build BuildEncoder, box bounds.Box, first, upto int) (map[int]*LayerEncoder, *InputEncoder, []int, error) {
	if first < 0 || upto >= len(net.Layers) || first > upto {
		return nil, nil, nil, errors.Errorf("invalid encoding range [%d, %d] for a %d-layer network",
			first, upto, len(net.Layers))
	}
	lbs, err := bounds.Propagate(net, box)
	if err != nil {
		return nil, nil, nil, err
	}

	inLow, inUp := box.Low, box.Up
	if first > 0 {
		inLow, inUp = lbs[first-1].PostLow, lbs[first-1].PostUp
	}
	input := &InputEncoder{shape: []int{len(inLow)}}
	for i := range inLow {
		input.vars = append(input.vars, lp.NewVar(fmt.Sprintf("x_%d", i), inLow[i], inUp[i]))
	}

	encoders := make(map[int]*LayerEncoder)
	var varCounts []int
	prev := input.vars
	for d := first; d <= upto; d++ {
		enc, err := build(d, net.Layers[d], prev, lbs[d])
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "encoding layer %d", d)
		}
		encoders[d] = enc
		varCounts = append(varCounts, len(enc.Vars()))
		prev = enc.OutVars()
	}
	return encoders, input, varCounts, nil
}

// CreateBaseProblems builds one problem per encoded depth: the problem
// at depth d accumulates the base constraints of every encoder up to
// and including d. Problems share variables; base constraints never
// change after this point.
func CreateBaseProblems(encoders map[int]*LayerEncoder, input *InputEncoder) (map[int]*lp.Problem, error) {
	first, last := encoderRange(encoders)
	problems := make(map[int]*lp.Problem, len(encoders))
	for d := first; d <= last; d++ {
		if _, ok := encoders[d]; !ok {
			return nil, errors.Errorf("missing encoder for depth %d", d)
		}
		p := lp.NewProblem(fmt.Sprintf("dnn_upto_l%d", d))
		for _, v := range input.InVars() {
			p.TrackVar(v)
		}
		for dd := first; dd <= d; dd++ {
			for _, c := range encoders[dd].Constraints() {
				if err := p.AddConstraint(c); err != nil {
					return nil, err
				}
			}
			for _, v := range encoders[dd].Vars() {
				p.TrackVar(v)
			}
		}
		problems[d] = p
	}
	return problems, nil
}

func encoderRange(encoders map[int]*LayerEncoder) (first, last int) {
	started := false
	for d := range encoders {
		if !started {
			first, last = d, d
			started = true
			continue
		}
		if d < first {
			first = d
		}
		if d > last {
			last = d
		}
	}
	return
}

// Linker adapts SetupLayerEncoders for a given BuildEncoder to the
// solver's LinkEncoders signature.
func Linker(build BuildEncoder) lp.LinkEncoders {
	return func(net *nn.Network, box bounds.Box, first, upto int) (map[int]lp.LayerEncoder, lp.InputEncoder, []int, error) {
		encoders, input, varCounts, err := SetupLayerEncoders(net, build, box, first, upto)
		if err != nil {
			return nil, nil, nil, err
		}
		out := make(map[int]lp.LayerEncoder, len(encoders))
		for d, e := range encoders {
			out[d] = e
		}
		return out, input, varCounts, nil
	}
}

// ProblemBuilder adapts CreateBaseProblems to the solver's
// CreateBaseProblems signature.
func ProblemBuilder() lp.CreateBaseProblems {
	return func(encoders map[int]lp.LayerEncoder, input lp.InputEncoder) (map[int]*lp.Problem, error) {
		concrete := make(map[int]*LayerEncoder, len(encoders))
		for d, e := range encoders {
			le, ok := e.(*LayerEncoder)
			if !ok {
				return nil, errors.Errorf("depth %d: unexpected encoder type %T", d, e)
			}
			concrete[d] = le
		}
		in, ok := input.(*InputEncoder)
		if !ok {
			return nil, errors.Errorf("unexpected input encoder type %T", input)
		}
		return CreateBaseProblems(concrete, in)
	}
}
