package lp

import (
	"time"

	"github.com/pkg/errors"

	"github.com/wrx812/DeepConcolic/bounds"
	"github.com/wrx812/DeepConcolic/nn"
	"github.com/wrx812/DeepConcolic/tensor"
	"github.com/wrx812/DeepConcolic/utils"
)

// LayerEncoder owns the named decision variables of one layer and the
// base constraints linking them to the previous layer. Encoders are
// built externally and referenced, never mutated, by the solver.
type LayerEncoder interface {
	Depth() int
	Vars() []*Var
	Constraints() []*Constraint
}

// InputEncoder owns the symbolic input-layer variables.
type InputEncoder interface {
	InVars() []*Var
	Shape() []int
}

// LinkEncoders builds one encoder per depth between first and upto,
// plus the input-layer encoder. The third result is the per-depth
// variable count, for reporting only.
type LinkEncoders func(net *nn.Network, box bounds.Box, first, upto int) (map[int]LayerEncoder, InputEncoder, []int, error)

// CreateBaseProblems builds, per depth, a problem holding every base
// constraint from the first encoded layer through that depth. Problems
// share *Var objects across depths.
type CreateBaseProblems func(encoders map[int]LayerEncoder, input InputEncoder) (map[int]*Problem, error)

// SolveResult is a successful outcome of FindConstrainedInput: the
// minimized distance and the witness input assignment realizing it.
type SolveResult struct {
	Value   float64
	Witness *tensor.Tensor
}

// Solver4DNN finds inputs satisfying the LP abstraction of a network
// up to a chosen layer together with caller-supplied constraints.
type Solver4DNN interface {
	// ForLayer returns the persistent problem encoding the network up
	// to the given layer.
	ForLayer(cl nn.LayerRef) (*Problem, error)

	// FindConstrainedInput minimizes the metric distance from x
	// subject to the problem's base constraints plus extra. The
	// problem's constraint set is restored before returning, on every
	// path. A nil result with nil error means the query was
	// inconclusive (infeasible, unbounded, or out of time).
	FindConstrainedInput(p *Problem, m LinearMetric, x *tensor.Tensor, extra []*Constraint, namePrefix string) (*SolveResult, error)
}

// Options configures a DNNSolver.
type Options struct {
	// TrySolvers is the preference-ordered backend candidate list.
	// Empty means DefaultTrySolvers.
	TrySolvers []string

	// TimeLimit bounds a single solve, for backends that honor it.
	// Zero means DefaultTimeLimit.
	TimeLimit time.Duration

	// Draw supplies fresh distance lower bounds. Nil means UniformDraw.
	Draw DrawFunc
}

// DNNSolver is the simplex-family implementation of Solver4DNN. Not
// safe for concurrent use: problems and the shared distance variable
// are mutated in place, and the design assumes exactly one in-flight
// query at a time.
type DNNSolver struct {
	backend Backend
	draw    DrawFunc

	layerEncoders map[int]LayerEncoder
	inputEncoder  InputEncoder
	baseProblems  map[int]*Problem

	// distVar is shared by every cached problem; its lower bound is
	// redrawn before each solve.
	distVar *Var

	Stats utils.SolveStats
}

// NewDNNSolver resolves a backend from the options. The backend is
// bound once, for the solver's lifetime.
func NewDNNSolver(opts Options) (*DNNSolver, error) {
	backend, err := SelectBackend(opts.TrySolvers, opts.TimeLimit)
	if err != nil {
		return nil, err
	}
	draw := opts.Draw
	if draw == nil {
		draw = UniformDraw
	}
	return &DNNSolver{backend: backend, draw: draw}, nil
}

// Backend returns the engine bound at construction.
func (s *DNNSolver) Backend() Backend {
	return s.backend
}

// DistVar returns the shared distance variable, available after Setup.
func (s *DNNSolver) DistVar() *Var {
	return s.distVar
}

// Setup builds the per-depth problem cache for the network encoded
// from layer first through upto, then attaches the shared distance
// variable to every cached problem's objective.
func (s *DNNSolver) Setup(net *nn.Network, metric LinearMetric, box bounds.Box,
	link LinkEncoders, create CreateBaseProblems, first, upto int) error {

	start := time.Now()
	encoders, inputEnc, varCounts, err := link(net, box, first, upto)
	if err != nil {
		return errors.Wrap(err, "linking layer encoders")
	}
	total := len(inputEnc.InVars())
	for _, n := range varCounts {
		total += n
	}
	utils.Logf("%d LP variables have been collected.", total)

	problems, err := create(encoders, inputEnc)
	if err != nil {
		return errors.Wrap(err, "creating base problems")
	}

	s.layerEncoders = encoders
	s.inputEncoder = inputEnc
	s.baseProblems = problems

	s.distVar = NewVar(DistVarName, metric.DrawLowerBound(s.draw), metric.UpperBound())
	maxConstrs := 0
	for _, p := range problems {
		p.AddObjective(NewExpr().Add(1, s.distVar))
		if n := p.NumConstraints(); n > maxConstrs {
			maxConstrs = n
		}
	}
	s.Stats.SetupTime += time.Since(start)

	utils.Logf("Base LP encoding of DNN %s up to layer %d has %d variables.", net.Name, upto, total)
	utils.Logf("Base LP encoding of deepest layer considered involves %d constraints.", maxConstrs)
	return nil
}

// ForLayer maps a layer handle to its cached problem. Piecewise-linear
// activations are linearized in place, so their constraint depth is
// the layer index itself; any other activation needs the successor
// layer's encoding and maps one depth further.
func (s *DNNSolver) ForLayer(cl nn.LayerRef) (*Problem, error) {
	index := cl.Index
	if !cl.Layer.Act.PiecewiseLinear() {
		index++
	}
	p, ok := s.baseProblems[index]
	if !ok {
		return nil, errors.Errorf("no LP encoding cached for depth %d (layer %d, %s activation)",
			index, cl.Index, cl.Layer.Act)
	}
	return p, nil
}

// FindConstrainedInput implements the add-solve-remove protocol:
//
//  1. ephemeral constraints (metric + extra) are added to p;
//  2. the shared distance variable's lower bound is redrawn — a global,
//     deliberate side effect carried over to subsequent calls;
//  3. the backend solves p;
//  4. only an Optimal status yields a result;
//  5. every ephemeral constraint is removed again, whatever happened.
func (s *DNNSolver) FindConstrainedInput(p *Problem, metric LinearMetric, x *tensor.Tensor,
	extra []*Constraint, namePrefix string) (*SolveResult, error) {

	inVars := s.inputEncoder.InVars()
	if !sameShape(x.Shape, s.inputEncoder.Shape()) {
		return nil, errors.Errorf("input shape %v does not match symbolic input shape %v",
			x.Shape, s.inputEncoder.Shape())
	}
	if p.Objective() == nil {
		return nil, errors.Errorf("problem %s has no objective", p.Name)
	}

	metricConstrs, err := metric.Constrain(s.distVar, inVars, x, namePrefix)
	if err != nil {
		return nil, err
	}
	cstrs := make([]*Constraint, 0, len(extra)+len(metricConstrs))
	cstrs = append(cstrs, extra...)
	cstrs = append(cstrs, metricConstrs...)

	added := make([]string, 0, len(cstrs))
	defer func() {
		for _, name := range added {
			// removal cannot fail for a name this call added
			_ = p.RemoveConstraint(name)
		}
	}()
	for _, c := range cstrs {
		if err := p.AddConstraint(c); err != nil {
			return nil, err
		}
		added = append(added, c.Name)
	}

	// Draw a new distance lower bound; the variable is shared, so this
	// applies to every cached problem.
	s.distVar.Low = metric.DrawLowerBound(s.draw)

	utils.Logf("LP solving: %d constraints", p.NumConstraints())
	start := time.Now()
	err = s.backend.Solve(p)
	s.Stats.SolveTime += time.Since(start)
	s.Stats.Queries++
	if err != nil {
		return nil, err
	}

	if p.Status() != StatusOptimal {
		s.Stats.Inconclusive++
		return nil, nil
	}
	witness := tensor.New(x.Shape...)
	for i, v := range inVars {
		witness.Data[i] = p.Value(v)
	}
	return &SolveResult{Value: p.ObjectiveValue(), Witness: witness}, nil
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
