package lp

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrx812/DeepConcolic/bounds"
	"github.com/wrx812/DeepConcolic/nn"
	"github.com/wrx812/DeepConcolic/tensor"
)

// stubEncoder is a minimal LayerEncoder for harness tests.
type stubEncoder struct {
	depth   int
	vars    []*Var
	constrs []*Constraint
}

func (s *stubEncoder) Depth() int                 { return s.depth }
func (s *stubEncoder) Vars() []*Var               { return s.vars }
func (s *stubEncoder) Constraints() []*Constraint { return s.constrs }

type stubInput struct {
	vars  []*Var
	shape []int
}

func (s *stubInput) InVars() []*Var { return s.vars }
func (s *stubInput) Shape() []int   { return s.shape }

// fakeBackend records solve calls and reports a scripted status.
type fakeBackend struct {
	status Status
	err    error
	calls  int
	values map[*Var]float64
	obj    float64
}

func (*fakeBackend) Name() string          { return "FAKE" }
func (*fakeBackend) Available() bool       { return true }
func (*fakeBackend) HonorsTimeLimit() bool { return false }

func (f *fakeBackend) Solve(p *Problem) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	p.SetSolution(f.status, f.values, f.obj)
	return nil
}

// testHarness wires a tiny two-layer network through stub encoders.
func testHarness(t *testing.T, backend Backend) (*DNNSolver, *nn.Network, LinearMetric) {
	t.Helper()

	l0 := nn.NewLayer(1, 1, nn.ReLU{})
	l0.W.Set(0, 0, 1)
	l1 := nn.NewLayer(1, 1, nn.Sigmoid{})
	l1.W.Set(0, 0, 1)
	net := &nn.Network{Name: "toy", Layers: []*nn.Layer{l0, l1}}

	x0 := NewVar("x_0", 0, 1)
	a0 := NewVar("a_l0_0", 0, 1)
	a1 := NewVar("a_l1_0", 0, 1)
	input := &stubInput{vars: []*Var{x0}, shape: []int{1}}
	enc0 := &stubEncoder{depth: 0, vars: []*Var{a0},
		constrs: []*Constraint{NewConstraint("enc_l0_aff_0", NewExpr().Add(1, a0).Add(-1, x0), EQ, 0)}}
	enc1 := &stubEncoder{depth: 1, vars: []*Var{a1},
		constrs: []*Constraint{NewConstraint("enc_l1_aff_0", NewExpr().Add(1, a1).Add(-1, a0), EQ, 0)}}

	link := func(*nn.Network, bounds.Box, int, int) (map[int]LayerEncoder, InputEncoder, []int, error) {
		return map[int]LayerEncoder{0: enc0, 1: enc1}, input, []int{1, 1}, nil
	}
	create := func(encs map[int]LayerEncoder, in InputEncoder) (map[int]*Problem, error) {
		problems := make(map[int]*Problem)
		for d := 0; d <= 1; d++ {
			p := NewProblem("stub")
			for dd := 0; dd <= d; dd++ {
				for _, c := range encs[dd].Constraints() {
					if err := p.AddConstraint(c); err != nil {
						return nil, err
					}
				}
			}
			problems[d] = p
		}
		return problems, nil
	}

	box, err := bounds.NewUniform(0, 1, 1)
	require.NoError(t, err)
	metric, err := NewLInfMetric(distRange(t, 0, 1), 0.5)
	require.NoError(t, err)

	s := &DNNSolver{backend: backend, draw: func(lo, hi float64) float64 { return lo }}
	require.NoError(t, s.Setup(net, metric, box, link, create, 0, 1))
	return s, net, metric
}

func TestSetupObjectivePresence(t *testing.T) {
	s, _, _ := testHarness(t, &fakeBackend{status: StatusOptimal})

	require.NotNil(t, s.DistVar())
	for d, p := range s.baseProblems {
		obj := p.Objective()
		require.NotNil(t, obj, "problem at depth %d has no objective", d)
		found := false
		for _, term := range obj.Terms {
			if term.Var == s.DistVar() {
				found = true
			}
		}
		assert.True(t, found, "problem at depth %d does not minimize the distance variable", d)
	}
}

func TestForLayerIndexMapping(t *testing.T) {
	s, net, _ := testHarness(t, &fakeBackend{status: StatusOptimal})

	// piecewise-linear activation at index 0 maps to depth 0
	cl, err := net.Ref(0)
	require.NoError(t, err)
	p, err := s.ForLayer(cl)
	require.NoError(t, err)
	assert.Same(t, s.baseProblems[0], p)

	// sigmoid at index 1 maps one depth further, which was not built
	cl, err = net.Ref(1)
	require.NoError(t, err)
	_, err = s.ForLayer(cl)
	assert.Error(t, err)
}

func TestFindConstrainedInputOptimal(t *testing.T) {
	fake := &fakeBackend{status: StatusOptimal, obj: 0.25}
	s, net, metric := testHarness(t, fake)

	cl, err := net.Ref(0)
	require.NoError(t, err)
	p, err := s.ForLayer(cl)
	require.NoError(t, err)

	fake.values = map[*Var]float64{s.inputEncoder.InVars()[0]: 0.75}
	before := p.ConstraintNames()

	res, err := s.FindConstrainedInput(p, metric, tensor.NewWithData([]float64{0.5}), nil, "t")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 0.25, res.Value)
	assert.Equal(t, []float64{0.75}, res.Witness.Data)
	assert.Equal(t, []int{1}, res.Witness.Shape)

	assert.Equal(t, before, p.ConstraintNames())
	assert.Equal(t, 1, fake.calls)
}

func TestRollbackOnEveryStatus(t *testing.T) {
	for _, status := range []Status{StatusOptimal, StatusInfeasible, StatusUnbounded, StatusUndefined} {
		fake := &fakeBackend{status: status}
		s, net, metric := testHarness(t, fake)
		cl, err := net.Ref(0)
		require.NoError(t, err)
		p, err := s.ForLayer(cl)
		require.NoError(t, err)
		before := p.ConstraintNames()

		res, err := s.FindConstrainedInput(p, metric, tensor.NewWithData([]float64{0.5}),
			[]*Constraint{NewConstraint("extra", NewExpr().Add(1, s.DistVar()), GE, 0.1)}, "t")
		require.NoError(t, err, "status %s", status)
		if status == StatusOptimal {
			assert.NotNil(t, res)
		} else {
			assert.Nil(t, res, "status %s must yield no result", status)
		}
		assert.Equal(t, before, p.ConstraintNames(), "status %s left the problem dirty", status)
	}
}

func TestRollbackOnBackendError(t *testing.T) {
	fake := &fakeBackend{err: errors.New("license expired")}
	s, net, metric := testHarness(t, fake)
	cl, err := net.Ref(0)
	require.NoError(t, err)
	p, err := s.ForLayer(cl)
	require.NoError(t, err)
	before := p.ConstraintNames()

	_, err = s.FindConstrainedInput(p, metric, tensor.NewWithData([]float64{0.5}), nil, "t")
	assert.Error(t, err)
	assert.Equal(t, before, p.ConstraintNames())
}

func TestShapePreconditionFailsBeforeSolve(t *testing.T) {
	fake := &fakeBackend{status: StatusOptimal}
	s, net, metric := testHarness(t, fake)
	cl, err := net.Ref(0)
	require.NoError(t, err)
	p, err := s.ForLayer(cl)
	require.NoError(t, err)

	_, err = s.FindConstrainedInput(p, metric, tensor.NewWithData([]float64{0.5, 0.5}), nil, "t")
	assert.Error(t, err)
	assert.Zero(t, fake.calls, "backend must not be invoked on a shape mismatch")
}

func TestLowerBoundRedrawnEachSolve(t *testing.T) {
	fake := &fakeBackend{status: StatusInfeasible}
	s, net, metric := testHarness(t, fake)
	cl, err := net.Ref(0)
	require.NoError(t, err)
	p, err := s.ForLayer(cl)
	require.NoError(t, err)

	draws := []float64{0.1, 0.3}
	s.draw = func(lo, hi float64) float64 {
		v := draws[0]
		draws = draws[1:]
		return v
	}
	_, err = s.FindConstrainedInput(p, metric, tensor.NewWithData([]float64{0.5}), nil, "t")
	require.NoError(t, err)
	assert.Equal(t, 0.1, s.DistVar().Low)

	_, err = s.FindConstrainedInput(p, metric, tensor.NewWithData([]float64{0.5}), nil, "t")
	require.NoError(t, err)
	assert.Equal(t, 0.3, s.DistVar().Low)
}

func TestExtraConstraintSliceNotMutated(t *testing.T) {
	fake := &fakeBackend{status: StatusInfeasible}
	s, net, metric := testHarness(t, fake)
	cl, err := net.Ref(0)
	require.NoError(t, err)
	p, err := s.ForLayer(cl)
	require.NoError(t, err)

	extra := make([]*Constraint, 1, 8)
	extra[0] = NewConstraint("extra", NewExpr().Add(1, s.DistVar()), GE, 0.1)
	_, err = s.FindConstrainedInput(p, metric, tensor.NewWithData([]float64{0.5}), extra, "t")
	require.NoError(t, err)
	require.Len(t, extra, 1)
	assert.Equal(t, "extra", extra[0].Name)
}
