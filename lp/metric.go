package lp

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/wrx812/DeepConcolic/bounds"
	"github.com/wrx812/DeepConcolic/tensor"
)

// DistVarName is the name of the shared distance variable every solver
// instance minimizes.
const DistVarName = "d"

// DrawFunc returns a value between its two arguments. Injected so the
// lower-bound redraw can be made deterministic in tests.
type DrawFunc func(lo, hi float64) float64

// UniformDraw is the default DrawFunc.
func UniformDraw(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return distuv.Uniform{Min: lo, Max: hi}.Rand()
}

// LinearMetric turns "distance of the symbolic input from a concrete
// point" into linear constraints over a shared distance variable.
// Implementations are immutable after construction and reused across
// solves.
type LinearMetric interface {
	// LowerBound and UpperBound are the scalar ends of the metric's
	// one-dimensional distance range.
	LowerBound() float64
	UpperBound() float64

	// DrawLowerBound draws a fresh lower bound for the distance
	// variable from [LowerBound, UpperBound*noise]. Tightening the
	// search window on every solve trades completeness for speed and
	// diversity of the inputs found.
	DrawLowerBound(draw DrawFunc) float64

	// Constrain produces the ephemeral constraints binding d to the
	// distance between inVars and x. Constraint names derive from
	// namePrefix and must be unique across the returned sequence.
	Constrain(d *Var, inVars []*Var, x *tensor.Tensor, namePrefix string) ([]*Constraint, error)
}

// LInfMetric measures the L∞ (max-norm) deviation from a reference
// input. It is the one concrete LinearMetric of the simplex-backed
// solver.
type LInfMetric struct {
	low, up float64
	lbNoise float64
}

// NewLInfMetric builds the metric from a one-dimensional distance
// range. lbNoise scales the upper end of the lower-bound draw window
// and must lie strictly between 0 and 1.
func NewLInfMetric(b bounds.Box, lbNoise float64) (*LInfMetric, error) {
	if b.Dim() != 1 {
		return nil, errors.Errorf("metric wants a 1-D distance range, got %d dimensions", b.Dim())
	}
	if lbNoise <= 0 || lbNoise >= 1 {
		return nil, errors.Errorf("lower-bound noise must be in (0,1), got %g", lbNoise)
	}
	return &LInfMetric{low: b.Low[0], up: b.Up[0], lbNoise: lbNoise}, nil
}

func (m *LInfMetric) LowerBound() float64 {
	return m.low
}

func (m *LInfMetric) UpperBound() float64 {
	return m.up
}

func (m *LInfMetric) DrawLowerBound(draw DrawFunc) float64 {
	return draw(m.low, m.up*m.lbNoise)
}

// Constrain emits, for every input index i, the pair
//
//	in_i + d >= x_i   and   in_i - d <= x_i
//
// which together force d >= |in_i - x_i|, hence d bounds the L∞
// distance once all pairs hold.
func (m *LInfMetric) Constrain(d *Var, inVars []*Var, x *tensor.Tensor, namePrefix string) ([]*Constraint, error) {
	if len(inVars) != x.Size() {
		return nil, errors.Errorf("input shape %v does not match %d symbolic input variables", x.Shape, len(inVars))
	}
	if namePrefix == "" {
		namePrefix = "input"
	}
	cstrs := make([]*Constraint, 0, 2*len(inVars))
	for i, v := range inVars {
		cstrs = append(cstrs,
			NewConstraint(fmt.Sprintf("%s_low_%d", namePrefix, i),
				NewExpr().Add(1, v).Add(1, d), GE, x.Data[i]),
			NewConstraint(fmt.Sprintf("%s_up_%d", namePrefix, i),
				NewExpr().Add(1, v).Add(-1, d), LE, x.Data[i]))
	}
	return cstrs, nil
}
