package lp

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// SimplexName selects the in-process gonum simplex engine.
const SimplexName = "SIMPLEX"

// SimplexBackend solves problems with gonum's lp.Simplex. It is always
// available but runs to completion: it does not honor a time limit.
type SimplexBackend struct{}

func NewSimplexBackend() *SimplexBackend {
	return &SimplexBackend{}
}

func (*SimplexBackend) Name() string {
	return SimplexName
}

func (*SimplexBackend) Available() bool {
	return true
}

func (*SimplexBackend) HonorsTimeLimit() bool {
	return false
}

// Solve converts the problem to standard equality form and runs the
// simplex method. Mapping to standard form:
//
//   - every variable x is split into x⁺ - x⁻ with x⁺, x⁻ >= 0;
//   - GE rows are negated into LE rows, which then receive one slack
//     column each;
//   - finite variable bounds are emitted as extra LE rows.
func (s *SimplexBackend) Solve(p *Problem) error {
	if p.Objective() == nil {
		return errors.Errorf("problem %s has no objective", p.Name)
	}
	vars := p.Vars()
	col := make(map[*Var]int, len(vars))
	for i, v := range vars {
		col[v] = i
	}
	n := len(vars)

	type row struct {
		coeffs map[*Var]float64
		rhs    float64
	}
	var eqs, ineqs []row

	addRow := func(c *Constraint) {
		coeffs := make(map[*Var]float64, len(c.Expr.Terms))
		for _, t := range c.Expr.Terms {
			coeffs[t.Var] += t.Coeff
		}
		rhs := c.RHS - c.Expr.Const
		switch c.Sense {
		case EQ:
			eqs = append(eqs, row{coeffs, rhs})
		case LE:
			ineqs = append(ineqs, row{coeffs, rhs})
		case GE:
			neg := make(map[*Var]float64, len(coeffs))
			for v, cf := range coeffs {
				neg[v] = -cf
			}
			ineqs = append(ineqs, row{neg, -rhs})
		}
	}
	for _, c := range p.Constraints() {
		addRow(c)
	}
	for _, v := range vars {
		if !math.IsInf(v.Up, 1) {
			ineqs = append(ineqs, row{map[*Var]float64{v: 1}, v.Up})
		}
		if !math.IsInf(v.Low, -1) {
			ineqs = append(ineqs, row{map[*Var]float64{v: -1}, -v.Low})
		}
	}

	nRows := len(eqs) + len(ineqs)
	nCols := 2*n + len(ineqs)
	A := mat.NewDense(nRows, nCols, nil)
	b := make([]float64, nRows)
	fill := func(r int, rw row) {
		for v, cf := range rw.coeffs {
			i := col[v]
			A.Set(r, 2*i, cf)
			A.Set(r, 2*i+1, -cf)
		}
		b[r] = rw.rhs
	}
	for r, rw := range eqs {
		fill(r, rw)
	}
	for k, rw := range ineqs {
		r := len(eqs) + k
		fill(r, rw)
		A.Set(r, 2*n+k, 1)
	}

	c := make([]float64, nCols)
	for _, t := range p.Objective().Terms {
		i := col[t.Var]
		c[2*i] += t.Coeff
		c[2*i+1] -= t.Coeff
	}

	z, x, err := lp.Simplex(c, A, b, 0, nil)
	switch {
	case err == nil:
		values := make(map[*Var]float64, n)
		for _, v := range vars {
			i := col[v]
			values[v] = x[2*i] - x[2*i+1]
		}
		p.SetSolution(StatusOptimal, values, z+p.Objective().Const)
	case errors.Is(err, lp.ErrInfeasible):
		p.SetSolution(StatusInfeasible, nil, 0)
	case errors.Is(err, lp.ErrUnbounded):
		p.SetSolution(StatusUnbounded, nil, 0)
	case errors.Is(err, lp.ErrSingular), errors.Is(err, lp.ErrZeroRow), errors.Is(err, lp.ErrZeroColumn):
		p.SetSolution(StatusUndefined, nil, 0)
	default:
		return errors.Wrapf(err, "simplex failed on problem %s", p.Name)
	}
	return nil
}
