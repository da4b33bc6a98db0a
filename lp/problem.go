package lp

import (
	"github.com/pkg/errors"
)

// Status is the outcome of the most recent solve of a problem.
type Status int

const (
	StatusNotSolved Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
	StatusUndefined
)

func (s Status) String() string {
	switch s {
	case StatusNotSolved:
		return "Not Solved"
	case StatusOptimal:
		return "Optimal"
	case StatusInfeasible:
		return "Infeasible"
	case StatusUnbounded:
		return "Unbounded"
	case StatusUndefined:
		return "Undefined"
	}
	return "Unknown"
}

// Problem is a minimization LP: an objective expression plus an
// ordered collection of named constraints. Constraints are keyed by
// unique name and can be removed individually, which is what makes the
// add-solve-remove protocol of the DNN solver possible.
type Problem struct {
	Name string

	order   []string
	constrs map[string]*Constraint

	vars   []*Var
	varSet map[*Var]struct{}

	objective *Expr

	status   Status
	values   map[*Var]float64
	objValue float64
}

// NewProblem returns an empty minimization problem.
func NewProblem(name string) *Problem {
	return &Problem{
		Name:    name,
		constrs: make(map[string]*Constraint),
		varSet:  make(map[*Var]struct{}),
	}
}

// AddConstraint inserts a named constraint. The name must be non-empty
// and not already present.
func (p *Problem) AddConstraint(c *Constraint) error {
	if c.Name == "" {
		return errors.Errorf("problem %s: constraint without a name", p.Name)
	}
	if _, ok := p.constrs[c.Name]; ok {
		return errors.Errorf("problem %s: duplicate constraint name %q", p.Name, c.Name)
	}
	p.constrs[c.Name] = c
	p.order = append(p.order, c.Name)
	for _, t := range c.Expr.Terms {
		p.registerVar(t.Var)
	}
	return nil
}

// RemoveConstraint deletes the constraint with the given name. Removal
// does not unregister variables: base problems share variables across
// constraints and the solver never needs the reverse mapping.
func (p *Problem) RemoveConstraint(name string) error {
	if _, ok := p.constrs[name]; !ok {
		return errors.Errorf("problem %s: no constraint named %q", p.Name, name)
	}
	delete(p.constrs, name)
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return nil
}

// HasConstraint reports whether a constraint with the given name exists.
func (p *Problem) HasConstraint(name string) bool {
	_, ok := p.constrs[name]
	return ok
}

// Constraints returns the constraints in insertion order.
func (p *Problem) Constraints() []*Constraint {
	out := make([]*Constraint, 0, len(p.order))
	for _, n := range p.order {
		out = append(out, p.constrs[n])
	}
	return out
}

// ConstraintNames returns the constraint names in insertion order.
func (p *Problem) ConstraintNames() []string {
	return append([]string(nil), p.order...)
}

// NumConstraints returns the number of constraints.
func (p *Problem) NumConstraints() int {
	return len(p.order)
}

// AddObjective accumulates terms into the (minimized) objective.
func (p *Problem) AddObjective(e *Expr) {
	if p.objective == nil {
		p.objective = NewExpr()
	}
	p.objective.Terms = append(p.objective.Terms, e.Terms...)
	p.objective.Const += e.Const
	for _, t := range e.Terms {
		p.registerVar(t.Var)
	}
}

// Objective returns the objective expression, or nil if none was set.
func (p *Problem) Objective() *Expr {
	return p.objective
}

// Vars returns every variable referenced by the problem, in first-seen
// order.
func (p *Problem) Vars() []*Var {
	return p.vars
}

// TrackVar registers a variable that belongs to the model even when no
// constraint or objective term references it, so that its bounds still
// reach the backend and its value can be read back after a solve.
func (p *Problem) TrackVar(v *Var) {
	p.registerVar(v)
}

func (p *Problem) registerVar(v *Var) {
	if _, ok := p.varSet[v]; ok {
		return
	}
	p.varSet[v] = struct{}{}
	p.vars = append(p.vars, v)
}

// Status returns the outcome of the most recent solve.
func (p *Problem) Status() Status {
	return p.status
}

// Value returns the assigned value of v after an optimal solve, and
// zero otherwise.
func (p *Problem) Value(v *Var) float64 {
	return p.values[v]
}

// ObjectiveValue returns the objective value of the most recent solve.
func (p *Problem) ObjectiveValue() float64 {
	return p.objValue
}

// SetSolution records a solve outcome. Called by backends only.
func (p *Problem) SetSolution(status Status, values map[*Var]float64, objValue float64) {
	p.status = status
	p.values = values
	p.objValue = objValue
}
