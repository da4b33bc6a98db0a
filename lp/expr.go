package lp

import (
	"fmt"
	"math"
	"strings"
)

// Var is a scalar LP decision variable. Pointer identity is variable
// identity: the same *Var may appear in many problems, and a bound
// update is visible to all of them. Bounds may be ±Inf.
type Var struct {
	Name string
	Low  float64
	Up   float64
}

// NewVar returns a bounded variable.
func NewVar(name string, low, up float64) *Var {
	return &Var{Name: name, Low: low, Up: up}
}

// NewFreeVar returns a variable with no bounds.
func NewFreeVar(name string) *Var {
	return &Var{Name: name, Low: math.Inf(-1), Up: math.Inf(1)}
}

// Term is one coefficient-variable pair of a linear expression.
type Term struct {
	Var   *Var
	Coeff float64
}

// Expr is a linear expression: sum of terms plus a constant.
type Expr struct {
	Terms []Term
	Const float64
}

// NewExpr returns an empty expression.
func NewExpr() *Expr {
	return &Expr{}
}

// Add appends coeff*v to the expression and returns it for chaining.
func (e *Expr) Add(coeff float64, v *Var) *Expr {
	e.Terms = append(e.Terms, Term{Var: v, Coeff: coeff})
	return e
}

// AddConst adds a constant offset and returns the expression.
func (e *Expr) AddConst(c float64) *Expr {
	e.Const += c
	return e
}

// Sense is the comparison direction of a constraint.
type Sense int

const (
	LE Sense = iota // expr <= rhs
	GE              // expr >= rhs
	EQ              // expr == rhs
)

func (s Sense) String() string {
	switch s {
	case LE:
		return "<="
	case GE:
		return ">="
	case EQ:
		return "="
	}
	return "?"
}

// Constraint is a named linear constraint. Names must be unique within
// a problem so that constraints can be removed individually.
type Constraint struct {
	Name  string
	Expr  *Expr
	Sense Sense
	RHS   float64
}

// NewConstraint builds a named constraint.
func NewConstraint(name string, e *Expr, sense Sense, rhs float64) *Constraint {
	return &Constraint{Name: name, Expr: e, Sense: sense, RHS: rhs}
}

func (c *Constraint) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: ", c.Name)
	for i, t := range c.Expr.Terms {
		if i > 0 {
			b.WriteString(" + ")
		}
		fmt.Fprintf(&b, "%g %s", t.Coeff, t.Var.Name)
	}
	if c.Expr.Const != 0 {
		fmt.Fprintf(&b, " + %g", c.Expr.Const)
	}
	fmt.Fprintf(&b, " %s %g", c.Sense, c.RHS)
	return b.String()
}
