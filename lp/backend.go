package lp

import (
	"time"

	"github.com/pkg/errors"

	"github.com/wrx812/DeepConcolic/utils"
)

// Backend is an LP engine. Solve stores the outcome on the problem and
// returns an error only for engine failure; infeasible, unbounded and
// inconclusive outcomes become statuses, not errors.
type Backend interface {
	Name() string
	Available() bool
	HonorsTimeLimit() bool
	Solve(p *Problem) error
}

// DefaultTrySolvers is the preference order used when the caller does
// not name one.
var DefaultTrySolvers = []string{GLPKName, SimplexName}

// DefaultTimeLimit bounds a single solve for backends that support it.
const DefaultTimeLimit = 600 * time.Second

// SelectBackend resolves a preference-ordered list of backend names
// into the first available engine. Resolution happens once, at solver
// construction; availability is not re-probed per solve.
func SelectBackend(try []string, timeLimit time.Duration) (Backend, error) {
	if len(try) == 0 {
		try = DefaultTrySolvers
	}
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}
	for _, name := range try {
		var b Backend
		switch name {
		case GLPKName:
			b = NewGLPKBackend(timeLimit)
		case SimplexName:
			b = NewSimplexBackend()
		default:
			return nil, errors.Errorf("unknown LP backend %q", name)
		}
		if !b.Available() {
			continue
		}
		if b.HonorsTimeLimit() {
			utils.Logf("LP: %s backend selected (with %v time limit).", b.Name(), timeLimit)
		} else {
			utils.Logf("LP: %s backend selected.", b.Name())
			utils.Logf("LP: WARNING: %s does not support time limit.", b.Name())
		}
		return b, nil
	}
	return nil, errors.Errorf("no LP backend available among %v", try)
}
