package lp

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// GLPKName selects the external glpsol command-line engine.
const GLPKName = "GLPK_CMD"

// GLPKBackend shells out to glpsol: the problem is written in CPLEX LP
// format, solved with --tmlim, and the printable solution report is
// read back. Available only when glpsol is on PATH.
type GLPKBackend struct {
	timeLimit time.Duration
}

func NewGLPKBackend(timeLimit time.Duration) *GLPKBackend {
	return &GLPKBackend{timeLimit: timeLimit}
}

func (*GLPKBackend) Name() string {
	return GLPKName
}

func (*GLPKBackend) Available() bool {
	_, err := exec.LookPath("glpsol")
	return err == nil
}

func (*GLPKBackend) HonorsTimeLimit() bool {
	return true
}

func (g *GLPKBackend) Solve(p *Problem) error {
	if p.Objective() == nil {
		return errors.Errorf("problem %s has no objective", p.Name)
	}
	dir, err := os.MkdirTemp("", "glpk")
	if err != nil {
		return errors.Wrap(err, "creating solve directory")
	}
	defer os.RemoveAll(dir)

	modelPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "model.sol")
	f, err := os.Create(modelPath)
	if err != nil {
		return errors.Wrap(err, "writing LP file")
	}
	if err := writeLP(f, p); err != nil {
		f.Close()
		return errors.Wrap(err, "writing LP file")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "writing LP file")
	}

	secs := int(g.timeLimit / time.Second)
	if secs < 1 {
		secs = 1
	}
	cmd := exec.Command("glpsol", "--lp", modelPath, "--tmlim", strconv.Itoa(secs), "-o", solPath)
	if err := cmd.Run(); err != nil {
		return errors.Wrap(err, "running glpsol")
	}

	status, obj, byName, err := parseGLPKSolution(solPath)
	if err != nil {
		return errors.Wrap(err, "reading glpsol solution")
	}
	if status != StatusOptimal {
		p.SetSolution(status, nil, 0)
		return nil
	}
	values := make(map[*Var]float64, len(p.Vars()))
	for _, v := range p.Vars() {
		values[v] = byName[v.Name]
	}
	p.SetSolution(StatusOptimal, values, obj+p.Objective().Const)
	return nil
}

// writeLP emits the problem in CPLEX LP format.
func writeLP(w io.Writer, p *Problem) error {
	referenced := make(map[*Var]struct{})
	for _, t := range p.Objective().Terms {
		referenced[t.Var] = struct{}{}
	}
	for _, c := range p.Constraints() {
		for _, t := range c.Expr.Terms {
			referenced[t.Var] = struct{}{}
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "\\ Problem: %s\n", p.Name)
	bw.WriteString("Minimize\n obj:")
	writeExprTerms(bw, p.Objective().Terms)
	for _, v := range p.Vars() {
		// bounds-only variables still need a column
		if _, ok := referenced[v]; !ok {
			fmt.Fprintf(bw, " + 0 %s", v.Name)
		}
	}
	bw.WriteString("\nSubject To\n")
	for _, c := range p.Constraints() {
		fmt.Fprintf(bw, " %s:", c.Name)
		writeExprTerms(bw, c.Expr.Terms)
		fmt.Fprintf(bw, " %s %.17g\n", c.Sense, c.RHS-c.Expr.Const)
	}
	bw.WriteString("Bounds\n")
	for _, v := range p.Vars() {
		lowInf := math.IsInf(v.Low, -1)
		upInf := math.IsInf(v.Up, 1)
		switch {
		case lowInf && upInf:
			fmt.Fprintf(bw, " %s free\n", v.Name)
		case lowInf:
			fmt.Fprintf(bw, " -inf <= %s <= %.17g\n", v.Name, v.Up)
		case upInf:
			fmt.Fprintf(bw, " %s >= %.17g\n", v.Name, v.Low)
		default:
			fmt.Fprintf(bw, " %.17g <= %s <= %.17g\n", v.Low, v.Name, v.Up)
		}
	}
	bw.WriteString("End\n")
	return bw.Flush()
}

func writeExprTerms(w *bufio.Writer, terms []Term) {
	for _, t := range terms {
		if t.Coeff >= 0 {
			fmt.Fprintf(w, " + %.17g %s", t.Coeff, t.Var.Name)
		} else {
			fmt.Fprintf(w, " - %.17g %s", -t.Coeff, t.Var.Name)
		}
	}
}

// parseGLPKSolution reads glpsol's printable solution report (-o).
func parseGLPKSolution(path string) (Status, float64, map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return StatusUndefined, 0, nil, err
	}
	defer f.Close()

	status := StatusUndefined
	obj := 0.0
	values := make(map[string]float64)

	inColumns := false
	pendingName := ""
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "Status:"):
			switch {
			case strings.Contains(trimmed, "OPTIMAL"):
				status = StatusOptimal
			case strings.Contains(trimmed, "INFEASIBLE"), strings.Contains(trimmed, "EMPTY"):
				status = StatusInfeasible
			case strings.Contains(trimmed, "UNBOUNDED"):
				status = StatusUnbounded
			default:
				status = StatusUndefined
			}
		case strings.HasPrefix(trimmed, "Objective:"):
			// "Objective:  obj = 2.5 (MINimum)"
			if i := strings.Index(trimmed, "="); i >= 0 {
				fields := strings.Fields(trimmed[i+1:])
				if len(fields) > 0 {
					obj, _ = strconv.ParseFloat(fields[0], 64)
				}
			}
		case strings.Contains(line, "Column name"):
			inColumns = true
		case inColumns && strings.HasPrefix(trimmed, "------"):
			// separator under the header
		case inColumns && trimmed == "":
			inColumns = false
		case inColumns:
			fields := strings.Fields(trimmed)
			if pendingName != "" {
				// long names push the value fields onto the next line
				if len(fields) >= 2 {
					if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
						values[pendingName] = v
					}
				}
				pendingName = ""
				continue
			}
			if len(fields) >= 4 {
				if v, err := strconv.ParseFloat(fields[3], 64); err == nil {
					values[fields[1]] = v
					continue
				}
			}
			if len(fields) == 2 {
				pendingName = fields[1]
			}
		}
	}
	if err := sc.Err(); err != nil {
		return StatusUndefined, 0, nil, err
	}
	return status, obj, values, nil
}
