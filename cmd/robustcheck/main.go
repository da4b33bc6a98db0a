// robustcheck: searches for the closest inputs (under the L∞ metric)
// still admitted by the LP relaxation of a feedforward network.
//
// Usage:
//
//	robustcheck --arch="4 8 2" --queries=5 --upto=1
//	robustcheck --weights=model.json --ref="0.5 0.2 0.8 0.1"
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wrx812/DeepConcolic/bounds"
	"github.com/wrx812/DeepConcolic/encoding"
	"github.com/wrx812/DeepConcolic/lp"
	"github.com/wrx812/DeepConcolic/nn"
	"github.com/wrx812/DeepConcolic/tensor"
	"github.com/wrx812/DeepConcolic/utils"
)

var (
	archStr     = flag.String("arch", "4 8 2", "Architecture of the random toy network (neurons per layer)")
	weightsFile = flag.String("weights", "", "Model weights file (JSON); overrides --arch")
	refStr      = flag.String("ref", "", "Reference input (space-separated); random if empty")
	queries     = flag.Int("queries", 3, "Number of constrained-solve queries to run")
	upto        = flag.Int("upto", -1, "Deepest layer to encode (-1 for all)")
	lbNoise     = flag.Float64("lb-noise", 0.01, "Lower-bound noise factor in (0,1)")
	timeLimit   = flag.Int("time-limit", 600, "Per-solve time limit in seconds (when honored)")
	trySolvers  = flag.String("solvers", "", "Comma-separated backend preference list")
	verbose     = flag.Bool("verbose", true, "Verbose output")
	seed        = flag.Int64("seed", 42, "Random seed")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose
	rng := rand.New(rand.NewSource(*seed))

	arch, err := utils.ParseArchitecture(*archStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing architecture: %v\n", err)
		os.Exit(1)
	}
	cfg := &utils.Config{
		Architecture: arch,
		TrySolvers:   utils.ParseSolvers(*trySolvers),
		TimeLimit:    time.Duration(*timeLimit) * time.Second,
		LBNoise:      *lbNoise,
	}
	if err := utils.ValidateConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	net, err := loadNetwork(cfg, rng)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building network: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Network: %s (%d layers, input size %d)\n", net.Name, len(net.Layers), net.InputSize())

	last := *upto
	if last < 0 || last >= len(net.Layers) {
		last = len(net.Layers) - 1
	}

	box, err := bounds.NewUniform(0, 1, net.InputSize())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building input bounds: %v\n", err)
		os.Exit(1)
	}
	distRange, _ := bounds.NewUniform(0, 1, 1)
	metric, err := lp.NewLInfMetric(distRange, cfg.LBNoise)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building metric: %v\n", err)
		os.Exit(1)
	}

	solver, err := lp.NewDNNSolver(lp.Options{
		TrySolvers: cfg.TrySolvers,
		TimeLimit:  cfg.TimeLimit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error selecting backend: %v\n", err)
		os.Exit(1)
	}
	if err := solver.Setup(net, metric, box,
		encoding.Linker(encoding.TriangleEncoder), encoding.ProblemBuilder(), 0, last); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up LP problems: %v\n", err)
		os.Exit(1)
	}

	ref, err := referenceInput(net.InputSize(), rng)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing reference input: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Reference input: %v\n", ref.Data)

	cl, err := net.Ref(last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	problem, err := solver.ForLayer(cl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for q := 0; q < *queries; q++ {
		res, err := solver.FindConstrainedInput(problem, metric, ref, nil, fmt.Sprintf("q%d", q))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query %d failed: %v\n", q, err)
			os.Exit(1)
		}
		if res == nil {
			fmt.Printf("Query %d: inconclusive (no input found in the current window)\n", q)
			continue
		}
		fmt.Printf("Query %d: distance %.6f, witness %v\n", q, res.Value, res.Witness.Data)
		if out, err := net.Forward(res.Witness); err == nil {
			fmt.Printf("          network output %v\n", out.Data)
		}
	}

	utils.PrintSolveStats(&solver.Stats)
}

func loadNetwork(cfg *utils.Config, rng *rand.Rand) (*nn.Network, error) {
	if *weightsFile != "" {
		w, err := utils.LoadWeights(*weightsFile)
		if err != nil {
			return nil, err
		}
		return nn.FromWeights(w)
	}
	return nn.NewRandomNetwork("random", cfg.Architecture, rng)
}

func referenceInput(n int, rng *rand.Rand) (*tensor.Tensor, error) {
	if *refStr == "" {
		ref := tensor.New(n)
		for i := range ref.Data {
			ref.Data[i] = rng.Float64()
		}
		return ref, nil
	}
	parts := strings.Fields(*refStr)
	if len(parts) != n {
		return nil, fmt.Errorf("reference input has %d values, network expects %d", len(parts), n)
	}
	ref := tensor.New(n)
	for i, s := range parts {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		ref.Data[i] = v
	}
	return ref, nil
}
