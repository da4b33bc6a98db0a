package utils

import (
	"fmt"
	"time"
)

// SolveStats holds timing information accumulated by a solver instance
type SolveStats struct {
	SetupTime    time.Duration
	SolveTime    time.Duration
	Queries      int
	Inconclusive int
}

// PrintSolveStats prints accumulated solver statistics.
// Respects the Verbose flag - does nothing if Verbose is false.
func PrintSolveStats(stats *SolveStats) {
	if !Verbose {
		return
	}
	fmt.Fprintln(Output, "\n=== SOLVE STATISTICS ===")
	fmt.Fprintf(Output, "Setup time: %v\n", stats.SetupTime)
	fmt.Fprintf(Output, "Total solve time: %v\n", stats.SolveTime)
	fmt.Fprintf(Output, "Queries: %d (%d inconclusive)\n", stats.Queries, stats.Inconclusive)
	if stats.Queries > 0 {
		fmt.Fprintf(Output, "Average time per query: %v\n", stats.SolveTime/time.Duration(stats.Queries))
	}
}

// DurationUS converts any time.Duration to micro-seconds as float64
func DurationUS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1000.0
}
