package utils

import (
	"fmt"
	"io"
	"os"
)

// Verbose controls whether progress and statistics are printed.
// Set to false to suppress output.
var Verbose = true

// Output is the writer where progress and statistics are printed.
// Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// Logf prints one informational progress line.
// Respects the Verbose flag - does nothing if Verbose is false.
func Logf(format string, args ...interface{}) {
	if !Verbose {
		return
	}
	fmt.Fprintf(Output, format+"\n", args...)
}
