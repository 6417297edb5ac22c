// Command flowgraph analyzes JavaScript/TypeScript sources for dead code
// via value-flow (points-to) propagation.
//
// Usage:
//
//	flowgraph analyze <files...>
//	flowgraph watch <dir>
//	flowgraph serve
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
