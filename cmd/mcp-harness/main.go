// Command mcp-harness runs the bridge conformance scenarios and exits with a status
// reflecting the outcome: 0 when every executed scenario passed, 1 on failures,
// 2 on configuration errors and 3 when the run was aborted.
package main

import (
	"os"
)

func main() {
	os.Exit(Run(os.Args[1:]))
}
