// Command reorderctl is the operator CLI for the reorder engine: seed a
// demonstration dataset, propose or batch-propose orders against a
// repository backend, and run database migrations — all without standing
// up the HTTP facade (cmd/server).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
