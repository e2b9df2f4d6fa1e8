// maintctl is the operator CLI: it runs inventory syncs, manages user access and exports
// maintenance reports directly against the database, acting as a stored user.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(openBackend).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
