// Command formflow runs declarative multi-section forms in the terminal,
// validates form documents and inspects remote option sources.
package main

import (
	"fmt"
	"os"
)

var (
	// version is set at build time
	version = "0.1.0"
	// buildDate is set at build time
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
