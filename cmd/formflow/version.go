package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(a.stdout, "%s %s (built %s, %s)\n", appName, version, buildDate, runtime.Version())
		},
	}
}
