package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formflow/pkg/config"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a form document",
		Long: `Validate loads the form document and reports every problem found:
duplicate field ids, conditions and comparisons that reference unknown
fields, invalid patterns and undeclared option sources. With --openapi the
sources declared by operationId are bound as well.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadForm(cmd.Context())
			if err != nil {
				var invalid *config.ValidationError
				if errors.As(err, &invalid) {
					for _, issue := range invalid.Issues {
						fmt.Fprintf(a.stdout, "✗ %s\n", issue)
					}
					return fmt.Errorf("form has %d issue(s)", len(invalid.Issues))
				}
				return err
			}

			title := cfg.Title
			if title == "" {
				title = a.v.GetString("form")
			}
			fmt.Fprintf(a.stdout, "✓ %s is valid (%d sections, %d fields, %d sources)\n",
				title, cfg.SectionCount(), len(cfg.Fields()), len(cfg.Sources))
			return nil
		},
	}
}
