package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/options"
)

func newOptionsCmd(a *app) *cobra.Command {
	var (
		source string
		set    []string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "options",
		Short: "Resolve a remote option source",
		Long: `Options fetches one of the form's remote sources and prints the
resulting value/label pairs. Use --set field=value to provide the answers the
source's {field} placeholders refer to.`,
		Example: `  formflow options --form onboarding.yaml --source states --set country=US`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(source) == "" {
				return fmt.Errorf("--source is required")
			}
			answers, err := parseAssignments(set)
			if err != nil {
				return err
			}
			cfg, err := a.loadForm(cmd.Context())
			if err != nil {
				return err
			}
			registry, err := a.transforms()
			if err != nil {
				return err
			}

			resolver := options.NewResolver(cfg,
				options.WithFetcher(a.fetcher()),
				options.WithTransforms(registry),
				options.WithLogger(a.logger),
			)
			opts, err := resolver.Resolve(cmd.Context(), source, answers)
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(opts, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, string(data))
				return nil
			}
			w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VALUE\tLABEL")
			for _, opt := range opts {
				fmt.Fprintf(w, "%s\t%s\n", opt.Value, opt.Label)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "source name to resolve")
	cmd.Flags().StringArrayVar(&set, "set", nil, "answer used to fill source params (field=value, repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print options as JSON")

	return cmd
}

func parseAssignments(pairs []string) (model.Answers, error) {
	answers := model.Answers{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, expected field=value", pair)
		}
		answers[key] = value
	}
	return answers, nil
}
