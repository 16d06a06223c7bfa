package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/prompt"
	"github.com/goliatone/go-formflow/pkg/session"
	"github.com/goliatone/go-formflow/pkg/sink"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fill in a form interactively",
		Long: `Run walks the form section by section in the terminal. Answers can be
seeded from a previous export with --answers. On submit the answers are
written to stdout (or --output) and, when --submit-url is set, posted to it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringP("answers", "a", "", "JSON answers to start from")
	flags.StringP("output", "o", "", "write submitted answers to this file instead of stdout")
	flags.String("format", "json", "output format (json, form, pretty)")
	flags.String("submit-url", "", "also submit the answers to this URL")
	for _, key := range []string{"answers", "output", "format", "submit-url"} {
		_ = a.v.BindPFlag(key, flags.Lookup(key))
	}

	return cmd
}

func (a *app) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := a.loadForm(ctx)
	if err != nil {
		return err
	}
	registry, err := a.transforms()
	if err != nil {
		return err
	}
	target, err := a.submitTarget()
	if err != nil {
		return err
	}

	s, err := session.New(cfg,
		session.WithFetcher(a.fetcher()),
		session.WithTransforms(registry),
		session.WithSink(target),
		session.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	if path := a.v.GetString("answers"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read answers: %w", err)
		}
		if err := s.ImportAnswers(data); err != nil {
			return err
		}
	}

	runner := prompt.NewRunner(s, prompt.WithDriver(a.driver), prompt.WithLogger(a.logger))
	if err := runner.Run(ctx); err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			fmt.Fprintln(a.stderr, "Aborted, nothing was submitted")
			return nil
		}
		return err
	}
	return nil
}

// submitTarget builds the sink from the output flags.
func (a *app) submitTarget() (sink.Sink, error) {
	format, err := sink.ParseFormat(a.v.GetString("format"))
	if err != nil {
		return nil, err
	}

	var targets []sink.Sink
	if path := a.v.GetString("output"); path != "" {
		targets = append(targets, fileSink(path, format))
	} else {
		targets = append(targets, sink.Writer(a.stdout, format))
	}
	if endpoint := a.v.GetString("submit-url"); endpoint != "" {
		httpFormat := format
		if httpFormat == sink.FormatPretty {
			httpFormat = sink.FormatJSON
		}
		targets = append(targets, sink.HTTP(nil, endpoint, sink.WithFormat(httpFormat)))
		a.logger.Debug("submitting to endpoint", zap.String("url", endpoint))
	}
	return sink.Multi(targets...), nil
}

// fileSink writes the encoded answers to path on submit so an aborted run
// leaves an existing file untouched.
func fileSink(path string, format sink.Format) sink.Sink {
	return sink.Func(func(_ context.Context, answers model.Answers) error {
		data, err := sink.Encode(answers, format)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	})
}
