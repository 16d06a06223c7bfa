// Package formflow is the top-level entry point of the form engine. It
// re-exports the types most callers need and wires a configuration document
// into a ready-to-use session.
package formflow

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-formflow/pkg/config"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/navigation"
	"github.com/goliatone/go-formflow/pkg/prompt"
	"github.com/goliatone/go-formflow/pkg/session"
)

// FormConfig is the parsed form document.
type FormConfig = model.FormConfig

// Answers maps field ids to their current values.
type Answers = model.Answers

// Session is the live state of one form being filled in.
type Session = session.Session

// Option configures a Session.
type Option = session.Option

// Outcome reports what a navigation action did.
type Outcome = navigation.Outcome

// Load reads and validates a JSON or YAML form document.
func Load(path string) (*FormConfig, error) {
	return config.Load(path)
}

// LoadFS reads and validates a form document stored in fsys.
func LoadFS(fsys fs.FS, path string) (*FormConfig, error) {
	return config.LoadFS(fsys, path)
}

// NewSession starts a session over cfg.
func NewSession(cfg *FormConfig, opts ...Option) (*Session, error) {
	return session.New(cfg, opts...)
}

// Open loads the document at path and starts a session over it.
func Open(path string, opts ...Option) (*Session, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return session.New(cfg, opts...)
}

// RunTerminal fills in s interactively until it is submitted.
func RunTerminal(ctx context.Context, s *Session, opts ...prompt.Option) error {
	return prompt.NewRunner(s, opts...).Run(ctx)
}
