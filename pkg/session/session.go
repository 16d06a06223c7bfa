// Package session owns the mutable state of one form run: answers, field
// errors, the wizard position and the option cache. Every action is applied
// atomically with respect to the others; only remote option resolution runs
// outside the session lock so editing can continue while a fetch is in
// flight.
//
// Sinks and loggers are invoked while the session lock is held and must not
// call back into the session.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/navigation"
	"github.com/goliatone/go-formflow/pkg/options"
	"github.com/goliatone/go-formflow/pkg/sanitize"
	"github.com/goliatone/go-formflow/pkg/sink"
	"github.com/goliatone/go-formflow/pkg/validation"
)

var (
	// ErrNoSections is returned when the configuration declares no sections.
	ErrNoSections = errors.New("session: configuration has no sections")
	// ErrUnknownField is returned when an action names an undeclared field.
	ErrUnknownField = errors.New("session: unknown field")
	// ErrWrongType is returned when an action does not fit the field type.
	ErrWrongType = errors.New("session: action does not match field type")
	// ErrRowIndex is returned for out-of-range table row indexes.
	ErrRowIndex = errors.New("session: row index out of range")
	// ErrSubmitted is returned by mutations after a successful submission.
	// Reset re-opens the form.
	ErrSubmitted = errors.New("session: form already submitted")
)

// Session is a single form run. Use New to construct one.
type Session struct {
	cfg       *model.FormConfig
	engine    *validation.Engine
	resolver  *options.Resolver
	nav       *navigation.Controller
	sink      sink.Sink
	sanitizer sanitize.Sanitizer
	logger    *zap.Logger
	now       func() time.Time

	fetcher    options.Fetcher
	transforms *options.TransformRegistry

	mu      sync.Mutex
	answers model.Answers
	errors  map[string]string
}

// Option configures a Session.
type Option func(*Session)

// WithResolver supplies a pre-built option resolver, for example one shared
// with a CLI command. WithFetcher and WithTransforms are ignored when set.
func WithResolver(resolver *options.Resolver) Option {
	return func(s *Session) {
		if resolver != nil {
			s.resolver = resolver
		}
	}
}

// WithFetcher sets the fetcher used for remote option sources.
func WithFetcher(fetcher options.Fetcher) Option {
	return func(s *Session) {
		if fetcher != nil {
			s.fetcher = fetcher
		}
	}
}

// WithTransforms sets the registry of named option transforms.
func WithTransforms(registry *options.TransformRegistry) Option {
	return func(s *Session) {
		if registry != nil {
			s.transforms = registry
		}
	}
}

// WithSink sets the consumer of successful submissions.
func WithSink(target sink.Sink) Option {
	return func(s *Session) {
		if target != nil {
			s.sink = target
		}
	}
}

// WithLogger sets the session logger. It is also handed to the resolver the
// session builds.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides "today" for date rules and cache timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSanitizer sets the sanitizer applied to rich-text answers.
func WithSanitizer(sanitizer sanitize.Sanitizer) Option {
	return func(s *Session) {
		if sanitizer != nil {
			s.sanitizer = sanitizer
		}
	}
}

// New builds a session for cfg positioned on the first section. Call Start to
// prefetch the first section's sources.
func New(cfg *model.FormConfig, opts ...Option) (*Session, error) {
	if cfg == nil || cfg.SectionCount() == 0 {
		return nil, ErrNoSections
	}
	s := &Session{
		cfg:       cfg,
		sink:      sink.Discard,
		sanitizer: sanitize.Default,
		logger:    zap.NewNop(),
		now:       time.Now,
		answers:   model.Answers{},
		errors:    map[string]string{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.engine = validation.New(
		validation.WithClock(s.now),
		validation.WithLabeler(validation.ConfigLabeler(cfg)),
	)
	if s.resolver == nil {
		s.resolver = options.NewResolver(cfg,
			options.WithFetcher(s.fetcher),
			options.WithTransforms(s.transforms),
			options.WithLogger(s.logger),
			options.WithClock(s.now),
		)
	}
	s.nav = navigation.New(cfg.SectionCount())
	return s, nil
}

// Start prefetches the sources of the current section.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enterSection(ctx)
}

// Config returns the configuration driving the session.
func (s *Session) Config() *model.FormConfig { return s.cfg }

// Resolver returns the session's option resolver.
func (s *Session) Resolver() *options.Resolver { return s.resolver }

// Wait blocks until in-flight prefetches complete.
func (s *Session) Wait() { s.resolver.Wait() }

// Current returns the current section index.
func (s *Session) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Current()
}

// CurrentSection returns the current section.
func (s *Session) CurrentSection() model.Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Sections[s.nav.Current()]
}

// IsLast reports whether the current section is the last one.
func (s *Session) IsLast() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.IsLast()
}

// Answers returns a deep copy of the current answers.
func (s *Session) Answers() model.Answers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Clone()
}

// Value returns a copy of the answer for id.
func (s *Session) Value(id string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.answers.Get(id)
	return model.CloneValue(value), ok
}

// Errors returns a copy of the current field errors.
func (s *Session) Errors() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.errors))
	for id, msg := range s.errors {
		out[id] = msg
	}
	return out
}

// Error returns the current error of field id, or "".
func (s *Session) Error(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors[id]
}

// SectionValidity returns the per-section completion flags.
func (s *Session) SectionValidity() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Validity()
}

// Submitted reports whether the form was submitted.
func (s *Session) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Submitted()
}

// CanJump reports whether Jump(index) would be attempted rather than ignored.
func (s *Session) CanJump(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.CanJump(index)
}

// VisibleFields returns the fields of the current section that are visible
// under the current answers.
func (s *Session) VisibleFields() []model.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	return validation.VisibleFields(s.cfg.Sections[s.nav.Current()], s.answers)
}

// ResolveOptions resolves the options of field id. Remote sources are
// fetched without holding the session lock.
func (s *Session) ResolveOptions(ctx context.Context, id string) ([]model.Option, error) {
	field, err := s.field(id)
	if err != nil {
		return nil, err
	}
	answers := s.Answers()
	return s.resolver.ResolveField(ctx, field, answers)
}

// FieldOptions reports the options currently available to field id without
// fetching. Remote fields without a cached list report Loading.
func (s *Session) FieldOptions(id string) (options.View, error) {
	field, err := s.field(id)
	if err != nil {
		return options.View{}, err
	}
	return s.resolver.FieldOptions(field), nil
}

func (s *Session) field(id string) (model.Field, error) {
	field, ok := s.cfg.Field(id)
	if !ok {
		return model.Field{}, fmt.Errorf("%w %q", ErrUnknownField, id)
	}
	return field, nil
}

func (s *Session) enterSection(ctx context.Context) {
	section := s.cfg.Sections[s.nav.Current()]
	if len(section.Prefetch) == 0 {
		return
	}
	s.logger.Debug("prefetching section sources",
		zap.String("section", section.ID),
		zap.Strings("sources", section.Prefetch),
	)
	s.resolver.Prefetch(ctx, section.Prefetch, s.answers)
}
