// Package options resolves field option lists. Inline options are returned
// as declared; remote sources are fetched through a Fetcher, post-processed by
// a named Transform and cached per source name for the lifetime of the
// Resolver.
//
// Cache entries carry an explicit status so callers can tell "never
// requested" from "in flight" from "failed". Concurrent resolutions of the
// same source are not fenced: the last one to complete owns the cache slot.
package options

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/model"
)

// ErrUnknownSource is returned when a source name is not configured.
var ErrUnknownSource = errors.New("options: unknown source")

// ErrNoFetcher is returned when a remote source is resolved without a fetcher.
var ErrNoFetcher = errors.New("options: no fetcher configured")

// ResolveError wraps a failed remote resolution.
type ResolveError struct {
	Source string
	Err    error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("options: resolve %s: %v", e.Source, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// Status is the resolution state of a source.
type Status int

const (
	// StatusIdle means the source was never requested.
	StatusIdle Status = iota
	// StatusPending means a resolution is in flight.
	StatusPending
	// StatusResolved means the last resolution succeeded.
	StatusResolved
	// StatusFailed means the last resolution failed.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusResolved:
		return "resolved"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Entry is a snapshot of a cache slot. Options survive later failures so a
// stale list stays usable; Loaded reports whether any resolution succeeded.
type Entry struct {
	Status    Status
	Options   []model.Option
	Raw       any
	Err       error
	Loaded    bool
	UpdatedAt time.Time
	inflight  int
}

// View is what a consuming layer needs to render a field's options.
type View struct {
	Status  Status
	Options []model.Option
	Loading bool
	Err     error
}

// Resolver owns the option cache of a session.
type Resolver struct {
	cfg        *model.FormConfig
	fetcher    Fetcher
	transforms *TransformRegistry
	logger     *zap.Logger
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]*Entry
	wg      sync.WaitGroup
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFetcher sets the remote fetcher.
func WithFetcher(fetcher Fetcher) Option {
	return func(r *Resolver) {
		if fetcher != nil {
			r.fetcher = fetcher
		}
	}
}

// WithTransforms sets the transform registry.
func WithTransforms(registry *TransformRegistry) Option {
	return func(r *Resolver) {
		if registry != nil {
			r.transforms = registry
		}
	}
}

// WithLogger sets the logger used for resolution events.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the clock used to stamp cache entries.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver builds a Resolver for cfg. Without WithFetcher remote sources
// fail with ErrNoFetcher.
func NewResolver(cfg *model.FormConfig, opts ...Option) *Resolver {
	r := &Resolver{
		cfg:        cfg,
		transforms: NewTransformRegistry(),
		logger:     zap.NewNop(),
		now:        time.Now,
		entries:    make(map[string]*Entry),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// BuildRequest assembles the request for src. Field params override source
// params; values of the exact form `{fieldId}` are replaced with the current
// answer rendered as text, or "" when unanswered.
func BuildRequest(src model.RemoteSource, fieldParams map[string]string, answers model.Answers) Request {
	params := make(map[string]string, len(src.Params)+len(fieldParams))
	for key, value := range src.Params {
		params[key] = value
	}
	for key, value := range fieldParams {
		params[key] = value
	}
	for key, value := range params {
		if id, ok := model.Placeholder(value); ok {
			answer, _ := answers.Get(id)
			params[key] = model.Stringify(answer)
		}
	}

	headers := make(map[string]string, len(src.Headers))
	for key, value := range src.Headers {
		headers[key] = value
	}

	method := strings.ToUpper(strings.TrimSpace(src.Method))
	if method == "" {
		method = "GET"
	}
	return Request{Method: method, URL: src.Target(), Headers: headers, Params: params}
}

// Resolve returns the options of the named source using its own params.
// Cached sources are fetched once; sources with `cache: false` are fetched on
// every call.
func (r *Resolver) Resolve(ctx context.Context, name string, answers model.Answers) ([]model.Option, error) {
	return r.resolve(ctx, name, nil, answers, false)
}

// Refresh fetches the named source even when a cached list exists.
func (r *Resolver) Refresh(ctx context.Context, name string, answers model.Answers) ([]model.Option, error) {
	return r.resolve(ctx, name, nil, answers, true)
}

// ResolveField resolves the options of field. Inline options are returned
// directly; remote references merge the field's params over the source's.
func (r *Resolver) ResolveField(ctx context.Context, field model.Field, answers model.Answers) ([]model.Option, error) {
	if field.Options == nil {
		return nil, nil
	}
	if !field.Options.IsRemote() {
		return append([]model.Option(nil), field.Options.Inline...), nil
	}
	return r.resolve(ctx, field.Options.Source, field.Options.Params, answers, false)
}

func (r *Resolver) resolve(ctx context.Context, name string, fieldParams map[string]string, answers model.Answers, force bool) ([]model.Option, error) {
	src, ok := r.cfg.Source(name)
	if !ok {
		return nil, &ResolveError{Source: name, Err: ErrUnknownSource}
	}
	if src.Cacheable() && !force {
		if opts, ok := r.Lookup(name); ok {
			return opts, nil
		}
	}
	if r.fetcher == nil {
		return nil, &ResolveError{Source: name, Err: ErrNoFetcher}
	}

	req := BuildRequest(src, fieldParams, answers)
	r.begin(name)
	started := r.now()
	r.logger.Debug("resolving option source",
		zap.String("source", name),
		zap.String("method", req.Method),
		zap.String("url", req.URL),
	)

	opts, raw, err := r.fetch(ctx, src, req)
	r.finish(name, opts, raw, err)
	if err != nil {
		return nil, &ResolveError{Source: name, Err: err}
	}

	r.logger.Debug("resolved option source",
		zap.String("source", name),
		zap.Int("options", len(opts)),
		zap.Duration("duration", r.now().Sub(started)),
		zap.Bool("cached", src.Cacheable()),
	)
	return append([]model.Option(nil), opts...), nil
}

func (r *Resolver) fetch(ctx context.Context, src model.RemoteSource, req Request) ([]model.Option, any, error) {
	payload, err := r.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if name := strings.TrimSpace(src.Transform); name != "" {
		transform, err := r.transforms.Lookup(name)
		if err != nil {
			return nil, nil, err
		}
		payload, err = transform(payload)
		if err != nil {
			return nil, nil, err
		}
	}
	opts, err := Decode(payload, src)
	if err != nil {
		return nil, nil, err
	}
	return opts, payload, nil
}

func (r *Resolver) begin(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.entry(name)
	entry.inflight++
	entry.Status = StatusPending
}

func (r *Resolver) finish(name string, opts []model.Option, raw any, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.entry(name)
	if entry.inflight > 0 {
		entry.inflight--
	}
	entry.UpdatedAt = r.now()
	if err != nil {
		entry.Status = StatusFailed
		entry.Err = err
		return
	}
	entry.Status = StatusResolved
	entry.Options = opts
	entry.Raw = raw
	entry.Err = nil
	entry.Loaded = true
}

func (r *Resolver) entry(name string) *Entry {
	entry, ok := r.entries[name]
	if !ok {
		entry = &Entry{}
		r.entries[name] = entry
	}
	return entry
}

// Prefetch resolves every named source in the background. Failures are
// logged and otherwise ignored. Call Wait to block until they finish.
func (r *Resolver) Prefetch(ctx context.Context, names []string, answers model.Answers) {
	snapshot := answers.Clone()
	for _, name := range names {
		name := strings.TrimSpace(name)
		if name == "" {
			continue
		}
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if _, err := r.Resolve(ctx, name, snapshot); err != nil {
				r.logger.Warn("prefetch failed",
					zap.String("source", name),
					zap.Error(err),
				)
			}
		}()
	}
}

// Wait blocks until every prefetch started so far completes.
func (r *Resolver) Wait() {
	r.wg.Wait()
}

// State returns a copy of the cache slot for name.
func (r *Resolver) State(name string) Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[name]
	if !ok {
		return Entry{Status: StatusIdle}
	}
	out := *entry
	out.Options = append([]model.Option(nil), entry.Options...)
	return out
}

// Lookup reads the option cache. The boolean is false until a resolution of
// name succeeded, which callers must treat as "loading", not "no options".
// Uncached sources keep their last list here for display; Resolve still
// refetches them on every call.
func (r *Resolver) Lookup(name string) ([]model.Option, bool) {
	entry := r.State(name)
	if !entry.Loaded {
		return nil, false
	}
	return entry.Options, true
}

// Invalidate drops the cache slot for name.
func (r *Resolver) Invalidate(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// FieldOptions reports the options currently available to field without
// triggering a fetch.
func (r *Resolver) FieldOptions(field model.Field) View {
	if field.Options == nil {
		return View{Status: StatusResolved}
	}
	if !field.Options.IsRemote() {
		return View{Status: StatusResolved, Options: append([]model.Option(nil), field.Options.Inline...)}
	}
	entry := r.State(field.Options.Source)
	view := View{Status: entry.Status, Err: entry.Err}
	if entry.Loaded {
		view.Options = entry.Options
		return view
	}
	view.Loading = entry.Status != StatusFailed
	return view
}
