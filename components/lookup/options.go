package lookup

import (
	"net/http"

	"go.uber.org/zap"
)

const (
	defaultRoutePath   = "/api/options"
	defaultSearchParam = "q"
	defaultLimitParam  = "limit"
	defaultLimit       = 50
	defaultMaxLimit    = 200
)

// GuardFunc rejects a request before any list is served. Returning a
// StatusError picks the response status; any other error maps to 403.
type GuardFunc func(r *http.Request) error

// Options configures the lookup handler. An empty query serves the head of the
// list up to the limit.
type Options struct {
	RoutePath    string
	SearchParam  string
	LimitParam   string
	DefaultLimit int
	MaxLimit     int
	Guard        GuardFunc
	Logger       *zap.Logger

	Providers map[string]Provider
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:    defaultRoutePath,
		SearchParam:  defaultSearchParam,
		LimitParam:   defaultLimitParam,
		DefaultLimit: defaultLimit,
		MaxLimit:     defaultMaxLimit,
		Logger:       zap.NewNop(),
	}
}

// NewOptions applies fns over DefaultOptions and restores a default for any
// setting left blank. The provider map is copied.
func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}

	opts.RoutePath = orDefault(opts.RoutePath, defaultRoutePath)
	opts.SearchParam = orDefault(opts.SearchParam, defaultSearchParam)
	opts.LimitParam = orDefault(opts.LimitParam, defaultLimitParam)
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = defaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = defaultMaxLimit
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	providers := make(map[string]Provider, len(opts.Providers))
	for name, provider := range opts.Providers {
		providers[name] = provider
	}
	opts.Providers = providers
	return opts
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) { o.RoutePath = path }
}

func WithSearchParam(name string) OptionFn {
	return func(o *Options) { o.SearchParam = name }
}

func WithLimitParam(name string) OptionFn {
	return func(o *Options) { o.LimitParam = name }
}

// WithLimits sets the limit used when the request names none and the cap
// applied to every request.
func WithLimits(fallback, max int) OptionFn {
	return func(o *Options) {
		o.DefaultLimit = fallback
		o.MaxLimit = max
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) { o.Guard = guard }
}

func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// WithProvider registers the list served under name.
func WithProvider(name string, provider Provider) OptionFn {
	return func(o *Options) {
		if name == "" || provider == nil {
			return
		}
		if o.Providers == nil {
			o.Providers = make(map[string]Provider)
		}
		o.Providers[name] = provider
	}
}

// clampLimit maps a requested limit onto [0, MaxLimit]; zero means the default.
func clampLimit(limit int, opts Options) int {
	switch {
	case limit < 0:
		return 0
	case limit == 0:
		limit = opts.DefaultLimit
	}
	if opts.MaxLimit > 0 {
		return min(limit, opts.MaxLimit)
	}
	return limit
}
