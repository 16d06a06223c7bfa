package lookup

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Component bundles the handler, its configuration and routing helpers.
type Component struct {
	opts Options
}

// New constructs a component with default options plus any overrides.
func New(fns ...OptionFn) *Component {
	return &Component{opts: NewOptions(fns...)}
}

// Options returns a copy of the component configuration.
func (c *Component) Options() Options {
	if c == nil {
		return DefaultOptions()
	}
	return NewOptions(func(o *Options) { *o = c.opts })
}

// Lists returns the registered list names, sorted.
func (c *Component) Lists() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.opts.Providers))
	for name := range c.opts.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handler returns the net/http handler serving every registered list.
func (c *Component) Handler() http.Handler {
	if c == nil {
		return Handler()
	}
	return HandlerWithOptions(c.opts)
}

// RegisterRoutes registers the component handler under basePath on mux.
func (c *Component) RegisterRoutes(mux Mux, basePath string) (string, error) {
	if c == nil {
		return RegisterRoutes(mux, basePath)
	}
	return RegisterRoutesWithOptions(mux, basePath, c.opts)
}

// SourceFor returns a remote source declaration for the list served under
// baseURL. The default limit is sent with every request.
func (c *Component) SourceFor(name, baseURL string) model.RemoteSource {
	opts := c.Options()
	return model.RemoteSource{
		URL:         mountPath(baseURL, opts.RoutePath) + "/" + name,
		Method:      http.MethodGet,
		ResultsPath: "data",
		ValueField:  "value",
		LabelField:  "label",
		Params: map[string]string{
			opts.LimitParam: strconv.Itoa(opts.DefaultLimit),
		},
	}
}
