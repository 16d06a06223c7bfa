package lookup

import (
	"net/http"
	"sort"
	"strings"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Provider returns the full, unfiltered list for a request.
type Provider interface {
	Options(r *http.Request) ([]model.Option, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(r *http.Request) ([]model.Option, error)

func (fn ProviderFunc) Options(r *http.Request) ([]model.Option, error) {
	if fn == nil {
		return nil, nil
	}
	return fn(r)
}

// Static serves the same list on every request.
func Static(opts ...model.Option) Provider {
	list := append([]model.Option{}, opts...)
	return ProviderFunc(func(*http.Request) ([]model.Option, error) {
		return append([]model.Option{}, list...), nil
	})
}

// Keyed serves the list stored under the value of the param query parameter,
// the usual shape of a dependent source (states by country). A missing or
// unknown key yields an empty list.
func Keyed(param string, lists map[string][]model.Option) Provider {
	copied := make(map[string][]model.Option, len(lists))
	for key, list := range lists {
		copied[key] = append([]model.Option{}, list...)
	}
	return ProviderFunc(func(r *http.Request) ([]model.Option, error) {
		key := strings.TrimSpace(r.URL.Query().Get(param))
		return append([]model.Option{}, copied[key]...), nil
	})
}

// Values serves each distinct, non-blank value as an option labelled with
// itself, sorted.
func Values(values ...string) Provider {
	seen := make(map[string]struct{}, len(values))
	list := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		list = append(list, value)
	}
	sort.Strings(list)

	opts := make([]model.Option, len(list))
	for i, value := range list {
		opts[i] = model.Option{Value: value, Label: value}
	}
	return Static(opts...)
}
