package lookup

import (
	"sort"
	"strings"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Search filters opts by a case-insensitive substring of the label or value.
// Label prefix matches rank first and the original order is kept otherwise.
func Search(opts []model.Option, query string, limit int, cfg Options) []model.Option {
	limit = clampLimit(limit, cfg)
	if limit == 0 {
		return nil
	}

	query = strings.TrimSpace(query)
	if query == "" {
		if len(opts) <= limit {
			return append([]model.Option{}, opts...)
		}
		return append([]model.Option{}, opts[:limit]...)
	}

	q := strings.ToLower(query)
	matches := make([]match, 0, 16)
	for _, opt := range opts {
		label := strings.ToLower(opt.Label)
		if !strings.Contains(label, q) && !strings.Contains(strings.ToLower(opt.Value), q) {
			continue
		}
		matches = append(matches, match{option: opt, isPrefix: strings.HasPrefix(label, q)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].isPrefix && !matches[j].isPrefix
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]model.Option, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.option)
	}
	return out
}

type match struct {
	option   model.Option
	isPrefix bool
}
