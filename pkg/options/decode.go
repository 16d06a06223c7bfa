package options

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Decode maps a (transformed) payload onto options. The payload is either a
// list of `{value, label}` objects or, through resultsPath/valueField/
// labelField, any list of objects nested inside it. Plain strings become
// options whose label equals their value.
func Decode(payload any, src model.RemoteSource) ([]model.Option, error) {
	items, ok := extractResults(payload, src.ResultsPath)
	if !ok {
		return nil, fmt.Errorf("options: payload at %q is not a list", resultsLabel(src.ResultsPath))
	}

	valueField := strings.TrimSpace(src.ValueField)
	if valueField == "" {
		valueField = "value"
	}
	labelField := strings.TrimSpace(src.LabelField)
	if labelField == "" {
		labelField = "label"
	}

	out := make([]model.Option, 0, len(items))
	for _, item := range items {
		switch typed := item.(type) {
		case map[string]any:
			value := pickValue(typed, valueField)
			if value == "" {
				continue
			}
			label := pickValue(typed, labelField)
			if label == "" {
				label = value
			}
			out = append(out, model.Option{Value: value, Label: label})
		case model.Option:
			out = append(out, typed)
		case nil:
			continue
		default:
			value := model.Stringify(typed)
			if value == "" {
				continue
			}
			out = append(out, model.Option{Value: value, Label: value})
		}
	}
	return out, nil
}

func resultsLabel(path string) string {
	if path == "" {
		return "$"
	}
	return path
}

func extractResults(payload any, path string) ([]any, bool) {
	cur := payload
	if path = strings.TrimSpace(path); path != "" {
		for _, segment := range strings.Split(path, ".") {
			node, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			cur = node[segment]
		}
	}
	switch v := cur.(type) {
	case []any:
		return v, true
	case []map[string]any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, true
	case []model.Option:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, true
	case []string:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, true
	case nil:
		return nil, true
	default:
		return nil, false
	}
}

func pickValue(m map[string]any, path string) string {
	cur := any(m)
	for _, segment := range strings.Split(path, ".") {
		node, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = node[segment]
	}
	return model.Stringify(cur)
}
