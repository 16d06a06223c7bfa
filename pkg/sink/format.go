package sink

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Format controls how submitted answers are serialized.
type Format string

const (
	// FormatJSON emits application/json payloads.
	FormatJSON Format = "json"
	// FormatForm emits application/x-www-form-urlencoded payloads.
	FormatForm Format = "form"
	// FormatPretty emits a human-friendly `key=value` summary.
	FormatPretty Format = "pretty"
)

// ParseFormat validates a format name. The empty string selects JSON.
func ParseFormat(raw string) (Format, error) {
	switch format := Format(strings.ToLower(strings.TrimSpace(raw))); format {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatForm, FormatPretty:
		return format, nil
	default:
		return "", fmt.Errorf("sink: unsupported format %q", raw)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatForm:
		return "application/x-www-form-urlencoded"
	case FormatPretty:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Encode serializes answers in the given format.
func Encode(answers model.Answers, format Format) ([]byte, error) {
	switch format {
	case FormatForm:
		return []byte(flattenForm(answers)), nil
	case FormatPretty:
		return []byte(prettyPrint(answers)), nil
	case FormatJSON, "":
		data, err := json.Marshal(map[string]any(answers))
		if err != nil {
			return nil, fmt.Errorf("sink: encode json: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("sink: unsupported format %q", format)
	}
}

func flattenForm(answers model.Answers) string {
	flattened := url.Values{}
	for _, key := range answers.SortedKeys() {
		flatten(key, answers[key], flattened)
	}
	return flattened.Encode()
}

func flatten(prefix string, value any, out url.Values) {
	switch v := model.NormalizeValue(value).(type) {
	case map[string]any:
		for key, val := range v {
			flatten(prefix+"."+key, val, out)
		}
	case []map[string]any:
		for idx, row := range v {
			flatten(fmt.Sprintf("%s[%d]", prefix, idx), row, out)
		}
	case []string:
		for _, val := range v {
			out.Add(prefix+"[]", val)
		}
	case []any:
		for _, val := range v {
			out.Add(prefix+"[]", model.Stringify(val))
		}
	default:
		out.Set(prefix, model.Stringify(v))
	}
}

func prettyPrint(answers model.Answers) string {
	var b strings.Builder
	for _, key := range answers.SortedKeys() {
		writePretty(&b, key, answers[key])
	}
	return b.String()
}

func writePretty(b *strings.Builder, prefix string, value any) {
	switch v := model.NormalizeValue(value).(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			writePretty(b, prefix+"."+key, v[key])
		}
	case []map[string]any:
		for idx, row := range v {
			writePretty(b, fmt.Sprintf("%s[%d]", prefix, idx), row)
		}
	case []string:
		for idx, val := range v {
			fmt.Fprintf(b, "%s[%d]=%s\n", prefix, idx, val)
		}
	case []any:
		for idx, val := range v {
			writePretty(b, fmt.Sprintf("%s[%d]", prefix, idx), val)
		}
	default:
		fmt.Fprintf(b, "%s=%s\n", prefix, model.Stringify(v))
	}
}
