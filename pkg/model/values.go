package model

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Row is a single table row keyed by column id.
type Row = map[string]any

// Answers maps field ids to their current values. A missing key means the
// field is unanswered, which is distinct from an empty string.
type Answers map[string]any

// Get returns the value stored for id and whether the key is present.
func (a Answers) Get(id string) (any, bool) {
	if a == nil {
		return nil, false
	}
	value, ok := a[id]
	return value, ok
}

// Clone returns a deep copy of the answers.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for key, value := range a {
		out[key] = CloneValue(value)
	}
	return out
}

// CloneValue deep-copies the value shapes stored in Answers.
func CloneValue(value any) any {
	switch typed := value.(type) {
	case []string:
		return append(make([]string, 0, len(typed)), typed...)
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = CloneValue(v)
		}
		return clone
	case []map[string]any:
		clone := make([]map[string]any, len(typed))
		for i, row := range typed {
			clone[i] = CloneValue(row).(map[string]any)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = CloneValue(v)
		}
		return clone
	default:
		return typed
	}
}

// NormalizeValue folds decoded values onto the canonical answer shapes:
// numbers become float64, lists of strings become []string and lists of
// objects become []map[string]any.
func NormalizeValue(value any) any {
	switch typed := value.(type) {
	case nil, string, bool, float64:
		return typed
	case int:
		return float64(typed)
	case int8:
		return float64(typed)
	case int16:
		return float64(typed)
	case int32:
		return float64(typed)
	case int64:
		return float64(typed)
	case uint:
		return float64(typed)
	case uint8:
		return float64(typed)
	case uint16:
		return float64(typed)
	case uint32:
		return float64(typed)
	case uint64:
		return float64(typed)
	case float32:
		return float64(typed)
	case json.Number:
		if f, err := typed.Float64(); err == nil {
			return f
		}
		return typed.String()
	case []string:
		return append(make([]string, 0, len(typed)), typed...)
	case map[string]any:
		row := make(map[string]any, len(typed))
		for k, v := range typed {
			row[k] = NormalizeValue(v)
		}
		return row
	case []map[string]any:
		rows := make([]map[string]any, len(typed))
		for i, row := range typed {
			rows[i] = NormalizeValue(row).(map[string]any)
		}
		return rows
	case []any:
		return normalizeList(typed)
	default:
		return typed
	}
}

func normalizeList(items []any) any {
	if len(items) == 0 {
		return []string{}
	}
	allStrings, allObjects := true, true
	for _, item := range items {
		switch item.(type) {
		case string:
			allObjects = false
		case map[string]any:
			allStrings = false
		default:
			allStrings, allObjects = false, false
		}
	}
	switch {
	case allStrings:
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = item.(string)
		}
		return out
	case allObjects:
		out := make([]map[string]any, len(items))
		for i, item := range items {
			out[i] = NormalizeValue(item).(map[string]any)
		}
		return out
	default:
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = NormalizeValue(item)
		}
		return out
	}
}

// NormalizeFor coerces value onto the shape expected by field: list fields
// hold []string, table fields hold rows, number fields hold float64 when the
// input is numeric.
func NormalizeFor(field Field, value any) any {
	value = NormalizeValue(value)
	if value == nil {
		return nil
	}
	switch {
	case field.Kind() == FieldTypeTable:
		rows, ok := AsRows(value)
		if !ok {
			return value
		}
		for _, row := range rows {
			for _, column := range field.Columns {
				if cell, present := row[column.ID]; present {
					row[column.ID] = NormalizeFor(column, cell)
				}
			}
		}
		return rows
	case field.IsList():
		if list, ok := AsStrings(value); ok {
			return list
		}
		return value
	case field.IsNumeric():
		if f, ok := value.(float64); ok {
			return f
		}
		if s, ok := value.(string); ok {
			if f, ok := ParseNumber(s); ok {
				return f
			}
		}
		return value
	default:
		return value
	}
}

// AsStrings returns value as a list of strings when it holds one.
func AsStrings(value any) ([]string, bool) {
	switch typed := value.(type) {
	case []string:
		return typed, true
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// AsRows returns value as table rows when it holds them.
func AsRows(value any) ([]map[string]any, bool) {
	switch typed := value.(type) {
	case []map[string]any:
		return typed, true
	case []any:
		out := make([]map[string]any, 0, len(typed))
		for _, item := range typed {
			row, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			out = append(out, row)
		}
		return out, true
	case []string:
		if len(typed) == 0 {
			return []map[string]any{}, true
		}
		return nil, false
	default:
		return nil, false
	}
}

// IsEmpty reports whether value counts as unanswered for required checks:
// nil, the empty string, or an empty list.
func IsEmpty(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	case []string:
		return len(typed) == 0
	case []any:
		return len(typed) == 0
	case []map[string]any:
		return len(typed) == 0
	default:
		return false
	}
}

// ToNumber converts numbers and numeric strings to float64.
func ToNumber(value any) (float64, bool) {
	switch typed := NormalizeValue(value).(type) {
	case float64:
		return typed, !math.IsNaN(typed)
	case string:
		return ParseNumber(typed)
	default:
		return 0, false
	}
}

// ParseNumber parses a trimmed, non-empty decimal string.
func ParseNumber(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Stringify renders a value the way remote parameter placeholders expect:
// absent values become "", lists are comma-joined and numbers use their
// shortest decimal form.
func Stringify(value any) string {
	switch typed := NormalizeValue(value).(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case []string:
		return strings.Join(typed, ",")
	case []map[string]any:
		parts := make([]string, len(typed))
		for i := range typed {
			parts[i] = "[object Object]"
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return "[object Object]"
	case []any:
		parts := make([]string, len(typed))
		for i, item := range typed {
			parts[i] = Stringify(item)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(typed)
	}
}

// SortedKeys returns the answer ids in lexical order.
func (a Answers) SortedKeys() []string {
	keys := make([]string, 0, len(a))
	for key := range a {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
