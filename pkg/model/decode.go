package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Conditions is the conjunction of showIf predicates attached to a field or
// subsection. Documents may declare a single object or a list.
type Conditions []Condition

// UnmarshalJSON accepts either a single condition object or an array.
func (c *Conditions) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*c = nil
		return nil
	}
	if trimmed[0] == '[' {
		var list []Condition
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("model: showIf: %w", err)
		}
		*c = list
		return nil
	}
	var single Condition
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return fmt.Errorf("model: showIf: %w", err)
	}
	*c = Conditions{single}
	return nil
}

// UnmarshalYAML accepts either a single condition mapping or a sequence.
func (c *Conditions) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []Condition
		if err := node.Decode(&list); err != nil {
			return fmt.Errorf("model: showIf: %w", err)
		}
		*c = list
	case yaml.MappingNode:
		var single Condition
		if err := node.Decode(&single); err != nil {
			return fmt.Errorf("model: showIf: %w", err)
		}
		*c = Conditions{single}
	default:
		if node.Tag == "!!null" {
			*c = nil
			return nil
		}
		return fmt.Errorf("model: showIf must be a mapping or a sequence (line %d)", node.Line)
	}
	return nil
}

// OptionsSpec holds either an inline option list or a reference to a named
// remote source. Field-level Params extend the source's own params.
type OptionsSpec struct {
	Inline []Option          `json:"-" yaml:"-"`
	Source string            `json:"source,omitempty" yaml:"source,omitempty"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// IsRemote reports whether the options reference a remote source.
func (o *OptionsSpec) IsRemote() bool {
	return o != nil && strings.TrimSpace(o.Source) != ""
}

type optionsRef struct {
	Source string            `json:"source,omitempty" yaml:"source,omitempty"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// MarshalJSON writes inline options as an array and references as an object.
func (o OptionsSpec) MarshalJSON() ([]byte, error) {
	if o.Source == "" {
		inline := o.Inline
		if inline == nil {
			inline = []Option{}
		}
		return json.Marshal(inline)
	}
	return json.Marshal(optionsRef{Source: o.Source, Params: o.Params})
}

// UnmarshalJSON accepts `[{value,label}]` or `{source, params}`.
func (o *OptionsSpec) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*o = OptionsSpec{}
		return nil
	}
	if trimmed[0] == '[' {
		var inline []Option
		if err := json.Unmarshal(trimmed, &inline); err != nil {
			return fmt.Errorf("model: options: %w", err)
		}
		*o = OptionsSpec{Inline: inline}
		return nil
	}
	var ref optionsRef
	if err := json.Unmarshal(trimmed, &ref); err != nil {
		return fmt.Errorf("model: options: %w", err)
	}
	*o = OptionsSpec{Source: ref.Source, Params: ref.Params}
	return nil
}

// UnmarshalYAML accepts a sequence of options or a source mapping.
func (o *OptionsSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var inline []Option
		if err := node.Decode(&inline); err != nil {
			return fmt.Errorf("model: options: %w", err)
		}
		*o = OptionsSpec{Inline: inline}
	case yaml.MappingNode:
		var ref optionsRef
		if err := node.Decode(&ref); err != nil {
			return fmt.Errorf("model: options: %w", err)
		}
		*o = OptionsSpec{Source: ref.Source, Params: ref.Params}
	default:
		return fmt.Errorf("model: options must be a sequence or a mapping (line %d)", node.Line)
	}
	return nil
}

// DateBound is a date validation bound: either an absolute date or an offset
// in days from the evaluation instant ("today" is offset 0).
type DateBound struct {
	// Offset is set for relative bounds.
	Offset *int
	// Date is set for absolute bounds.
	Date time.Time
}

// Today returns the relative bound for the evaluation day.
func Today() *DateBound { return DaysFromToday(0) }

// DaysFromToday returns a relative bound n days away from today.
func DaysFromToday(n int) *DateBound {
	return &DateBound{Offset: &n}
}

// On returns an absolute bound.
func On(t time.Time) *DateBound {
	return &DateBound{Date: t}
}

// Resolve returns the bound's calendar day, relative bounds measured from now.
func (b DateBound) Resolve(now time.Time) time.Time {
	if b.Offset != nil {
		return TruncateDay(now).AddDate(0, 0, *b.Offset)
	}
	return TruncateDay(b.Date)
}

// String renders the bound for messages.
func (b DateBound) String() string {
	if b.Offset != nil {
		switch off := *b.Offset; {
		case off == 0:
			return "today"
		case off > 0:
			return fmt.Sprintf("%d days from today", off)
		default:
			return fmt.Sprintf("%d days ago", -off)
		}
	}
	return b.Date.Format(DateLayout)
}

// MarshalJSON writes relative bounds as numbers and absolute ones as dates.
func (b DateBound) MarshalJSON() ([]byte, error) {
	if b.Offset != nil {
		if *b.Offset == 0 {
			return json.Marshal("today")
		}
		return json.Marshal(*b.Offset)
	}
	return json.Marshal(b.Date.Format(DateLayout))
}

// UnmarshalJSON accepts a day offset number, "today", "+N"/"-N", or a date.
func (b *DateBound) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		parsed, err := ParseDateBound(raw)
		if err != nil {
			return err
		}
		*b = parsed
		return nil
	}
	var days float64
	if err := json.Unmarshal(trimmed, &days); err != nil {
		return fmt.Errorf("model: date bound: %w", err)
	}
	offset := int(days)
	*b = DateBound{Offset: &offset}
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML scalars.
func (b *DateBound) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("model: date bound must be a scalar (line %d)", node.Line)
	}
	parsed, err := ParseDateBound(node.Value)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// DateLayout is the canonical date answer format.
const DateLayout = "2006-01-02"

// ParseDateBound parses the textual forms accepted for date bounds.
func ParseDateBound(raw string) (DateBound, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return DateBound{}, fmt.Errorf("model: date bound is empty")
	}
	if strings.EqualFold(value, "today") || strings.EqualFold(value, "now") {
		zero := 0
		return DateBound{Offset: &zero}, nil
	}
	if offset, err := strconv.Atoi(value); err == nil {
		return DateBound{Offset: &offset}, nil
	}
	if t, ok := ParseDate(value); ok {
		return DateBound{Date: t}, nil
	}
	return DateBound{}, fmt.Errorf("model: invalid date bound %q", raw)
}

// ParseDate parses a date answer in YYYY-MM-DD or RFC 3339 form.
func ParseDate(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// TruncateDay drops the clock part of t, keeping its calendar day.
func TruncateDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
