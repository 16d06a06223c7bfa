package model

import "strings"

// FieldType enumerates the element kinds a form configuration can declare.
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeEmail       FieldType = "email"
	FieldTypePassword    FieldType = "password"
	FieldTypeTextarea    FieldType = "textarea"
	FieldTypeRichText    FieldType = "richtext"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiSelect FieldType = "multiselect"
	FieldTypeRadio       FieldType = "radio"
	FieldTypeCheckbox    FieldType = "checkbox"
	FieldTypeDate        FieldType = "date"
	FieldTypeNumber      FieldType = "number"
	FieldTypeTable       FieldType = "table"
	FieldTypeCustom      FieldType = "custom"
)

// Normalized folds accepted spellings onto the canonical constants.
func (t FieldType) Normalized() FieldType {
	switch lowered := FieldType(strings.ToLower(strings.TrimSpace(string(t)))); lowered {
	case "rich-text", "rich_text":
		return FieldTypeRichText
	case "multi-select", "multi_select":
		return FieldTypeMultiSelect
	default:
		return lowered
	}
}

// Known reports whether t is one of the built-in field kinds.
func (t FieldType) Known() bool {
	switch t.Normalized() {
	case FieldTypeText, FieldTypeEmail, FieldTypePassword, FieldTypeTextarea,
		FieldTypeRichText, FieldTypeSelect, FieldTypeMultiSelect, FieldTypeRadio,
		FieldTypeCheckbox, FieldTypeDate, FieldTypeNumber, FieldTypeTable, FieldTypeCustom:
		return true
	default:
		return false
	}
}

// Rule kinds double as keys into Rules.ErrorMessages.
const (
	RuleRequired  = "required"
	RuleMin       = "min"
	RuleMax       = "max"
	RuleMinLength = "minLength"
	RuleMaxLength = "maxLength"
	RuleMinSelect = "minSelect"
	RuleMaxSelect = "maxSelect"
	RuleNumber    = "number"
	RulePattern   = "pattern"
	RuleEmail     = "email"
	RuleDate      = "date"
	RuleMinDate   = "minDate"
	RuleMaxDate   = "maxDate"
	RuleCompare   = "compare"
)

// Operator is one of the six comparison operators shared by compare rules and
// showIf conditions.
type Operator string

const (
	OpLT  Operator = "lt"
	OpLTE Operator = "lte"
	OpGT  Operator = "gt"
	OpGTE Operator = "gte"
	OpEQ  Operator = "eq"
	OpNEQ Operator = "neq"
)

// Valid reports whether op is a supported operator.
func (op Operator) Valid() bool {
	switch op {
	case OpLT, OpLTE, OpGT, OpGTE, OpEQ, OpNEQ:
		return true
	default:
		return false
	}
}

// Text renders the operator for error messages ("less than", ...).
func (op Operator) Text() string {
	switch op {
	case OpLT:
		return "less than"
	case OpLTE:
		return "less than or equal to"
	case OpGT:
		return "greater than"
	case OpGTE:
		return "greater than or equal to"
	case OpEQ:
		return "equal to"
	case OpNEQ:
		return "not equal to"
	default:
		return string(op)
	}
}

// CompareRule checks a value against the current value of another field (or
// a sibling column when used inside a table).
type CompareRule struct {
	Field    string   `json:"field" yaml:"field"`
	Operator Operator `json:"operator" yaml:"operator"`
}

// Rules is the validation rule set attached to a field or table column. Nil
// pointers mean the rule is not configured.
type Rules struct {
	Required      bool              `json:"required,omitempty" yaml:"required,omitempty"`
	Min           *float64          `json:"min,omitempty" yaml:"min,omitempty"`
	Max           *float64          `json:"max,omitempty" yaml:"max,omitempty"`
	MinLength     *int              `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength     *int              `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	MinSelect     *int              `json:"minSelect,omitempty" yaml:"minSelect,omitempty"`
	MaxSelect     *int              `json:"maxSelect,omitempty" yaml:"maxSelect,omitempty"`
	Pattern       string            `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Email         bool              `json:"email,omitempty" yaml:"email,omitempty"`
	MinDate       *DateBound        `json:"minDate,omitempty" yaml:"minDate,omitempty"`
	MaxDate       *DateBound        `json:"maxDate,omitempty" yaml:"maxDate,omitempty"`
	Date          *DateRange        `json:"date,omitempty" yaml:"date,omitempty"`
	Compare       *CompareRule      `json:"compare,omitempty" yaml:"compare,omitempty"`
	ErrorMessages map[string]string `json:"errorMessages,omitempty" yaml:"errorMessages,omitempty"`
	Message       string            `json:"message,omitempty" yaml:"message,omitempty"`
}

// DateRange is the nested `date: {minDate, maxDate}` spelling of the date
// bounds. Bounds declared at the top level of Rules take precedence.
type DateRange struct {
	MinDate *DateBound `json:"minDate,omitempty" yaml:"minDate,omitempty"`
	MaxDate *DateBound `json:"maxDate,omitempty" yaml:"maxDate,omitempty"`
}

// DateBounds returns the effective min/max date bounds.
func (r *Rules) DateBounds() (minDate, maxDate *DateBound) {
	if r == nil {
		return nil, nil
	}
	minDate, maxDate = r.MinDate, r.MaxDate
	if r.Date != nil {
		if minDate == nil {
			minDate = r.Date.MinDate
		}
		if maxDate == nil {
			maxDate = r.Date.MaxDate
		}
	}
	return minDate, maxDate
}

// MessageFor returns the configured message for kind, falling back to the
// catch-all Message. The boolean is false when neither is configured.
func (r *Rules) MessageFor(kind string) (string, bool) {
	if r == nil {
		return "", false
	}
	if msg := strings.TrimSpace(r.ErrorMessages[kind]); msg != "" {
		return msg, true
	}
	if msg := strings.TrimSpace(r.Message); msg != "" {
		return msg, true
	}
	return "", false
}

// Option is a selectable value/label pair.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Condition is a single showIf predicate: either `{field, value}` equality or
// `{field, compareField, operator}` field-to-field comparison.
type Condition struct {
	Field        string   `json:"field" yaml:"field"`
	Value        any      `json:"value,omitempty" yaml:"value,omitempty"`
	CompareField string   `json:"compareField,omitempty" yaml:"compareField,omitempty"`
	Operator     Operator `json:"operator,omitempty" yaml:"operator,omitempty"`
}

// IsComparison reports whether the condition compares two fields.
func (c Condition) IsComparison() bool {
	return strings.TrimSpace(c.CompareField) != ""
}

// Field is a single answerable element. Table fields describe their row
// schema through Columns, which are themselves Fields.
type Field struct {
	ID          string       `json:"id" yaml:"id"`
	Type        FieldType    `json:"type" yaml:"type"`
	Label       string       `json:"label,omitempty" yaml:"label,omitempty"`
	Placeholder string       `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Component   string       `json:"component,omitempty" yaml:"component,omitempty"`
	Mask        string       `json:"mask,omitempty" yaml:"mask,omitempty"`
	Validation  *Rules       `json:"validation,omitempty" yaml:"validation,omitempty"`
	Options     *OptionsSpec `json:"options,omitempty" yaml:"options,omitempty"`
	ShowIf      Conditions   `json:"showIf,omitempty" yaml:"showIf,omitempty"`
	Columns     []Field      `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// Kind returns the normalized field type.
func (f Field) Kind() FieldType {
	return f.Type.Normalized()
}

// DisplayLabel returns the label, falling back to the id.
func (f Field) DisplayLabel() string {
	if strings.TrimSpace(f.Label) != "" {
		return f.Label
	}
	return f.ID
}

// Required reports whether the field carries a required rule.
func (f Field) Required() bool {
	return f.Validation != nil && f.Validation.Required
}

// IsList reports whether the field stores an ordered list of strings.
func (f Field) IsList() bool {
	switch f.Kind() {
	case FieldTypeMultiSelect:
		return true
	case FieldTypeCheckbox:
		return f.Options != nil
	default:
		return false
	}
}

// IsNumeric reports whether string input should be coerced to a number.
func (f Field) IsNumeric() bool {
	return f.Kind() == FieldTypeNumber
}

// HasRemoteOptions reports whether options come from a named remote source.
func (f Field) HasRemoteOptions() bool {
	return f.Options != nil && f.Options.IsRemote()
}

// Column looks up a table column by id.
func (f Field) Column(id string) (Field, bool) {
	for _, column := range f.Columns {
		if column.ID == id {
			return column, true
		}
	}
	return Field{}, false
}

// Subsection groups elements inside a section and may be hidden as a whole.
type Subsection struct {
	ID       string     `json:"id" yaml:"id"`
	Title    string     `json:"title,omitempty" yaml:"title,omitempty"`
	Elements []Field    `json:"elements" yaml:"elements"`
	ShowIf   Conditions `json:"showIf,omitempty" yaml:"showIf,omitempty"`
}

// Section is one navigable step of the wizard. It holds either a flat list of
// elements or a list of subsections.
type Section struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Prefetch    []string     `json:"prefetch,omitempty" yaml:"prefetch,omitempty"`
	Elements    []Field      `json:"elements,omitempty" yaml:"elements,omitempty"`
	Subsections []Subsection `json:"subsections,omitempty" yaml:"subsections,omitempty"`
}

// Fields returns every field declared in the section, subsection elements
// included, in declaration order.
func (s Section) Fields() []Field {
	out := make([]Field, 0, len(s.Elements))
	out = append(out, s.Elements...)
	for _, sub := range s.Subsections {
		out = append(out, sub.Elements...)
	}
	return out
}

// RemoteSource describes a named remote option provider. Params values of the
// exact form `{fieldId}` are substituted with current answers at request time.
type RemoteSource struct {
	URL         string            `json:"url,omitempty" yaml:"url,omitempty"`
	Endpoint    string            `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Method      string            `json:"method,omitempty" yaml:"method,omitempty"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Params      map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	Cache       *bool             `json:"cache,omitempty" yaml:"cache,omitempty"`
	Transform   string            `json:"transform,omitempty" yaml:"transform,omitempty"`
	ResultsPath string            `json:"resultsPath,omitempty" yaml:"resultsPath,omitempty"`
	ValueField  string            `json:"valueField,omitempty" yaml:"valueField,omitempty"`
	LabelField  string            `json:"labelField,omitempty" yaml:"labelField,omitempty"`
	OperationID string            `json:"operationId,omitempty" yaml:"operationId,omitempty"`
}

// Target returns the request URL, accepting either url or endpoint.
func (s RemoteSource) Target() string {
	if url := strings.TrimSpace(s.URL); url != "" {
		return url
	}
	return strings.TrimSpace(s.Endpoint)
}

// Placeholder reports whether value has the exact form `{fieldId}` and
// returns the referenced id.
func Placeholder(value string) (string, bool) {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) < 3 || trimmed[0] != '{' || trimmed[len(trimmed)-1] != '}' {
		return "", false
	}
	id := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	if id == "" || strings.ContainsAny(id, "{}") {
		return "", false
	}
	return id, true
}

// Cacheable reports whether resolved options are kept in the session cache.
// Sources cache unless `cache: false` is set.
func (s RemoteSource) Cacheable() bool {
	return s.Cache == nil || *s.Cache
}

// FormConfig is the immutable configuration driving a session.
type FormConfig struct {
	Title    string                  `json:"title" yaml:"title"`
	Sections []Section               `json:"sections" yaml:"sections"`
	Sources  map[string]RemoteSource `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// SectionCount returns the number of top-level sections.
func (c *FormConfig) SectionCount() int {
	if c == nil {
		return 0
	}
	return len(c.Sections)
}

// Field looks up a top-level field (not a table column) by id.
func (c *FormConfig) Field(id string) (Field, bool) {
	if c == nil {
		return Field{}, false
	}
	for _, section := range c.Sections {
		for _, field := range section.Fields() {
			if field.ID == id {
				return field, true
			}
		}
	}
	return Field{}, false
}

// SectionIndexOf returns the index of the section declaring id, or -1.
func (c *FormConfig) SectionIndexOf(id string) int {
	if c == nil {
		return -1
	}
	for idx, section := range c.Sections {
		for _, field := range section.Fields() {
			if field.ID == id {
				return idx
			}
		}
	}
	return -1
}

// Fields returns every top-level field across all sections.
func (c *FormConfig) Fields() []Field {
	if c == nil {
		return nil
	}
	var out []Field
	for _, section := range c.Sections {
		out = append(out, section.Fields()...)
	}
	return out
}

// Source looks up a named remote source.
func (c *FormConfig) Source(name string) (RemoteSource, bool) {
	if c == nil || c.Sources == nil {
		return RemoteSource{}, false
	}
	src, ok := c.Sources[name]
	return src, ok
}
