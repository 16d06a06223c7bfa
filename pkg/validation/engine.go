// Package validation checks answers against field rule sets. Field checks
// short-circuit at the first failing rule and return its message; section
// checks aggregate the messages of every visible field.
//
// Rule order for a single value: required, then (for non-empty values only)
// selection counts for lists, numeric or length bounds, pattern, email, date
// bounds and finally the cross-field compare rule. Table fields validate
// every row against their columns and report the first failing row.
package validation

import (
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

var emailShape = regexp.MustCompile(`\S+@\S+\.\S+`)

// Engine validates fields, table rows and sections. It is safe for
// concurrent use.
type Engine struct {
	now     func() time.Time
	labeler func(id string) string

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the instant used to resolve relative date bounds.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLabeler sets the function used to name compared fields in messages.
func WithLabeler(labeler func(id string) string) Option {
	return func(e *Engine) {
		if labeler != nil {
			e.labeler = labeler
		}
	}
}

// ConfigLabeler returns a labeler that reads labels from cfg.
func ConfigLabeler(cfg *model.FormConfig) func(string) string {
	return func(id string) string {
		if field, ok := cfg.Field(id); ok {
			return field.DisplayLabel()
		}
		return id
	}
}

// New constructs an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		now:      time.Now,
		labeler:  func(id string) string { return id },
		patterns: make(map[string]*regexp.Regexp),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// lookupFunc resolves the operand of a compare rule.
type lookupFunc func(id string) (any, bool)

func answersLookup(answers model.Answers) lookupFunc {
	return func(id string) (any, bool) {
		return answers.Get(id)
	}
}

func rowLookup(row model.Row, answers model.Answers) lookupFunc {
	return func(id string) (any, bool) {
		if value, ok := row[id]; ok {
			return value, true
		}
		return answers.Get(id)
	}
}

// ValidateField returns the first failing rule's message for value, or "" when
// the value passes. present reports whether the field has an entry in answers.
func (e *Engine) ValidateField(field model.Field, value any, present bool, answers model.Answers) string {
	return e.validate(field, value, present, answersLookup(answers), answers)
}

// ValidateRow validates one table row against its columns and returns the
// failing cells keyed by column id. Column compare rules look up sibling
// cells first and fall back to the top-level answers.
func (e *Engine) ValidateRow(columns []model.Field, row model.Row, answers model.Answers) map[string]string {
	errs := make(map[string]string)
	lookup := rowLookup(row, answers)
	for _, column := range columns {
		value, present := row[column.ID]
		if msg := e.validate(column, value, present, lookup, answers); msg != "" {
			errs[column.ID] = msg
		}
	}
	return errs
}

func (e *Engine) validate(field model.Field, value any, present bool, lookup lookupFunc, answers model.Answers) string {
	rules := field.Validation
	value = model.NormalizeValue(value)
	empty := !present || model.IsEmpty(value)

	if field.Required() && empty {
		return message(rules, model.RuleRequired, "This field is required")
	}
	if empty {
		return ""
	}

	if field.Kind() == model.FieldTypeTable {
		return e.validateTable(field, value, answers)
	}

	if list, ok := model.AsStrings(value); ok {
		if msg := checkSelection(rules, len(list)); msg != "" {
			return msg
		}
		return ""
	}

	if rules == nil && field.Kind() != model.FieldTypeEmail && field.Kind() != model.FieldTypeDate && !field.IsNumeric() {
		return ""
	}

	if field.IsNumeric() || isNumber(value) {
		number, ok := model.ToNumber(value)
		if !ok {
			return message(rules, model.RuleNumber, "Must be a number")
		}
		if msg := checkNumber(rules, number); msg != "" {
			return msg
		}
	} else if text, ok := value.(string); ok {
		if msg := checkLength(rules, text); msg != "" {
			return msg
		}
	}

	text := model.Stringify(value)
	if rules != nil && rules.Pattern != "" {
		re, err := e.pattern(rules.Pattern)
		if err != nil || !re.MatchString(text) {
			return message(rules, model.RulePattern, "Invalid format")
		}
	}

	if (rules != nil && rules.Email) || field.Kind() == model.FieldTypeEmail {
		if !emailShape.MatchString(text) {
			return message(rules, model.RuleEmail, "Invalid email format")
		}
	}

	if msg := e.checkDate(field, rules, text); msg != "" {
		return msg
	}

	if rules != nil && rules.Compare != nil {
		other, ok := lookup(rules.Compare.Field)
		if ok && other == nil {
			ok = false
		}
		if !visibility.Compare(rules.Compare.Operator, value, true, other, ok) {
			def := fmt.Sprintf("Must be %s %s", rules.Compare.Operator.Text(), e.labeler(rules.Compare.Field))
			return message(rules, model.RuleCompare, def)
		}
	}

	return ""
}

func (e *Engine) validateTable(field model.Field, value any, answers model.Answers) string {
	rows, ok := model.AsRows(value)
	if !ok {
		return message(field.Validation, model.RuleRequired, "Invalid table value")
	}
	for idx, row := range rows {
		errs := e.ValidateRow(field.Columns, row, answers)
		for _, column := range field.Columns {
			if msg, failed := errs[column.ID]; failed {
				return fmt.Sprintf("Row %d: %s", idx+1, msg)
			}
		}
	}
	return ""
}

func (e *Engine) checkDate(field model.Field, rules *model.Rules, text string) string {
	minDate, maxDate := rules.DateBounds()
	if minDate == nil && maxDate == nil && field.Kind() != model.FieldTypeDate {
		return ""
	}
	date, ok := model.ParseDate(text)
	if !ok {
		return message(rules, model.RuleDate, "Invalid date")
	}
	day := model.TruncateDay(date)
	now := e.now()
	if minDate != nil && day.Before(minDate.Resolve(now)) {
		return message(rules, model.RuleMinDate, fmt.Sprintf("Date must be on or after %s", minDate))
	}
	if maxDate != nil && day.After(maxDate.Resolve(now)) {
		return message(rules, model.RuleMaxDate, fmt.Sprintf("Date must be on or before %s", maxDate))
	}
	return ""
}

func (e *Engine) pattern(expr string) (*regexp.Regexp, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if re, ok := e.patterns[expr]; ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	e.patterns[expr] = re
	return re, nil
}

func isNumber(value any) bool {
	_, ok := value.(float64)
	return ok
}
