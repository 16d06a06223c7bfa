// Package prompt drives a form session from a terminal: it shows each section,
// prompts every visible field by type, re-asks until the field validates and
// walks the wizard until the answers are submitted.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/navigation"
	"github.com/goliatone/go-formflow/pkg/sanitize"
	"github.com/goliatone/go-formflow/pkg/session"
)

// Action labels offered after a section's fields are answered.
const (
	ActionNext     = "Next"
	ActionSubmit   = "Submit"
	ActionPrevious = "Previous"
)

// Runner walks a session through a Driver.
type Runner struct {
	session   *session.Session
	driver    Driver
	sanitizer sanitize.Sanitizer
	logger    *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithDriver overrides the prompt driver (survey terminal by default).
func WithDriver(driver Driver) Option {
	return func(r *Runner) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithSanitizer overrides how section descriptions are turned into text.
func WithSanitizer(sanitizer sanitize.Sanitizer) Option {
	return func(r *Runner) {
		if sanitizer != nil {
			r.sanitizer = sanitizer
		}
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner returns a Runner over s.
func NewRunner(s *session.Session, opts ...Option) *Runner {
	r := &Runner{
		session:   s,
		sanitizer: sanitize.Plain,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = NewTerminal()
	}
	return r
}

// Run prompts until the session is submitted, the context is cancelled or
// the driver fails.
func (r *Runner) Run(ctx context.Context) error {
	r.session.Start(ctx)
	for !r.session.Submitted() {
		if err := r.runSection(ctx); err != nil {
			return err
		}
		if err := r.advance(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runSection(ctx context.Context) error {
	section := r.session.CurrentSection()
	header := SectionHeader{
		Title:       section.Title,
		Description: r.sanitizer.Sanitize(section.Description),
		Step:        r.session.Current() + 1,
		Total:       r.session.Config().SectionCount(),
	}
	if header.Title == "" {
		header.Title = section.ID
	}
	if err := r.driver.Section(ctx, header); err != nil {
		return err
	}

	// Visibility is recomputed after every answer so fields revealed by an
	// earlier answer in the same section are still asked.
	asked := make(map[string]bool)
	for {
		next, ok := nextField(r.session.VisibleFields(), asked)
		if !ok {
			return nil
		}
		asked[next.ID] = true
		if err := r.promptField(ctx, next); err != nil {
			return err
		}
	}
}

func nextField(fields []model.Field, asked map[string]bool) (model.Field, bool) {
	for _, field := range fields {
		if !asked[field.ID] {
			return field, true
		}
	}
	return model.Field{}, false
}

func (r *Runner) advance(ctx context.Context) error {
	forward := ActionNext
	if r.session.IsLast() {
		forward = ActionSubmit
	}
	actions := []string{forward}
	if r.session.Current() > 0 {
		actions = append(actions, ActionPrevious)
	}

	idx, err := r.driver.Select(ctx, SelectConfig{Message: "Continue", Options: actions})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(actions) {
		return nil
	}

	switch actions[idx] {
	case ActionPrevious:
		r.session.Previous(ctx)
		return nil
	default:
		outcome, err := r.session.Next(ctx)
		switch outcome {
		case navigation.Blocked:
			return r.reportErrors(ctx)
		case navigation.Rejected:
			return r.driver.Error(ctx, fmt.Sprintf("Submission failed: %v", err))
		case navigation.Submitted:
			return r.driver.Info(ctx, "Form submitted")
		}
		return err
	}
}

func (r *Runner) reportErrors(ctx context.Context) error {
	errs := r.session.Errors()
	var lines []string
	for _, field := range r.session.VisibleFields() {
		if msg, ok := errs[field.ID]; ok {
			lines = append(lines, fmt.Sprintf("%s: %s", field.DisplayLabel(), msg))
		}
	}
	sort.Strings(lines)
	return r.driver.Error(ctx, "Please fix the following fields:\n"+strings.Join(lines, "\n"))
}

func (r *Runner) promptField(ctx context.Context, field model.Field) error {
	for {
		if err := r.ask(ctx, field); err != nil {
			return err
		}
		msg := r.session.Error(field.ID)
		if msg == "" {
			return nil
		}
		if err := r.driver.Error(ctx, fmt.Sprintf("%s: %s", field.DisplayLabel(), msg)); err != nil {
			return err
		}
	}
}

func (r *Runner) ask(ctx context.Context, field model.Field) error {
	current, _ := r.session.Value(field.ID)
	message := field.DisplayLabel()
	help := field.Placeholder

	switch field.Kind() {
	case model.FieldTypeTable:
		return r.askTable(ctx, field)
	case model.FieldTypeSelect, model.FieldTypeRadio:
		opts, ok, err := r.options(ctx, field)
		if err != nil || !ok {
			break
		}
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      labels(opts),
			DefaultIndex: indexOfValue(opts, model.Stringify(current)),
			Help:         help,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(opts) {
			return r.session.ClearField(field.ID)
		}
		return r.session.SetFieldValue(field.ID, opts[idx].Value)
	case model.FieldTypeMultiSelect, model.FieldTypeCheckbox:
		if !field.IsList() {
			answer, err := r.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: current == true, Help: help})
			if err != nil {
				return err
			}
			return r.session.SetFieldValue(field.ID, answer)
		}
		opts, ok, err := r.options(ctx, field)
		if err != nil || !ok {
			break
		}
		selected, _ := model.AsStrings(current)
		indices, err := r.driver.MultiSelect(ctx, SelectConfig{
			Message:  message,
			Options:  labels(opts),
			Defaults: indicesOfValues(opts, selected),
			Help:     help,
		})
		if err != nil {
			return err
		}
		return r.session.SetMultiValue(field.ID, valuesFromIndices(opts, indices))
	case model.FieldTypeTextarea, model.FieldTypeRichText:
		text, err := r.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: model.Stringify(current), Help: help})
		if err != nil {
			return err
		}
		return r.store(field, text)
	case model.FieldTypePassword:
		text, err := r.driver.Password(ctx, InputConfig{Message: message, Default: model.Stringify(current), Help: help})
		if err != nil {
			return err
		}
		return r.store(field, text)
	case model.FieldTypeDate:
		if help == "" {
			help = "YYYY-MM-DD"
		}
	}

	text, err := r.driver.Input(ctx, InputConfig{Message: message, Default: model.Stringify(current), Help: help})
	if err != nil {
		return err
	}
	return r.store(field, text)
}

// store clears unanswered optional input instead of recording "".
func (r *Runner) store(field model.Field, text string) error {
	if strings.TrimSpace(text) == "" && !field.Required() {
		return r.session.ClearField(field.ID)
	}
	return r.session.SetFieldValue(field.ID, text)
}

// options resolves the field's options, showing a busy indicator while a
// remote source loads. A false result means free-text input should be used.
func (r *Runner) options(ctx context.Context, field model.Field) ([]model.Option, bool, error) {
	if field.Options == nil {
		return nil, false, nil
	}
	view, err := r.session.FieldOptions(field.ID)
	if err != nil {
		return nil, false, err
	}
	if !field.HasRemoteOptions() {
		return view.Options, len(view.Options) > 0, nil
	}

	var stop func()
	if view.Loading {
		stop = r.driver.Busy(fmt.Sprintf("Loading %s options", field.DisplayLabel()))
	}
	opts, err := r.session.ResolveOptions(ctx, field.ID)
	if stop != nil {
		stop()
	}
	if err != nil {
		r.logger.Warn("option resolution failed", zap.String("field", field.ID), zap.Error(err))
		if len(view.Options) > 0 {
			return view.Options, true, nil
		}
		_ = r.driver.Error(ctx, fmt.Sprintf("Could not load options for %s, enter a value instead", field.DisplayLabel()))
		return nil, false, nil
	}
	return opts, len(opts) > 0, nil
}

func (r *Runner) askTable(ctx context.Context, field model.Field) error {
	for {
		rows, _ := r.session.Value(field.ID)
		existing, _ := model.AsRows(rows)
		add, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Add a row to %s? (%d so far)", field.DisplayLabel(), len(existing)),
			Default: len(existing) == 0 && field.Required(),
		})
		if err != nil {
			return err
		}
		if !add {
			if len(existing) == 0 && field.Required() {
				return r.session.SetTableValue(field.ID, nil)
			}
			return nil
		}

		row := model.Row{}
		for _, column := range field.Columns {
			text, err := r.driver.Input(ctx, InputConfig{Message: fmt.Sprintf("%s / %s", field.DisplayLabel(), column.DisplayLabel()), Help: column.Placeholder})
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) != "" {
				row[column.ID] = text
			}
		}

		err = r.session.AddTableRow(field.ID, row)
		var rowErr *session.RowError
		switch {
		case errors.As(err, &rowErr):
			if err := r.driver.Error(ctx, rowErr.Error()); err != nil {
				return err
			}
		case err != nil:
			return err
		}
	}
}

func labels(opts []model.Option) []string {
	out := make([]string, len(opts))
	for i, opt := range opts {
		out[i] = opt.Label
		if out[i] == "" {
			out[i] = opt.Value
		}
	}
	return out
}

func indexOfValue(opts []model.Option, value string) int {
	for i, opt := range opts {
		if opt.Value == value {
			return i
		}
	}
	return -1
}

func indicesOfValues(opts []model.Option, values []string) []int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	var out []int
	for i, opt := range opts {
		if _, ok := seen[opt.Value]; ok {
			out = append(out, i)
		}
	}
	return out
}

func valuesFromIndices(opts []model.Option, indices []int) []string {
	out := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(opts) {
			out = append(out, opts[idx].Value)
		}
	}
	return out
}
