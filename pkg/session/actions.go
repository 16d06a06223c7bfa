package session

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-formflow/pkg/model"
)

// RowError reports a table row rejected by its column rules. Errors maps
// column ids to messages.
type RowError struct {
	Field  string
	Row    int
	Errors map[string]string
}

func (e *RowError) Error() string {
	columns := make([]string, 0, len(e.Errors))
	for column := range e.Errors {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	parts := make([]string, len(columns))
	for i, column := range columns {
		parts[i] = column + ": " + e.Errors[column]
	}
	return fmt.Sprintf("session: row %d of %s is invalid (%s)", e.Row+1, e.Field, strings.Join(parts, "; "))
}

// SetFieldValue stores value for field id and re-validates that field only.
// Masked fields keep the digits of string input formatted through the mask;
// rich-text input is sanitized.
func (s *Session) SetFieldValue(id string, value any) error {
	field, err := s.field(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nav.Submitted() {
		return ErrSubmitted
	}
	s.store(field, s.prepare(field, value))
	return nil
}

// SetMultiValue replaces the selection of a list field (multi-select or
// checkbox group).
func (s *Session) SetMultiValue(id string, values []string) error {
	field, err := s.field(id)
	if err != nil {
		return err
	}
	if !field.IsList() {
		return fmt.Errorf("%w: %q is not a list field", ErrWrongType, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nav.Submitted() {
		return ErrSubmitted
	}
	s.store(field, append([]string{}, values...))
	return nil
}

// ToggleOption adds value to a list field's selection, or removes it when
// already selected. Selection order is preserved.
func (s *Session) ToggleOption(id, value string) error {
	field, err := s.field(id)
	if err != nil {
		return err
	}
	if !field.IsList() {
		return fmt.Errorf("%w: %q is not a list field", ErrWrongType, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nav.Submitted() {
		return ErrSubmitted
	}
	current, _ := model.AsStrings(s.answers[id])
	next := make([]string, 0, len(current)+1)
	found := false
	for _, item := range current {
		if item == value {
			found = true
			continue
		}
		next = append(next, item)
	}
	if !found {
		next = append(next, value)
	}
	s.store(field, next)
	return nil
}

// SetDateValue stores t as a YYYY-MM-DD string. A zero time stores "".
func (s *Session) SetDateValue(id string, t time.Time) error {
	field, err := s.field(id)
	if err != nil {
		return err
	}
	if field.Kind() != model.FieldTypeDate {
		return fmt.Errorf("%w: %q is not a date field", ErrWrongType, id)
	}
	value := ""
	if !t.IsZero() {
		value = t.Format(model.DateLayout)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nav.Submitted() {
		return ErrSubmitted
	}
	s.store(field, value)
	return nil
}

// SetTableValue replaces every row of a table field.
func (s *Session) SetTableValue(id string, rows []model.Row) error {
	field, err := s.tableField(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nav.Submitted() {
		return ErrSubmitted
	}
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		out[i] = normalizeRow(field, row)
	}
	s.store(field, out)
	return nil
}

// AddTableRow validates row against the column rules and appends it. A
// rejected row is returned as a *RowError and leaves the answers untouched.
func (s *Session) AddTableRow(id string, row model.Row) error {
	field, err := s.tableField(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nav.Submitted() {
		return ErrSubmitted
	}
	rows := s.rows(id)
	candidate := normalizeRow(field, row)
	if err := s.checkRow(field, len(rows), candidate); err != nil {
		return err
	}
	s.store(field, append(rows, candidate))
	return nil
}

// UpdateTableRow validates row and replaces the row at index.
func (s *Session) UpdateTableRow(id string, index int, row model.Row) error {
	field, err := s.tableField(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nav.Submitted() {
		return ErrSubmitted
	}
	rows := s.rows(id)
	if index < 0 || index >= len(rows) {
		return fmt.Errorf("%w: %d", ErrRowIndex, index)
	}
	candidate := normalizeRow(field, row)
	if err := s.checkRow(field, index, candidate); err != nil {
		return err
	}
	rows[index] = candidate
	s.store(field, rows)
	return nil
}

// DeleteTableRow removes the row at index.
func (s *Session) DeleteTableRow(id string, index int) error {
	field, err := s.tableField(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nav.Submitted() {
		return ErrSubmitted
	}
	rows := s.rows(id)
	if index < 0 || index >= len(rows) {
		return fmt.Errorf("%w: %d", ErrRowIndex, index)
	}
	s.store(field, append(rows[:index], rows[index+1:]...))
	return nil
}

// ClearField removes the answer and error of field id, returning it to the
// unanswered state.
func (s *Session) ClearField(id string) error {
	if _, err := s.field(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nav.Submitted() {
		return ErrSubmitted
	}
	delete(s.answers, id)
	delete(s.errors, id)
	return nil
}

func (s *Session) tableField(id string) (model.Field, error) {
	field, err := s.field(id)
	if err != nil {
		return model.Field{}, err
	}
	if field.Kind() != model.FieldTypeTable {
		return model.Field{}, fmt.Errorf("%w: %q is not a table field", ErrWrongType, id)
	}
	return field, nil
}

// rows returns a copy of the stored rows of a table field.
func (s *Session) rows(id string) []map[string]any {
	rows, _ := model.AsRows(model.CloneValue(s.answers[id]))
	out := make([]map[string]any, 0, len(rows)+1)
	return append(out, rows...)
}

func (s *Session) checkRow(field model.Field, index int, row map[string]any) error {
	if errs := s.engine.ValidateRow(field.Columns, row, s.answers); len(errs) > 0 {
		return &RowError{Field: field.ID, Row: index, Errors: errs}
	}
	return nil
}

func (s *Session) prepare(field model.Field, value any) any {
	value = model.NormalizeFor(field, value)
	text, ok := value.(string)
	if !ok {
		return value
	}
	if mask := field.Mask; mask != "" {
		return ApplyMask(mask, text)
	}
	if field.Kind() == model.FieldTypeRichText && s.sanitizer != nil {
		return s.sanitizer.Sanitize(text)
	}
	return text
}

// store writes value and refreshes the error of that field alone.
func (s *Session) store(field model.Field, value any) {
	s.answers[field.ID] = value
	if msg := s.engine.ValidateField(field, value, true, s.answers); msg != "" {
		s.errors[field.ID] = msg
		return
	}
	delete(s.errors, field.ID)
}

func normalizeRow(field model.Field, row model.Row) map[string]any {
	out := make(map[string]any, len(row))
	for key, value := range row {
		if column, ok := field.Column(key); ok {
			out[key] = model.NormalizeFor(column, value)
			continue
		}
		out[key] = model.NormalizeValue(value)
	}
	return out
}

// ApplyMask formats the digits of input through mask, where every `#` is a
// digit slot and any other rune is copied literally. Output stops after the
// last filled slot, so partial input never carries trailing literals.
func ApplyMask(mask, input string) string {
	digits := make([]rune, 0, len(input))
	for _, r := range input {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) == 0 {
		return ""
	}
	var b strings.Builder
	var pending strings.Builder
	next := 0
	for _, r := range mask {
		if r != '#' {
			pending.WriteRune(r)
			continue
		}
		if next >= len(digits) {
			break
		}
		b.WriteString(pending.String())
		pending.Reset()
		b.WriteRune(digits[next])
		next++
	}
	return b.String()
}
