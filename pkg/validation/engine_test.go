package validation_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/validation"
)

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func TestRequiredRule(t *testing.T) {
	t.Parallel()

	engine := validation.New()
	field := model.Field{ID: "name", Type: model.FieldTypeText, Validation: &model.Rules{Required: true}}

	failing := []struct {
		name    string
		value   any
		present bool
	}{
		{name: "absent"},
		{name: "empty string", value: "", present: true},
		{name: "empty list", value: []string{}, present: true},
		{name: "empty decoded list", value: []any{}, present: true},
		{name: "nil", value: nil, present: true},
	}
	for _, tc := range failing {
		if got := engine.ValidateField(field, tc.value, tc.present, nil); got != "This field is required" {
			t.Errorf("%s: expected required error, got %q", tc.name, got)
		}
	}

	passing := []any{"Ada", " ", []string{"a"}, 0.0, false}
	for _, value := range passing {
		if got := engine.ValidateField(field, value, true, nil); got == "This field is required" {
			t.Errorf("%#v: unexpected required error", value)
		}
	}
}

func TestOptionalEmptyValueSkipsRules(t *testing.T) {
	t.Parallel()

	engine := validation.New()
	field := model.Field{ID: "nick", Type: model.FieldTypeText, Validation: &model.Rules{MinLength: intPtr(3), Pattern: "^[a-z]+$"}}
	if got := engine.ValidateField(field, "", true, nil); got != "" {
		t.Fatalf("expected empty optional value to pass, got %q", got)
	}
}

func TestLengthAndNumericBounds(t *testing.T) {
	t.Parallel()

	engine := validation.New()
	text := model.Field{ID: "bio", Type: model.FieldTypeTextarea, Validation: &model.Rules{Min: floatPtr(5), Max: floatPtr(10)}}
	number := model.Field{ID: "age", Type: model.FieldTypeNumber, Validation: &model.Rules{Min: floatPtr(18), Max: floatPtr(99)}}

	cases := []struct {
		name  string
		field model.Field
		value any
		want  string
	}{
		{name: "too short", field: text, value: "abc", want: "Minimum length is 5 characters"},
		{name: "too long", field: text, value: "abcdefghijkl", want: "Maximum length is 10 characters"},
		{name: "length ok", field: text, value: "abcdef", want: ""},
		{name: "below min", field: number, value: 10.0, want: "Minimum value is 18"},
		{name: "above max", field: number, value: "120", want: "Maximum value is 99"},
		{name: "numeric string ok", field: number, value: "42", want: ""},
		{name: "not a number", field: number, value: "forty", want: "Must be a number"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := engine.ValidateField(tc.field, tc.value, true, nil); got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestPatternUsesSubstringSearch(t *testing.T) {
	t.Parallel()

	engine := validation.New()
	unanchored := model.Field{ID: "code", Type: model.FieldTypeText, Validation: &model.Rules{Pattern: "[0-9]{3}"}}
	anchored := model.Field{ID: "code", Type: model.FieldTypeText, Validation: &model.Rules{Pattern: "^[0-9]{3}$"}}

	if got := engine.ValidateField(unanchored, "abc123def", true, nil); got != "" {
		t.Fatalf("expected substring match to pass, got %q", got)
	}
	if got := engine.ValidateField(anchored, "abc123def", true, nil); got != "Invalid format" {
		t.Fatalf("expected anchored pattern to reject, got %q", got)
	}
	if got := engine.ValidateField(anchored, "123", true, nil); got != "" {
		t.Fatalf("expected anchored exact match to pass, got %q", got)
	}
	if got := engine.ValidateField(unanchored, "abc", true, nil); got != "Invalid format" {
		t.Fatalf("expected missing digits to fail, got %q", got)
	}
}

func TestEmailShape(t *testing.T) {
	t.Parallel()

	engine := validation.New()
	field := model.Field{ID: "mail", Type: model.FieldTypeText, Validation: &model.Rules{Email: true}}
	if got := engine.ValidateField(field, "ada@example.com", true, nil); got != "" {
		t.Fatalf("expected valid email, got %q", got)
	}
	if got := engine.ValidateField(field, "ada.example.com", true, nil); got != "Invalid email format" {
		t.Fatalf("expected email error, got %q", got)
	}
}

func TestCustomMessages(t *testing.T) {
	t.Parallel()

	engine := validation.New()
	field := model.Field{ID: "name", Type: model.FieldTypeText, Validation: &model.Rules{
		Required:      true,
		MinLength:     intPtr(3),
		ErrorMessages: map[string]string{model.RuleRequired: "Name please"},
		Message:       "Name is not valid",
	}}
	if got := engine.ValidateField(field, nil, false, nil); got != "Name please" {
		t.Fatalf("expected rule-specific message, got %q", got)
	}
	if got := engine.ValidateField(field, "Al", true, nil); got != "Name is not valid" {
		t.Fatalf("expected catch-all message, got %q", got)
	}
}

func TestDateBounds(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	engine := validation.New(validation.WithClock(func() time.Time { return now }))
	field := model.Field{ID: "dob", Type: model.FieldTypeDate, Validation: &model.Rules{
		MaxDate: model.Today(),
		MinDate: model.On(time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)),
	}}

	cases := map[string]string{
		"2024-06-15": "",
		"2024-06-16": "Date must be on or before today",
		"1899-12-31": "Date must be on or after 1900-01-01",
		"1990-05-01": "",
		"yesterday":  "Invalid date",
	}
	for value, want := range cases {
		if got := engine.ValidateField(field, value, true, nil); got != want {
			t.Errorf("%s: want %q, got %q", value, want, got)
		}
	}
}

func TestCompareTruthTable(t *testing.T) {
	t.Parallel()

	labels := map[string]string{"start": "Start"}
	engine := validation.New(validation.WithLabeler(func(id string) string { return labels[id] }))

	ops := []model.Operator{model.OpLT, model.OpLTE, model.OpGT, model.OpGTE, model.OpEQ, model.OpNEQ}
	cases := []struct {
		name    string
		answers model.Answers
		want    map[model.Operator]bool
	}{
		{
			name:    "value greater than other",
			answers: model.Answers{"start": 3.0},
			want:    map[model.Operator]bool{model.OpLT: false, model.OpLTE: false, model.OpGT: true, model.OpGTE: true, model.OpEQ: false, model.OpNEQ: true},
		},
		{
			name:    "value equal to other",
			answers: model.Answers{"start": 5.0},
			want:    map[model.Operator]bool{model.OpLT: false, model.OpLTE: true, model.OpGT: false, model.OpGTE: true, model.OpEQ: true, model.OpNEQ: false},
		},
		{
			name:    "value less than other",
			answers: model.Answers{"start": 8.0},
			want:    map[model.Operator]bool{model.OpLT: true, model.OpLTE: true, model.OpGT: false, model.OpGTE: false, model.OpEQ: false, model.OpNEQ: true},
		},
		{
			name:    "other absent",
			answers: model.Answers{},
			want:    map[model.Operator]bool{model.OpLT: false, model.OpLTE: false, model.OpGT: false, model.OpGTE: false, model.OpEQ: false, model.OpNEQ: true},
		},
	}

	for _, tc := range cases {
		for _, op := range ops {
			field := model.Field{ID: "end", Type: model.FieldTypeNumber, Validation: &model.Rules{
				Compare: &model.CompareRule{Field: "start", Operator: op},
			}}
			got := engine.ValidateField(field, 5.0, true, tc.answers)
			if passed := got == ""; passed != tc.want[op] {
				t.Errorf("%s %s: want pass=%v, got %q", tc.name, op, tc.want[op], got)
			}
			if got != "" && got != "Must be "+op.Text()+" Start" {
				t.Errorf("%s %s: unexpected message %q", tc.name, op, got)
			}
		}
	}
}

func TestSelectionCounts(t *testing.T) {
	t.Parallel()

	engine := validation.New()
	field := model.Field{ID: "tags", Type: model.FieldTypeMultiSelect, Validation: &model.Rules{MinSelect: intPtr(2), MaxSelect: intPtr(3)}}
	if got := engine.ValidateField(field, []string{"a"}, true, nil); got != "Select at least 2 options" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := engine.ValidateField(field, []string{"a", "b", "c", "d"}, true, nil); got != "Select at most 3 options" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := engine.ValidateField(field, []string{"a", "b"}, true, nil); got != "" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestTableRows(t *testing.T) {
	t.Parallel()

	engine := validation.New()
	table := model.Field{
		ID:         "ranges",
		Type:       model.FieldTypeTable,
		Validation: &model.Rules{Required: true},
		Columns: []model.Field{
			{ID: "name", Type: model.FieldTypeText, Validation: &model.Rules{Required: true}},
			{ID: "low", Type: model.FieldTypeNumber, Validation: &model.Rules{Min: floatPtr(0)}},
			{ID: "high", Type: model.FieldTypeNumber, Label: "High", Validation: &model.Rules{
				Compare:       &model.CompareRule{Field: "low", Operator: model.OpGT},
				ErrorMessages: map[string]string{model.RuleCompare: "High must exceed low"},
			}},
		},
	}

	if got := engine.ValidateField(table, []map[string]any{}, true, nil); got != "This field is required" {
		t.Fatalf("expected required error for no rows, got %q", got)
	}

	rows := []map[string]any{
		{"name": "a", "low": 1.0, "high": 5.0},
		{"name": "b", "low": 4.0, "high": 2.0},
	}
	if got := engine.ValidateField(table, rows, true, nil); got != "Row 2: High must exceed low" {
		t.Fatalf("unexpected table error %q", got)
	}

	cells := engine.ValidateRow(table.Columns, model.Row{"low": -1.0}, nil)
	want := map[string]string{
		"name": "This field is required",
		"low":  "Minimum value is 0",
	}
	if diff := cmp.Diff(want, cells); diff != "" {
		t.Fatalf("row errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateSectionSkipsHiddenFields(t *testing.T) {
	t.Parallel()

	engine := validation.New()
	section := model.Section{
		ID: "details",
		Elements: []model.Field{
			{ID: "contact", Type: model.FieldTypeRadio, Validation: &model.Rules{Required: true}},
			{ID: "phone", Type: model.FieldTypeText, Validation: &model.Rules{Required: true},
				ShowIf: model.Conditions{{Field: "contact", Value: "phone"}}},
		},
		Subsections: []model.Subsection{{
			ID:       "company",
			ShowIf:   model.Conditions{{Field: "contact", Value: "work"}},
			Elements: []model.Field{{ID: "employer", Type: model.FieldTypeText, Validation: &model.Rules{Required: true}}},
		}},
	}

	result := engine.ValidateSection(section, model.Answers{"contact": "email", "phone": ""})
	if !result.Valid {
		t.Fatalf("expected hidden fields to be skipped, got %v", result.Errors)
	}

	result = engine.ValidateSection(section, model.Answers{"contact": "work"})
	want := map[string]string{"employer": "This field is required"}
	if diff := cmp.Diff(want, result.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if result.Valid {
		t.Fatalf("expected invalid section")
	}

	result = engine.ValidateSection(section, model.Answers{})
	want = map[string]string{"contact": "This field is required"}
	if diff := cmp.Diff(want, result.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}
