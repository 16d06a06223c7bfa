package visibility_test

import (
	"testing"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

func TestIsVisibleWithoutConditions(t *testing.T) {
	t.Parallel()

	if !visibility.IsVisible(nil, nil) {
		t.Fatalf("expected field without showIf to be visible")
	}
}

func TestIsVisibleRequiresEveryCondition(t *testing.T) {
	t.Parallel()

	conds := model.Conditions{
		{Field: "a", Value: "x"},
		{Field: "b", Value: "y"},
	}
	cases := []struct {
		name    string
		answers model.Answers
		want    bool
	}{
		{name: "both match", answers: model.Answers{"a": "x", "b": "y"}, want: true},
		{name: "only a", answers: model.Answers{"a": "x", "b": "n"}, want: false},
		{name: "only b", answers: model.Answers{"a": "n", "b": "y"}, want: false},
		{name: "b absent", answers: model.Answers{"a": "x"}, want: false},
		{name: "none", answers: model.Answers{}, want: false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := visibility.IsVisible(conds, tc.answers); got != tc.want {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
		})
	}

	kinds := []struct {
		name   string
		value  any
		answer any
		want   bool
	}{
		{name: "number vs numeric string", value: 3.0, answer: "3", want: false},
		{name: "numeric string vs number", value: "1", answer: 1.0, want: false},
		{name: "bool vs string", value: true, answer: "true", want: false},
		{name: "distinct numeric strings", value: "1.0", answer: "1", want: false},
		{name: "int vs float", value: 3, answer: 3.0, want: true},
		{name: "bool vs bool", value: true, answer: true, want: true},
	}
	for _, tc := range kinds {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			conds := model.Conditions{{Field: "a", Value: tc.value}}
			if got := visibility.IsVisible(conds, model.Answers{"a": tc.answer}); got != tc.want {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
		})
	}
}

func TestHoldsFieldComparison(t *testing.T) {
	t.Parallel()

	cond := model.Condition{Field: "start", CompareField: "end", Operator: model.OpLT}
	if !visibility.Holds(cond, model.Answers{"start": "2024-01-01", "end": "2024-02-01"}) {
		t.Fatalf("expected earlier date to be lt")
	}
	if visibility.Holds(cond, model.Answers{"start": "2024-03-01", "end": "2024-02-01"}) {
		t.Fatalf("expected later date not to be lt")
	}
	if visibility.Holds(cond, model.Answers{"start": "2024-01-01"}) {
		t.Fatalf("expected absent compare field to fail ordering")
	}
}

func TestCompareTruthTable(t *testing.T) {
	t.Parallel()

	type row struct {
		op      model.Operator
		left    any
		leftOK  bool
		right   any
		rightOK bool
		want    bool
	}
	rows := []row{
		{model.OpLT, 1.0, true, 2.0, true, true},
		{model.OpLT, 2.0, true, 2.0, true, false},
		{model.OpLTE, 2.0, true, 2.0, true, true},
		{model.OpGT, "10", true, "9", true, true},
		{model.OpGTE, 3.0, true, 4.0, true, false},
		{model.OpEQ, 3.0, true, "3", true, false},
		{model.OpNEQ, 3.0, true, "3", true, true},
		{model.OpEQ, 3, true, 3.0, true, true},
		{model.OpNEQ, "a", true, "b", true, true},
		{model.OpEQ, true, true, "true", true, false},
		{model.OpEQ, "1.0", true, "1", true, false},
		{model.OpEQ, []string{"a"}, true, []string{"a"}, true, true},
		{model.OpLT, "apple", true, "banana", true, true},

		{model.OpEQ, nil, false, nil, false, true},
		{model.OpNEQ, nil, false, nil, false, false},
		{model.OpEQ, "x", true, nil, false, false},
		{model.OpNEQ, "x", true, nil, false, true},
		{model.OpLT, nil, false, 1.0, true, false},
		{model.OpLTE, nil, false, nil, false, false},
		{model.OpGT, 1.0, true, nil, false, false},
		{model.OpGTE, nil, false, nil, false, false},
	}
	for _, r := range rows {
		got := visibility.Compare(r.op, r.left, r.leftOK, r.right, r.rightOK)
		if got != r.want {
			t.Errorf("%v %s %v (present %v/%v): want %v, got %v", r.left, r.op, r.right, r.leftOK, r.rightOK, r.want, got)
		}
	}
}

func TestEqualityIgnoresUnrelatedAnswers(t *testing.T) {
	t.Parallel()

	cond := model.Condition{Field: "country", Value: "US"}
	answers := model.Answers{"country": "US", "state": "CA"}
	if !visibility.Holds(cond, answers) {
		t.Fatalf("expected condition to hold")
	}
	answers["country"] = "CA"
	if visibility.Holds(cond, answers) {
		t.Fatalf("expected condition to fail after change")
	}
}
