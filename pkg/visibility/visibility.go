// Package visibility evaluates showIf predicates against current answers.
// Evaluation is a pure function of (conditions, answers); callers re-run it on
// every read instead of caching a visible-field set.
package visibility

import (
	"reflect"
	"strings"

	"github.com/goliatone/go-formflow/pkg/model"
)

// IsVisible reports whether every condition holds. No conditions means
// visible; there is no OR combinator.
func IsVisible(conds model.Conditions, answers model.Answers) bool {
	for _, cond := range conds {
		if !Holds(cond, answers) {
			return false
		}
	}
	return true
}

// Holds evaluates a single condition.
func Holds(cond model.Condition, answers model.Answers) bool {
	left, leftOK := lookup(answers, cond.Field)
	if cond.IsComparison() {
		right, rightOK := lookup(answers, cond.CompareField)
		op := cond.Operator
		if op == "" {
			op = model.OpEQ
		}
		return Compare(op, left, leftOK, right, rightOK)
	}
	return Compare(model.OpEQ, left, leftOK, cond.Value, cond.Value != nil)
}

func lookup(answers model.Answers, id string) (any, bool) {
	value, ok := answers.Get(strings.TrimSpace(id))
	if !ok || value == nil {
		return nil, false
	}
	return value, true
}

// Compare applies op to two operands. Absent operands follow a fixed
// convention: eq holds only when both sides are absent, neq holds when exactly
// one side is absent, and ordering operators never hold.
//
// Present operands compare numerically when both are numbers (numeric strings
// included), by calendar instant when both parse as dates, and lexically
// otherwise.
func Compare(op model.Operator, left any, leftOK bool, right any, rightOK bool) bool {
	if !leftOK || !rightOK {
		switch op {
		case model.OpEQ:
			return !leftOK && !rightOK
		case model.OpNEQ:
			return leftOK != rightOK
		default:
			return false
		}
	}

	cmp, comparable := order(left, right)
	switch op {
	case model.OpEQ:
		return Equal(left, right)
	case model.OpNEQ:
		return !Equal(left, right)
	case model.OpLT:
		return comparable && cmp < 0
	case model.OpLTE:
		return comparable && cmp <= 0
	case model.OpGT:
		return comparable && cmp > 0
	case model.OpGTE:
		return comparable && cmp >= 0
	default:
		return false
	}
}

// Equal compares two present values after normalisation. Kinds must match:
// strings compare byte for byte, numbers by value, booleans only to booleans.
// 3 and "3" are different values.
func Equal(left, right any) bool {
	left, right = model.NormalizeValue(left), model.NormalizeValue(right)
	switch l := left.(type) {
	case string:
		r, ok := right.(string)
		return ok && l == r
	case float64:
		r, ok := right.(float64)
		return ok && l == r
	case bool:
		r, ok := right.(bool)
		return ok && l == r
	}
	return reflect.DeepEqual(left, right)
}

func order(left, right any) (int, bool) {
	if ln, ok := model.ToNumber(left); ok {
		if rn, ok := model.ToNumber(right); ok {
			switch {
			case ln < rn:
				return -1, true
			case ln > rn:
				return 1, true
			default:
				return 0, true
			}
		}
	}

	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		if lt, ok := model.ParseDate(ls); ok {
			if rt, ok := model.ParseDate(rs); ok {
				return lt.Compare(rt), true
			}
		}
		return strings.Compare(ls, rs), true
	}

	if isScalar(left) && isScalar(right) {
		return strings.Compare(model.Stringify(left), model.Stringify(right)), true
	}
	return 0, false
}

func isScalar(value any) bool {
	switch value.(type) {
	case string, bool, float64:
		return true
	default:
		return false
	}
}
