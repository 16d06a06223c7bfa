package validation

import (
	"fmt"
	"unicode/utf8"

	"github.com/goliatone/go-formflow/pkg/model"
)

// message returns the configured message for kind or the generated default.
func message(rules *model.Rules, kind, fallback string) string {
	if msg, ok := rules.MessageFor(kind); ok {
		return msg
	}
	return fallback
}

func checkSelection(rules *model.Rules, count int) string {
	if rules == nil {
		return ""
	}
	if rules.MinSelect != nil && count < *rules.MinSelect {
		return message(rules, model.RuleMinSelect, fmt.Sprintf("Select at least %d options", *rules.MinSelect))
	}
	if rules.MaxSelect != nil && count > *rules.MaxSelect {
		return message(rules, model.RuleMaxSelect, fmt.Sprintf("Select at most %d options", *rules.MaxSelect))
	}
	return ""
}

func checkNumber(rules *model.Rules, value float64) string {
	if rules == nil {
		return ""
	}
	if rules.Min != nil && value < *rules.Min {
		return message(rules, model.RuleMin, fmt.Sprintf("Minimum value is %v", *rules.Min))
	}
	if rules.Max != nil && value > *rules.Max {
		return message(rules, model.RuleMax, fmt.Sprintf("Maximum value is %v", *rules.Max))
	}
	return ""
}

// checkLength applies min/max as character counts, then minLength/maxLength.
func checkLength(rules *model.Rules, value string) string {
	if rules == nil {
		return ""
	}
	length := utf8.RuneCountInString(value)
	if rules.Min != nil && float64(length) < *rules.Min {
		return message(rules, model.RuleMin, fmt.Sprintf("Minimum length is %v characters", *rules.Min))
	}
	if rules.Max != nil && float64(length) > *rules.Max {
		return message(rules, model.RuleMax, fmt.Sprintf("Maximum length is %v characters", *rules.Max))
	}
	if rules.MinLength != nil && length < *rules.MinLength {
		return message(rules, model.RuleMinLength, fmt.Sprintf("Minimum length is %d characters", *rules.MinLength))
	}
	if rules.MaxLength != nil && length > *rules.MaxLength {
		return message(rules, model.RuleMaxLength, fmt.Sprintf("Maximum length is %d characters", *rules.MaxLength))
	}
	return ""
}
