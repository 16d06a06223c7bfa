package validation

import (
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

// Result is the outcome of validating a section. Errors only holds failing
// fields.
type Result struct {
	Valid  bool
	Errors map[string]string
}

// VisibleFields returns the fields of section that are currently visible:
// top-level elements whose showIf holds, and elements of visible subsections
// whose own showIf holds.
func VisibleFields(section model.Section, answers model.Answers) []model.Field {
	var out []model.Field
	for _, field := range section.Elements {
		if visibility.IsVisible(field.ShowIf, answers) {
			out = append(out, field)
		}
	}
	for _, sub := range section.Subsections {
		if !visibility.IsVisible(sub.ShowIf, answers) {
			continue
		}
		for _, field := range sub.Elements {
			if visibility.IsVisible(field.ShowIf, answers) {
				out = append(out, field)
			}
		}
	}
	return out
}

// ValidateSection validates every visible field of section. Hidden fields are
// skipped regardless of their stored value.
func (e *Engine) ValidateSection(section model.Section, answers model.Answers) Result {
	result := Result{Valid: true, Errors: make(map[string]string)}
	for _, field := range VisibleFields(section, answers) {
		value, present := answers.Get(field.ID)
		if msg := e.ValidateField(field, value, present, answers); msg != "" {
			result.Errors[field.ID] = msg
			result.Valid = false
		}
	}
	return result
}
