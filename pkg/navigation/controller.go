// Package navigation implements the section wizard state machine: the
// current section index, sticky per-section completion flags and the
// terminal submitted flag. Validation is supplied by the caller so the
// controller stays independent of answers and rules.
package navigation

import "fmt"

// Outcome reports what a transition did.
type Outcome int

const (
	// Ignored means the transition did not apply (already submitted, target
	// is the current section, out of range, or not on the last section).
	Ignored Outcome = iota
	// Moved means the current section changed.
	Moved
	// Blocked means validation of the current section failed.
	Blocked
	// Rejected means the target is not reachable, or the submission commit
	// failed.
	Rejected
	// Submitted means the form entered its terminal state.
	Submitted
)

func (o Outcome) String() string {
	switch o {
	case Moved:
		return "moved"
	case Blocked:
		return "blocked"
	case Rejected:
		return "rejected"
	case Submitted:
		return "submitted"
	default:
		return "ignored"
	}
}

// Validator validates the section at index and reports whether it passed.
type Validator func(index int) bool

// Commit hands the final answers to their consumer. A non-nil error keeps
// the controller out of the submitted state.
type Commit func() error

// Controller tracks the wizard position. The zero value is not usable; call
// New.
type Controller struct {
	count     int
	current   int
	validity  []bool
	submitted bool
}

// New returns a controller for count sections positioned on the first one.
func New(count int) *Controller {
	if count < 1 {
		count = 1
	}
	return &Controller{count: count, validity: make([]bool, count)}
}

// Count returns the number of sections.
func (c *Controller) Count() int { return c.count }

// Current returns the current section index.
func (c *Controller) Current() int { return c.current }

// IsLast reports whether the current section is the last one.
func (c *Controller) IsLast() bool { return c.current == c.count-1 }

// Submitted reports whether the form reached its terminal state.
func (c *Controller) Submitted() bool { return c.submitted }

// Validity returns a copy of the per-section completion flags.
func (c *Controller) Validity() []bool {
	return append([]bool(nil), c.validity...)
}

// Completed reports whether section index was passed successfully.
func (c *Controller) Completed(index int) bool {
	return index >= 0 && index < c.count && c.validity[index]
}

// CanJump reports whether JumpTo(index) may proceed to validation, i.e. the
// target is earlier, immediately next, or already completed.
func (c *Controller) CanJump(index int) bool {
	if c.submitted || index < 0 || index >= c.count || index == c.current {
		return false
	}
	return index < c.current || index == c.current+1 || c.validity[index]
}

// Next validates the current section and advances on success, marking the
// section completed. On the last section it behaves like Submit.
func (c *Controller) Next(validate Validator, commit Commit) (Outcome, error) {
	if c.submitted {
		return Ignored, nil
	}
	if c.IsLast() {
		return c.Submit(validate, commit)
	}
	if !c.check(validate) {
		return Blocked, nil
	}
	c.validity[c.current] = true
	c.current++
	return Moved, nil
}

// Previous moves one section back without validation.
func (c *Controller) Previous() Outcome {
	if c.submitted || c.current == 0 {
		return Ignored
	}
	c.current--
	return Moved
}

// JumpTo moves to index. Earlier sections are always reachable; forward
// targets must be the next section or a completed one, and the current
// section must validate first. Completion flags are left untouched.
func (c *Controller) JumpTo(index int, validate Validator) Outcome {
	if c.submitted || index < 0 || index >= c.count || index == c.current {
		return Ignored
	}
	if !c.CanJump(index) {
		return Rejected
	}
	if index > c.current && !c.check(validate) {
		return Blocked
	}
	c.current = index
	return Moved
}

// Submit validates the last section, records the result as its completion
// flag and, when valid, runs commit and enters the submitted state. It is a
// no-op anywhere but the last section.
func (c *Controller) Submit(validate Validator, commit Commit) (Outcome, error) {
	if c.submitted || !c.IsLast() {
		return Ignored, nil
	}
	ok := c.check(validate)
	c.validity[c.current] = ok
	if !ok {
		return Blocked, nil
	}
	if commit != nil {
		if err := commit(); err != nil {
			return Rejected, fmt.Errorf("navigation: submit: %w", err)
		}
	}
	c.submitted = true
	return Submitted, nil
}

// Reset returns to the initial state.
func (c *Controller) Reset() {
	c.current = 0
	c.submitted = false
	for i := range c.validity {
		c.validity[i] = false
	}
}

// Restore positions the controller, used when rebuilding a session from a
// snapshot. Out-of-range values are clamped.
func (c *Controller) Restore(current int, validity []bool, submitted bool) {
	if current < 0 {
		current = 0
	}
	if current >= c.count {
		current = c.count - 1
	}
	c.current = current
	for i := range c.validity {
		c.validity[i] = i < len(validity) && validity[i]
	}
	c.submitted = submitted
}

func (c *Controller) check(validate Validator) bool {
	if validate == nil {
		return true
	}
	return validate(c.current)
}
