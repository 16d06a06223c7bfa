package session

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/model"
)

// ImportError reports a payload that could not be imported. The answers are
// left unchanged.
type ImportError struct {
	Err error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("session: import answers: %v", e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

var errNotObject = errors.New("payload is not a JSON object")

// ExportAnswers serializes the answers as a flat JSON object keyed by field
// id.
func (s *Session) ExportAnswers() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(map[string]any(s.answers))
	if err != nil {
		return nil, fmt.Errorf("session: export answers: %w", err)
	}
	return data, nil
}

// ImportAnswers replaces the answers wholesale with a payload produced by
// ExportAnswers. Imported values are trusted: nothing is validated until the
// next navigation attempt, and existing field errors are cleared. On failure
// the answers are left untouched and an *ImportError is returned.
func (s *Session) ImportAnswers(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("import failed", zap.Error(err))
		return &ImportError{Err: err}
	}
	if raw == nil {
		s.logger.Warn("import failed", zap.Error(errNotObject))
		return &ImportError{Err: errNotObject}
	}

	answers := make(model.Answers, len(raw))
	for id, value := range raw {
		if field, ok := s.cfg.Field(id); ok {
			answers[id] = model.NormalizeFor(field, value)
			continue
		}
		answers[id] = model.NormalizeValue(value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nav.Submitted() {
		return ErrSubmitted
	}
	s.answers = answers
	s.errors = map[string]string{}
	s.logger.Debug("answers imported", zap.Int("fields", len(answers)))
	return nil
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	Current         int               `json:"current"`
	SectionValidity []bool            `json:"sectionValidity"`
	Submitted       bool              `json:"submitted"`
	Answers         model.Answers     `json:"answers"`
	Errors          map[string]string `json:"errors,omitempty"`
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := make(map[string]string, len(s.errors))
	for id, msg := range s.errors {
		errs[id] = msg
	}
	return Snapshot{
		Current:         s.nav.Current(),
		SectionValidity: s.nav.Validity(),
		Submitted:       s.nav.Submitted(),
		Answers:         s.answers.Clone(),
		Errors:          errs,
	}
}

// Restore rebuilds the session state from snap. The current index is clamped
// to the configured sections.
func (s *Session) Restore(snap Snapshot) {
	answers := make(model.Answers, len(snap.Answers))
	for id, value := range snap.Answers {
		if field, ok := s.cfg.Field(id); ok {
			answers[id] = model.NormalizeFor(field, model.CloneValue(value))
			continue
		}
		answers[id] = model.NormalizeValue(value)
	}
	errs := make(map[string]string, len(snap.Errors))
	for id, msg := range snap.Errors {
		errs[id] = msg
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = answers
	s.errors = errs
	s.nav.Restore(snap.Current, snap.SectionValidity, snap.Submitted)
}
