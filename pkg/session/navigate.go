package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/navigation"
)

// Next validates the current section and advances to the following one,
// prefetching its sources. On the last section Next submits.
func (s *Session) Next(ctx context.Context) (navigation.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	outcome, err := s.nav.Next(s.validateSection, s.commit(ctx))
	s.after(ctx, "next", outcome, err)
	return outcome, err
}

// Previous moves one section back without validation.
func (s *Session) Previous(ctx context.Context) navigation.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	outcome := s.nav.Previous()
	s.after(ctx, "previous", outcome, nil)
	return outcome
}

// Jump moves to section index. Forward jumps validate the current section
// first and are only allowed onto the next section or a completed one.
func (s *Session) Jump(ctx context.Context, index int) navigation.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	outcome := s.nav.JumpTo(index, s.validateSection)
	s.after(ctx, "jump", outcome, nil)
	return outcome
}

// Submit validates the last section and hands the answers to the sink. It is
// a no-op unless the current section is the last one. The form only becomes
// submitted when the sink accepts the answers.
func (s *Session) Submit(ctx context.Context) (navigation.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	outcome, err := s.nav.Submit(s.validateSection, s.commit(ctx))
	s.after(ctx, "submit", outcome, err)
	return outcome, err
}

// Reset clears answers, errors and section flags and returns to the first
// section. The option cache is kept.
func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = model.Answers{}
	s.errors = map[string]string{}
	s.nav.Reset()
	s.logger.Debug("form reset")
	s.enterSection(ctx)
}

// validateSection validates section index and replaces the errors of that
// section's fields with the result. Errors of other sections are kept.
func (s *Session) validateSection(index int) bool {
	section := s.cfg.Sections[index]
	result := s.engine.ValidateSection(section, s.answers)
	for _, field := range section.Fields() {
		delete(s.errors, field.ID)
	}
	for id, msg := range result.Errors {
		s.errors[id] = msg
	}
	if !result.Valid {
		s.logger.Debug("section validation failed",
			zap.String("section", section.ID),
			zap.Int("errors", len(result.Errors)),
		)
	}
	return result.Valid
}

func (s *Session) commit(ctx context.Context) navigation.Commit {
	return func() error {
		return s.sink.Submit(ctx, s.answers.Clone())
	}
}

func (s *Session) after(ctx context.Context, action string, outcome navigation.Outcome, err error) {
	switch outcome {
	case navigation.Moved:
		s.enterSection(ctx)
	case navigation.Submitted:
		s.logger.Info("form submitted", zap.Int("fields", len(s.answers)))
	case navigation.Rejected:
		if err != nil {
			s.logger.Warn("submission failed", zap.Error(err))
		}
	}
	s.logger.Debug("navigation",
		zap.String("action", action),
		zap.Stringer("outcome", outcome),
		zap.Int("current", s.nav.Current()),
	)
}
