package core

import "fmt"

// ValidateTurn validates a Turn according to domain rules.
//
// Validation rules:
//   - Role must be system, user or assistant
//   - Status must be empty, complete or failed
//   - Content must not be empty, except for assistant turns, which may be
//     empty when the model streamed no text
//
// NOT validated:
//   - At (zero is valid for turns restored from older snapshots)
func ValidateTurn(turn *Turn) error {
	if turn == nil {
		return fmt.Errorf("%w: turn is nil", ErrInvalidTurn)
	}

	if err := ValidateRole(turn.Role); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, err)
	}

	if err := ValidateTurnStatus(turn.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, err)
	}

	if turn.Content == "" && turn.Role != RoleAssistant {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, ErrEmptyContent)
	}

	return nil
}

// ValidateRole validates that a Role has a known value.
func ValidateRole(role Role) error {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return nil
	}
	return fmt.Errorf("%w: value %q", ErrInvalidRole, role)
}

// ValidateTurnStatus validates that a TurnStatus has a known value.
// The empty status is treated as complete.
func ValidateTurnStatus(status TurnStatus) error {
	switch status {
	case "", TurnComplete, TurnFailed:
		return nil
	}
	return fmt.Errorf("%w: value %q", ErrInvalidTurnStatus, status)
}

// ValidateLanguage validates that a Language is supported.
func ValidateLanguage(lang Language) error {
	if _, ok := languageNames[lang]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}
	return nil
}
