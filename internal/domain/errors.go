package domain

import "fmt"

// NotFoundError reports a missing course, section, exam, lesson, enrollment,
// certificate or notification.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// AuthorizationError reports an operation the user is not allowed to perform,
// typically because there is no active enrollment.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

// PrerequisiteError reports required lessons that are not completed yet.
type PrerequisiteError struct {
	Reason string
}

func (e *PrerequisiteError) Error() string {
	return e.Reason
}

// AttemptLimitError reports an exhausted attempt budget.
type AttemptLimitError struct {
	MaxAttempts int
}

func (e *AttemptLimitError) Error() string {
	return fmt.Sprintf("attempt limit reached (%d)", e.MaxAttempts)
}

// ConflictError reports an operation that clashes with existing state, e.g.
// taking an exam for a course that already has a certificate. Certificate
// carries the existing reference so callers can surface it.
type ConflictError struct {
	Reason      string
	Certificate *CertificateRef
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// ValidationError reports a malformed payload.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
