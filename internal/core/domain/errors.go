package domain

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrExtraction   = errors.New("extraction failed")
	ErrPDFRecovery  = errors.New("pdf text recovery failed")
	ErrAIService    = errors.New("ai service error")
	ErrConfig       = errors.New("configuration error")
	ErrValidation   = errors.New("validation failed")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTemporary    = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// ValidationError lists the form fields that blocked a submission.
type ValidationError struct {
	Missing []string
	Invalid map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ErrValidation.Error()
	}
	msg := ErrValidation.Error()
	if len(e.Missing) > 0 {
		msg += fmt.Sprintf(": missing required fields: %v", e.Missing)
	}
	fields := make([]string, 0, len(e.Invalid))
	for field := range e.Invalid {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		msg += fmt.Sprintf("; %s: %s", field, e.Invalid[field])
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
