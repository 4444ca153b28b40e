package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the class of a pipeline error
type ErrorType string

const (
	ErrTypeUnresolvedEntity    ErrorType = "UNRESOLVED_ENTITY"
	ErrTypeInvalidOdds         ErrorType = "INVALID_ODDS"
	ErrTypeKeyUniqueness       ErrorType = "KEY_UNIQUENESS_VIOLATION"
	ErrTypeDataQuality         ErrorType = "DATA_QUALITY"
	ErrTypeInsufficientSupport ErrorType = "INSUFFICIENT_SUPPORT"
	ErrTypeEstimation          ErrorType = "ESTIMATION_FAILURE"
	ErrTypeParsing             ErrorType = "PARSING"
	ErrTypeStorage             ErrorType = "STORAGE"
	ErrTypeConfig              ErrorType = "CONFIG"
)

// Sentinels for errors.Is. Any AppError of the same type matches.
var (
	ErrUnresolvedEntity    = &AppError{Type: ErrTypeUnresolvedEntity}
	ErrInvalidOdds         = &AppError{Type: ErrTypeInvalidOdds}
	ErrKeyUniqueness       = &AppError{Type: ErrTypeKeyUniqueness}
	ErrDataQuality         = &AppError{Type: ErrTypeDataQuality}
	ErrInsufficientSupport = &AppError{Type: ErrTypeInsufficientSupport}
	ErrEstimation          = &AppError{Type: ErrTypeEstimation}
	ErrParsing             = &AppError{Type: ErrTypeParsing}
	ErrStorage             = &AppError{Type: ErrTypeStorage}
	ErrConfig              = &AppError{Type: ErrTypeConfig}
)

// AppError represents a pipeline error with its class and context
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	if e.Message == "" {
		return fmt.Sprintf("[%s]", e.Type)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to reach the cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError of the same type
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new pipeline error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewUnresolvedEntityError reports a name missing from the mapping table
func NewUnresolvedEntityError(kind, raw string) *AppError {
	return NewAppError(ErrTypeUnresolvedEntity, fmt.Sprintf("unresolved %s %q", kind, raw), nil).
		WithContext("kind", kind).
		WithContext("raw", raw)
}

// NewInvalidOddsError reports a price triple that cannot be turned into probabilities
func NewInvalidOddsError(message string) *AppError {
	return NewAppError(ErrTypeInvalidOdds, message, nil)
}

// NewKeyUniquenessError reports duplicate keys on the one-side of a join
func NewKeyUniquenessError(table string, duplicates int, sample string) *AppError {
	return NewAppError(ErrTypeKeyUniqueness,
		fmt.Sprintf("%s has %d duplicate keys (first: %s)", table, duplicates, sample), nil).
		WithContext("table", table).
		WithContext("duplicates", duplicates)
}

// NewDataQualityError reports a season whose exclusion rate breaks the sanity threshold
func NewDataQualityError(season int, fraction, threshold float64) *AppError {
	return NewAppError(ErrTypeDataQuality,
		fmt.Sprintf("season %d: invalid odds fraction %.3f exceeds %.3f", season, fraction, threshold), nil).
		WithContext("season", season).
		WithContext("fraction", fraction)
}

// NewInsufficientSupportError reports a group below its retention thresholds
func NewInsufficientSupportError(group string, message string) *AppError {
	return NewAppError(ErrTypeInsufficientSupport, message, nil).WithContext("group", group)
}

// NewEstimationError reports a numerical failure for one group
func NewEstimationError(group string, cause error) *AppError {
	return NewAppError(ErrTypeEstimation, "estimation failed for "+group, cause).WithContext("group", group)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsFatal reports whether err must abort the run. Row-level classes degrade by
// exclusion; join-safety, data-quality, storage and config errors do not.
func IsFatal(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return err != nil
	}
	switch appErr.Type {
	case ErrTypeUnresolvedEntity, ErrTypeInvalidOdds, ErrTypeInsufficientSupport, ErrTypeEstimation:
		return false
	}
	return true
}

// TypeOf returns the ErrorType carried by err, or "" if none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}
