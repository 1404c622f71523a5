package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Configuration errors
	ErrConfigParse          ErrorType = "CONFIG_PARSE_ERROR"
	ErrConfigInvalid        ErrorType = "CONFIG_INVALID_ERROR"
	ErrConfigKeysFile       ErrorType = "CONFIG_KEYS_FILE_ERROR"
	ErrConfigMissingSection ErrorType = "CONFIG_MISSING_SECTION"
	ErrConfigMissingKey     ErrorType = "CONFIG_MISSING_KEY"
	ErrTemplate             ErrorType = "TEMPLATE_ERROR"

	// Fetch errors
	ErrFetchRegions     ErrorType = "FETCH_REGIONS_ERROR"
	ErrFetchInstances   ErrorType = "FETCH_INSTANCES_ERROR"
	ErrFetchCredentials ErrorType = "FETCH_CREDENTIALS_ERROR"

	// Server errors
	ErrServe ErrorType = "SERVE_ERROR"
)

var configTypes = map[ErrorType]bool{
	ErrConfigParse:          true,
	ErrConfigInvalid:        true,
	ErrConfigKeysFile:       true,
	ErrConfigMissingSection: true,
	ErrConfigMissingKey:     true,
	ErrTemplate:             true,
}

var fetchTypes = map[ErrorType]bool{
	ErrFetchRegions:     true,
	ErrFetchInstances:   true,
	ErrFetchCredentials: true,
}

// CustomError represents a custom error with additional context
type CustomError struct {
	Type       ErrorType
	Message    string
	Context    map[string]interface{}
	WrappedErr error
}

// New creates a new custom error
func New(errorType ErrorType, message string, context map[string]interface{}, wrappedErr error) *CustomError {
	return &CustomError{
		Type:       errorType,
		Message:    message,
		Context:    context,
		WrappedErr: wrappedErr,
	}
}

// Error implements the error interface
func (e *CustomError) Error() string {
	if e.WrappedErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.WrappedErr)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *CustomError) Unwrap() error {
	return e.WrappedErr
}

// TypeOf returns the type of the outermost CustomError in err's chain, or ""
// when there is none.
func TypeOf(err error) ErrorType {
	var customErr *CustomError
	if stderrors.As(err, &customErr) {
		return customErr.Type
	}
	return ""
}

// Is checks if the error, or any error it wraps, is of a specific type
func Is(err error, errType ErrorType) bool {
	for err != nil {
		var customErr *CustomError
		if !stderrors.As(err, &customErr) {
			return false
		}
		if customErr.Type == errType {
			return true
		}
		err = customErr.WrappedErr
	}
	return false
}

// IsConfigError reports whether err belongs to the configuration family:
// keys file, key sections, application settings or templates.
func IsConfigError(err error) bool {
	return configTypes[TypeOf(err)]
}

// IsFetchError reports whether err came from talking to the EC2 API.
func IsFetchError(err error) bool {
	return fetchTypes[TypeOf(err)]
}

// Describe renders the error for humans, without the type tag. Used for the
// error banner on the dashboard.
func Describe(err error) string {
	var customErr *CustomError
	if !stderrors.As(err, &customErr) {
		return err.Error()
	}
	msg := customErr.Message
	if customErr.WrappedErr != nil {
		msg = msg + ": " + strings.TrimSpace(Describe(customErr.WrappedErr))
	}
	return msg
}
