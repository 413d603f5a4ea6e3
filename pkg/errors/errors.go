package errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidToken      = errors.New("invalid token")
	ErrDomainNotFound    = errors.New("domain not found")
	ErrPageNotFound      = errors.New("page not found")
	ErrTemplateNotFound  = errors.New("master template not found")
	ErrLeadNotFound      = errors.New("lead not found")
	ErrSlugTaken         = errors.New("slug already exists for this domain")
	ErrInvalidSlug       = errors.New("invalid slug format")
	ErrEmptySlug         = errors.New("slug cannot be empty")
	ErrInvalidPageType   = errors.New("invalid page type")
	ErrInvalidBlockGraph = errors.New("invalid block graph document")
	ErrCaptchaFailed     = errors.New("failed captcha verification")
	ErrMissingLeadFields = errors.New("missing domain, slug, or type")
)

// AppError represents an application error with context
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error
func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
