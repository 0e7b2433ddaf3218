package utils

type ErrCode string

const (
	ErrCodeValidation   ErrCode = "VALIDATION_ERROR"
	ErrCodeNotFound     ErrCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrCode = "FORBIDDEN"
	ErrCodeConflict     ErrCode = "CONFLICT"
	ErrCodeUpstream     ErrCode = "UPSTREAM_ERROR"
	ErrCodeInternal     ErrCode = "INTERNAL_ERROR"
)

// AppError is the error payload carried inside API responses.
type AppError struct {
	Code    ErrCode `json:"code"`
	Message string  `json:"message"`
	Details string  `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// NewAppError creates an AppError with an optional details string.
func NewAppError(code ErrCode, message string, details ...string) *AppError {
	err := &AppError{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}
