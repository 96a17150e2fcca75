package vk

import "fmt"

// ErrorType classifies VK API failures
type ErrorType string

const (
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAccess      ErrorType = "access"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeHTTP        ErrorType = "http"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a VK API error
type Error struct {
	Type    ErrorType
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("vk %s error (code %d): %s", e.Type, e.Code, e.Message)
}

// classify maps a VK error_code onto an ErrorType
func classify(code int) ErrorType {
	switch code {
	case 5:
		return ErrorTypeAuth
	case 6, 9, 29:
		return ErrorTypeRateLimit
	case 15, 30, 917:
		return ErrorTypeAccess
	case 10:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}
