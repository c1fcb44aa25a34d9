package schema

import "fmt"

var emptyMap = map[string]any{}

var (
	ErrInternal = &Error{
		Type:    "generic.internal",
		Message: "An internal error occurred.",
		Details: emptyMap,
	}
	ErrNotFound = &Error{
		Type:    "generic.notFound",
		Message: "Resource not found.",
		Details: emptyMap,
	}
	ErrMethodNotAllowed = &Error{
		Type:    "generic.methodNotAllowed",
		Message: "Method not allowed.",
		Details: emptyMap,
	}
	ErrUnauthorized = &Error{
		Type:    "access.unauthorized",
		Message: "Authentication credentials were not provided or are invalid.",
		Details: emptyMap,
	}
	ErrForbidden = &Error{
		Type:    "access.forbidden",
		Message: "You do not have permission to perform this action.",
		Details: emptyMap,
	}
	ErrAlreadyCreated = &Error{
		Type:    "resource.alreadyCreated",
		Message: "You already created a resource of this kind.",
		Details: emptyMap,
	}
	ErrRestricted = &Error{
		Type:    "access.restricted",
		Message: "Your account is restricted.",
		Details: emptyMap,
	}
)

// ErrInvalidCredentials is used if a request carries malformed or unverifiable credentials
func ErrInvalidCredentials(reason string) *Error {
	return &Error{
		Type:    "access.invalidCredentials",
		Message: "The provided credentials are invalid.",
		Details: map[string]any{
			"reason": reason,
		},
	}
}

// ErrProtectedFields is used if a request body tries to set fields that are managed by the server
func ErrProtectedFields(fields []string) *Error {
	return &Error{
		Type:    "validation.requestBody.protectedFields",
		Message: fmt.Sprintf("The request body must not contain the server-managed fields %v.", fields),
		Details: map[string]any{
			"fields": fields,
		},
	}
}

// ErrRequestBodyParameter is used if a request body parameter was decoded successfully but holds an unusable value
func ErrRequestBodyParameter(name string, err error) *Error {
	return &Error{
		Type:    "validation.requestBody.parameter.invalid",
		Message: fmt.Sprintf("The request body parameter '%s' is invalid: %s.", name, err.Error()),
		Details: map[string]any{
			"parameter": name,
			"reason":    err.Error(),
		},
	}
}

// ErrorResponse represents the response structure sent by the API whenever errors occurred
type ErrorResponse struct {
	Status int      `json:"status"`
	Errors []*Error `json:"errors"`
}

// Error represents a single error present in the ErrorResponse
type Error struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// Envelope wraps response data together with the HTTP status code it was sent with
type Envelope struct {
	Data       any `json:"data"`
	StatusCode int `json:"status_code"`
}
