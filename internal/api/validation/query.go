package validation

import (
	"fmt"
	"github.com/skybi/restkit/internal/api/schema"
	"net/http"
	"strconv"
	"strings"
)

var errQueryParameterInvalidValue = func(name, value, reason string) *schema.Error {
	return &schema.Error{
		Type:    "validation.query.parameter.invalidValue",
		Message: fmt.Sprintf("The query parameter '%s' ('%s') is invalid: %s.", name, value, reason),
		Details: map[string]any{
			"parameter": name,
			"value":     value,
			"reason":    reason,
		},
	}
}

// QueryClampedNumber extracts an integer value out of the query parameters of the given request.
// Missing or malformed values fall back to def; values outside of [min, max] are clamped to that range.
func QueryClampedNumber(request *http.Request, key string, def, min, max int) int {
	value := strings.TrimSpace(request.URL.Query().Get(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	if parsed < min {
		return min
	}
	if parsed > max {
		return max
	}
	return parsed
}

// QueryList extracts a list of values out of the query parameters of the given request.
// Both repeated parameters ('?k=a&k=b') and comma separated values ('?k=a,b') are supported.
func QueryList(request *http.Request, key string) []string {
	var values []string
	for _, raw := range request.URL.Query()[key] {
		for _, value := range strings.Split(raw, ",") {
			if value = strings.TrimSpace(value); value != "" {
				values = append(values, value)
			}
		}
	}
	return values
}

// QueryError converts an error that occurred while interpreting a query parameter into an API error
func QueryError(key, value string, err error) *schema.Error {
	return errQueryParameterInvalidValue(key, value, err.Error())
}
