package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"io"
	"net/http"
	"reflect"
	"strings"
)

// MaxBodySize is the maximum size of a request body UnmarshalBody reads
const MaxBodySize = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

var (
	errRequestBodyInvalidJSON = func(err string) *Error {
		return &Error{
			Type:    "validation.requestBody.invalidJSON",
			Message: "Request body is not a valid JSON input.",
			Details: map[string]any{
				"error": err,
			},
		}
	}
	errRequestBodyParameterInvalidType = func(name, expectedType string) *Error {
		return &Error{
			Type:    "validation.requestBody.parameter.invalidType",
			Message: fmt.Sprintf("The request body parameter '%s' could not be assigned to the required type (%s).", name, expectedType),
			Details: map[string]any{
				"parameter":     name,
				"expected_type": expectedType,
			},
		}
	}
	errRequestBodyParameterMissing = func(name string) *Error {
		return &Error{
			Type:    "validation.requestBody.parameter.missing",
			Message: fmt.Sprintf("The request body parameter '%s' is required but was not present in the request.", name),
			Details: map[string]any{
				"parameter": name,
			},
		}
	}
	errRequestBodyParameterInvalid = func(name, rule, param string, value any) *Error {
		return &Error{
			Type:    "validation.requestBody.parameter.invalid",
			Message: fmt.Sprintf("The request body parameter '%s' does not satisfy the rule '%s'.", name, strings.TrimSuffix(rule+"="+param, "=")),
			Details: map[string]any{
				"parameter": name,
				"rule":      rule,
				"param":     param,
				"value":     value,
			},
		}
	}
)

// UnmarshalBody parses and decodes a JSON request body and validates it using the 'validate' struct tags of T
func UnmarshalBody[T any](request *http.Request) (*T, []*Error, error) {
	body, err := ReadBody(request)
	if err != nil {
		return nil, nil, err
	}
	return DecodeBody[T](body)
}

// ReadBody reads at most MaxBodySize bytes of the request body
func ReadBody(request *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(request.Body, MaxBodySize))
}

// DecodeBody decodes an already read JSON body and validates it using the 'validate' struct tags of T
func DecodeBody[T any](body []byte) (*T, []*Error, error) {
	target := new(T)
	if err := json.Unmarshal(body, target); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, []*Error{errRequestBodyParameterInvalidType(typeErr.Field, typeErr.Type.String())}, nil
		}
		return nil, []*Error{errRequestBodyInvalidJSON(err.Error())}, nil
	}

	errs, err := ValidateStruct(target)
	if err != nil {
		return nil, nil, err
	}
	return target, errs, nil
}

// ValidateStruct validates a struct using its 'validate' tags and converts all violations into API errors
func ValidateStruct(value any) ([]*Error, error) {
	err := validate.Struct(value)
	if err == nil {
		return nil, nil
	}
	var violations validator.ValidationErrors
	if !errors.As(err, &violations) {
		return nil, err
	}

	errs := make([]*Error, 0, len(violations))
	for _, violation := range violations {
		name := fieldPath(violation.Namespace())
		if strings.HasPrefix(violation.Tag(), "required") {
			errs = append(errs, errRequestBodyParameterMissing(name))
			continue
		}
		errs = append(errs, errRequestBodyParameterInvalid(name, violation.Tag(), violation.Param(), violation.Value()))
	}
	return errs, nil
}

// fieldPath strips the name of the root struct from a validator namespace ('payload.content.title' -> 'content.title')
func fieldPath(namespace string) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return path
}
