package schema

import (
	"encoding/json"
	"net/http"
)

// Writer helps writing unified API responses
type Writer struct {
	InternalErrorHook func(request *http.Request, err error)
}

// WriteJSONCode writes the JSON representation of value to the given response writer using the given HTTP status code
func (writer *Writer) WriteJSONCode(rw http.ResponseWriter, code int, value any) {
	val, err := json.Marshal(value)
	if err != nil {
		writer.hook(nil, err)
		code = http.StatusInternalServerError
		val, _ = json.Marshal(&ErrorResponse{Status: code, Errors: []*Error{ErrInternal}})
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	rw.Write(val)
}

// WriteJSON writes the JSON representation of value to the given response writer.
// This method sends 200 OK as the HTTP status code; use WriteJSONCode to use a different one.
func (writer *Writer) WriteJSON(rw http.ResponseWriter, value any) {
	writer.WriteJSONCode(rw, http.StatusOK, value)
}

// WriteEnveloped writes value wrapped into an Envelope carrying the status code
func (writer *Writer) WriteEnveloped(rw http.ResponseWriter, code int, value any) {
	writer.WriteJSONCode(rw, code, &Envelope{Data: value, StatusCode: code})
}

// WriteErrors sends an error response
func (writer *Writer) WriteErrors(rw http.ResponseWriter, code int, errors ...*Error) {
	if errors == nil {
		errors = []*Error{}
	}
	for _, err := range errors {
		if err.Details == nil {
			err.Details = map[string]any{}
		}
	}
	writer.WriteJSONCode(rw, code, &ErrorResponse{
		Status: code,
		Errors: errors,
	})
}

// WriteInternalError processes an internal server error and writes it to the response
func (writer *Writer) WriteInternalError(rw http.ResponseWriter, request *http.Request, err error) {
	writer.hook(request, err)
	writer.WriteErrors(rw, http.StatusInternalServerError, ErrInternal)
}

func (writer *Writer) hook(request *http.Request, err error) {
	if writer.InternalErrorHook != nil {
		writer.InternalErrorHook(request, err)
	}
}
