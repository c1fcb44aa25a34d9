package portal

import (
	"bytes"
	"encoding/json"
	"github.com/skybi/restkit/internal/api/schema"
	"github.com/skybi/restkit/internal/stamp"
	"net/http"
)

// decodeBody decodes and validates the request body and writes the corresponding error response if that fails
func decodeBody[T any](service *Service, writer http.ResponseWriter, request *http.Request) (*T, bool) {
	body, err := schema.ReadBody(request)
	if err != nil {
		service.writer.WriteInternalError(writer, request, err)
		return nil, false
	}
	return decodeRawBody[T](service, writer, request, body)
}

// decodeStampedBody behaves like decodeBody but additionally rejects bodies that try to set server-managed ownership
// fields
func decodeStampedBody[T any](service *Service, writer http.ResponseWriter, request *http.Request) (*T, bool) {
	body, err := schema.ReadBody(request)
	if err != nil {
		service.writer.WriteInternalError(writer, request, err)
		return nil, false
	}

	var fields map[string]json.RawMessage
	if json.Unmarshal(body, &fields) == nil {
		if protected := stamp.RejectProtected(fields); len(protected) > 0 {
			service.writer.WriteErrors(writer, http.StatusBadRequest, schema.ErrProtectedFields(protected))
			return nil, false
		}
	}
	return decodeRawBody[T](service, writer, request, body)
}

func decodeRawBody[T any](service *Service, writer http.ResponseWriter, request *http.Request, body []byte) (*T, bool) {
	// An absent body is treated like an empty object so that payloads consisting of optional fields only need no body
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}
	payload, errs, err := schema.DecodeBody[T](body)
	if err != nil {
		service.writer.WriteInternalError(writer, request, err)
		return nil, false
	}
	if len(errs) > 0 {
		service.writer.WriteErrors(writer, http.StatusUnprocessableEntity, errs...)
		return nil, false
	}
	return payload, true
}
