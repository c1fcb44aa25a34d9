package schema

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Title  *string `json:"title" validate:"required"`
	Size   int     `json:"size" validate:"gte=0,lte=10"`
	Nested *struct {
		Email string `json:"email" validate:"omitempty,email"`
	} `json:"nested"`
}

func unmarshal(t *testing.T, body string) (*testPayload, []*Error) {
	t.Helper()
	request := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	payload, errs, err := UnmarshalBody[testPayload](request)
	require.NoError(t, err)
	return payload, errs
}

func TestUnmarshalBodyValid(t *testing.T) {
	payload, errs := unmarshal(t, `{"title": "x", "size": 3}`)
	assert.Empty(t, errs)
	assert.Equal(t, "x", *payload.Title)
	assert.Equal(t, 3, payload.Size)
}

func TestUnmarshalBodyErrors(t *testing.T) {
	_, errs := unmarshal(t, `{"title": `)
	require.Len(t, errs, 1)
	assert.Equal(t, "validation.requestBody.invalidJSON", errs[0].Type)

	_, errs = unmarshal(t, `{"title": 5}`)
	require.Len(t, errs, 1)
	assert.Equal(t, "validation.requestBody.parameter.invalidType", errs[0].Type)
	assert.Equal(t, "title", errs[0].Details["parameter"])

	_, errs = unmarshal(t, `{"size": 11, "nested": {"email": "nope"}}`)
	require.Len(t, errs, 3)
	types := map[string]string{}
	for _, err := range errs {
		types[err.Details["parameter"].(string)] = err.Type
	}
	assert.Equal(t, map[string]string{
		"title":        "validation.requestBody.parameter.missing",
		"size":         "validation.requestBody.parameter.invalid",
		"nested.email": "validation.requestBody.parameter.invalid",
	}, types)
}

func TestWriter(t *testing.T) {
	var hooked error
	writer := &Writer{InternalErrorHook: func(_ *http.Request, err error) { hooked = err }}

	recorder := httptest.NewRecorder()
	writer.WriteEnveloped(recorder, http.StatusAccepted, []int{1})
	assert.Equal(t, http.StatusAccepted, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data": [1], "status_code": 202}`, recorder.Body.String())

	recorder = httptest.NewRecorder()
	writer.WriteErrors(recorder, http.StatusNotFound, &Error{Type: "x", Message: "y"})
	response := new(ErrorResponse)
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), response))
	assert.Equal(t, 404, response.Status)
	assert.Equal(t, map[string]any{}, response.Errors[0].Details)

	recorder = httptest.NewRecorder()
	writer.WriteInternalError(recorder, nil, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.EqualError(t, hooked, "boom")
}
