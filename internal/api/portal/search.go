package portal

import (
	"encoding/json"
	"errors"
	"github.com/skybi/restkit/internal/api/schema"
	"github.com/skybi/restkit/internal/document"
	"github.com/skybi/restkit/internal/ownership"
	"github.com/skybi/restkit/internal/pagination"
	"net/http"
)

const (
	defaultSearchPageSize   = 10
	defaultSearchPageNumber = 1
)

type endpointSearchDocumentsRequestPayload struct {
	OrderBy   []string        `json:"order_by"`
	Paginator json.RawMessage `json:"paginator"`
	Page      json.RawMessage `json:"page"`
	Where     map[string]any  `json:"where"`
	Owner     *string         `json:"owner" validate:"omitempty,min=1"`
}

// EndpointSearchDocuments handles the 'POST /v1/documents/search' endpoint
func (service *Service) EndpointSearchDocuments(writer http.ResponseWriter, request *http.Request) {
	payload, ok := decodeBody[endpointSearchDocumentsRequestPayload](service, writer, request)
	if !ok {
		return
	}

	order, err := document.ParseOrder(payload.OrderBy)
	if err != nil {
		service.writer.WriteErrors(writer, http.StatusUnprocessableEntity, schema.ErrRequestBodyParameter("order_by", err))
		return
	}

	// Malformed pagination parameters fall back to their defaults; a page size <= 0 returns everything
	paginate := pagination.Request{
		PageSize:   min(pagination.ParseJSONNumber(payload.Paginator, defaultSearchPageSize), service.Config.MaxPageSize),
		PageNumber: pagination.ParseJSONNumber(payload.Page, defaultSearchPageNumber),
	}

	documents, err := service.Storage.Documents().Search(request.Context(), &document.Query{
		Owner: payload.Owner,
		Order: order,
	})
	if err != nil {
		service.writer.WriteInternalError(writer, request, err)
		return
	}

	visible := ownership.FilterByOwnerOrAdmin(documents, client(request).Identity())
	matching, err := document.Filter(visible, payload.Where)
	if err != nil {
		if errors.Is(err, document.ErrInvalidFilter) {
			service.writer.WriteErrors(writer, http.StatusUnprocessableEntity, schema.ErrRequestBodyParameter("where", err))
			return
		}
		service.writer.WriteInternalError(writer, request, err)
		return
	}

	service.writer.WriteEnveloped(writer, http.StatusAccepted, pagination.Apply(paginate, matching))
}
