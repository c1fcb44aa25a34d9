package portal

import (
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/skybi/restkit/internal/api/schema"
	"github.com/skybi/restkit/internal/api/validation"
	"github.com/skybi/restkit/internal/document"
	"github.com/skybi/restkit/internal/ownership"
	"github.com/skybi/restkit/internal/pagination"
	"net/http"
	"strings"
)

type endpointCreateDocumentRequestPayload struct {
	Title   string         `json:"title" validate:"required,max=256"`
	Content map[string]any `json:"content"`
}

// EndpointCreateDocument handles the 'POST /v1/documents' endpoint
func (service *Service) EndpointCreateDocument(writer http.ResponseWriter, request *http.Request) {
	payload, ok := decodeStampedBody[endpointCreateDocumentRequestPayload](service, writer, request)
	if !ok {
		return
	}
	owner := client(request)

	if payload.Content == nil {
		payload.Content = map[string]any{}
	}
	created, err := service.Storage.Documents().Create(request.Context(), &document.Create{
		Owner:   owner.ID,
		Title:   payload.Title,
		Content: payload.Content,
		Single:  service.Config.DocumentsSingleton,
	})
	if errors.Is(err, document.ErrAlreadyCreated) {
		service.writer.WriteErrors(writer, http.StatusConflict, schema.ErrAlreadyCreated)
		return
	}
	if err != nil {
		service.writer.WriteInternalError(writer, request, err)
		return
	}
	requestLogger(request).Debug().Stringer("document", created.ID).Str("user", owner.ID).Msg("Created a document")
	service.writer.WriteJSONCode(writer, http.StatusCreated, created)
}

// EndpointGetDocuments handles the 'GET /v1/documents?page={number?:1}&page_size={number?}&order_by={fields?}&owner={id?}'
// endpoint
func (service *Service) EndpointGetDocuments(writer http.ResponseWriter, request *http.Request) {
	pageSize := validation.QueryClampedNumber(request, "page_size", service.Config.DefaultPageSize, 0, service.Config.MaxPageSize)
	pageNumber := pagination.ParsePageNumber(request.URL.Query().Get("page"))

	rawOrder := validation.QueryList(request, "order_by")
	order, err := document.ParseOrder(rawOrder)
	if err != nil {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validation.QueryError("order_by", strings.Join(rawOrder, ","), err))
		return
	}

	query := &document.Query{Order: order}
	if owner := strings.TrimSpace(request.URL.Query().Get("owner")); owner != "" {
		query.Owner = &owner
	}

	documents, err := service.Storage.Documents().Search(request.Context(), query)
	if err != nil {
		service.writer.WriteInternalError(writer, request, err)
		return
	}
	visible := ownership.FilterByOwnerOrAdmin(documents, client(request).Identity())
	service.writer.WriteJSON(writer, pagination.Paginate(visible, pageSize, pageNumber))
}

// EndpointGetDocument handles the 'GET /v1/documents/{id}' endpoint
func (service *Service) EndpointGetDocument(writer http.ResponseWriter, request *http.Request) {
	obj := service.lookupDocument(writer, request)
	if obj == nil {
		return
	}
	service.writer.WriteJSON(writer, obj)
}

type endpointReplaceDocumentRequestPayload struct {
	Title   string         `json:"title" validate:"required,max=256"`
	Content map[string]any `json:"content" validate:"required"`
}

// EndpointReplaceDocument handles the 'PUT /v1/documents/{id}' endpoint
func (service *Service) EndpointReplaceDocument(writer http.ResponseWriter, request *http.Request) {
	obj := service.lookupDocument(writer, request)
	if obj == nil {
		return
	}
	payload, ok := decodeStampedBody[endpointReplaceDocumentRequestPayload](service, writer, request)
	if !ok {
		return
	}
	service.updateDocument(writer, request, obj.ID, &document.Update{
		Title:   &payload.Title,
		Content: payload.Content,
	})
}

type endpointEditDocumentRequestPayload struct {
	Title   *string        `json:"title" validate:"omitempty,min=1,max=256"`
	Content map[string]any `json:"content"`
}

// EndpointEditDocument handles the 'PATCH /v1/documents/{id}' endpoint
func (service *Service) EndpointEditDocument(writer http.ResponseWriter, request *http.Request) {
	obj := service.lookupDocument(writer, request)
	if obj == nil {
		return
	}
	payload, ok := decodeStampedBody[endpointEditDocumentRequestPayload](service, writer, request)
	if !ok {
		return
	}
	service.updateDocument(writer, request, obj.ID, &document.Update{
		Title:   payload.Title,
		Content: payload.Content,
	})
}

// EndpointDeleteDocument handles the 'DELETE /v1/documents/{id}' endpoint
func (service *Service) EndpointDeleteDocument(writer http.ResponseWriter, request *http.Request) {
	obj := service.lookupDocument(writer, request)
	if obj == nil {
		return
	}
	if err := service.Storage.Documents().Delete(request.Context(), obj.ID); err != nil {
		service.writer.WriteInternalError(writer, request, err)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}

// lookupDocument retrieves the document addressed by the request and makes sure the client may access it
func (service *Service) lookupDocument(writer http.ResponseWriter, request *http.Request) *document.Document {
	id, err := uuid.Parse(chi.URLParam(request, "id"))
	if err != nil {
		service.writer.WriteErrors(writer, http.StatusNotFound, schema.ErrNotFound)
		return nil
	}

	obj, err := service.Storage.Documents().GetByID(request.Context(), id)
	if err != nil {
		service.writer.WriteInternalError(writer, request, err)
		return nil
	}
	if obj == nil {
		service.writer.WriteErrors(writer, http.StatusNotFound, schema.ErrNotFound)
		return nil
	}

	if err := ownership.Authorize(obj, client(request).Identity()); err != nil {
		if errors.Is(err, ownership.ErrNotOwner) {
			service.writer.WriteErrors(writer, http.StatusForbidden, schema.ErrForbidden)
			return nil
		}
		service.writer.WriteInternalError(writer, request, err)
		return nil
	}
	return obj
}

func (service *Service) updateDocument(writer http.ResponseWriter, request *http.Request, id uuid.UUID, update *document.Update) {
	updated, err := service.Storage.Documents().Update(request.Context(), id, update)
	if err != nil {
		service.writer.WriteInternalError(writer, request, err)
		return
	}
	if updated == nil {
		service.writer.WriteErrors(writer, http.StatusNotFound, schema.ErrNotFound)
		return
	}
	service.writer.WriteJSON(writer, updated)
}
