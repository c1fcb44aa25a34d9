package portal

import (
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/skybi/restkit/internal/api/schema"
	"github.com/skybi/restkit/internal/api/validation"
	"github.com/skybi/restkit/internal/contact"
	"github.com/skybi/restkit/internal/pagination"
	"github.com/skybi/restkit/internal/user"
	"net/http"
)

const maxUserPageSize = 1000

var errInvalidMobile = errors.New("mobile numbers consist of at least 10 characters")

// EndpointGetUsers handles the 'GET /v1/users?page={number?:1}&page_size={number?:10}' endpoint
func (service *Service) EndpointGetUsers(writer http.ResponseWriter, request *http.Request) {
	pageSize := validation.QueryClampedNumber(request, "page_size", user.DefaultLimit, 1, maxUserPageSize)
	pageNumber := pagination.ParsePageNumber(request.URL.Query().Get("page"))
	if pageNumber < 1 {
		pageNumber = 1
	}

	users, n, err := service.Storage.Users().Get(request.Context(), uint64((pageNumber-1)*pageSize), uint64(pageSize))
	if err != nil {
		service.writer.WriteInternalError(writer, request, err)
		return
	}

	// Page numbers exceeding the total amount of pages fall back to the last one
	clamped, start, _ := pagination.Bounds(int(n), pageSize, pageNumber)
	if clamped != pageNumber {
		users, n, err = service.Storage.Users().Get(request.Context(), uint64(start), uint64(pageSize))
		if err != nil {
			service.writer.WriteInternalError(writer, request, err)
			return
		}
	}

	service.writer.WriteJSON(writer, pagination.Window(users, int(n), pageSize, clamped))
}

// EndpointGetUser handles the 'GET /v1/users/{id}' endpoint
func (service *Service) EndpointGetUser(writer http.ResponseWriter, request *http.Request) {
	obj := service.lookupUser(writer, request)
	if obj == nil {
		return
	}
	service.writer.WriteJSON(writer, obj)
}

type endpointEditSelfUserRequestPayload struct {
	DisplayName *string `json:"display_name" validate:"omitempty,min=1,max=128"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Mobile      *string `json:"mobile"`
}

type endpointEditUserRequestPayload struct {
	DisplayName *string `json:"display_name" validate:"omitempty,min=1,max=128"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Mobile      *string `json:"mobile"`
	Restricted  *bool   `json:"restricted"`
	Admin       *bool   `json:"admin"`
}

// EndpointEditUser handles the 'PATCH /v1/users/{id}' endpoint
func (service *Service) EndpointEditUser(writer http.ResponseWriter, request *http.Request) {
	obj := service.lookupUser(writer, request)
	if obj == nil {
		return
	}

	payload, ok := decodeBody[endpointEditUserRequestPayload](service, writer, request)
	if !ok {
		return
	}
	update, ok := service.buildUserUpdate(writer, payload.DisplayName, payload.Email, payload.Mobile)
	if !ok {
		return
	}
	update.Restricted = payload.Restricted
	update.Admin = payload.Admin

	service.updateUser(writer, request, obj.ID, update)
}

// EndpointDeleteUser handles the 'DELETE /v1/users/{id}' endpoint
func (service *Service) EndpointDeleteUser(writer http.ResponseWriter, request *http.Request) {
	obj := service.lookupUser(writer, request)
	if obj == nil {
		return
	}
	if err := service.Storage.Users().Delete(request.Context(), obj.ID); err != nil {
		service.writer.WriteInternalError(writer, request, err)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}

// EndpointGetSelfUser handles the 'GET /v1/me' endpoint
func (service *Service) EndpointGetSelfUser(writer http.ResponseWriter, request *http.Request) {
	service.writer.WriteJSON(writer, client(request))
}

// EndpointEditSelfUser handles the 'PATCH /v1/me' endpoint
func (service *Service) EndpointEditSelfUser(writer http.ResponseWriter, request *http.Request) {
	payload, ok := decodeBody[endpointEditSelfUserRequestPayload](service, writer, request)
	if !ok {
		return
	}
	update, ok := service.buildUserUpdate(writer, payload.DisplayName, payload.Email, payload.Mobile)
	if !ok {
		return
	}
	service.updateUser(writer, request, client(request).ID, update)
}

// EndpointDeleteSelfUser handles the 'DELETE /v1/me' endpoint
func (service *Service) EndpointDeleteSelfUser(writer http.ResponseWriter, request *http.Request) {
	if err := service.Storage.Users().Delete(request.Context(), client(request).ID); err != nil {
		service.writer.WriteInternalError(writer, request, err)
		return
	}
	service.unsetTokenCookie(writer)
	writer.WriteHeader(http.StatusNoContent)
}

func (service *Service) lookupUser(writer http.ResponseWriter, request *http.Request) *user.User {
	obj, err := service.Storage.Users().GetByID(request.Context(), chi.URLParam(request, "id"))
	if err != nil {
		service.writer.WriteInternalError(writer, request, err)
		return nil
	}
	if obj == nil {
		service.writer.WriteErrors(writer, http.StatusNotFound, schema.ErrNotFound)
		return nil
	}
	return obj
}

func (service *Service) buildUserUpdate(writer http.ResponseWriter, displayName, email, mobileRaw *string) (*user.Update, bool) {
	update := &user.Update{
		DisplayName: displayName,
		Email:       email,
	}
	if mobileRaw != nil {
		mobile := contact.NormalizeMobile(*mobileRaw)
		if mobile != "" && !contact.ValidateMobile(mobile) {
			service.writer.WriteErrors(writer, http.StatusUnprocessableEntity, schema.ErrRequestBodyParameter("mobile", errInvalidMobile))
			return nil, false
		}
		update.Mobile = &mobile
	}
	return update, true
}

func (service *Service) updateUser(writer http.ResponseWriter, request *http.Request, id string, update *user.Update) {
	obj, err := service.Storage.Users().Update(request.Context(), id, update)
	if err != nil {
		service.writer.WriteInternalError(writer, request, err)
		return
	}
	if obj == nil {
		service.writer.WriteErrors(writer, http.StatusNotFound, schema.ErrNotFound)
		return
	}
	service.writer.WriteJSON(writer, obj)
}
