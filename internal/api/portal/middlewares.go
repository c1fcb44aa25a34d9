package portal

import (
	"context"
	"errors"
	"fmt"
	"github.com/skybi/restkit/internal/api/auth"
	"github.com/skybi/restkit/internal/api/schema"
	"github.com/skybi/restkit/internal/contact"
	"github.com/skybi/restkit/internal/storage"
	"github.com/skybi/restkit/internal/user"
	"net/http"
)

type contextKey string

const (
	contextValueClaims contextKey = "claims"
	contextValueUser   contextKey = "user"
)

// middleware wraps an endpoint handler
type middleware func(next http.HandlerFunc) http.HandlerFunc

// nest wraps the endpoint into the given middlewares; the first one is executed first.
// nest(endpoint, a, b) is equivalent to a(b(endpoint)).
func nest(endpoint http.HandlerFunc, middlewares ...middleware) http.HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		endpoint = middlewares[i](endpoint)
	}
	return endpoint
}

// MiddlewareVerifyToken makes sure that the requesting client has provided a valid token.
// Additionally, it injects the verified claims into the request context.
func (service *Service) MiddlewareVerifyToken(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		raw, err := service.extractor.Token(request)
		if err != nil {
			service.unauthorized(writer, schema.ErrInvalidCredentials(err.Error()))
			return
		}
		if raw == "" {
			service.unauthorized(writer, schema.ErrUnauthorized)
			return
		}

		claims, err := service.Verifier.Verify(request.Context(), raw)
		if err != nil {
			requestLogger(request).Debug().Err(err).Msg("Rejected token")
			service.unauthorized(writer, schema.ErrInvalidCredentials(auth.ErrInvalidToken.Error()))
			return
		}

		// Delegate to the next handler
		request = request.WithContext(context.WithValue(request.Context(), contextValueClaims, claims))
		next(writer, request)
	}
}

func (service *Service) unauthorized(writer http.ResponseWriter, err *schema.Error) {
	challenge := "Bearer"
	if service.Config.JWTPrefix != "" {
		challenge = service.Config.JWTPrefix
	}
	writer.Header().Set("WWW-Authenticate", fmt.Sprintf(`%s realm="api"`, challenge))
	service.writer.WriteErrors(writer, http.StatusUnauthorized, err)
}

// MiddlewareFetchUser retrieves the user the verified token belongs to and injects it into the request context.
// Users that authenticate for the first time are created out of the token claims.
func (service *Service) MiddlewareFetchUser(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		claims, ok := request.Context().Value(contextValueClaims).(*auth.Claims)
		if !ok {
			service.writer.WriteInternalError(writer, request, errors.New("user fetching without token verification"))
			return
		}

		obj, err := service.fetchOrProvisionUser(request, claims)
		if err != nil {
			service.writer.WriteInternalError(writer, request, err)
			return
		}
		if obj.Restricted {
			service.writer.WriteErrors(writer, http.StatusForbidden, schema.ErrRestricted)
			return
		}

		// Delegate to the next handler
		request = request.WithContext(context.WithValue(request.Context(), contextValueUser, obj))
		next(writer, request)
	}
}

func (service *Service) fetchOrProvisionUser(request *http.Request, claims *auth.Claims) (*user.User, error) {
	users := service.Storage.Users()
	obj, err := users.GetByID(request.Context(), claims.Subject)
	if err != nil || obj != nil {
		return obj, err
	}

	create := &user.Create{
		ID:          claims.Subject,
		DisplayName: claims.Name,
		Admin:       claims.Admin || service.Config.IsAdminSubject(claims.Subject),
	}
	if create.DisplayName == "" {
		create.DisplayName = claims.Subject
	}
	if contact.ValidateEmail(claims.Email) {
		create.Email = claims.Email
	}

	obj, err = users.Create(request.Context(), create)
	if errors.Is(err, storage.ErrAlreadyExists) {
		// Another request provisioned the same user concurrently
		return users.GetByID(request.Context(), claims.Subject)
	}
	if err != nil {
		return nil, err
	}
	requestLogger(request).Info().Str("user", obj.ID).Bool("admin", obj.Admin).Msg("Provisioned a new user")
	return obj, nil
}

// MiddlewareCheckAdmin makes sure that the requesting user is an administrator
func (service *Service) MiddlewareCheckAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if !client(request).Admin {
			service.writer.WriteErrors(writer, http.StatusForbidden, schema.ErrForbidden)
			return
		}
		next(writer, request)
	}
}

// client returns the user injected by MiddlewareFetchUser
func client(request *http.Request) *user.User {
	obj, _ := request.Context().Value(contextValueUser).(*user.User)
	if obj == nil {
		return &user.User{}
	}
	return obj
}
