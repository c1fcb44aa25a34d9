package portal

import (
	"context"
	"errors"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"github.com/skybi/restkit/internal/api/auth"
	"github.com/skybi/restkit/internal/api/schema"
	"github.com/skybi/restkit/internal/config"
	"github.com/skybi/restkit/internal/contact"
	"github.com/skybi/restkit/internal/message"
	"github.com/skybi/restkit/internal/storage"
	"golang.org/x/oauth2"
	"net/http"
	"time"
)

// Service represents the portal API service
type Service struct {
	server *http.Server

	Config *config.Config

	Storage storage.Driver

	// Verifier verifies the tokens clients authenticate with.
	// If nil, a verifier is built out of the JWT and OIDC configuration.
	Verifier auth.Verifier

	// Mailer and SMS are the transports messages are dispatched with.
	// Messages are only logged if they are nil.
	Mailer message.Mailer
	SMS    message.SMSSender

	extractor  *auth.Extractor
	dispatcher *message.Dispatcher

	oidcOAuth2Config    *oauth2.Config
	oidcIDTokenVerifier *oidc.IDTokenVerifier

	writer *schema.Writer
}

// Startup starts up the portal API
func (service *Service) Startup(ctx context.Context) error {
	if service.Config.OIDCEnabled() {
		if err := service.initOIDC(ctx); err != nil {
			return err
		}
	}

	handler, err := service.Handler()
	if err != nil {
		return err
	}

	// Start up the server
	server := &http.Server{
		Addr:              service.Config.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	service.server = server
	return server.ListenAndServe()
}

// Shutdown gracefully shuts down the portal API
func (service *Service) Shutdown(ctx context.Context) {
	if service.server != nil {
		if err := service.server.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Could not gracefully shut down the portal API")
		}
		service.server = nil
	}
}

func (service *Service) initOIDC(ctx context.Context) error {
	// Create the OIDC provider & ID token verifier
	provider, err := oidc.NewProvider(ctx, service.Config.OIDCProviderURL)
	if err != nil {
		return err
	}
	service.oidcIDTokenVerifier = provider.Verifier(&oidc.Config{
		ClientID: service.Config.OIDCClientID,
	})

	// Create the OAuth2 config
	service.oidcOAuth2Config = &oauth2.Config{
		ClientID:     service.Config.OIDCClientID,
		ClientSecret: service.Config.OIDCClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  service.Config.BaseAddress + "/v1/auth/oidc/callback",
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	return nil
}

// Handler builds the HTTP handler serving the portal API
func (service *Service) Handler() (http.Handler, error) {
	// Create the HTTP schema writer
	service.writer = &schema.Writer{
		InternalErrorHook: func(request *http.Request, err error) {
			logger := &log.Logger
			if request != nil {
				logger = hlog.FromRequest(request)
			}
			logger.Error().Err(err).Msg("The portal API experienced an unexpected error")
		},
	}

	// Create the token extractor & verifier
	service.extractor = auth.NewExtractor(auth.ExtractorConfig{
		Key:    service.Config.JWTKey,
		Prefix: service.Config.JWTPrefix,
		Cookie: service.Config.JWTCookie,
	})
	if service.Verifier == nil {
		var chain auth.Chain
		if service.Config.JWTSecret != "" {
			chain = append(chain, &auth.HMACVerifier{
				Secret:   []byte(service.Config.JWTSecret),
				Issuer:   service.Config.JWTIssuer,
				Audience: service.Config.JWTAudience,
			})
		}
		if service.oidcIDTokenVerifier != nil {
			chain = append(chain, &auth.OIDCVerifier{Verifier: service.oidcIDTokenVerifier})
		}
		if len(chain) == 0 {
			return nil, errors.New("no token verifier configured")
		}
		service.Verifier = chain
	}

	// Create the message dispatcher
	service.dispatcher = &message.Dispatcher{
		Mailer: service.Mailer,
		SMS:    service.SMS,
		From:   service.Config.MailFrom,
	}
	if service.dispatcher.Mailer == nil {
		service.dispatcher.Mailer = message.LogTransport{}
	}
	if service.dispatcher.SMS == nil {
		service.dispatcher.SMS = message.LogTransport{}
	}

	// Create the HTTP router
	router := chi.NewRouter()
	router.Use(hlog.NewHandler(log.Logger))
	router.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	router.Use(hlog.AccessHandler(func(request *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(request).Info().
			Str("method", request.Method).
			Stringer("url", request.URL).
			Str("client_ip", contact.ClientIP(request)).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request")
	}))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.RedirectSlashes)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{service.Config.AllowedOrigin},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	router.NotFound(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteErrors(writer, http.StatusNotFound, schema.ErrNotFound)
	})
	router.MethodNotAllowed(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteErrors(writer, http.StatusMethodNotAllowed, schema.ErrMethodNotAllowed)
	})

	service.registerEndpoints(router)
	return router, nil
}

func (service *Service) registerEndpoints(router chi.Router) {
	authenticated := func(endpoint http.HandlerFunc) http.HandlerFunc {
		return nest(endpoint, service.MiddlewareVerifyToken, service.MiddlewareFetchUser)
	}
	admin := func(endpoint http.HandlerFunc) http.HandlerFunc {
		return nest(endpoint, service.MiddlewareVerifyToken, service.MiddlewareFetchUser, service.MiddlewareCheckAdmin)
	}

	// Register the OIDC authentication endpoints
	if service.oidcOAuth2Config != nil {
		router.Get("/v1/auth/oidc/login_flow", service.EndpointOIDCLoginFlow)
		router.Get("/v1/auth/oidc/callback", service.EndpointOIDCLoginCallback)
	}
	router.Post("/v1/auth/logout", service.EndpointLogout)

	// Register the user controller endpoints
	router.Get("/v1/me", authenticated(service.EndpointGetSelfUser))
	router.Patch("/v1/me", authenticated(service.EndpointEditSelfUser))
	router.Delete("/v1/me", authenticated(service.EndpointDeleteSelfUser))
	router.Get("/v1/users", admin(service.EndpointGetUsers))
	router.Get("/v1/users/{id}", admin(service.EndpointGetUser))
	router.Patch("/v1/users/{id}", admin(service.EndpointEditUser))
	router.Delete("/v1/users/{id}", admin(service.EndpointDeleteUser))

	// Register the document controller endpoints
	router.Post("/v1/documents", authenticated(service.EndpointCreateDocument))
	router.Get("/v1/documents", authenticated(service.EndpointGetDocuments))
	router.Post("/v1/documents/search", authenticated(service.EndpointSearchDocuments))
	router.Get("/v1/documents/{id}", authenticated(service.EndpointGetDocument))
	router.Put("/v1/documents/{id}", authenticated(service.EndpointReplaceDocument))
	router.Patch("/v1/documents/{id}", authenticated(service.EndpointEditDocument))
	router.Delete("/v1/documents/{id}", authenticated(service.EndpointDeleteDocument))

	// Register the message controller endpoints
	router.Post("/v1/messages", admin(service.EndpointSendMessage))
}

func requestLogger(request *http.Request) *zerolog.Logger {
	return hlog.FromRequest(request)
}
