package portal

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/skybi/restkit/internal/api/schema"
	"github.com/skybi/restkit/internal/random"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	stateLength         = 16
	nonceLength         = 16
	cookieNameState     = "login_state"
	cookieLifetimeState = int(time.Hour.Seconds())
)

var (
	errLoginFlowNotInitiated = &schema.Error{
		Type:    "auth.oidc.notInitiated",
		Message: "No login flow was initiated.",
		Details: map[string]any{},
	}
	errLoginFlowInvalidState = &schema.Error{
		Type:    "auth.oidc.invalidState",
		Message: "The login flow state is invalid or does not match.",
		Details: map[string]any{},
	}
	errLoginFlowInvalidCode = &schema.Error{
		Type:    "auth.oidc.invalidCode",
		Message: "The login code is invalid (expired?).",
		Details: map[string]any{},
	}
	errLoginFlowNonceMismatch = &schema.Error{
		Type:    "auth.oidc.nonceMismatch",
		Message: "The nonces do not match.",
		Details: map[string]any{},
	}
)

type oidcLoginFlowState struct {
	ID         string `json:"id"`
	Nonce      string `json:"nonce"`
	Afterwards string `json:"afterwards"`
}

// EndpointOIDCLoginFlow handles the 'GET /v1/auth/oidc/login_flow?afterwards={path?:/}' endpoint
func (service *Service) EndpointOIDCLoginFlow(writer http.ResponseWriter, request *http.Request) {
	// Create and set the login flow state cookie
	state := oidcLoginFlowState{
		ID:         random.String(stateLength, random.CharsetAlphanumeric),
		Nonce:      random.String(nonceLength, random.CharsetAlphanumeric),
		Afterwards: safeRedirectTarget(request.URL.Query().Get("afterwards")),
	}
	stateJSON, err := json.Marshal(state)
	if err != nil {
		service.writer.WriteInternalError(writer, request, err)
		return
	}
	http.SetCookie(writer, &http.Cookie{
		Name:     cookieNameState,
		Value:    base64.StdEncoding.EncodeToString(stateJSON),
		Path:     "/",
		MaxAge:   cookieLifetimeState,
		Secure:   service.Config.IsSecure(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	// Redirect the user to the authentication endpoint of the OIDC provider
	http.Redirect(writer, request, service.oidcOAuth2Config.AuthCodeURL(state.ID, oidc.Nonce(state.Nonce)), http.StatusFound)
}

// EndpointOIDCLoginCallback handles the 'GET /v1/auth/oidc/callback' endpoint
func (service *Service) EndpointOIDCLoginCallback(writer http.ResponseWriter, request *http.Request) {
	// Extract the state cookie
	stateCookie, err := request.Cookie(cookieNameState)
	if err != nil {
		service.writer.WriteErrors(writer, http.StatusBadRequest, errLoginFlowNotInitiated)
		return
	}
	stateJSON, err := base64.StdEncoding.DecodeString(stateCookie.Value)
	if err != nil {
		service.writer.WriteErrors(writer, http.StatusBadRequest, errLoginFlowInvalidState)
		return
	}
	state := new(oidcLoginFlowState)
	if err := json.Unmarshal(stateJSON, state); err != nil {
		service.writer.WriteErrors(writer, http.StatusBadRequest, errLoginFlowInvalidState)
		return
	}

	// Validate the state ID
	if request.URL.Query().Get("state") != state.ID {
		service.writer.WriteErrors(writer, http.StatusBadRequest, errLoginFlowInvalidState)
		return
	}

	// Unset the state cookie
	service.unsetCookie(writer, cookieNameState)

	// Retrieve the OAuth2 access token and extract and verify the ID token + nonce
	oauth2Token, err := service.oidcOAuth2Config.Exchange(request.Context(), request.URL.Query().Get("code"))
	if err != nil {
		service.writer.WriteErrors(writer, http.StatusForbidden, errLoginFlowInvalidCode)
		return
	}
	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		service.writer.WriteInternalError(writer, request, errors.New("no 'id_token' field in OAuth2 access token; most likely an OIDC provider error"))
		return
	}
	idToken, err := service.oidcIDTokenVerifier.Verify(request.Context(), rawIDToken)
	if err != nil {
		service.writer.WriteInternalError(writer, request, errors.New("received invalid ID token; most likely an OIDC provider error"))
		return
	}
	if idToken.Nonce != state.Nonce {
		service.writer.WriteErrors(writer, http.StatusForbidden, errLoginFlowNonceMismatch)
		return
	}

	// Set the ID token cookie
	http.SetCookie(writer, &http.Cookie{
		Name:     service.Config.JWTCookie,
		Value:    rawIDToken,
		Path:     "/",
		Secure:   service.Config.IsSecure(),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	// Redirect the user to the path specified on login flow initiating
	http.Redirect(writer, request, safeRedirectTarget(state.Afterwards), http.StatusFound)
}

// EndpointLogout handles the 'POST /v1/auth/logout' endpoint
func (service *Service) EndpointLogout(writer http.ResponseWriter, _ *http.Request) {
	service.unsetTokenCookie(writer)
	writer.WriteHeader(http.StatusNoContent)
}

func (service *Service) unsetTokenCookie(writer http.ResponseWriter) {
	if service.Config.JWTCookie != "" {
		service.unsetCookie(writer, service.Config.JWTCookie)
	}
}

func (service *Service) unsetCookie(writer http.ResponseWriter, name string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   service.Config.IsSecure(),
		HttpOnly: true,
	})
}

// safeRedirectTarget only accepts local absolute paths so that the login flow cannot be abused as an open redirect
func safeRedirectTarget(raw string) string {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	if target, err := url.Parse(raw); err != nil || target.IsAbs() || target.Host != "" {
		return "/"
	}
	return raw
}
