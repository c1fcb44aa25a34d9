package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
)

// maxBodyPeek is the maximum amount of body bytes read when looking for the credentials inside the request body
const maxBodyPeek = 1 << 20

var (
	// ErrNoCredentials is returned if the authorization value only consists of the prefix
	ErrNoCredentials = errors.New("invalid authorization value: no credentials provided")

	// ErrCredentialsContainSpaces is returned if the credentials string contains spaces
	ErrCredentialsContainSpaces = errors.New("invalid authorization value: credentials string should not contain spaces")
)

// ExtractorConfig configures where an Extractor looks for the token
type ExtractorConfig struct {
	// Key is the name of both the header and the JSON body field carrying the authorization value
	Key string
	// Prefix is the (case-insensitive) scheme word preceding the token; an empty prefix means the value is the token
	Prefix string
	// Cookie is the name of the cookie used if neither the body nor the header carry an authorization value
	Cookie string
}

// DefaultExtractorConfig returns the default extractor configuration
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Key:    "Authorization",
		Prefix: "JWT",
	}
}

// Extractor extracts raw tokens out of HTTP requests
type Extractor struct {
	config ExtractorConfig
}

// NewExtractor creates a new extractor
func NewExtractor(config ExtractorConfig) *Extractor {
	if config.Key == "" {
		config.Key = "Authorization"
	}
	return &Extractor{config: config}
}

// Authorization returns the raw authorization value of a request.
// A string field named like the configured key inside a JSON body takes precedence over the header of the same name.
// The request body is restored afterwards so that handlers can still read it.
func (extractor *Extractor) Authorization(request *http.Request) string {
	if value := extractor.fromBody(request); value != "" {
		return value
	}
	return request.Header.Get(extractor.config.Key)
}

func (extractor *Extractor) fromBody(request *http.Request) string {
	if request.Body == nil || request.Body == http.NoBody {
		return ""
	}
	mediaType, _, _ := mime.ParseMediaType(request.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return ""
	}

	raw, err := io.ReadAll(io.LimitReader(request.Body, maxBodyPeek))
	rest := request.Body
	request.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(raw), rest), Closer: rest}
	if err != nil {
		return ""
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ""
	}
	var value string
	if err := json.Unmarshal(fields[extractor.config.Key], &value); err != nil {
		return ""
	}
	return value
}

type readCloser struct {
	io.Reader
	io.Closer
}

// Token extracts the raw token out of a request.
// An empty token and a nil error mean that the request carries no credentials for this scheme.
func (extractor *Extractor) Token(request *http.Request) (string, error) {
	words := strings.Fields(extractor.Authorization(request))
	if len(words) == 0 {
		if extractor.config.Cookie != "" {
			if cookie, err := request.Cookie(extractor.config.Cookie); err == nil {
				return cookie.Value, nil
			}
		}
		return "", nil
	}

	if extractor.config.Prefix == "" {
		words = append([]string{""}, words...)
	} else if !strings.EqualFold(words[0], extractor.config.Prefix) {
		return "", nil
	}

	switch {
	case len(words) == 1:
		return "", ErrNoCredentials
	case len(words) > 2:
		return "", ErrCredentialsContainSpaces
	}
	return words[1], nil
}
