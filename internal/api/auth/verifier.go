package auth

import (
	"context"
	"errors"
	"fmt"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"time"
)

// ErrInvalidToken is returned by verifiers if a token could not be verified
var ErrInvalidToken = errors.New("invalid token")

// Claims represents the verified information a token carries about its subject
type Claims struct {
	Subject string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Admin   bool   `json:"admin"`
}

// Verifier verifies raw tokens and extracts their claims
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Claims, error)
}

// HMACVerifier verifies HS256 signed JWTs
type HMACVerifier struct {
	Secret   []byte
	Issuer   string
	Audience string
}

var _ Verifier = (*HMACVerifier)(nil)

// Verify parses and validates the given token
func (verifier *HMACVerifier) Verify(_ context.Context, raw string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if verifier.Issuer != "" {
		options = append(options, jwt.WithIssuer(verifier.Issuer))
	}
	if verifier.Audience != "" {
		options = append(options, jwt.WithAudience(verifier.Audience))
	}

	token, err := jwt.Parse(raw, func(_ *jwt.Token) (interface{}, error) {
		return verifier.Secret, nil
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	claims.Subject, _ = mapClaims["sub"].(string)
	claims.Name, _ = mapClaims["name"].(string)
	claims.Email, _ = mapClaims["email"].(string)
	claims.Admin, _ = mapClaims["admin"].(bool)
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// Issue creates a signed token for the given claims that is valid for ttl
func (verifier *HMACVerifier) Issue(claims *Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	mapClaims := jwt.MapClaims{
		"sub":   claims.Subject,
		"name":  claims.Name,
		"email": claims.Email,
		"admin": claims.Admin,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	if verifier.Issuer != "" {
		mapClaims["iss"] = verifier.Issuer
	}
	if verifier.Audience != "" {
		mapClaims["aud"] = verifier.Audience
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims).SignedString(verifier.Secret)
}

// OIDCVerifier verifies ID tokens issued by an OpenID Connect provider.
// The 'admin' claim of ID tokens is ignored.
type OIDCVerifier struct {
	Verifier *oidc.IDTokenVerifier
}

var _ Verifier = (*OIDCVerifier)(nil)

// Verify verifies the given ID token and extracts its claims
func (verifier *OIDCVerifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	idToken, err := verifier.Verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims := &Claims{}
	if err := idToken.Claims(claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims.Subject = idToken.Subject
	// Administrator privileges are never granted by external identity providers
	claims.Admin = false
	return claims, nil
}

// Chain tries multiple verifiers in order and returns the claims of the first one accepting the token
type Chain []Verifier

var _ Verifier = Chain(nil)

// Verify runs all verifiers until one succeeds
func (chain Chain) Verify(ctx context.Context, raw string) (*Claims, error) {
	err := ErrInvalidToken
	for _, verifier := range chain {
		claims, verr := verifier.Verify(ctx, raw)
		if verr == nil {
			return claims, nil
		}
		err = verr
	}
	return nil, err
}
