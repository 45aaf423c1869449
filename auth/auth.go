// Package auth validates the JWT credentials used against the Kollab API.
package auth

import (
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
)

const (
	defaultJWKSCacheTTL = 15 * time.Minute
	envAuthMode         = "AUTH_MODE"
	envAuthSharedSecret = "AUTH_SHARED_SECRET"
	envJWKSCacheTTL     = "JWKS_CACHE_TTL"
)

var (
	ErrMissingAuthorization = errors.New("missing authorization header")
	ErrBadAuthorization     = errors.New("bad auth header")
)

// Verifier validates incoming JWT tokens.
type Verifier struct {
	JWKS         *keyfunc.JWKS
	Audience     string
	Issuer       string
	SharedSecret []byte

	parser      *jwt.Parser
	keyCache    sync.Map
	keyCacheTTL time.Duration
}

type cachedKey struct {
	key       any
	expiresAt time.Time
}

// NewVerifier creates a Verifier. With AUTH_MODE=hs256 tokens are checked
// against AUTH_SHARED_SECRET instead of the JWKS endpoint.
func NewVerifier(jwks *keyfunc.JWKS, audience, issuer string) *Verifier {
	v := &Verifier{JWKS: jwks, Audience: audience, Issuer: issuer}
	v.keyCacheTTL = parseCacheTTL()

	if mode := strings.ToLower(os.Getenv(envAuthMode)); mode != "" {
		switch mode {
		case "hs256":
			secret := os.Getenv(envAuthSharedSecret)
			if secret == "" {
				panic("AUTH_SHARED_SECRET must be set when AUTH_MODE=hs256")
			}
			v.SharedSecret = []byte(secret)
		default:
			panic("unsupported AUTH_MODE value")
		}
	}

	if v.SharedSecret != nil {
		v.parser = jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	} else {
		v.parser = jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}))
	}
	return v
}

func parseCacheTTL() time.Duration {
	ttl := defaultJWKSCacheTTL
	if raw := os.Getenv(envJWKSCacheTTL); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			panic("invalid JWKS_CACHE_TTL")
		}
		ttl = parsed
	}
	return ttl
}

// UserIDFromAuthHeader extracts the user identifier from an Authorization
// header value.
func (v *Verifier) UserIDFromAuthHeader(h string) (string, error) {
	token, err := BearerToken(h)
	if err != nil {
		return "", err
	}
	return v.UserIDFromToken(token)
}

// UserIDFromToken extracts the user identifier from a raw bearer token.
func (v *Verifier) UserIDFromToken(token string) (string, error) {
	if token == "" {
		return "", ErrBadAuthorization
	}

	var parsedToken *jwt.Token
	var err error
	if v.SharedSecret != nil {
		parsedToken, err = v.parser.Parse(token, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return v.SharedSecret, nil
		})
	} else {
		parsedToken, err = v.parser.Parse(token, func(t *jwt.Token) (any, error) {
			return v.keyForToken(t)
		})
	}
	if err != nil {
		return "", err
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}

	now := time.Now().Add(time.Minute).Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return "", errors.New("token expired")
	}
	if !claims.VerifyNotBefore(now, false) {
		return "", errors.New("token not valid yet")
	}
	if !claims.VerifyIssuedAt(now, false) {
		return "", errors.New("token used before issued")
	}
	if v.Audience != "" && !claims.VerifyAudience(v.Audience, false) {
		return "", errors.New("invalid audience")
	}
	if v.Issuer != "" && !claims.VerifyIssuer(v.Issuer, false) {
		return "", errors.New("invalid issuer")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("missing sub")
	}

	return sub, nil
}

func (v *Verifier) keyForToken(token *jwt.Token) (any, error) {
	if v.JWKS == nil {
		return nil, errors.New("jwks not configured")
	}

	kid, _ := token.Header["kid"].(string)
	if kid != "" && v.keyCacheTTL > 0 {
		if cached, ok := v.keyCache.Load(kid); ok {
			entry := cached.(cachedKey)
			if time.Now().Before(entry.expiresAt) {
				return entry.key, nil
			}
			v.keyCache.Delete(kid)
		}
	}

	key, err := v.JWKS.Keyfunc(token)
	if err != nil {
		return nil, err
	}

	if kid != "" && v.keyCacheTTL > 0 {
		v.keyCache.Store(kid, cachedKey{key: key, expiresAt: time.Now().Add(v.keyCacheTTL)})
	}
	return key, nil
}

// BearerToken strips the Bearer scheme from an Authorization header value.
func BearerToken(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrMissingAuthorization
	}
	const prefix = "Bearer "
	if len(trimmed) <= len(prefix) || !strings.EqualFold(trimmed[:len(prefix)], prefix) {
		return "", ErrBadAuthorization
	}
	token := strings.TrimSpace(trimmed[len(prefix):])
	if token == "" {
		return "", ErrBadAuthorization
	}
	return token, nil
}
