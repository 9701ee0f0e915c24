package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hypergopher/soundbite"
)

const tokenTTL = 72 * time.Hour

type ctxKey int

const (
	ctxUser ctxKey = iota
	ctxPost
	ctxComment
)

// IssueToken signs a bearer token for the username.
func (a *API) IssueToken(username string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": username,
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	})
	signed, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// parseToken validates a bearer token and returns its subject username.
func (a *API) parseToken(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return "", soundbite.ErrUnauthorized
	}
	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", soundbite.ErrUnauthorized
	}
	return subject, nil
}

// bearerToken extracts the token from the Authorization header. Both
// "Bearer" and the RealWorld-style "Token" schemes are accepted.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	for _, scheme := range []string{"Bearer ", "Token "} {
		if len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
			return strings.TrimSpace(header[len(scheme):])
		}
	}
	return ""
}

// requireAuth resolves the caller from the Authorization header and
// rejects the request with 401 when it cannot.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.authenticate(r)
		if err != nil {
			a.respondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUser, user)))
	})
}

// optionalAuth resolves the caller when a valid token is present and
// continues anonymously otherwise.
func (a *API) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.authenticate(r)
		if err == nil {
			r = r.WithContext(context.WithValue(r.Context(), ctxUser, user))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) authenticate(r *http.Request) (*soundbite.User, error) {
	raw := bearerToken(r)
	if raw == "" {
		return nil, soundbite.ErrUnauthorized
	}
	username, err := a.parseToken(raw)
	if err != nil {
		return nil, err
	}
	user, err := a.service.GetUser(r.Context(), username)
	if err != nil {
		// A token for a user that no longer exists is just a bad token.
		return nil, soundbite.ErrUnauthorized
	}
	return user, nil
}

// currentUser returns the authenticated caller, or nil for anonymous
// requests.
func currentUser(r *http.Request) *soundbite.User {
	user, _ := r.Context().Value(ctxUser).(*soundbite.User)
	return user
}
