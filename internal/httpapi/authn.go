package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"crewbase.org/internal/identity"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// withAuth resolves the bearer access token into a principal and stores it on
// the context. Every failure produces the same 401 body.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeUnauthenticated(w, r)
			return
		}
		user, err := a.identity.Resolve(r.Context(), token)
		if err != nil {
			if errors.Is(err, identity.ErrUnauthenticated) {
				writeUnauthenticated(w, r)
				return
			}
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}
		ctx := identity.ContextWithPrincipal(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// principal returns the authenticated user or fails the request. withAuth
// guarantees presence on protected routes; the nil check guards misuse.
func (a *API) principal(w http.ResponseWriter, r *http.Request) (*identity.User, bool) {
	user, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, r)
		return nil, false
	}
	return user, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
