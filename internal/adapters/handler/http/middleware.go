package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
)

type contextKey string

const MemberKey contextKey = "member"

// Authenticator resolves the member behind an HS256 token. The token subject
// is the member identity; the owner identity may run admin routes.
type Authenticator struct {
	secret  []byte
	ownerID string
	members ports.MemberService
}

func NewAuthenticator(secret string, ownerID string, members ports.MemberService) *Authenticator {
	return &Authenticator{
		secret:  []byte(secret),
		ownerID: ownerID,
		members: members,
	}
}

func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			http.Error(w, "Unauthorized: missing token", http.StatusUnauthorized)
			return
		}

		identity, err := a.subject(raw)
		if err != nil {
			http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
			return
		}

		member, err := a.members.GetOrCreate(r.Context(), identity)
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := contextWithMember(r.Context(), member)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireOwner must run after Authenticate.
func (a *Authenticator) RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		member, ok := memberFrom(r)
		if !ok {
			http.Error(w, "Unauthorized: missing member context", http.StatusUnauthorized)
			return
		}
		if a.ownerID == "" || member.Identity != a.ownerID {
			http.Error(w, "Forbidden: owner only", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) subject(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("invalid subject: %w", err)
	}
	if strings.TrimSpace(sub) == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

// bearerToken reads the Authorization header, falling back to the
// access_token cookie.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}
