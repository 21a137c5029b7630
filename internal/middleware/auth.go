package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/userhub/backend/internal/models"
	"github.com/userhub/backend/internal/services"
	"go.uber.org/zap"
)

type contextKey string

const claimsKey contextKey = "claims"

// SessionReader is the view of the current session the middleware needs.
type SessionReader interface {
	Current() *models.Account
	IsCurrent(accountID int) bool
}

type Authenticator struct {
	tokens  *TokenManager
	session SessionReader
	logger  *zap.Logger
}

func NewAuthenticator(tokens *TokenManager, session SessionReader, logger *zap.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, session: session, logger: logger.Named("http")}
}

// ClaimsFromContext returns the claims stored by Authenticate.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok
}

// Authenticate accepts a bearer token only if it is valid, not revoked and
// belongs to the account currently signed in.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			services.SendErrorResponse(w, "Authorization header required", http.StatusUnauthorized, nil)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			services.SendErrorResponse(w, "Invalid authorization header format", http.StatusUnauthorized, nil)
			return
		}

		claims, err := a.tokens.Parse(parts[1])
		if err != nil {
			services.SendErrorResponse(w, "Invalid token", http.StatusUnauthorized, nil)
			return
		}

		revoked, err := a.tokens.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			a.logger.Warn("token blacklist unavailable", zap.Error(err))
		}
		if revoked {
			services.SendErrorResponse(w, "Token has been revoked", http.StatusUnauthorized, nil)
			return
		}

		if !a.session.IsCurrent(claims.AccountID) {
			services.SendErrorResponse(w, "Session expired", http.StatusUnauthorized, nil)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireVerified blocks accounts that have not completed two-factor enrollment.
func (a *Authenticator) RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acct := a.session.Current()
		if acct == nil || !acct.IsVerified {
			services.SendErrorResponse(w, "Two-factor enrollment required", http.StatusForbidden, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAnyRole admits the current account if it holds one of roles.
func (a *Authenticator) RequireAnyRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acct := a.session.Current()
			if acct != nil {
				for _, role := range roles {
					if acct.Roles.Contains(role) {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			services.SendErrorResponse(w, services.ErrAccessDenied.Error(), http.StatusForbidden, nil)
		})
	}
}
