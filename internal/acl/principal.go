// internal/acl/principal.go
//
// Principal variants and request → principal resolution.
//
// Context
// -------
// Three kinds of caller reach Taskgrid, reconciled in a fixed order with the
// first match winning:
//
//  1. Internal service — Authorization: Bearer <shared secret>.  Trusted
//     completely; bypasses every check.
//  2. Project-scoped API key — X-API-Key header.  The key's bound project id
//     is read once here and carried on the principal for the rest of the
//     request; it is never cached across requests.
//  3. Human user — signed session cookie.
//
// An invalid or expired credential at any tier reads as absence at that tier
// and resolution falls through to the next one.  A store failure during the
// API-key lookup is logged and likewise falls through: resolution itself
// never fails a request, it only withholds trust.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package acl

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/taskgrid/taskgrid/internal/apikey"
	"github.com/taskgrid/taskgrid/internal/metrics"
	"github.com/taskgrid/taskgrid/internal/session"
)

// Principal is the resolved trust class of a request.  Exactly one variant is
// active per request; a nil Principal means anonymous.
type Principal interface {
	// Kind names the variant for logs and metrics.
	Kind() string
	// Token is the identity string handed back by the enforcement facade on
	// success: the user id, the API key id, or "service".
	Token() string
}

// ServicePrincipal is a trusted internal caller.  It passes every check.
type ServicePrincipal struct{}

func (ServicePrincipal) Kind() string  { return "service" }
func (ServicePrincipal) Token() string { return "service" }

// APIKeyPrincipal is scoped to exactly one project.
type APIKeyPrincipal struct {
	ProjectID string
	KeyID     string
}

func (APIKeyPrincipal) Kind() string    { return "api_key" }
func (p APIKeyPrincipal) Token() string { return p.KeyID }

// UserPrincipal is a human identity, subject to grant lookups.
type UserPrincipal struct {
	UserID string
}

func (UserPrincipal) Kind() string    { return "user" }
func (p UserPrincipal) Token() string { return p.UserID }

// Resolver turns an *http.Request into a Principal.  Stateless beyond its
// configuration; safe for concurrent use.
type Resolver struct {
	db           *sqlx.DB
	serviceToken string
	sessions     *session.Manager
}

// NewResolver builds a Resolver.  An empty serviceToken disables the service
// tier entirely rather than matching empty bearer tokens.
func NewResolver(db *sqlx.DB, serviceToken string, sessions *session.Manager) *Resolver {
	return &Resolver{db: db, serviceToken: serviceToken, sessions: sessions}
}

// Resolve extracts the caller's principal, or nil for anonymous.
func (rv *Resolver) Resolve(r *http.Request) Principal {
	// Tier 1: internal service credential.
	if tok := bearerToken(r); tok != "" && rv.serviceToken != "" {
		if subtle.ConstantTimeCompare([]byte(tok), []byte(rv.serviceToken)) == 1 {
			metrics.PrincipalResolutionsTotal.WithLabelValues("service").Inc()
			return ServicePrincipal{}
		}
	}

	// Tier 2: project-scoped API key.
	if raw := r.Header.Get("X-API-Key"); raw != "" {
		k, err := apikey.Lookup(r.Context(), rv.db, raw)
		if err != nil {
			// Withhold trust and fall through; the key holder can retry.
			zap.L().Error("api key lookup", zap.Error(err))
		} else if k != nil {
			metrics.PrincipalResolutionsTotal.WithLabelValues("api_key").Inc()
			return APIKeyPrincipal{ProjectID: k.ProjectID, KeyID: k.ID}
		}
	}

	// Tier 3: authenticated user session.
	if rv.sessions != nil {
		if uid, ok := rv.sessions.CurrentUser(r); ok {
			metrics.PrincipalResolutionsTotal.WithLabelValues("user").Inc()
			return UserPrincipal{UserID: uid}
		}
	}

	metrics.PrincipalResolutionsTotal.WithLabelValues("anonymous").Inc()
	return nil
}

// bearerToken extracts the token from an "Authorization: Bearer …" header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
