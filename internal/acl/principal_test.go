// internal/acl/principal_test.go
//
// Principal resolution order: service → API key → user → anonymous.

package acl

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/taskgrid/taskgrid/internal/apikey"
	"github.com/taskgrid/taskgrid/internal/session"
)

const sessionKey = "0123456789abcdef0123456789abcdef"

// withSession copies a freshly-minted session cookie for userID onto r.
func withSession(t *testing.T, m *session.Manager, r *http.Request, userID string) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	m.LoginUser(rec, r, userID)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func expectKeyLookup(mock sqlmock.Sqlmock, raw string, rows *sqlmock.Rows) {
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, project_id FROM api_key WHERE secret_hash = ? AND revoked_at IS NULL LIMIT 1`,
	)).WithArgs(apikey.HashSecret(raw)).WillReturnRows(rows)
}

func TestResolve_ServiceTierWinsFirst(t *testing.T) {
	sdb, mock := newMockDB(t)
	rv := NewResolver(sdb, "svc-secret", nil)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer svc-secret")
	r.Header.Set("X-API-Key", "also-present") // must never be consulted

	if _, ok := rv.Resolve(r).(ServicePrincipal); !ok {
		t.Fatal("expected ServicePrincipal")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("service match must short-circuit the key lookup: %v", err)
	}
}

func TestResolve_WrongServiceTokenFallsThrough(t *testing.T) {
	sdb, mock := newMockDB(t)
	rv := NewResolver(sdb, "svc-secret", nil)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer wrong")
	r.Header.Set("X-API-Key", "raw-key")

	expectKeyLookup(mock, "raw-key",
		sqlmock.NewRows([]string{"id", "project_id"}).AddRow("k1", "p1"))

	p, ok := rv.Resolve(r).(APIKeyPrincipal)
	if !ok {
		t.Fatal("expected APIKeyPrincipal")
	}
	if p.ProjectID != "p1" || p.KeyID != "k1" {
		t.Fatalf("unexpected binding: %+v", p)
	}
}

func TestResolve_UnknownKeyFallsThroughToSession(t *testing.T) {
	sdb, mock := newMockDB(t)
	sessions := session.New(sessionKey, time.Hour)
	rv := NewResolver(sdb, "", sessions)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-API-Key", "revoked-or-unknown")
	r = withSession(t, sessions, r, "alice")

	expectKeyLookup(mock, "revoked-or-unknown",
		sqlmock.NewRows([]string{"id", "project_id"}))

	p, ok := rv.Resolve(r).(UserPrincipal)
	if !ok {
		t.Fatal("expected UserPrincipal after key tier declined")
	}
	if p.UserID != "alice" {
		t.Fatalf("unexpected user: %+v", p)
	}
}

func TestResolve_NothingPresentIsAnonymous(t *testing.T) {
	sdb, _ := newMockDB(t)
	rv := NewResolver(sdb, "svc-secret", session.New(sessionKey, time.Hour))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if p := rv.Resolve(r); p != nil {
		t.Fatalf("expected nil principal, got %T", p)
	}
}

func TestResolve_EmptyServiceTokenDisablesTier(t *testing.T) {
	sdb, _ := newMockDB(t)
	rv := NewResolver(sdb, "", nil)

	// An empty configured token must not match an empty bearer header.
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer ")
	if p := rv.Resolve(r); p != nil {
		t.Fatalf("expected nil principal, got %T", p)
	}
}

func TestPrincipalTokens(t *testing.T) {
	if got := (ServicePrincipal{}).Token(); got != "service" {
		t.Errorf("service token = %q", got)
	}
	if got := (APIKeyPrincipal{KeyID: "k1", ProjectID: "p1"}).Token(); got != "k1" {
		t.Errorf("api key token = %q", got)
	}
	if got := (UserPrincipal{UserID: "alice"}).Token(); got != "alice" {
		t.Errorf("user token = %q", got)
	}
}
