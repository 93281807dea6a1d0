// internal/web/handlers_test.go
//
// Handler tests: enforcement wiring and grant-payload validation.
//
// Workflow
// --------
// Each test builds the real router over a sqlmock DB, injects a principal
// the way the ResolvePrincipal middleware would, fires an httptest request,
// and asserts status / body.  The SQL mirrors what the acl package tests pin
// down; here we only care that handlers route every decision through the
// facade and reject bad grant payloads.

package web

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/taskgrid/taskgrid/internal/acl"
)

const findGrantsSQL = `SELECT user_id, entity_type, entity_id, role, granted_by, granted_at, expires_at FROM access_grant WHERE user_id = ? AND entity_type = ? AND entity_id = ? AND (expires_at IS NULL OR expires_at > NOW())`

func newHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sdb := sqlx.NewDb(db, "sqlmock")
	guard := acl.NewGuard(acl.NewEngine(sdb), acl.NewResolver(sdb, "", nil))
	return New(sdb, guard, acl.RoleOwner), mock
}

func expectGrants(mock sqlmock.Sqlmock, user string, et acl.EntityType, id string, roles ...string) {
	rows := sqlmock.NewRows([]string{
		"user_id", "entity_type", "entity_id", "role", "granted_by", "granted_at", "expires_at",
	})
	for _, role := range roles {
		rows.AddRow(user, string(et), id, role, "granter", time.Now(), nil)
	}
	mock.ExpectQuery(regexp.QuoteMeta(findGrantsSQL)).
		WithArgs(user, et, id).
		WillReturnRows(rows)
}

func serve(h *Handler, r *http.Request, p acl.Principal) *httptest.ResponseRecorder {
	if p != nil {
		r = r.WithContext(acl.WithPrincipal(r.Context(), p))
	}
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, r)
	return rec
}

func TestGetSecret_AnonymousIs401(t *testing.T) {
	h, _ := newHandler(t)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/secrets/s1", nil), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGetSecret_DirectReadGrantAllows(t *testing.T) {
	h, mock := newHandler(t)

	expectGrants(mock, "bob", acl.EntitySecret, "s1", "read")
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, project_id, name, value, created_at, updated_at FROM secret WHERE id = ? LIMIT 1`,
	)).WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "project_id", "name", "value", "created_at", "updated_at",
		}).AddRow("s1", "p2", "db-password", "ciphertext", time.Now(), time.Now()))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/secrets/s1", nil),
		acl.UserPrincipal{UserID: "bob"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "db-password") {
		t.Errorf("response should carry the secret row: %s", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestGetSecret_InsufficientRoleIs403(t *testing.T) {
	h, mock := newHandler(t)

	// No direct grant, chain resolves, no project grant either.
	expectGrants(mock, "bob", acl.EntitySecret, "s1")
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT project_id FROM secret WHERE id = ? LIMIT 1`,
	)).WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"project_id"}).AddRow("p2"))
	expectGrants(mock, "bob", acl.EntityProject, "p2")

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/secrets/s1", nil),
		acl.UserPrincipal{UserID: "bob"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestCreateGrant_RejectsRoleFromWrongVocabulary(t *testing.T) {
	h, mock := newHandler(t)

	expectGrants(mock, "admin1", acl.EntityProject, "p1", "admin")

	body := `{"user_id":"bob","entity_type":"project","entity_id":"p1","role":"read"}`
	req := httptest.NewRequest(http.MethodPost, "/projects/p1/grants", strings.NewReader(body))
	rec := serve(h, req, acl.UserPrincipal{UserID: "admin1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateGrant_RejectsEntityOutsideProject(t *testing.T) {
	h, mock := newHandler(t)

	expectGrants(mock, "admin1", acl.EntityProject, "p1", "admin")
	// The target secret resolves to a different project.
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT project_id FROM secret WHERE id = ? LIMIT 1`,
	)).WithArgs("s9").
		WillReturnRows(sqlmock.NewRows([]string{"project_id"}).AddRow("p2"))

	body := `{"user_id":"bob","entity_type":"secret","entity_id":"s9","role":"read"}`
	req := httptest.NewRequest(http.MethodPost, "/projects/p1/grants", strings.NewReader(body))
	rec := serve(h, req, acl.UserPrincipal{UserID: "admin1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateGrant_UpsertsAndStampsGrantedBy(t *testing.T) {
	h, mock := newHandler(t)

	expectGrants(mock, "admin1", acl.EntityProject, "p1", "owner")
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT project_id FROM secret WHERE id = ? LIMIT 1`,
	)).WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"project_id"}).AddRow("p1"))
	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO access_grant (user_id, entity_type, entity_id, role, granted_by, granted_at, expires_at) VALUES (?, ?, ?, ?, ?, NOW(), ?) ON DUPLICATE KEY UPDATE granted_by = VALUES(granted_by), granted_at = NOW(), expires_at = VALUES(expires_at)`,
	)).
		WithArgs("bob", acl.EntitySecret, "s1", acl.RoleRead, "admin1", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	body := `{"user_id":"bob","entity_type":"secret","entity_id":"s1","role":"read"}`
	req := httptest.NewRequest(http.MethodPost, "/projects/p1/grants", strings.NewReader(body))
	rec := serve(h, req, acl.UserPrincipal{UserID: "admin1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestListProjects_UserSeesOnlyGrantedProjects(t *testing.T) {
	h, mock := newHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT DISTINCT entity_id FROM access_grant WHERE user_id = ? AND entity_type = ? AND (expires_at IS NULL OR expires_at > NOW()) ORDER BY entity_id`,
	)).WithArgs("alice", acl.EntityProject).
		WillReturnRows(sqlmock.NewRows([]string{"entity_id"}).AddRow("p1"))
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, name, created_by, created_at, updated_at, deleted_at FROM project WHERE id IN (?) AND deleted_at IS NULL`,
	)).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "created_by", "created_at", "updated_at", "deleted_at",
		}).AddRow("p1", "alpha", "alice", time.Now(), time.Now(), nil))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/projects", nil),
		acl.UserPrincipal{UserID: "alice"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "alpha") {
		t.Errorf("response should list the granted project: %s", rec.Body.String())
	}
}
