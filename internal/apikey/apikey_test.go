// internal/apikey/apikey_test.go
//
// Unit-tests for API key lookup using sqlmock.

package apikey

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

const lookupSQL = `SELECT id, project_id FROM api_key WHERE secret_hash = ? AND revoked_at IS NULL LIMIT 1`

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestLookup_MatchesOnSecretHash(t *testing.T) {
	sdb, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(lookupSQL)).
		WithArgs(HashSecret("raw-secret")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id"}).AddRow("k1", "p1"))

	k, err := Lookup(context.Background(), sdb, "raw-secret")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if k == nil || k.ID != "k1" || k.ProjectID != "p1" {
		t.Fatalf("unexpected key: %+v", k)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestLookup_UnknownKeyIsNilNotError(t *testing.T) {
	sdb, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(lookupSQL)).
		WithArgs(HashSecret("nope")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id"}))

	k, err := Lookup(context.Background(), sdb, "nope")
	if err != nil || k != nil {
		t.Fatalf("got (%+v, %v), want (nil, nil)", k, err)
	}
}

func TestLookup_StoreErrorPropagates(t *testing.T) {
	sdb, mock := newMockDB(t)

	boom := errors.New("bad connection")
	mock.ExpectQuery(regexp.QuoteMeta(lookupSQL)).
		WithArgs(HashSecret("raw")).
		WillReturnError(boom)

	if _, err := Lookup(context.Background(), sdb, "raw"); !errors.Is(err, boom) {
		t.Fatalf("store error must propagate, got %v", err)
	}
}

func TestHashSecret_IsStableHex(t *testing.T) {
	a, b := HashSecret("x"), HashSecret("x")
	if a != b || len(a) != 64 {
		t.Fatalf("unexpected hash: %q vs %q", a, b)
	}
	if HashSecret("y") == a {
		t.Fatal("different secrets must hash differently")
	}
}
