package sqlite

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/artpar/valigate/adapters/clock"
	"github.com/artpar/valigate/ports"
)

func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "valigate-test-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	tmpfile.Close()

	db, err := Open(tmpfile.Name())
	if err != nil {
		os.Remove(tmpfile.Name())
		t.Fatalf("open database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		os.Remove(tmpfile.Name())
		t.Fatalf("migrate: %v", err)
	}

	return db, func() {
		db.Close()
		os.Remove(tmpfile.Name())
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestMigrate_RecordsLedger(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE version = '001_models'`).Scan(&n); err != nil {
		t.Fatalf("query ledger: %v", err)
	}
	if n != 1 {
		t.Errorf("ledger rows for 001_models = %d, want 1", n)
	}
}

func TestModelStore_PutGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewModelStore(db, clock.NewFake(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))
	ctx := context.Background()

	if err := store.Put(ctx, "order", 1, `{"total":"N"}`); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := store.Get(ctx, "order", 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != `{"total":"N"}` {
		t.Errorf("Get = %q", got)
	}

	if _, err := store.Get(ctx, "order", 9); !errors.Is(err, ports.ErrModelNotFound) {
		t.Errorf("Get missing version: %v", err)
	}
	if _, err := store.Get(ctx, "invoice", 1); !errors.Is(err, ports.ErrModelNotFound) {
		t.Errorf("Get missing name: %v", err)
	}
}

func TestModelStore_VersionExists(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewModelStore(db, clock.Real{})
	ctx := context.Background()

	if err := store.Put(ctx, "order", 1, "v1"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, "order", 1, "v1-again"); !errors.Is(err, ports.ErrVersionExists) {
		t.Errorf("duplicate Put: %v", err)
	}
	// Stored rows are append-only; the rejected write changes nothing.
	got, err := store.Get(ctx, "order", 1)
	if err != nil || got != "v1" {
		t.Errorf("Get after duplicate Put = (%q, %v)", got, err)
	}
}

func TestModelStore_GetLatest(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewModelStore(db, clock.Real{})
	ctx := context.Background()

	if _, _, err := store.GetLatest(ctx, "order"); !errors.Is(err, ports.ErrModelNotFound) {
		t.Errorf("GetLatest on empty store: %v", err)
	}

	for v := 1; v <= 3; v++ {
		if err := store.Put(ctx, "order", v, "body"); err != nil {
			t.Fatalf("Put v%d: %v", v, err)
		}
	}
	body, version, err := store.GetLatest(ctx, "order")
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if version != 3 || body != "body" {
		t.Errorf("GetLatest = (%q, %d)", body, version)
	}
}

func TestModelStore_ListVersions(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewModelStore(db, clock.Real{})
	ctx := context.Background()

	got, err := store.ListVersions(ctx, "order")
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListVersions on empty store = %v", got)
	}

	for _, v := range []int{2, 1, 3} {
		if err := store.Put(ctx, "order", v, "body"); err != nil {
			t.Fatalf("Put v%d: %v", v, err)
		}
	}
	got, err = store.ListVersions(ctx, "order")
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if want := []int{3, 2, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("ListVersions = %v, want %v", got, want)
	}
}

func TestModelStore_NamesAreIndependent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewModelStore(db, clock.Real{})
	ctx := context.Background()

	if err := store.Put(ctx, "order", 1, "order-v1"); err != nil {
		t.Fatalf("Put order: %v", err)
	}
	if err := store.Put(ctx, "invoice", 1, "invoice-v1"); err != nil {
		t.Fatalf("Put invoice: %v", err)
	}

	got, err := store.Get(ctx, "invoice", 1)
	if err != nil || got != "invoice-v1" {
		t.Errorf("Get invoice = (%q, %v)", got, err)
	}
	versions, err := store.ListVersions(ctx, "order")
	if err != nil || len(versions) != 1 {
		t.Errorf("ListVersions order = (%v, %v)", versions, err)
	}
}
