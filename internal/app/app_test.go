package app

import (
	"context"
	"testing"

	lite "patient-access/internal/adapters/storage/sqlite"
	"patient-access/internal/domain/audit"
	"patient-access/internal/domain/users"
)

func TestNew_DefaultsToMemory(t *testing.T) {
	a := New(Options{})
	if a.Backend != BackendMemory {
		t.Fatalf("expected memory backend, got %s", a.Backend)
	}
}

func TestNew_SQLiteEndToEnd(t *testing.T) {
	db, err := lite.Open(lite.Config{Path: "file:app_e2e?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := lite.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	a := New(Options{Gorm: db})
	if a.Backend != BackendSQLite {
		t.Fatalf("expected sqlite backend, got %s", a.Backend)
	}
	ctx := context.Background()

	p, err := a.Users.Register(ctx, users.RegisterInput{Name: "Alice", Email: "alice@example.com", Role: users.RolePatient})
	if err != nil {
		t.Fatalf("register patient: %v", err)
	}
	d, err := a.Users.Register(ctx, users.RegisterInput{Name: "House", Email: "house@example.com", Role: users.RoleDoctor})
	if err != nil {
		t.Fatalf("register doctor: %v", err)
	}

	g, err := a.Grants.Grant(ctx, p.ID, "house@example.com")
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if ok, _ := a.Messaging.CanMessage(ctx, d.ID, p.ID); !ok {
		t.Fatalf("expected messaging allowed after grant")
	}

	if err := a.Grants.Revoke(ctx, g.ID, p.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := a.Messaging.CanMessage(ctx, d.ID, p.ID); ok {
		t.Fatalf("expected messaging denied after revoke")
	}

	page, err := a.Audit.QueryForPatient(ctx, p.ID, 0, 10)
	if err != nil {
		t.Fatalf("audit query: %v", err)
	}
	if page.TotalItems != 2 || page.Items[0].Action != audit.ActionAccessRevoked {
		t.Fatalf("unexpected audit trail: %+v", page)
	}
}
