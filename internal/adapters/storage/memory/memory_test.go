package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"patient-access/internal/domain/accessgrants"
	"patient-access/internal/domain/audit"
	"patient-access/internal/domain/records"
	"patient-access/internal/domain/users"
)

func TestGrantRepo_Upsert_OneRowPerPair(t *testing.T) {
	repo := NewAccessGrantsRepo()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	first, err := repo.Upsert(ctx, accessgrants.Grant{ID: "g1", PatientID: "p1", DoctorID: "d1", ExpiresAt: now.Add(48 * time.Hour), GrantedAt: now, CreatedAt: now})
	if err != nil {
		t.Fatalf("Upsert #1 error: %v", err)
	}

	// vencimiento menor: no acorta
	second, err := repo.Upsert(ctx, accessgrants.Grant{ID: "g2", PatientID: "p1", DoctorID: "d1", ExpiresAt: now.Add(time.Hour), GrantedAt: now.Add(time.Minute), CreatedAt: now})
	if err != nil {
		t.Fatalf("Upsert #2 error: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same row, got %s vs %s", second.ID, first.ID)
	}
	if !second.ExpiresAt.Equal(first.ExpiresAt) {
		t.Fatalf("refresh must not shorten: %v", second.ExpiresAt)
	}
	if !second.GrantedAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("expected granted_at refreshed, got %v", second.GrantedAt)
	}

	if _, err := repo.GetByID(ctx, "g2"); !errors.Is(err, accessgrants.ErrNotFound) {
		t.Fatalf("expected candidate id discarded, got %v", err)
	}
}

func TestGrantRepo_ConcurrentGrantsThroughService(t *testing.T) {
	ctx := context.Background()
	usersRepo := NewUsersRepo()
	_ = usersRepo.Create(ctx, users.User{ID: "p1", Name: "Alice", Email: "alice@example.com", Role: users.RolePatient})
	_ = usersRepo.Create(ctx, users.User{ID: "d1", Name: "House", Email: "house@example.com", Role: users.RoleDoctor})

	repo := NewAccessGrantsRepo()
	auditSvc := audit.NewService(NewAuditRepo())
	svc := accessgrants.NewService(repo, usersRepo, auditSvc, accessgrants.Options{})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Grant(ctx, "p1", "house@example.com"); err != nil {
				t.Errorf("Grant error: %v", err)
			}
		}()
	}
	wg.Wait()

	active, err := repo.ListActiveByPatient(ctx, "p1", time.Now())
	if err != nil {
		t.Fatalf("ListActiveByPatient error: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected exactly one grant row, got %d", len(active))
	}
}

func TestGrantRepo_ExtendExpiry(t *testing.T) {
	repo := NewAccessGrantsRepo()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	base := now.Add(30 * 24 * time.Hour)
	day := 24 * time.Hour

	_, _ = repo.Upsert(ctx, accessgrants.Grant{ID: "g1", PatientID: "p1", DoctorID: "d1", ExpiresAt: base, GrantedAt: now, CreatedAt: now})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.ExtendExpiry(ctx, "g1", day, accessgrants.ExtendAdditive, now); err != nil {
				t.Errorf("ExtendExpiry error: %v", err)
			}
		}()
	}
	wg.Wait()

	g, _ := repo.GetByID(ctx, "g1")
	if want := base.Add(16 * day); !g.ExpiresAt.Equal(want) {
		t.Fatalf("expected %s, got %s", want, g.ExpiresAt)
	}

	g, err := repo.ExtendExpiry(ctx, "g1", day, accessgrants.ExtendFromNow, now)
	if err != nil || !g.ExpiresAt.Equal(base.Add(16*day)) {
		t.Fatalf("from_now must not shorten, got %+v err=%v", g, err)
	}
	if _, err := repo.ExtendExpiry(ctx, "missing", day, accessgrants.ExtendAdditive, now); !errors.Is(err, accessgrants.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGrantRepo_DeleteIfExpired(t *testing.T) {
	repo := NewAccessGrantsRepo()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	_, _ = repo.Upsert(ctx, accessgrants.Grant{ID: "g1", PatientID: "p1", DoctorID: "d1", ExpiresAt: now, GrantedAt: now, CreatedAt: now})
	_, _ = repo.Upsert(ctx, accessgrants.Grant{ID: "g2", PatientID: "p2", DoctorID: "d1", ExpiresAt: now.Add(time.Hour), GrantedAt: now, CreatedAt: now})

	expired, _ := repo.ListExpired(ctx, now)
	if len(expired) != 1 || expired[0].ID != "g1" {
		t.Fatalf("expires_at == now counts as expired, got %+v", expired)
	}

	ok, err := repo.DeleteIfExpired(ctx, "g2", now)
	if err != nil || ok {
		t.Fatalf("active grant must survive, ok=%v err=%v", ok, err)
	}
	ok, err = repo.DeleteIfExpired(ctx, "g1", now)
	if err != nil || !ok {
		t.Fatalf("expected delete, ok=%v err=%v", ok, err)
	}
	// el par queda libre para un nuevo grant
	g, err := repo.Upsert(ctx, accessgrants.Grant{ID: "g3", PatientID: "p1", DoctorID: "d1", ExpiresAt: now.Add(time.Hour), GrantedAt: now, CreatedAt: now})
	if err != nil || g.ID != "g3" {
		t.Fatalf("expected fresh row after delete, got %+v err=%v", g, err)
	}
}

func TestGrantRepo_ListActiveByDoctor_Pages(t *testing.T) {
	repo := NewAccessGrantsRepo()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	for i, p := range []string{"p1", "p2", "p3"} {
		exp := now.Add(time.Duration(i+1) * time.Hour)
		_, _ = repo.Upsert(ctx, accessgrants.Grant{ID: "g-" + p, PatientID: p, DoctorID: "d1", ExpiresAt: exp, GrantedAt: now, CreatedAt: now})
	}

	items, total, err := repo.ListActiveByDoctor(ctx, "d1", now, 0, 2)
	if err != nil {
		t.Fatalf("ListActiveByDoctor error: %v", err)
	}
	if total != 3 || len(items) != 2 || items[0].PatientID != "p3" {
		t.Fatalf("unexpected page: total=%d items=%+v", total, items)
	}
	items, _, _ = repo.ListActiveByDoctor(ctx, "d1", now, 2, 2)
	if len(items) != 1 || items[0].PatientID != "p1" {
		t.Fatalf("unexpected last page: %+v", items)
	}
}

func TestUserRepo_EmailUnique(t *testing.T) {
	repo := NewUsersRepo()
	ctx := context.Background()

	if err := repo.Create(ctx, users.User{ID: "u1", Email: "Ana@Example.com", Role: users.RolePatient}); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := repo.Create(ctx, users.User{ID: "u2", Email: "ana@example.com", Role: users.RoleDoctor}); !errors.Is(err, users.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	u, err := repo.FindByEmail(ctx, " ANA@example.com ")
	if err != nil || u.ID != "u1" {
		t.Fatalf("FindByEmail: %+v err=%v", u, err)
	}
	if _, err := repo.FindByID(ctx, "nope"); !errors.Is(err, users.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAuditRepo_NewestFirstWithTies(t *testing.T) {
	repo := NewAuditRepo()
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	for _, id := range []string{"e1", "e2", "e3"} {
		_ = repo.Append(ctx, audit.Entry{ID: id, PatientID: "p1", ActorID: "d1", Action: audit.ActionRecordViewed, CreatedAt: at})
	}
	_ = repo.Append(ctx, audit.Entry{ID: "e0", PatientID: "p1", ActorID: "d2", Action: audit.ActionRecordViewed, CreatedAt: at.Add(-time.Hour)})

	items, total, err := repo.ListByPatient(ctx, "p1", 0, 10)
	if err != nil {
		t.Fatalf("ListByPatient error: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected 4 entries, got %d", total)
	}
	got := []string{items[0].ID, items[1].ID, items[2].ID, items[3].ID}
	want := []string{"e3", "e2", "e1", "e0"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	byActor, total, _ := repo.ListByActor(ctx, "d2", 0, 10)
	if total != 1 || byActor[0].ID != "e0" {
		t.Fatalf("unexpected actor view: %+v", byActor)
	}
}

func TestRecordRepo_FilterAndOrder(t *testing.T) {
	repo := NewRecordsRepo()
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	_ = repo.Create(ctx, records.Record{ID: "r1", PatientID: "p1", Type: records.TypeNote, CreatedAt: at})
	_ = repo.Create(ctx, records.Record{ID: "r2", PatientID: "p1", Type: records.TypeLabResult, CreatedAt: at.Add(time.Hour)})
	_ = repo.Create(ctx, records.Record{ID: "r3", PatientID: "p2", Type: records.TypeNote, CreatedAt: at})

	items, total, _ := repo.ListByPatient(ctx, "p1", "", 0, 10)
	if total != 2 || items[0].ID != "r2" {
		t.Fatalf("unexpected list: %+v", items)
	}
	items, total, _ = repo.ListByPatient(ctx, "p1", records.TypeNote, 0, 10)
	if total != 1 || items[0].ID != "r1" {
		t.Fatalf("unexpected filtered list: %+v", items)
	}
}
