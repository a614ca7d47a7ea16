package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"patient-access/internal/domain/accessgrants"
	"patient-access/internal/domain/audit"
	"patient-access/internal/domain/records"
	"patient-access/internal/domain/users"

	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Path: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedUsers(t *testing.T, store *UsersStore) {
	t.Helper()
	ctx := context.Background()
	for _, u := range []users.User{
		{ID: "p1", Name: "Alice", Email: "alice@example.com", Role: users.RolePatient, CreatedAt: time.Now()},
		{ID: "p2", Name: "Bob", Email: "bob@example.com", Role: users.RolePatient, CreatedAt: time.Now()},
		{ID: "d1", Name: "House", Email: "house@example.com", Role: users.RoleDoctor, CreatedAt: time.Now()},
	} {
		if err := store.Create(ctx, u); err != nil {
			t.Fatalf("seed %s: %v", u.ID, err)
		}
	}
}

func TestUsersStore_CreateAndFind(t *testing.T) {
	db := setupDB(t)
	store := NewUsersStore(db)
	seedUsers(t, store)
	ctx := context.Background()

	u, err := store.FindByEmail(ctx, "HOUSE@example.com")
	if err != nil || u.ID != "d1" || u.Role != users.RoleDoctor {
		t.Fatalf("FindByEmail: %+v err=%v", u, err)
	}
	if _, err := store.FindByID(ctx, "missing"); !errors.Is(err, users.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	dup := users.User{ID: "x", Name: "Dup", Email: "alice@example.com", Role: users.RoleDoctor, CreatedAt: time.Now()}
	if err := store.Create(ctx, dup); !errors.Is(err, users.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestGrantsStore_UpsertKeepsLatestExpiry(t *testing.T) {
	db := setupDB(t)
	store := NewGrantsStore(db)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	first, err := store.Upsert(ctx, accessgrants.Grant{ID: "g1", PatientID: "p1", DoctorID: "d1", ExpiresAt: now.Add(48 * time.Hour), GrantedAt: now, CreatedAt: now})
	if err != nil {
		t.Fatalf("Upsert #1: %v", err)
	}
	second, err := store.Upsert(ctx, accessgrants.Grant{ID: "g2", PatientID: "p1", DoctorID: "d1", ExpiresAt: now.Add(time.Hour), GrantedAt: now.Add(time.Minute), CreatedAt: now})
	if err != nil {
		t.Fatalf("Upsert #2: %v", err)
	}
	if second.ID != first.ID || !second.ExpiresAt.Equal(first.ExpiresAt) {
		t.Fatalf("expected same row with max expiry, got %+v", second)
	}
	if !second.GrantedAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("expected granted_at refreshed, got %v", second.GrantedAt)
	}

	third, err := store.Upsert(ctx, accessgrants.Grant{ID: "g3", PatientID: "p1", DoctorID: "d1", ExpiresAt: now.Add(72 * time.Hour), GrantedAt: now, CreatedAt: now})
	if err != nil || !third.ExpiresAt.Equal(now.Add(72*time.Hour)) {
		t.Fatalf("expected extended expiry, got %+v err=%v", third, err)
	}
}

func TestGrantsStore_ExtendExpiry(t *testing.T) {
	db := setupDB(t)
	store := NewGrantsStore(db)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	base := now.Add(30 * 24 * time.Hour)
	day := 24 * time.Hour

	if _, err := store.Upsert(ctx, accessgrants.Grant{ID: "g1", PatientID: "p1", DoctorID: "d1", ExpiresAt: base, GrantedAt: now, CreatedAt: now}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.ExtendExpiry(ctx, "g1", day, accessgrants.ExtendAdditive, now); err != nil {
				t.Errorf("ExtendExpiry error: %v", err)
			}
		}()
	}
	wg.Wait()

	g, err := store.GetByID(ctx, "g1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if want := base.Add(8 * day); !g.ExpiresAt.Equal(want) {
		t.Fatalf("expected %s, got %s", want, g.ExpiresAt)
	}

	g, err = store.ExtendExpiry(ctx, "g1", day, accessgrants.ExtendFromNow, now)
	if err != nil || !g.ExpiresAt.Equal(base.Add(8*day)) {
		t.Fatalf("from_now must not shorten, got %+v err=%v", g, err)
	}
	if _, err := store.ExtendExpiry(ctx, "missing", day, accessgrants.ExtendAdditive, now); !errors.Is(err, accessgrants.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGrantsStore_ConcurrentGrantsThroughService(t *testing.T) {
	db := setupDB(t)
	usersStore := NewUsersStore(db)
	seedUsers(t, usersStore)
	grants := NewGrantsStore(db)
	auditSvc := audit.NewService(NewAuditStore(db))
	svc := accessgrants.NewService(grants, usersStore, auditSvc, accessgrants.Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Grant(ctx, "p1", "house@example.com"); err != nil {
				t.Errorf("Grant error: %v", err)
			}
		}()
	}
	wg.Wait()

	var count int64
	if err := db.Model(&grantRow{}).Where("patient_id = ? AND doctor_id = ?", "p1", "d1").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one row for the pair, got %d", count)
	}
}

func TestGrantsStore_SweeperExpiresAndAudits(t *testing.T) {
	db := setupDB(t)
	usersStore := NewUsersStore(db)
	seedUsers(t, usersStore)
	grants := NewGrantsStore(db)
	auditStore := NewAuditStore(db)
	auditSvc := audit.NewService(auditStore)
	ctx := context.Background()

	past := time.Now().Add(-31 * 24 * time.Hour)
	if _, err := grants.Upsert(ctx, accessgrants.Grant{ID: "g-old", PatientID: "p1", DoctorID: "d1", ExpiresAt: past.Add(30 * 24 * time.Hour), GrantedAt: past, CreatedAt: past}); err != nil {
		t.Fatalf("seed expired grant: %v", err)
	}
	if _, err := grants.Upsert(ctx, accessgrants.Grant{ID: "g-new", PatientID: "p2", DoctorID: "d1", ExpiresAt: time.Now().Add(time.Hour), GrantedAt: time.Now(), CreatedAt: time.Now()}); err != nil {
		t.Fatalf("seed active grant: %v", err)
	}

	sw := accessgrants.NewSweeper(grants, usersStore, auditSvc, accessgrants.SweeperOptions{})
	res, err := sw.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.Deleted != 1 {
		t.Fatalf("expected one expired grant deleted, got %+v", res)
	}
	if _, err := grants.GetByID(ctx, "g-old"); !errors.Is(err, accessgrants.ErrNotFound) {
		t.Fatalf("expected expired grant gone, got %v", err)
	}
	if _, err := grants.GetByID(ctx, "g-new"); err != nil {
		t.Fatalf("active grant must survive: %v", err)
	}

	patientSide, total, err := auditStore.ListByPatient(ctx, "p1", 0, 10)
	if err != nil || total != 1 || patientSide[0].Action != audit.ActionAccessExpired {
		t.Fatalf("unexpected patient-side audit: %+v total=%d err=%v", patientSide, total, err)
	}
	doctorSide, total, err := auditStore.ListByPatient(ctx, "d1", 0, 10)
	if err != nil || total != 1 || doctorSide[0].ActorRole != audit.RoleSystem {
		t.Fatalf("unexpected doctor-side audit: %+v total=%d err=%v", doctorSide, total, err)
	}
}

func TestRecordsStore_PagesNewestFirst(t *testing.T) {
	db := setupDB(t)
	store := NewRecordsStore(db)
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		typ := records.TypeNote
		if i%2 == 0 {
			typ = records.TypeVitals
		}
		if err := store.Create(ctx, records.Record{
			ID:        fmt.Sprintf("r%d", i),
			PatientID: "p1",
			DoctorID:  "d1",
			Type:      typ,
			Title:     "t",
			CreatedAt: at.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	items, total, err := store.ListByPatient(ctx, "p1", "", 0, 2)
	if err != nil || total != 5 || len(items) != 2 || items[0].ID != "r4" {
		t.Fatalf("unexpected first page: %+v total=%d err=%v", items, total, err)
	}
	vitals, total, err := store.ListByPatient(ctx, "p1", records.TypeVitals, 0, 10)
	if err != nil || total != 3 || len(vitals) != 3 {
		t.Fatalf("unexpected filtered list: %+v total=%d err=%v", vitals, total, err)
	}
}
