package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"patient-access/internal/domain/accessgrants"
	"patient-access/internal/domain/users"

	"github.com/google/uuid"
)

// Requiere PG_TEST_DSN apuntando a una base descartable.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set")
	}
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}
	return db
}

func TestAccessGrantsRepo_ConcurrentUpsertSingleRow(t *testing.T) {
	db := openTestDB(t)
	repo := NewAccessGrantsRepo(db)
	ctx := context.Background()

	patientID := "p-" + uuid.NewString()
	doctorID := "d-" + uuid.NewString()
	now := time.Now().UTC().Truncate(time.Microsecond)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Upsert(ctx, accessgrants.Grant{
				ID:        uuid.NewString(),
				PatientID: patientID,
				DoctorID:  doctorID,
				ExpiresAt: now.Add(time.Duration(i) * time.Hour),
				GrantedAt: now,
				CreatedAt: now,
			})
			if err != nil {
				t.Errorf("Upsert error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	g, err := repo.GetByPair(ctx, patientID, doctorID)
	if err != nil {
		t.Fatalf("GetByPair error: %v", err)
	}
	if !g.ExpiresAt.Equal(now.Add(15 * time.Hour)) {
		t.Fatalf("expected max expires_at, got %v", g.ExpiresAt)
	}

	ok, err := repo.DeleteIfExpired(ctx, g.ID, now)
	if err != nil || ok {
		t.Fatalf("active grant must not be deleted, ok=%v err=%v", ok, err)
	}
	if err := repo.Delete(ctx, g.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := repo.GetByID(ctx, g.ID); !errors.Is(err, accessgrants.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAccessGrantsRepo_ExtendExpiryAccumulates(t *testing.T) {
	db := openTestDB(t)
	repo := NewAccessGrantsRepo(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	base := now.Add(30 * 24 * time.Hour)
	day := 24 * time.Hour
	g, err := repo.Upsert(ctx, accessgrants.Grant{
		ID:        uuid.NewString(),
		PatientID: "p-" + uuid.NewString(),
		DoctorID:  "d-" + uuid.NewString(),
		ExpiresAt: base,
		GrantedAt: now,
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(context.Background(), g.ID) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.ExtendExpiry(ctx, g.ID, day, accessgrants.ExtendAdditive, now); err != nil {
				t.Errorf("ExtendExpiry error: %v", err)
			}
		}()
	}
	wg.Wait()

	out, err := repo.ExtendExpiry(ctx, g.ID, day, accessgrants.ExtendFromNow, now)
	if err != nil {
		t.Fatalf("ExtendExpiry from_now error: %v", err)
	}
	if want := base.Add(8 * day); !out.ExpiresAt.Equal(want) {
		t.Fatalf("expected %s, got %s", want, out.ExpiresAt)
	}
	if _, err := repo.ExtendExpiry(ctx, uuid.NewString(), day, accessgrants.ExtendAdditive, now); !errors.Is(err, accessgrants.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUsersRepo_DuplicateEmail(t *testing.T) {
	db := openTestDB(t)
	repo := NewUsersRepo(db)
	ctx := context.Background()

	email := uuid.NewString() + "@example.com"
	u := users.User{ID: uuid.NewString(), Name: "Ana", Email: email, Role: users.RolePatient, CreatedAt: time.Now()}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	u.ID = uuid.NewString()
	if err := repo.Create(ctx, u); !errors.Is(err, users.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}
