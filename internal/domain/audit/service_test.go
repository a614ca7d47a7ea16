package audit

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

type testRepo struct {
	items []Entry
}

func (r *testRepo) Append(ctx context.Context, e Entry) error {
	r.items = append(r.items, e)
	return nil
}

func (r *testRepo) list(match func(Entry) bool, offset, limit int) ([]Entry, int) {
	out := make([]Entry, 0)
	for i := len(r.items) - 1; i >= 0; i-- {
		if match(r.items[i]) {
			out = append(out, r.items[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := len(out)
	if offset >= total {
		return []Entry{}, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return out[offset:end], total
}

func (r *testRepo) ListByPatient(ctx context.Context, patientID string, offset, limit int) ([]Entry, int, error) {
	items, total := r.list(func(e Entry) bool { return e.PatientID == patientID }, offset, limit)
	return items, total, nil
}

func (r *testRepo) ListByActor(ctx context.Context, actorID string, offset, limit int) ([]Entry, int, error) {
	items, total := r.list(func(e Entry) bool { return e.ActorID == actorID }, offset, limit)
	return items, total, nil
}

func TestService_Append_AssignsServerFields(t *testing.T) {
	repo := &testRepo{}
	svc := NewService(repo)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	e, err := svc.Append(context.Background(), Entry{
		ID:        "client-supplied",
		PatientID: "p1",
		ActorID:   "p1",
		ActorRole: "PATIENT",
		Action:    ActionAccessGranted,
		Details:   "Granted access to Dr. House",
		CreatedAt: now.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if e.ID == "" || e.ID == "client-supplied" {
		t.Fatalf("expected server-assigned id, got %q", e.ID)
	}
	if !e.CreatedAt.Equal(now) {
		t.Fatalf("expected server timestamp, got %s", e.CreatedAt)
	}
	if len(repo.items) != 1 {
		t.Fatalf("expected 1 stored entry, got %d", len(repo.items))
	}
}

func TestService_Append_RejectsInvalid(t *testing.T) {
	svc := NewService(&testRepo{})
	cases := []Entry{
		{ActorID: "a", ActorRole: RoleSystem, Action: ActionAccessExpired},
		{PatientID: "p", ActorRole: RoleSystem, Action: ActionAccessExpired},
		{PatientID: "p", ActorID: "a", Action: ActionAccessExpired},
		{PatientID: "p", ActorID: "a", ActorRole: RoleSystem, Action: Action("DELETED")},
	}
	for _, c := range cases {
		if _, err := svc.Append(context.Background(), c); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", c, err)
		}
	}
}

func TestService_Query_NewestFirstAndPaged(t *testing.T) {
	repo := &testRepo{}
	svc := NewService(repo)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return at }
		if _, err := svc.Append(context.Background(), Entry{
			PatientID: "p1",
			ActorID:   "d1",
			ActorRole: "DOCTOR",
			Action:    ActionRecordViewed,
		}); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}

	page, err := svc.QueryForPatient(context.Background(), "p1", 0, 2)
	if err != nil {
		t.Fatalf("QueryForPatient error: %v", err)
	}
	if page.TotalItems != 5 || page.TotalPages != 3 || !page.HasNext {
		t.Fatalf("unexpected page metadata: %+v", page)
	}
	if !page.Items[0].CreatedAt.After(page.Items[1].CreatedAt) {
		t.Fatalf("expected newest first")
	}

	byActor, err := svc.QueryForActor(context.Background(), "d1", 2, 2)
	if err != nil {
		t.Fatalf("QueryForActor error: %v", err)
	}
	if len(byActor.Items) != 1 || byActor.HasNext {
		t.Fatalf("expected last page with 1 item, got %+v", byActor)
	}

	if _, err := svc.QueryForActor(context.Background(), "", 0, 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty actor")
	}
}
