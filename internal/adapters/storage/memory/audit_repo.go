package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"patient-access/internal/domain/audit"
)

// auditRepo es append-only. seq desempata entradas con el mismo timestamp.
type auditRepo struct {
	mu      sync.RWMutex
	entries []auditRow
	seq     int64
}

type auditRow struct {
	seq   int64
	entry audit.Entry
}

func NewAuditRepo() audit.Repository {
	return &auditRepo{}
}

func (r *auditRepo) Append(ctx context.Context, e audit.Entry) error {
	if e.ID == "" {
		return errors.New("audit entry id required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	r.entries = append(r.entries, auditRow{seq: r.seq, entry: e})
	return nil
}

func (r *auditRepo) ListByPatient(ctx context.Context, patientID string, offset, limit int) ([]audit.Entry, int, error) {
	return r.list(func(e audit.Entry) bool { return e.PatientID == patientID }, offset, limit)
}

func (r *auditRepo) ListByActor(ctx context.Context, actorID string, offset, limit int) ([]audit.Entry, int, error) {
	return r.list(func(e audit.Entry) bool { return e.ActorID == actorID }, offset, limit)
}

func (r *auditRepo) list(match func(audit.Entry) bool, offset, limit int) ([]audit.Entry, int, error) {
	r.mu.RLock()
	rows := make([]auditRow, 0)
	for _, row := range r.entries {
		if match(row.entry) {
			rows = append(rows, row)
		}
	}
	r.mu.RUnlock()

	// más reciente primero
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.entry.CreatedAt.Equal(b.entry.CreatedAt) {
			return a.seq > b.seq
		}
		return a.entry.CreatedAt.After(b.entry.CreatedAt)
	})

	page, total := window(rows, offset, limit)
	out := make([]audit.Entry, 0, len(page))
	for _, row := range page {
		out = append(out, row.entry)
	}
	return out, total, nil
}
