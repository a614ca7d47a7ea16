package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"patient-access/internal/domain/records"
)

type recordRepo struct {
	mu    sync.RWMutex
	byID  map[string]records.Record
	order []string
}

func NewRecordsRepo() records.Repository {
	return &recordRepo{
		byID: make(map[string]records.Record),
	}
}

func (r *recordRepo) Create(ctx context.Context, rec records.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		return errors.New("record id required")
	}
	if _, exists := r.byID[rec.ID]; exists {
		return errors.New("record already exists")
	}
	r.byID[rec.ID] = rec
	r.order = append(r.order, rec.ID)
	return nil
}

func (r *recordRepo) ListByPatient(ctx context.Context, patientID string, typ records.RecordType, offset, limit int) ([]records.Record, int, error) {
	r.mu.RLock()
	out := make([]records.Record, 0)
	// recorrido en orden inverso de inserción para que el sort estable deje
	// primero el último creado ante timestamps iguales
	for i := len(r.order) - 1; i >= 0; i-- {
		rec := r.byID[r.order[i]]
		if rec.PatientID != patientID {
			continue
		}
		if typ != "" && rec.Type != typ {
			continue
		}
		out = append(out, rec)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	items, total := window(out, offset, limit)
	return items, total, nil
}
