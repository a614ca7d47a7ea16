package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"patient-access/internal/domain/accessgrants"
)

type grantRepo struct {
	mu     sync.RWMutex
	byID   map[string]accessgrants.Grant
	byPair map[pairKey]string
}

type pairKey struct {
	patientID string
	doctorID  string
}

func NewAccessGrantsRepo() accessgrants.Repository {
	return &grantRepo{
		byID:   make(map[string]accessgrants.Grant),
		byPair: make(map[pairKey]string),
	}
}

// Upsert corre bajo el lock de escritura: dos grants concurrentes del mismo par
// terminan en una sola fila.
func (r *grantRepo) Upsert(ctx context.Context, g accessgrants.Grant) (accessgrants.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g.ID == "" {
		return accessgrants.Grant{}, errors.New("grant id required")
	}

	key := pairKey{patientID: g.PatientID, doctorID: g.DoctorID}
	if id, ok := r.byPair[key]; ok {
		cur := r.byID[id]
		if g.ExpiresAt.After(cur.ExpiresAt) {
			cur.ExpiresAt = g.ExpiresAt
		}
		cur.GrantedAt = g.GrantedAt
		r.byID[id] = cur
		return cur, nil
	}

	r.byID[g.ID] = g
	r.byPair[key] = g.ID
	return g, nil
}

func (r *grantRepo) GetByID(ctx context.Context, id string) (accessgrants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byID[id]
	if !ok {
		return accessgrants.Grant{}, accessgrants.ErrNotFound
	}
	return g, nil
}

func (r *grantRepo) GetByPair(ctx context.Context, patientID, doctorID string) (accessgrants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byPair[pairKey{patientID: patientID, doctorID: doctorID}]
	if !ok {
		return accessgrants.Grant{}, accessgrants.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *grantRepo) ExtendExpiry(ctx context.Context, id string, by time.Duration, mode accessgrants.ExtendMode, now time.Time) (accessgrants.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[id]
	if !ok {
		return accessgrants.Grant{}, accessgrants.ErrNotFound
	}
	cur.ExpiresAt = mode.NextExpiry(cur.ExpiresAt, by, now)
	r.byID[id] = cur
	return cur, nil
}

func (r *grantRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.byID[id]
	if !ok {
		return accessgrants.ErrNotFound
	}
	r.remove(g)
	return nil
}

func (r *grantRepo) DeleteIfExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.byID[id]
	if !ok || g.ActiveAt(now) {
		return false, nil
	}
	r.remove(g)
	return true, nil
}

// remove asume el lock tomado.
func (r *grantRepo) remove(g accessgrants.Grant) {
	delete(r.byID, g.ID)
	delete(r.byPair, pairKey{patientID: g.PatientID, doctorID: g.DoctorID})
}

func (r *grantRepo) ListActiveByPatient(ctx context.Context, patientID string, now time.Time) ([]accessgrants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]accessgrants.Grant, 0)
	for _, g := range r.byID {
		if g.PatientID == patientID && g.ActiveAt(now) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.After(out[j].ExpiresAt) })
	return out, nil
}

func (r *grantRepo) ListActiveByDoctor(ctx context.Context, doctorID string, now time.Time, offset, limit int) ([]accessgrants.Grant, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]accessgrants.Grant, 0)
	for _, g := range r.byID {
		if g.DoctorID == doctorID && g.ActiveAt(now) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ExpiresAt.After(out[j].ExpiresAt)
	})
	items, total := window(out, offset, limit)
	return items, total, nil
}

func (r *grantRepo) ListExpired(ctx context.Context, now time.Time) ([]accessgrants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]accessgrants.Grant, 0)
	for _, g := range r.byID {
		if !g.ActiveAt(now) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}
