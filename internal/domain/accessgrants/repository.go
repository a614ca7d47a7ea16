package accessgrants

import (
	"context"
	"time"
)

type Repository interface {
	// Upsert inserta g o, si el par (patient, doctor) ya existe, lo refresca:
	// expires_at = max(actual, g.ExpiresAt) y granted_at = g.GrantedAt.
	// Devuelve la fila resultante; si ya existía, su ID difiere de g.ID.
	// Debe ser atómico respecto de otros Upsert del mismo par.
	Upsert(ctx context.Context, g Grant) (Grant, error)

	GetByID(ctx context.Context, id string) (Grant, error)
	GetByPair(ctx context.Context, patientID, doctorID string) (Grant, error)
	// ExtendExpiry corre expires_at en by según mode en una sola operación atómica
	// contra la fila actual; no pisa un refresh concurrente ni pierde otra extensión.
	ExtendExpiry(ctx context.Context, id string, by time.Duration, mode ExtendMode, now time.Time) (Grant, error)
	Delete(ctx context.Context, id string) error

	// DeleteIfExpired borra solo si expires_at <= now al momento del delete.
	// false => la fila ya no estaba o fue refrescada.
	DeleteIfExpired(ctx context.Context, id string, now time.Time) (bool, error)

	ListActiveByPatient(ctx context.Context, patientID string, now time.Time) ([]Grant, error)
	// Orden: expires_at desc.
	ListActiveByDoctor(ctx context.Context, doctorID string, now time.Time, offset, limit int) ([]Grant, int, error)
	ListExpired(ctx context.Context, now time.Time) ([]Grant, error)
}
