package audit

import "context"

// Repository es append-only: no hay Update ni Delete.
type Repository interface {
	Append(ctx context.Context, e Entry) error
	ListByPatient(ctx context.Context, patientID string, offset, limit int) ([]Entry, int, error)
	ListByActor(ctx context.Context, actorID string, offset, limit int) ([]Entry, int, error)
}

// Appender es lo que usan los módulos que emiten eventos.
type Appender interface {
	Append(ctx context.Context, e Entry) (Entry, error)
}
