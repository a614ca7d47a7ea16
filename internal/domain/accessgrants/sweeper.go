package accessgrants

import (
	"context"
	"fmt"
	"time"

	"patient-access/internal/domain/audit"
	"patient-access/internal/domain/users"
	"patient-access/internal/observability/metrics"
	"patient-access/internal/platform/logger"
)

const DefaultSweepInterval = time.Hour

type SweepResult struct {
	Scanned      int
	Deleted      int
	AuditSkipped int
	Failed       int
}

type SweeperOptions struct {
	Interval time.Duration
	Logger   logger.Logger
}

// Sweeper retira los grants vencidos y deja dos entradas ACCESS_EXPIRED por cada uno
// (una para el paciente y otra para el doctor).
type Sweeper struct {
	repo     Repository
	users    users.Directory
	audit    audit.Appender
	interval time.Duration
	log      logger.Logger
	now      func() time.Time
}

func NewSweeper(repo Repository, dir users.Directory, auditLog audit.Appender, opts SweeperOptions) *Sweeper {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Sweeper{
		repo:     repo,
		users:    dir,
		audit:    auditLog,
		interval: interval,
		log:      log.With(map[string]any{"module": "accessgrants", "layer": "worker"}),
		now:      time.Now,
	}
}

// Run corre una pasada inmediata y luego una por intervalo hasta que ctx se cancele.
// Un error en una pasada se loguea y no corta el loop.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Info("expiration sweeper started", map[string]any{"interval": s.interval.String()})

	_, _ = s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("expiration sweeper stopped", nil)
			return
		case <-ticker.C:
			_, _ = s.RunOnce(ctx)
		}
	}
}

// RunOnce es idempotente: una segunda pasada sin nuevos vencidos no borra ni audita nada.
func (s *Sweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := s.now()

	expired, err := s.repo.ListExpired(ctx, now)
	if err != nil {
		metrics.SweepRunsTotal.WithLabelValues("error").Inc()
		s.log.Error("expired grants list failed", map[string]any{
			"event": "sweep_list_failed",
			"error": err,
		})
		return res, fmt.Errorf("list expired grants: %w", err)
	}
	res.Scanned = len(expired)

	for _, g := range expired {
		if err := ctx.Err(); err != nil {
			metrics.SweepRunsTotal.WithLabelValues("canceled").Inc()
			return res, err
		}
		s.expire(ctx, g, now, &res)
	}

	metrics.SweepRunsTotal.WithLabelValues("ok").Inc()
	metrics.SweepExpiredTotal.Add(float64(res.Deleted))

	if res.Scanned > 0 {
		s.log.Info("expiration sweep finished", map[string]any{
			"event":         "sweep_finished",
			"scanned":       res.Scanned,
			"deleted":       res.Deleted,
			"audit_skipped": res.AuditSkipped,
			"failed":        res.Failed,
		})
	}
	return res, nil
}

func (s *Sweeper) expire(ctx context.Context, g Grant, now time.Time, res *SweepResult) {
	patient, perr := s.users.FindByID(ctx, g.PatientID)
	doctor, derr := s.users.FindByID(ctx, g.DoctorID)

	// Borrado condicional: si otro proceso ya lo borró o el paciente lo refrescó, no auditamos.
	deleted, err := s.repo.DeleteIfExpired(ctx, g.ID, now)
	if err != nil {
		res.Failed++
		s.log.Error("expired grant delete failed", map[string]any{
			"event":    "sweep_delete_failed",
			"grant_id": g.ID,
			"error":    err,
		})
		return
	}
	if !deleted {
		return
	}
	res.Deleted++

	if perr != nil || derr != nil {
		res.AuditSkipped++
		s.log.Warn("expired grant removed without audit (user lookup failed)", map[string]any{
			"event":         "sweep_audit_skipped",
			"grant_id":      g.ID,
			"patient_id":    g.PatientID,
			"doctor_id":     g.DoctorID,
			"patient_error": perr,
			"doctor_error":  derr,
		})
		return
	}

	entries := []audit.Entry{
		{
			PatientID:   patient.ID,
			PatientName: patient.Name,
			ActorID:     patient.ID,
			ActorName:   patient.Name,
			ActorRole:   audit.RoleSystem,
			Action:      audit.ActionAccessExpired,
			Details:     fmt.Sprintf("Access to Dr. %s expired automatically", doctor.Name),
		},
		{
			PatientID:   doctor.ID,
			PatientName: doctor.Name,
			ActorID:     doctor.ID,
			ActorName:   doctor.Name,
			ActorRole:   audit.RoleSystem,
			Action:      audit.ActionAccessExpired,
			Details:     fmt.Sprintf("Access to %s's records expired automatically", patient.Name),
		},
	}
	for _, e := range entries {
		if _, err := s.audit.Append(ctx, e); err != nil {
			res.Failed++
			s.log.Error("expired grant audit failed", map[string]any{
				"event":    "sweep_audit_failed",
				"grant_id": g.ID,
				"error":    err,
			})
		}
	}
}
