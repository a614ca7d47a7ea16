package app

import (
	"database/sql"
	"time"

	mem "patient-access/internal/adapters/storage/memory"
	pg "patient-access/internal/adapters/storage/postgres"
	lite "patient-access/internal/adapters/storage/sqlite"
	"patient-access/internal/domain/accessgrants"
	"patient-access/internal/domain/audit"
	"patient-access/internal/domain/messaging"
	"patient-access/internal/domain/records"
	"patient-access/internal/domain/users"
	"patient-access/internal/platform/logger"

	"gorm.io/gorm"
)

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

type Options struct {
	// DB tiene prioridad sobre Gorm; sin ninguno los repos son in-memory.
	DB   *sql.DB
	Gorm *gorm.DB

	Logger        logger.Logger
	Policy        accessgrants.Policy
	SweepInterval time.Duration
}

// App agrupa los servicios ya cableados. Router y comandos CLI comparten esta
// misma construcción.
type App struct {
	Backend string

	Directory users.Directory
	Users     *users.Service
	Audit     *audit.Service
	Grants    *accessgrants.Service
	Sweeper   *accessgrants.Sweeper
	Records   *records.Service
	Messaging *messaging.Gate
}

type repos struct {
	users   users.Repository
	grants  accessgrants.Repository
	audit   audit.Repository
	records records.Repository
}

func New(opts Options) *App {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	backend, r := selectRepos(opts)
	log.Info("storage selected", map[string]any{"backend": backend})

	usersSvc := users.NewService(r.users)
	auditSvc := audit.NewService(r.audit)
	grantsSvc := accessgrants.NewService(r.grants, usersSvc, auditSvc, accessgrants.Options{
		Policy: opts.Policy,
		Logger: log,
	})
	sweeper := accessgrants.NewSweeper(r.grants, usersSvc, auditSvc, accessgrants.SweeperOptions{
		Interval: opts.SweepInterval,
		Logger:   log,
	})
	recordsSvc := records.NewService(r.records, usersSvc, grantsSvc, auditSvc, log)
	gate := messaging.NewGate(usersSvc, grantsSvc)

	return &App{
		Backend:   backend,
		Directory: usersSvc,
		Users:     usersSvc,
		Audit:     auditSvc,
		Grants:    grantsSvc,
		Sweeper:   sweeper,
		Records:   recordsSvc,
		Messaging: gate,
	}
}

func selectRepos(opts Options) (string, repos) {
	switch {
	case opts.DB != nil:
		return BackendPostgres, repos{
			users:   pg.NewUsersRepo(opts.DB),
			grants:  pg.NewAccessGrantsRepo(opts.DB),
			audit:   pg.NewAuditRepo(opts.DB),
			records: pg.NewRecordsRepo(opts.DB),
		}
	case opts.Gorm != nil:
		return BackendSQLite, repos{
			users:   lite.NewUsersStore(opts.Gorm),
			grants:  lite.NewGrantsStore(opts.Gorm),
			audit:   lite.NewAuditStore(opts.Gorm),
			records: lite.NewRecordsStore(opts.Gorm),
		}
	default:
		return BackendMemory, repos{
			users:   mem.NewUsersRepo(),
			grants:  mem.NewAccessGrantsRepo(),
			audit:   mem.NewAuditRepo(),
			records: mem.NewRecordsRepo(),
		}
	}
}
