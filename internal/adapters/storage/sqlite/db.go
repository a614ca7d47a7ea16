package sqlite

import (
	"fmt"
	"strings"
	"time"

	"patient-access/internal/platform/logger"

	sqlitedriver "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Config struct {
	// Path al archivo .db. Vacío o ":memory:" abre una base en memoria;
	// un DSN "file:..." se usa tal cual.
	Path   string
	LogSQL bool
	Logger logger.Logger
}

// Open abre la base con un único writer: SQLite serializa las escrituras y así
// los upserts concurrentes no chocan con SQLITE_BUSY.
func Open(cfg Config) (*gorm.DB, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	lvl := gormlogger.Silent
	if cfg.LogSQL {
		lvl = gormlogger.Info
	}

	db, err := gorm.Open(sqlitedriver.Open(dsn(cfg.Path)), &gorm.Config{
		Logger: gormlogger.New(gormWriter{log: log.With(map[string]any{"layer": "sqlite"})}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  lvl,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// Migrate crea o ajusta las tablas.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&userRow{}, &grantRow{}, &auditRow{}, &recordRow{})
}

func dsn(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || path == ":memory:" {
		return "file::memory:?cache=shared"
	}
	if strings.HasPrefix(path, "file:") {
		return path
	}
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path)
}

type gormWriter struct {
	log logger.Logger
}

func (w gormWriter) Printf(format string, args ...any) {
	w.log.Debug(fmt.Sprintf(format, args...), nil)
}

func toUnix(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnix(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}
