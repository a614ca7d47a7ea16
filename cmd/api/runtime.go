package main

import (
	"context"
	"database/sql"
	"fmt"

	"patient-access/internal/adapters/auth/jwtauth"
	"patient-access/internal/adapters/auth/remote"
	pg "patient-access/internal/adapters/storage/postgres"
	lite "patient-access/internal/adapters/storage/sqlite"
	"patient-access/internal/app"
	"patient-access/internal/domain/accessgrants"
	"patient-access/internal/platform/config"
	"patient-access/internal/platform/logger"
	"patient-access/internal/ports/auth"

	"gorm.io/gorm"
)

// runtime es lo que comparten los comandos: config, logger y stores abiertos.
type runtime struct {
	cfg  config.Config
	log  logger.Logger
	db   *sql.DB
	gorm *gorm.DB
}

func newRuntime() (*runtime, error) {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	rt := &runtime{cfg: cfg, log: log}

	switch {
	case cfg.DatabaseURL != "":
		db, err := pg.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		rt.db = db
	case cfg.SQLitePath != "":
		db, err := lite.Open(lite.Config{Path: cfg.SQLitePath, Logger: log})
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		rt.gorm = db
	}
	return rt, nil
}

// migrate aplica el schema del backend configurado. In-memory no necesita nada.
func (rt *runtime) migrate(ctx context.Context) (string, error) {
	switch {
	case rt.db != nil:
		return app.BackendPostgres, pg.Migrate(ctx, rt.db)
	case rt.gorm != nil:
		return app.BackendSQLite, lite.Migrate(rt.gorm)
	default:
		return app.BackendMemory, nil
	}
}

func (rt *runtime) app() *app.App {
	return app.New(app.Options{
		DB:     rt.db,
		Gorm:   rt.gorm,
		Logger: rt.log,
		Policy: accessgrants.Policy{
			GrantTTL:      rt.cfg.GrantTTL,
			ExtendMode:    accessgrants.ParseExtendMode(rt.cfg.ExtendMode),
			MaxExtendDays: rt.cfg.MaxExtendDays,
		},
		SweepInterval: rt.cfg.SweepInterval,
	})
}

// verifier: JWT_SECRET, luego AUTH_VERIFY_URL; sin ninguno => nil (modo dev).
func (rt *runtime) verifier() (auth.AuthVerifier, error) {
	switch {
	case rt.cfg.JWTSecret != "":
		v, err := jwtauth.NewVerifier(rt.cfg.JWTSecret, rt.cfg.JWTIssuer)
		if err != nil {
			return nil, err
		}
		return v, nil
	case rt.cfg.AuthVerifyURL != "":
		v, err := remote.NewVerifier(remote.Config{
			VerifyURL: rt.cfg.AuthVerifyURL,
			APIKey:    rt.cfg.AuthAPIKey,
		})
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, nil
	}
}

func (rt *runtime) close() {
	if rt.db != nil {
		_ = rt.db.Close()
	}
	if rt.gorm != nil {
		if sqlDB, err := rt.gorm.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
