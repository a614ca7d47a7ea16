package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"patient-access/internal/adapters/auth/jwtauth"
	"patient-access/internal/observability/metrics"
	"patient-access/internal/ports/auth"
	"patient-access/internal/router"

	"github.com/spf13/cobra"
)

var errNoSecret = errors.New("JWT_SECRET is required to mint tokens")

func serveCmd() *cobra.Command {
	var noSweeper bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the expiration sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.close()
			return runServer(rt, !noSweeper)
		},
	}
	cmd.Flags().BoolVar(&noSweeper, "no-sweeper", false, "Do not run the background expiration sweeper")
	return cmd
}

func runServer(rt *runtime, withSweeper bool) error {
	log := rt.log
	metrics.MustRegister(rt.cfg.AppName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := rt.migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	verifier, err := rt.verifier()
	if err != nil {
		return fmt.Errorf("auth verifier: %w", err)
	}
	if verifier == nil {
		log.Warn("no auth verifier configured, running in dev mode (X-Debug-User-ID)", nil)
	}

	a := rt.app()

	if withSweeper {
		// corre antes del rt.close() diferido en serveCmd
		defer startSweeper(ctx, a.Sweeper)()
	}

	srv := &http.Server{
		Addr: rt.cfg.Addr,
		Handler: router.NewRouter(router.Options{
			AuthVerifier:       verifier,
			App:                a,
			Logger:             log,
			CORSOrigins:        rt.cfg.CORSOrigins,
			RateLimitPerMinute: rt.cfg.RateLimitPerMinute,
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", map[string]any{
			"event":   "http_server_starting",
			"addr":    rt.cfg.Addr,
			"backend": a.Backend,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", map[string]any{"event": "http_server_stopping"})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type sweeperRunner interface {
	Run(ctx context.Context)
}

// startSweeper lanza el loop y devuelve un stop que lo cancela y espera a que termine.
func startSweeper(ctx context.Context, s sweeperRunner) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Run(ctx)
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run a single expiration sweep and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			res, err := rt.app().Sweeper.RunOnce(cmd.Context())
			if err != nil {
				return fmt.Errorf("sweep failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d deleted=%d audit_skipped=%d failed=%d\n",
				res.Scanned, res.Deleted, res.AuditSkipped, res.Failed)
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema for the configured backend (DB_DSN or SQLITE_PATH)",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			backend, err := rt.migrate(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", backend)
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with JWT_SECRET (dev/testing)",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			if rt.cfg.JWTSecret == "" {
				return errNoSecret
			}
			v, err := jwtauth.NewVerifier(rt.cfg.JWTSecret, rt.cfg.JWTIssuer)
			if err != nil {
				return err
			}
			tok, err := v.Sign(auth.Claims{UserID: userID, Email: email, Role: role}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User id (sub claim)")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().StringVar(&role, "role", "", "Role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
