package router

import (
	"net/http"
	"time"

	_ "patient-access/docs"
	"patient-access/internal/app"
	"patient-access/internal/domain/accessgrants"
	"patient-access/internal/domain/audit"
	"patient-access/internal/domain/messaging"
	"patient-access/internal/domain/records"
	"patient-access/internal/domain/users"
	"patient-access/internal/middleware"
	"patient-access/internal/platform/logger"
	"patient-access/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// App ya cableada; si es nil se arma una in-memory.
	App    *app.App
	Logger logger.Logger

	CORSOrigins []string
	// 0 desactiva el rate limit.
	RateLimitPerMinute int
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	a := opts.App
	if a == nil {
		a = app.New(app.Options{Logger: log})
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if opts.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(opts.RateLimitPerMinute, time.Minute))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: originsOrAll(opts.CORSOrigins),
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Authorization", "Content-Type", "X-Request-Id",
			middleware.HeaderDebugUserID, middleware.HeaderDebugUserRole,
		},
		MaxAge: 300,
	}))
	r.Use(middleware.WithMetrics)
	r.Use(middleware.AuthContext(opts.AuthVerifier, log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Rutas por módulo
	users.RegisterRoutes(r, a.Users)
	accessgrants.RegisterRoutes(r, a.Grants, a.Directory)
	audit.RegisterRoutes(r, a.Audit, a.Directory)
	records.RegisterRoutes(r, a.Records)
	messaging.RegisterRoutes(r, a.Messaging)

	return r
}

func originsOrAll(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
