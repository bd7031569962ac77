package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/presence-payroll-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/presence-payroll-go/internal/handler/http/response"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/metrics"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/httprate"
	"github.com/go-chi/jwtauth/v5"
	"github.com/unrolled/secure"
)

type RouterConfig struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	Production     bool
	// CommitRateLimit is the number of commit requests allowed per client per minute.
	CommitRateLimit int
	Metrics         *metrics.Metrics
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, payrollHandler PayrollHandler, attendanceHandler AttendanceHandler) *chi.Mux {
	r := chi.NewRouter()
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        cfg.Production,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !cfg.Production,
	})

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(secureMiddleware.Handler)

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))
	r.Use(cfg.Metrics.Middleware)

	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	commitLimit := cfg.CommitRateLimit
	if commitLimit <= 0 {
		commitLimit = 30
	}
	commitLimiter := httprate.Limit(commitLimit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			response.TooManyRequests(w, "Too many commit requests, slow down")
		}),
	)

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			// Employees read their own records; admins read anyone's.
			self := middleware.SelfOrAdmin("employeeID")

			r.Route("/attendance", func(r chi.Router) {
				r.With(self).Get("/employees/{employeeID}/days", attendanceHandler.GetDays)
				r.With(middleware.AdminOnly).Post("/days", attendanceHandler.ListDays)
			})

			r.Route("/payroll", func(r chi.Router) {
				r.With(self).Get("/employees/{employeeID}/preview", payrollHandler.Preview)
				r.With(self).Get("/employees/{employeeID}/profile", payrollHandler.GetProfile)
				r.With(self).Get("/employees/{employeeID}/advances", payrollHandler.ListAdvances)
				r.With(self).Get("/employees/{employeeID}/slips", payrollHandler.ListSlips)
				r.Get("/slips/{id}", payrollHandler.GetSlip)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)

					r.With(commitLimiter).Post("/employees/{employeeID}/commit", payrollHandler.Commit)
					r.Put("/employees/{employeeID}/profile", payrollHandler.UpsertProfile)
					r.Post("/employees/{employeeID}/advances", payrollHandler.CreateAdvance)
					r.Post("/advances/{id}/settle", payrollHandler.SettleAdvance)
					r.Post("/advances/{id}/reopen", payrollHandler.ReopenAdvance)
					r.Post("/slips/{id}/pay", payrollHandler.MarkSlipPaid)
				})
			})
		})
	})
	return r
}
