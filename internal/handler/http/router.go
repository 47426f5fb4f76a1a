package http

import (
	"log/slog"
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/handler/http/middleware"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	// PunchTimeout bounds a manual punch, including the wait for a location
	PunchTimeout time.Duration
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, attendanceHandler AttendanceHandler, notificationHandler NotificationHandler) *chi.Mux {
	r := chi.NewRouter()

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	if cfg.Logger != nil {
		r.Use(httplog.RequestLogger(cfg.Logger, &httplog.Options{
			Level:  slog.LevelDebug,
			Schema: httplog.SchemaECS,
		}))
	}

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {

		// Authenticated by a short-lived query token
		r.Get("/notifications/stream", notificationHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/attendance", func(r chi.Router) {
				r.With(chiMiddleware.AllowContentType("application/json")).Post("/location", attendanceHandler.ReportLocation)

				r.Route("/monitoring", func(r chi.Router) {
					r.Get("/", attendanceHandler.MonitoringStatus)
					r.Post("/", attendanceHandler.EnableMonitoring)
					r.Delete("/", attendanceHandler.DisableMonitoring)
				})

				r.Group(func(r chi.Router) {
					if cfg.PunchTimeout > 0 {
						r.Use(chiMiddleware.Timeout(cfg.PunchTimeout))
					}
					r.Post("/clock-in", attendanceHandler.ClockIn)
					r.Post("/clock-out", attendanceHandler.ClockOut)
				})
				r.Get("/today", attendanceHandler.Today)
				r.Get("/hours", attendanceHandler.Hours)
				r.Get("/activity", attendanceHandler.Activity)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Patch("/read", notificationHandler.MarkAsRead)
				r.Post("/sse-token", notificationHandler.GetSSEToken)
			})
		})
	})
	return r
}
