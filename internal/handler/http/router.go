package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/site-attendance-go/internal/config"
	"github.com/cmlabs-hris/site-attendance-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	appCfg config.AppConfig,
	JWTService jwt.Service,
	attendanceHandler AttendanceHandler,
	reconciliationHandler ReconciliationHandler,
	geofenceHandler GeofenceHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(appCfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "site-attendance"),
		slog.String("version", "v1.0.0"),
		slog.String("env", appCfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication and a company-scoped token
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(middleware.RequireCompany)

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/reconciliation", reconciliationHandler.Reconcile)
				r.Get("/working-days", attendanceHandler.WorkingDays)

				r.Route("/daily", func(r chi.Router) {
					r.Get("/", attendanceHandler.ListDaily)

					// Manager only
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireManager)
						r.Post("/process", attendanceHandler.ProcessDaily)
					})
				})
			})

			r.Route("/geofence", func(r chi.Router) {
				r.Get("/nearest-site", geofenceHandler.NearestSite)
				r.Get("/sites/{id}/contains", geofenceHandler.Contains)

				// Manager only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Post("/events/{id}/classify", geofenceHandler.ClassifyEvent)
				})
			})
		})
	})
	return r
}
