package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/user"
	"github.com/cmlabs-hris/staff-hours-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/staff-hours-go/internal/handler/http/response"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// RouterConfig carries the settings the router needs from the application config
type RouterConfig struct {
	AllowedOrigins []string
	Logger         *slog.Logger
}

func NewRouter(
	cfg RouterConfig,
	JWTService jwt.Service,
	hoursHandler HoursHandler,
	notificationHandler NotificationHandler,
) *chi.Mux {
	r := chi.NewRouter()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", idempotencyKeyHeader},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// The event stream authenticates with a short-lived token in the query
		r.Get("/notifications/stream", notificationHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/staff-hours", func(r chi.Router) {
				r.Get("/me", hoursHandler.GetMyLedger)
				r.Get("/me/detail", hoursHandler.GetMyDetail)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionHoursViewAll))
					r.Get("/", hoursHandler.ListLedgers)
					r.Get("/{userID}", hoursHandler.GetLedger)
					r.Get("/{userID}/detail", hoursHandler.GetDetail)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionHoursRecompute))
					r.Post("/recompute", hoursHandler.Recompute)
					r.Post("/reconcile", hoursHandler.Reconcile)
				})
			})

			r.Route("/extra-hours", func(r chi.Router) {
				r.Get("/me", hoursHandler.GetMyExtraHours)
				r.Post("/", hoursHandler.SubmitExtraHours)

				r.With(middleware.RequirePermission(user.PermissionHoursViewAll)).Get("/", hoursHandler.ListExtraHours)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", hoursHandler.GetExtraHours)
					r.Delete("/", hoursHandler.DeleteExtraHours)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionHoursApprove))
						r.Post("/approve", hoursHandler.ApproveExtraHours)
						r.Post("/reject", hoursHandler.RejectExtraHours)
					})
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Get("/unread-count", notificationHandler.UnreadCount)
				r.Get("/sse-token", notificationHandler.GetSSEToken)
				r.Post("/read", notificationHandler.MarkAsRead)
				r.Post("/read-all", notificationHandler.MarkAllAsRead)
				r.Delete("/{id}", notificationHandler.Delete)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})

	return r
}
