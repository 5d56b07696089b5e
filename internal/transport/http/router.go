package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/grievance-portal/api/internal/application/auth"
	"github.com/grievance-portal/api/internal/application/complaint"
	"github.com/grievance-portal/api/internal/application/department"
	"github.com/grievance-portal/api/internal/application/notification"
	"github.com/grievance-portal/api/internal/config"
	"github.com/grievance-portal/api/internal/domain"
	"github.com/grievance-portal/api/internal/transport/http/handler"
	appmiddleware "github.com/grievance-portal/api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10, applied to credential endpoints that
	// accept guesses: login, registration, password recovery.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	notifSvc := notification.NewService(deps.NotificationRepo, nil)
	authDeps := auth.ServiceDeps{
		UserRepo:       deps.UserRepo,
		DepartmentRepo: deps.DepartmentRepo,
		OTPRegistry:    deps.OTPRegistry,
		Mailer:         deps.Mailer,
		SMSSender:      deps.SMSSender,
		ClientURL:      cfg.ClientURL,
	}
	// A nil *Provider must not reach the interface field, or every Sign
	// call would panic instead of reporting the missing keys.
	if deps.JWTProvider != nil {
		authDeps.JWTProvider = deps.JWTProvider
	}
	authSvc := auth.NewService(authDeps)
	complaintDeps := complaint.ServiceDeps{
		ComplaintRepo:  deps.ComplaintRepo,
		CommentRepo:    deps.CommentRepo,
		DepartmentRepo: deps.DepartmentRepo,
		Notifier:       notifSvc,
	}
	if deps.AttachmentStore != nil {
		complaintDeps.AttachmentStore = deps.AttachmentStore
	}
	complaintSvc := complaint.NewService(complaintDeps)
	deptSvc := department.NewService(deps.DepartmentRepo, nil)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	complaintH := handler.NewComplaintHandler(complaintSvc, deps.UserRepo)
	deptH := handler.NewDepartmentHandler(deptSvc)
	notifH := handler.NewNotificationHandler(notifSvc)

	r.Route("/api", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/register", authH.Register)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.With(sensitiveRL.Limit).Post("/auth/forgot-password", authH.ForgotPassword)
		r.With(sensitiveRL.Limit).Put("/auth/reset-password/{resetToken}", authH.ResetPassword)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/auth/verify-otp", authH.VerifyOTP)
			r.Post("/auth/resend-otp", authH.ResendOTP)
			r.Get("/auth/me", authH.Me)
			r.Put("/auth/update-profile", authH.UpdateProfile)
			r.Put("/auth/update-password", authH.UpdatePassword)
			r.Post("/auth/logout", authH.Logout)

			r.Post("/complaints", complaintH.Create)
			r.Get("/complaints", complaintH.ListMine)
			r.Get("/complaints/{id}", complaintH.Get)
			r.Post("/complaints/{id}/comments", complaintH.AddComment)
			r.Get("/complaints/{id}/comments", complaintH.ListComments)
			r.Post("/complaints/{id}/attachments", complaintH.UploadAttachment)
			r.Get("/complaints/{id}/attachments", complaintH.AttachmentURL)
			r.Get("/complaints/{id}/attachments/download", complaintH.DownloadAttachment)
			r.Delete("/complaints/{id}/attachments", complaintH.DeleteAttachment)

			r.Get("/departments", deptH.List)
			r.Get("/departments/{id}", deptH.Get)

			r.Get("/notifications", notifH.ListUnread)
			r.Put("/notifications/{id}", notifH.MarkAsRead)

			// Staff routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleOfficer, domain.RoleAdmin))

				r.Get("/departments/{departmentID}/complaints", complaintH.ListByDepartment)
				r.Put("/complaints/{id}/status", complaintH.UpdateStatus)
			})

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Post("/departments", deptH.Create)
				r.Put("/departments/{id}", deptH.Update)
				r.Delete("/departments/{id}", deptH.Deactivate)

				r.Get("/admin/users", authH.ListUsers)
				r.Put("/admin/users/{id}/role", authH.UpdateUserRole)
				r.Put("/admin/users/{id}/active", authH.SetUserActive)
			})
		})
	})

	return r
}
