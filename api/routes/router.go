package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linarqa/linarqa-web/api/controllers"
	"github.com/linarqa/linarqa-web/api/middleware"
	"github.com/linarqa/linarqa-web/api/responses"
	"github.com/linarqa/linarqa-web/api/views"
	"github.com/linarqa/linarqa-web/internal/media"
	"github.com/linarqa/linarqa-web/pkg/config"
	"github.com/linarqa/linarqa-web/pkg/enums"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
	"github.com/linarqa/linarqa-web/pkg/logger"
	"github.com/linarqa/linarqa-web/pkg/storage"
)

// Options carries what NewRouter wires beyond the page handlers.
type Options struct {
	Browser middleware.BrowserConfig
	// Counter backs the login throttle; nil disables it.
	Counter storage.Counter
	// Ready names the dependencies /health/ready pings.
	Ready   map[string]controllers.Pinger
	Metrics http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, d *controllers.Deps, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, opts.Ready, logg))
	})
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}
	r.Handle("/static/*", views.Static())

	loginPolicy := middleware.NewLoginThrottlePolicy(
		cfg.LoginLimit.Window,
		cfg.LoginLimit.IPLimit,
		cfg.LoginLimit.EmailLimit,
	)

	r.Group(func(r chi.Router) {
		r.Use(middleware.BrowserSession(opts.Browser, logg))

		r.Get("/", http.RedirectHandler("/dashboard", http.StatusFound).ServeHTTP)
		r.Get("/login", d.LoginPage())
		r.With(middleware.LoginThrottle(loginPolicy, opts.Counter, d.LoginBlocked(), logg)).Post("/login", d.Login())
		r.Post("/logout", d.Logout())
		r.Post("/language", d.SetLanguage())
		r.Get("/theme.css", d.ThemeCSS())

		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.CORS(cfg.App.CORSOrigins))
			r.Get("/me", d.CurrentUser())
			r.With(middleware.RequireUser(unauthorizedJSON(logg))).
				Get("/notifications/unread-count", d.UnreadCount())
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(d.LoginPage()))

			r.Post("/mode/toggle", d.ToggleMode())
			r.Get("/dashboard", d.Dashboard())

			r.Route("/students", func(r chi.Router) {
				r.Get("/", d.Students())
				r.Post("/", d.CreateStudent())
				r.Get("/export.csv", d.ExportStudents())
				r.Post("/{id}", d.UpdateStudent())
				r.Post("/{id}/delete", d.DeleteStudent())
				r.Post("/{id}/photo", d.Photo(media.OwnerStudent, "/students"))
			})
			r.Get("/enrollments", d.Enrollment())
			r.Post("/enrollments/upload-photo", d.EnrollmentPhoto())

			r.Get("/attendance", d.Attendance())
			r.Post("/attendance", d.SaveAttendance())

			r.Route("/belongings", func(r chi.Router) {
				r.Get("/", d.Belongings())
				r.Get("/print", d.PrintChecklist())
				r.Post("/requirements", d.CreateRequirement())
				r.Post("/requirements/{id}", d.UpdateRequirement())
				r.Post("/requirements/{id}/delete", d.DeleteRequirement())
				r.Post("/{id}/checkout", d.CheckOutBelonging())
				r.Post("/{id}/status", d.SetBelongingStatus())
			})

			r.Get("/payments", d.Payments())
			r.Route("/extra-payments", func(r chi.Router) {
				r.Get("/", d.ExtraPayments())
				r.Post("/generate", d.GenerateMonthlyBills())
				r.Post("/{id}/paid", d.MarkExtraPaid())
			})

			r.Route("/extra-courses", func(r chi.Router) {
				r.Get("/", d.ExtraCourses())
				r.Post("/", d.CreateCourse())
				r.Post("/enroll", d.EnrollInCourse())
				r.Post("/{id}", d.UpdateCourse())
				r.Post("/{id}/delete", d.DeleteCourse())
			})

			r.Route("/extra-students", func(r chi.Router) {
				r.Get("/", d.ExtraStudents())
				r.Post("/{id}", d.UpdateExtraStudent())
				r.Post("/{id}/delete", d.DeleteExtraStudent())
				r.Post("/{id}/photo", d.Photo(media.OwnerExtraStudent, "/extra-students"))
			})
			r.Get("/extra-students-register", d.ExtraRegistration())
			r.Post("/extra-students-register", d.RegisterExtraStudent())

			r.Route("/personnel", func(r chi.Router) {
				r.Get("/", d.Personnel())
				r.Post("/", d.CreateStaff())
				r.Post("/{id}", d.UpdateStaff())
				r.Post("/{id}/delete", d.DeleteStaff())
			})

			r.Get("/monthly-balance", d.MonthlyBalance())

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", d.Notifications())
				r.Post("/read-all", d.MarkAllNotificationsRead())
				r.Post("/{id}/read", d.MarkNotificationRead())
			})

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", d.Settings())
				r.Post("/colors", d.UpdateColors())
				r.Post("/reset", d.ResetTheme())
				r.Post("/preset", d.ApplyPreset())
				r.Post("/themes", d.SaveTheme())
				r.Post("/themes/import", d.ImportTheme())
				r.Post("/themes/{id}/load", d.LoadTheme())
				r.Post("/themes/{id}/delete", d.DeleteTheme())
				r.Get("/themes/{id}/export", d.ExportTheme())
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(d.LoginPage(), logg, enums.RoleOwner))
			r.Get("/staff", d.Placeholder("placeholder.staff"))
			r.Get("/audit", d.Placeholder("placeholder.audit"))
			r.Get("/logs", d.Placeholder("placeholder.logs"))
		})
	})

	return r
}

func unauthorizedJSON(logg *logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in"))
	})
}
