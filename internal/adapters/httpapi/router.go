package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type RouterOptions struct {
	Logger *zap.Logger
	// CORSAllowedOrigins enables CORS for the listed origins. Empty disables the CORS layer.
	CORSAllowedOrigins []string
	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler
}

// NewRouter constructs the HTTP router.
//
// Public: the registration form, countries, credential images, admin login/logout.
// Everything else sits behind the admin session gate.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(log))
	r.Use(middleware.Recoverer)
	if len(opts.CORSAllowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   opts.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "Authorization", idempotencyHeader},
			AllowCredentials: true,
		}).Handler)
	}

	// Infra checks, not part of the public API.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Get("/countries", s.ListCountries)
	r.Post("/registration", s.SubmitRegistration)
	r.Get("/r/{code}", s.GetCredential)
	r.Post("/admin/login", s.AdminLogin)
	r.Post("/admin/logout", s.AdminLogout)

	r.Group(func(r chi.Router) {
		r.Use(RequireAdmin(s.Sessions, denyJSON))
		r.Get("/registration/{code}", s.GetRegistration)
		r.Post("/registration/{code}/check-in", s.CheckIn)
		r.Post("/registration/{code}/check-out", s.CheckOut)
		r.Get("/registrations", s.ListRegistrations)
		r.Get("/registrations.xlsx", s.ExportRegistrations)
	})
	r.Group(func(r chi.Router) {
		r.Use(RequireAdmin(s.Sessions, denyScanner))
		r.Post("/api/registration/{code}/check-in", s.ScannerCheckIn)
	})
	return r
}
