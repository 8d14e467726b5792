package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(instrument)

	r.Get("/health", s.handleHealth)
	r.Get("/config", s.handleConfig)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.With(s.optionalAuth).Post("/create-order", s.handleCreateOrder)
	r.Post("/verify-payment", s.handleVerifyPayment)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Post("/logout", s.handleLogout)
				r.Get("/profile", s.handleGetProfile)
				r.Put("/profile", s.handleUpdateProfile)
				r.Post("/change-password", s.handleChangePassword)
				r.Post("/verify-token", s.handleVerifyToken)
			})
		})

		r.Get("/bonds", s.handleListBonds)
		r.Get("/bonds/{id}", s.handleGetBond)
		r.Get("/bonds/{id}/projects", s.handleBondProjects)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/investments", s.handleInvestments)
			r.Post("/kyc/documents", s.handleKYCUpload)
			r.Get("/kyc/documents", s.handleKYCDocuments)
			r.Get("/kyc/status", s.handleKYCStatus)
		})
	})

	return r
}
