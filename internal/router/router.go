package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/FACorreiaa/cv-builder-api/docs"
	"github.com/FACorreiaa/cv-builder-api/internal/api/auth"
	"github.com/FACorreiaa/cv-builder-api/internal/api/payment"
	"github.com/FACorreiaa/cv-builder-api/internal/api/resume"
)

// Config contains dependencies needed for the router setup
type Config struct {
	AuthHandler            auth.Handler
	ResumeHandler          resume.Handler
	PaymentHandler         payment.Handler
	AuthenticateMiddleware func(http.Handler) http.Handler
	// AllowedOrigins restricts CORS. Empty allows every origin.
	AllowedOrigins []string
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (request id, logging, recoverer, timeout) is applied
// in main.go before mounting this router.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	corsOpts := cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(cfg.AllowedOrigins) == 0 {
		corsOpts.AllowOriginFunc = func(_ *http.Request, _ string) bool { return true }
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("CV Builder API is running..."))
	})
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api", func(r chi.Router) {
		// --- Public Auth Routes ---
		// get-user checks the bearer token itself so it can answer 404 for deleted users.
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", cfg.AuthHandler.Register)
			r.Post("/login", cfg.AuthHandler.Login)
			r.Post("/google", cfg.AuthHandler.GoogleLogin)
			r.Get("/get-user", cfg.AuthHandler.GetUser)
		})

		r.Post("/download-cv", cfg.PaymentHandler.DownloadCV)

		// --- Protected Routes ---
		r.Route("/cv", func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Post("/get-resume", cfg.ResumeHandler.GetResumes)
			r.Get("/single", cfg.ResumeHandler.GetResume)
			r.Post("/", cfg.ResumeHandler.CreateResume)
			r.Put("/", cfg.ResumeHandler.UpdateResume)
			r.Delete("/{id}", cfg.ResumeHandler.DeleteResume)
			r.Post("/payment/razorpay", cfg.PaymentHandler.RazorpayOrder)
		})
	})

	return r
}
