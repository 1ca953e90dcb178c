// Package solvem8 предоставляет маршруты для основного приложения.
package solvem8

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/solvem8/backend/internal/config"
	"github.com/solvem8/backend/internal/files"
	"github.com/solvem8/backend/internal/http/handlers/assignment/generatepdf"
	assignmentlist "github.com/solvem8/backend/internal/http/handlers/assignment/list"
	"github.com/solvem8/backend/internal/http/handlers/assignment/process"
	"github.com/solvem8/backend/internal/http/handlers/assignment/upload"
	"github.com/solvem8/backend/internal/http/handlers/auth/login"
	"github.com/solvem8/backend/internal/http/handlers/auth/logout"
	"github.com/solvem8/backend/internal/http/handlers/auth/signup"
	"github.com/solvem8/backend/internal/http/handlers/health"
	"github.com/solvem8/backend/internal/http/handlers/payment/initiate"
	"github.com/solvem8/backend/internal/http/handlers/payment/verify"
	userget "github.com/solvem8/backend/internal/http/handlers/user/get"
	"github.com/solvem8/backend/internal/http/middlewarectx"
	"github.com/solvem8/backend/internal/services/auth"
	paymentservice "github.com/solvem8/backend/internal/services/payment"
	"github.com/solvem8/backend/internal/services/solve"
	"github.com/solvem8/backend/internal/session"
	"github.com/solvem8/backend/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	db *repository.Storage, sessions *session.Store,
	authService *auth.Service, solveService *solve.Service,
	paymentService *paymentservice.Service, fileStore *files.Store) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	limiter := rate.NewLimiter(rate.Limit(10), 20)

	r.Route("/api", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/signup", signup.New(logger, authService).ServeHTTP)
		r.Post("/auth/login", login.New(logger, authService, sessions, cfg.Session).ServeHTTP)

		// Группа с сессионной аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.SessionMiddleware(sessions, cfg.Session.CookieName, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, limiter))
			r.Post("/auth/logout", logout.New(logger, sessions, cfg.Session).ServeHTTP)
			r.Get("/user", userget.New(logger, authService).ServeHTTP)
			r.Post("/upload", upload.New(logger, solveService, cfg.Files).ServeHTTP)
			r.Post("/process", process.New(logger, solveService).ServeHTTP)
			r.Post("/generate-pdf", generatepdf.New(logger, solveService).ServeHTTP)
			r.Get("/assignments", assignmentlist.New(logger, solveService).ServeHTTP)
			r.Post("/payment/initiate", initiate.New(logger, paymentService).ServeHTTP)
			r.Post("/payment/verify", verify.New(logger, paymentService).ServeHTTP)
		})
	})

	// Выдача сохраненных файлов и сгенерированных PDF
	fs := http.StripPrefix(cfg.Files.PublicPrefix+"/", http.FileServer(http.Dir(fileStore.Dir())))
	r.Get(cfg.Files.PublicPrefix+"/*", fs.ServeHTTP)

	r.Get("/healthz", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
