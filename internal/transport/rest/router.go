package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/expense-tracker/internal/auth"
	"github.com/frahmantamala/expense-tracker/internal/category"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	"github.com/frahmantamala/expense-tracker/internal/transport/middleware"
	"github.com/frahmantamala/expense-tracker/internal/transport/swagger"
	"github.com/frahmantamala/expense-tracker/internal/user"
	"github.com/go-chi/chi"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, allowedOrigins string, authHandler *auth.Handler, userHandler *user.Handler, expenseHandler *expense.Handler, categoryHandler *category.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api to match OpenAPI basePath
	router.Route("/api", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
				sr.Post("/register", authHandler.Register)
			})
		}

		// Public categories route (no auth required)
		if categoryHandler != nil {
			r.Get("/categories", categoryHandler.GetCategories)
		}

		if authHandler != nil {
			// Protected routes that require authentication
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				if userHandler != nil {
					pr.Get("/auth/users/me", userHandler.GetCurrentUser)
					pr.Group(func(sr chi.Router) {
						sr.Use(authHandler.RequireStaff)
						sr.Get("/auth/users", userHandler.ListUsers)
					})
				}

				// Expense routes
				if expenseHandler != nil {
					pr.Route("/expenses", func(er chi.Router) {
						er.Get("/", expenseHandler.ListExpenses)   // GET /expenses/
						er.Post("/", expenseHandler.CreateExpense) // POST /expenses/

						// Registered before the {id} routes so "summary" is
						// never captured as an expense id.
						er.Get("/summary/", expenseHandler.Summary)

						er.Get("/{id}/", expenseHandler.GetExpense)
						er.Put("/{id}/", expenseHandler.UpdateExpense)
						er.Patch("/{id}/", expenseHandler.PatchExpense)
						er.Delete("/{id}/", expenseHandler.DeleteExpense)
					})
				}
			})
		}
	})
}
