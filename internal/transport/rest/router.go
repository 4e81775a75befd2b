package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/opexhub/expense-approval/internal/approval"
	"github.com/opexhub/expense-approval/internal/auth"
	"github.com/opexhub/expense-approval/internal/category"
	"github.com/opexhub/expense-approval/internal/company"
	"github.com/opexhub/expense-approval/internal/expense"
	"github.com/opexhub/expense-approval/internal/transport/middleware"
	"github.com/opexhub/expense-approval/internal/transport/swagger"
	"github.com/opexhub/expense-approval/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// RegisterAllRoutes mounts the full API under /api/v1, matching the OpenAPI
// basePath, plus the OpenAPI document and swagger UI at root.
func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	authHandler *auth.Handler,
	companyHandler *company.Handler,
	userHandler *user.Handler,
	expenseHandler *expense.Handler,
	approvalHandler *approval.Handler,
	categoryHandler *category.Handler,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Public routes
		if companyHandler != nil {
			r.Post("/signup", companyHandler.Signup)
		}

		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
			})
		}

		if categoryHandler != nil {
			r.Get("/categories", categoryHandler.GetCategories)
		}

		if authHandler == nil {
			return
		}

		// Authenticated routes
		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			if userHandler != nil {
				pr.Route("/users", func(ur chi.Router) {
					ur.Get("/me", userHandler.GetCurrentUser)
					ur.Post("/", userHandler.CreateUser)
					ur.Get("/", userHandler.ListUsers)
					ur.Get("/managers", userHandler.ListManagers)
				})
			}

			if expenseHandler != nil {
				pr.Route("/expenses", func(er chi.Router) {
					er.Post("/", expenseHandler.CreateExpense)
					er.Get("/", expenseHandler.GetUserExpenses)
					er.Get("/all", expenseHandler.GetCompanyExpenses)
					er.Get("/{id}", expenseHandler.GetExpense)
					er.Post("/{id}/submit", expenseHandler.SubmitExpense)

					if approvalHandler != nil {
						er.Patch("/{id}/approve", approvalHandler.ApproveExpense)
						er.Patch("/{id}/reject", approvalHandler.RejectExpense)
						er.Get("/{id}/history", approvalHandler.GetHistory)
					}
				})
			}

			if approvalHandler != nil {
				pr.Route("/approval-rules", func(ar chi.Router) {
					ar.Post("/", approvalHandler.CreateRule)
					ar.Get("/user/{userID}", approvalHandler.GetRuleForUser)
				})
				pr.Get("/approvals/pending", approvalHandler.GetPendingApprovals)
			}
		})
	})
}
