// internal/app/features/finance/routes.go
package finance

import (
	"github.com/dalemusser/eduledger/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// StudentRoutes mounts under /students.
func StudentRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.With(authz.Require(authz.BalanceView)).Get("/{id}/balance", h.ServeBalance)
	return r
}

// Routes mounts under /finance.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(authz.Require(authz.FinanceReport))
		pr.Get("/debts", h.ServeDebts)
		pr.Get("/summary", h.ServeSummary)
	})
	r.Group(func(pr chi.Router) {
		pr.Use(authz.Require(authz.FinanceReconcile))
		pr.Get("/reconcile", h.ServeReconcileAll)
		pr.Get("/reconcile/{studentID}", h.ServeReconcile)
	})

	return r
}
