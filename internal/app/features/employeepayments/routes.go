// internal/app/features/employeepayments/routes.go
package employeepayments

import (
	"github.com/dalemusser/eduledger/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /employee-payments.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.With(authz.Require(authz.EmployeePaymentCreate)).Post("/", h.HandleCreate)
	r.With(authz.Require(authz.EmployeePaymentList)).Get("/", h.ServeList)
	return r
}
