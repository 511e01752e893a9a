// internal/app/features/payments/routes.go
package payments

import (
	"github.com/dalemusser/eduledger/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /payments.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.With(authz.Require(authz.PaymentCreate)).Post("/", h.HandleCreate)
	r.With(authz.Require(authz.PaymentList)).Get("/", h.ServeList)
	r.With(authz.Require(authz.PaymentUpdate)).Patch("/{id}", h.HandleUpdate)
	r.With(authz.Require(authz.PaymentDelete)).Delete("/{id}", h.HandleDelete)

	return r
}
