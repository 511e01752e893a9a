// internal/app/features/attendance/routes.go
package attendance

import (
	"github.com/dalemusser/eduledger/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /attendance.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.With(authz.Require(authz.AttendanceRecord)).Post("/", h.HandleRecord)
	r.With(authz.Require(authz.AttendanceRecord)).Post("/bulk", h.HandleBulk)

	r.Group(func(pr chi.Router) {
		pr.Use(authz.Require(authz.AttendanceView))
		pr.Get("/table/{groupID}", h.ServeTable)
		pr.Get("/group/{groupID}/date/{date}", h.ServeDay)
	})

	r.With(authz.Require(authz.AttendanceDelete)).Delete("/{id}", h.HandleDelete)

	return r
}
