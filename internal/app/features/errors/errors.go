// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/eduledger/internal/app/system/apperr"
	"github.com/dalemusser/eduledger/internal/app/system/respond"
)

// Handler renders the router-level errors (unknown route, wrong method) in
// the same JSON shape as every other error.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// NotFound answers routes nothing is mounted on.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, r, nil, apperr.NotFound("no route for "+r.Method+" "+r.URL.Path))
}

// MethodNotAllowed answers a known path requested with the wrong method.
// chi has already set the Allow header.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusMethodNotAllowed, map[string]string{
		"message": "method " + r.Method + " is not allowed here",
		"code":    "method_not_allowed",
	})
}

