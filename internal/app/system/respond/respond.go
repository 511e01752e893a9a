// internal/app/system/respond/respond.go
//
// Package respond writes JSON responses and translates apperr errors into
// status codes and bodies of the form {"message","code"[,"field"]}.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/eduledger/internal/app/system/apperr"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// MaxBodyBytes caps request bodies decoded by DecodeJSON.
const MaxBodyBytes = 1 << 20

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes err as a JSON error. Unclassified errors become 500s with a
// generic message; server-side errors are logged with their cause.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	ae := apperr.From(err)
	status := ae.Status()

	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("code", ae.Code()),
			zap.Error(err))
	}

	JSON(w, status, errorBody{
		Message: ae.Message,
		Code:    ae.Code(),
		Field:   ae.Field,
	})
}

// DecodeJSON decodes the request body into dst. Unknown fields are rejected
// so a misspelled key fails loudly instead of being dropped.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("", "request body is empty")
		}
		return apperr.Validation("", "malformed JSON body: "+err.Error())
	}
	return nil
}
