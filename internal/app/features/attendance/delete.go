// internal/app/features/attendance/delete.go
package attendance

import (
	"context"
	"errors"
	"net/http"

	attendancestore "github.com/dalemusser/eduledger/internal/app/store/attendance"
	studentstore "github.com/dalemusser/eduledger/internal/app/store/students"
	"github.com/dalemusser/eduledger/internal/app/system/apperr"
	"github.com/dalemusser/eduledger/internal/app/system/authz"
	"github.com/dalemusser/eduledger/internal/app/system/respond"
	"github.com/dalemusser/eduledger/internal/app/system/timeouts"
	"github.com/dalemusser/eduledger/internal/app/system/txn"
	"github.com/dalemusser/eduledger/internal/domain/ledger"
	"github.com/dalemusser/eduledger/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleDelete handles DELETE /attendance/{id}. The record's charge is
// returned to the student in the same transaction that removes it.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "attendance delete")
	defer cancel()

	caller, _, err := authz.Authorize(r, authz.AttendanceDelete)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Validation("id", "ID must be a valid ID."))
		return
	}

	att := attendancestore.New(h.DB)
	students := studentstore.New(h.DB)
	var out deleteResponse
	var removed models.AttendanceRecord

	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		rec, err := att.Delete(ctx, id)
		if err != nil {
			return err
		}
		removed = rec
		out = deleteResponse{Message: "Attendance record deleted.", Refunded: rec.ChargedAmount}
		debt, err := students.ApplyDelta(ctx, rec.StudentID, ledger.ChargeDelta(rec.ChargedAmount, 0))
		if err != nil {
			return err
		}
		out.NewDebt = debt
		return att.ReleaseSheet(ctx, rec.GroupID, rec.Date)
	})
	switch {
	case errors.Is(err, attendancestore.ErrNotFound):
		respond.Error(w, r, h.Log, apperr.NotFound("attendance record not found"))
		return
	case errors.Is(err, studentstore.ErrNotFound):
		respond.Error(w, r, h.Log, apperr.Inconsistency("attendance record belongs to a missing student", err))
		return
	case err != nil:
		respond.Error(w, r, h.Log, apperr.Internal("delete attendance", err))
		return
	}

	h.Log.Info("attendance deleted",
		zap.String("attendance_id", id.Hex()),
		zap.String("student_id", removed.StudentID.Hex()),
		zap.String("date", removed.Date),
		zap.String("actor_id", caller.UserID.Hex()),
		zap.Int64("refunded", out.Refunded),
		zap.Int64("new_debt", out.NewDebt))

	respond.JSON(w, http.StatusOK, out)
}
