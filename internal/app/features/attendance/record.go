// internal/app/features/attendance/record.go
package attendance

import (
	"context"
	"errors"
	"net/http"

	attendancestore "github.com/dalemusser/eduledger/internal/app/store/attendance"
	studentstore "github.com/dalemusser/eduledger/internal/app/store/students"
	"github.com/dalemusser/eduledger/internal/app/system/apperr"
	"github.com/dalemusser/eduledger/internal/app/system/authz"
	"github.com/dalemusser/eduledger/internal/app/system/inputval"
	"github.com/dalemusser/eduledger/internal/app/system/respond"
	"github.com/dalemusser/eduledger/internal/app/system/timeouts"
	"github.com/dalemusser/eduledger/internal/app/system/txn"
	"github.com/dalemusser/eduledger/internal/domain/ledger"
	"github.com/dalemusser/eduledger/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleRecord handles POST /attendance: one sheet per group and date.
//
// The whole sheet is written in one transaction: every record and every
// balance charge land together or not at all. A second sheet for the same
// group and date is rejected.
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "attendance record")
	defer cancel()

	if _, _, err := authz.Authorize(r, authz.AttendanceRecord); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	var req strictRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Error(w, r, h.Log, validationErr(res))
		return
	}

	s, err := h.prepare(ctx, r, req.Group, req.Date, req.Records, false)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	att := attendancestore.New(h.DB)
	taken, err := att.ExistsForGroupDate(ctx, s.Group.ID, s.Date)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("check existing attendance", err))
		return
	}
	if taken {
		respond.Error(w, r, h.Log, apperr.Duplicate("attendance for this group on "+s.Date+" has already been taken"))
		return
	}

	submissionID := uuid.NewString()
	recs := make([]models.AttendanceRecord, 0, len(s.Marks))
	for _, m := range s.Marks {
		recs = append(recs, s.record(m, submissionID, models.ModeStrict))
	}

	students := studentstore.New(h.DB)
	var written []models.AttendanceRecord
	debts := make(map[primitive.ObjectID]int64, len(recs))

	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		clear(debts)
		if err := att.ClaimSheet(ctx, s.Group.ID, s.Date, submissionID); err != nil {
			return err
		}
		out, err := att.InsertMany(ctx, recs)
		if err != nil {
			return err
		}
		for _, rec := range out {
			if rec.ChargedAmount == 0 {
				continue
			}
			debt, err := students.ApplyDelta(ctx, rec.StudentID, ledger.ChargeDelta(0, rec.ChargedAmount))
			if err != nil {
				return err
			}
			debts[rec.StudentID] = debt
		}
		written = out
		return nil
	})
	switch {
	case errors.Is(err, attendancestore.ErrDuplicate), errors.Is(err, attendancestore.ErrSheetTaken):
		respond.Error(w, r, h.Log, apperr.Duplicate("attendance for this group on "+s.Date+" has already been taken"))
		return
	case errors.Is(err, studentstore.ErrNotFound):
		respond.Error(w, r, h.Log, apperr.Inconsistency("a student disappeared while attendance was being recorded", err))
		return
	case err != nil:
		respond.Error(w, r, h.Log, apperr.Internal("record attendance", err))
		return
	}

	// Students who were not charged keep their balance; report it as stored.
	var unchanged []primitive.ObjectID
	for _, rec := range written {
		if _, ok := debts[rec.StudentID]; !ok {
			unchanged = append(unchanged, rec.StudentID)
		}
	}
	if len(unchanged) > 0 {
		current, err := students.GetMany(ctx, unchanged)
		if err != nil {
			respond.Error(w, r, h.Log, apperr.Internal("load balances", err))
			return
		}
		for id, st := range current {
			debts[id] = st.Debt
		}
	}

	out := strictResponse{
		Message:      "Attendance saved and student balances updated.",
		SubmissionID: submissionID,
		Records:      written,
		Debts:        make([]studentDebt, 0, len(written)),
	}
	for _, rec := range written {
		out.Debts = append(out.Debts, studentDebt{Student: rec.StudentID.Hex(), Debt: debts[rec.StudentID]})
	}

	h.Log.Info("attendance recorded",
		zap.String("group_id", s.Group.ID.Hex()),
		zap.String("date", s.Date),
		zap.String("submission_id", submissionID),
		zap.Int("records", len(written)))

	respond.JSON(w, http.StatusCreated, out)
}

// testHookBulkLoaded runs after the bulk path has read the stored rows and
// before it writes any of them.
var testHookBulkLoaded = func(context.Context) {}

// HandleBulk handles POST /attendance/bulk: save the attendance table.
//
// Rows are upserted by (group, student, date); a student listed twice keeps
// the last mark. Each row is its own unit of work: its record and its
// balance change commit together, and a failed row does not undo the rows
// that succeeded. Re-sending the same payload changes nothing, because a
// row's balance moves only by the difference between its stored charge and
// its new one.
func (h *Handler) HandleBulk(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "bulk attendance")
	defer cancel()

	if _, _, err := authz.Authorize(r, authz.AttendanceRecord); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	var req bulkRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Error(w, r, h.Log, validationErr(res))
		return
	}

	s, err := h.prepare(ctx, r, req.GroupID, req.Date, req.Records, true)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	att := attendancestore.New(h.DB)
	students := studentstore.New(h.DB)

	existing, err := att.FindForGroupDate(ctx, s.Group.ID, s.Date)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("load existing attendance", err))
		return
	}
	testHookBulkLoaded(ctx)

	submissionID := uuid.NewString()
	out := bulkResponse{
		SubmissionID: submissionID,
		Records:      []models.AttendanceRecord{},
		Errors:       []rowError{},
	}
	failed := make(map[primitive.ObjectID]bool)

	var same []models.AttendanceRecord
	for _, m := range s.Marks {
		rec := s.record(m, submissionID, models.ModeBulk)
		prev := existing[m.StudentID].ChargedAmount
		if rec.ChargedAmount == prev {
			same = append(same, rec)
			continue
		}

		var res attendancestore.WriteResult
		err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
			wr, err := att.UpsertGuarded(ctx, rec, prev)
			if err != nil {
				return err
			}
			delta := ledger.ChargeDelta(prev, rec.ChargedAmount)
			debt, err := students.ApplyDelta(ctx, rec.StudentID, delta)
			if err != nil {
				return err
			}
			h.Log.Debug("attendance charge applied",
				zap.String("student_id", rec.StudentID.Hex()),
				zap.Int64("delta", delta),
				zap.Int64("new_debt", debt))
			res = wr
			return nil
		})
		if err != nil {
			failed[m.StudentID] = true
			out.Errors = append(out.Errors, h.rowFailure(m.StudentID, err))
			continue
		}
		out.BulkWriteResult.Add(res)
		if rec.ChargedAmount > prev {
			out.Charged += rec.ChargedAmount - prev
		} else {
			out.Refunded += prev - rec.ChargedAmount
		}
	}

	res, items, err := att.UpsertSameCharge(ctx, same)
	if err != nil {
		// Nothing in this batch needed a balance change, so earlier rows
		// stay valid; report every row of the batch as failed.
		for _, rec := range same {
			failed[rec.StudentID] = true
			out.Errors = append(out.Errors, h.rowFailure(rec.StudentID, err))
		}
	} else {
		out.BulkWriteResult.Add(res)
		for _, it := range items {
			sid := same[it.Index].StudentID
			failed[sid] = true
			out.Errors = append(out.Errors, h.rowFailure(sid, it.Err))
		}
	}

	stored, err := att.FindForGroupDate(ctx, s.Group.ID, s.Date)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("reload attendance", err))
		return
	}
	for _, m := range s.Marks {
		if failed[m.StudentID] {
			continue
		}
		if rec, ok := stored[m.StudentID]; ok {
			out.Records = append(out.Records, rec)
		}
	}
	out.Count = len(out.Records)

	h.Log.Info("bulk attendance saved",
		zap.String("group_id", s.Group.ID.Hex()),
		zap.String("date", s.Date),
		zap.String("submission_id", submissionID),
		zap.Int("saved", out.Count),
		zap.Int("failed", len(out.Errors)),
		zap.Int64("charged", out.Charged),
		zap.Int64("refunded", out.Refunded))

	respond.JSON(w, http.StatusOK, out)
}

// rowFailure describes a failed bulk row for the caller and logs unexpected
// causes.
func (h *Handler) rowFailure(studentID primitive.ObjectID, err error) rowError {
	msg := "could not save attendance for this student"
	switch {
	case errors.Is(err, attendancestore.ErrStale):
		msg = "attendance for this student was changed by someone else; reload and try again"
	case errors.Is(err, studentstore.ErrNotFound):
		msg = "student no longer exists"
	default:
		h.Log.Error("bulk attendance row failed",
			zap.String("student_id", studentID.Hex()),
			zap.Error(err))
	}
	return rowError{Student: studentID.Hex(), Message: msg}
}
