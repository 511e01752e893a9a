// internal/app/features/payments/amend.go
package payments

import (
	"context"
	"errors"
	"net/http"

	paymentstore "github.com/dalemusser/eduledger/internal/app/store/payments"
	studentstore "github.com/dalemusser/eduledger/internal/app/store/students"
	"github.com/dalemusser/eduledger/internal/app/system/apperr"
	"github.com/dalemusser/eduledger/internal/app/system/authz"
	"github.com/dalemusser/eduledger/internal/app/system/inputval"
	"github.com/dalemusser/eduledger/internal/app/system/normalize"
	"github.com/dalemusser/eduledger/internal/app/system/respond"
	"github.com/dalemusser/eduledger/internal/app/system/timeouts"
	"github.com/dalemusser/eduledger/internal/app/system/txn"
	"github.com/dalemusser/eduledger/internal/domain/ledger"
	"github.com/dalemusser/eduledger/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func paymentID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("id", "ID must be a valid ID.")
	}
	return id, nil
}

// HandleUpdate handles PATCH /payments/{id}.
//
// An amount change moves the balance by exactly newAmount - oldAmount in one
// increment. The update is guarded on the amount read here, so two
// overlapping amendments cannot both apply against the same old amount; the
// loser gets 409.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "payment update")
	defer cancel()

	caller, _, err := authz.Authorize(r, authz.PaymentUpdate)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	id, err := paymentID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	var req updateRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation(res.FirstField(), res.First()))
		return
	}
	if req.Amount == nil && req.Type == nil && req.PaymentDate == nil {
		respond.Error(w, r, h.Log, apperr.Validation("", "Nothing to update."))
		return
	}
	if req.Amount != nil && *req.Amount <= 0 {
		respond.Error(w, r, h.Log, apperr.Validation("amount", "Amount must be greater than 0."))
		return
	}

	ch := paymentstore.Changes{Amount: req.Amount, Type: req.Type}
	if req.PaymentDate != nil {
		d, _ := normalize.Date(*req.PaymentDate)
		ch.PaymentDate = &d
	}

	store := paymentstore.New(h.DB)
	students := studentstore.New(h.DB)

	current, err := store.GetByID(ctx, id)
	if errors.Is(err, paymentstore.ErrNotFound) {
		respond.Error(w, r, h.Log, apperr.NotFound("payment not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("load payment", err))
		return
	}

	var out paymentResponse
	var delta int64
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		updated, err := store.UpdateGuarded(ctx, id, current.Amount, ch)
		if err != nil {
			return err
		}
		delta = ledger.AmendDelta(current.Amount, updated.Amount)
		var debt int64
		if delta != 0 {
			debt, err = students.ApplyDelta(ctx, updated.StudentID, delta)
		} else {
			var st models.Student
			st, err = students.GetByID(ctx, updated.StudentID)
			debt = st.Debt
		}
		if err != nil {
			return err
		}
		out = paymentResponse{
			Message: "Payment updated and student balance adjusted.",
			Payment: updated,
			NewDebt: debt,
		}
		return nil
	})
	switch {
	case errors.Is(err, paymentstore.ErrStale):
		respond.Error(w, r, h.Log, apperr.Conflict("payment was changed by someone else; reload and try again"))
		return
	case errors.Is(err, paymentstore.ErrNotFound):
		respond.Error(w, r, h.Log, apperr.NotFound("payment not found"))
		return
	case errors.Is(err, studentstore.ErrNotFound):
		respond.Error(w, r, h.Log, apperr.Inconsistency("payment belongs to a missing student", err))
		return
	case err != nil:
		respond.Error(w, r, h.Log, apperr.Internal("update payment", err))
		return
	}

	h.Log.Info("payment updated",
		zap.String("payment_id", id.Hex()),
		zap.String("student_id", out.Payment.StudentID.Hex()),
		zap.String("actor_id", caller.UserID.Hex()),
		zap.Int64("old_amount", current.Amount),
		zap.Int64("new_amount", out.Payment.Amount),
		zap.Int64("delta", delta),
		zap.Int64("new_debt", out.NewDebt))

	respond.JSON(w, http.StatusOK, out)
}

// HandleDelete handles DELETE /payments/{id}. The payment is removed and its
// amount taken back from the balance in one transaction; deleting the same
// payment again returns 404 and changes nothing.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "payment delete")
	defer cancel()

	caller, _, err := authz.Authorize(r, authz.PaymentDelete)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	id, err := paymentID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	store := paymentstore.New(h.DB)
	students := studentstore.New(h.DB)

	var out deleteResponse
	var removed models.Payment
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		p, err := store.Delete(ctx, id)
		if err != nil {
			return err
		}
		removed = p
		debt, err := students.ApplyDelta(ctx, p.StudentID, ledger.ReversalDelta(p.Amount))
		if err != nil {
			return err
		}
		out = deleteResponse{Message: "Payment deleted and student balance updated.", NewDebt: debt}
		return nil
	})
	switch {
	case errors.Is(err, paymentstore.ErrNotFound):
		respond.Error(w, r, h.Log, apperr.NotFound("payment not found"))
		return
	case errors.Is(err, studentstore.ErrNotFound):
		respond.Error(w, r, h.Log, apperr.Inconsistency("payment belongs to a missing student", err))
		return
	case err != nil:
		respond.Error(w, r, h.Log, apperr.Internal("delete payment", err))
		return
	}

	h.Log.Info("payment deleted",
		zap.String("payment_id", id.Hex()),
		zap.String("student_id", removed.StudentID.Hex()),
		zap.String("actor_id", caller.UserID.Hex()),
		zap.Int64("amount", removed.Amount),
		zap.Int64("new_debt", out.NewDebt))

	respond.JSON(w, http.StatusOK, out)
}
