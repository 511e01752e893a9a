// internal/app/features/payments/create.go
package payments

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/eduledger/internal/app/policy/grouppolicy"
	groupstore "github.com/dalemusser/eduledger/internal/app/store/groups"
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
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleCreate handles POST /payments. The payment and the balance credit
// commit together.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "payment create")
	defer cancel()

	caller, scope, err := authz.Authorize(r, authz.PaymentCreate)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	var req createRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation(res.FirstField(), res.First()))
		return
	}

	sid, _ := primitive.ObjectIDFromHex(req.Student)
	gid, _ := primitive.ObjectIDFromHex(req.Group)

	students := studentstore.New(h.DB)
	st, err := students.GetByID(ctx, sid)
	if errors.Is(err, studentstore.ErrNotFound) {
		respond.Error(w, r, h.Log, apperr.NotFound("student not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("load student", err))
		return
	}
	g, err := groupstore.New(h.DB).GetByID(ctx, gid)
	if errors.Is(err, groupstore.ErrNotFound) {
		respond.Error(w, r, h.Log, apperr.NotFound("group not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("load group", err))
		return
	}

	ok, err := grouppolicy.CanActOnGroup(ctx, h.DB, caller, scope, g)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("check group ownership", err))
		return
	}
	if !ok {
		respond.Error(w, r, h.Log, apperr.Forbidden("you may only take payments for your own groups"))
		return
	}
	if st.GroupID != g.ID && !g.HasStudent(st.ID) {
		respond.Error(w, r, h.Log, apperr.Validation("student", st.FullName()+" is not a member of group "+g.Name+"."))
		return
	}

	p := models.Payment{
		StudentID: st.ID,
		GroupID:   g.ID,
		Amount:    req.Amount,
		Type:      req.Type,
		PaidBy:    caller.UserID,
	}
	if req.PaymentDate != "" {
		p.PaymentDate, _ = normalize.Date(req.PaymentDate)
	} else {
		p.PaymentDate = time.Now().UTC()
	}

	var out paymentResponse
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		created, err := paymentstore.New(h.DB).Create(ctx, p)
		if err != nil {
			return err
		}
		debt, err := students.RecordPayment(ctx, st.ID, ledger.PaymentDelta(created.Amount), created.PaymentDate)
		if err != nil {
			return err
		}
		out = paymentResponse{
			Message: "Payment recorded and student balance updated.",
			Payment: created,
			NewDebt: debt,
		}
		return nil
	})
	if errors.Is(err, studentstore.ErrNotFound) {
		respond.Error(w, r, h.Log, apperr.NotFound("student not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("record payment", err))
		return
	}

	h.Log.Info("payment recorded",
		zap.String("payment_id", out.Payment.ID.Hex()),
		zap.String("student_id", st.ID.Hex()),
		zap.Int64("delta", out.Payment.Amount),
		zap.Int64("new_debt", out.NewDebt))

	respond.JSON(w, http.StatusCreated, out)
}
