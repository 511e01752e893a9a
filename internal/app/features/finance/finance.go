// internal/app/features/finance/finance.go
package finance

import (
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/eduledger/internal/app/policy/grouppolicy"
	attendancestore "github.com/dalemusser/eduledger/internal/app/store/attendance"
	groupstore "github.com/dalemusser/eduledger/internal/app/store/groups"
	paymentstore "github.com/dalemusser/eduledger/internal/app/store/payments"
	studentstore "github.com/dalemusser/eduledger/internal/app/store/students"
	"github.com/dalemusser/eduledger/internal/app/system/apperr"
	"github.com/dalemusser/eduledger/internal/app/system/authz"
	"github.com/dalemusser/eduledger/internal/app/system/respond"
	"github.com/dalemusser/eduledger/internal/app/system/timeouts"
	"github.com/dalemusser/eduledger/internal/domain/ledger"
	"github.com/dalemusser/eduledger/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type balanceResponse struct {
	Student         string          `json:"student"`
	Name            string          `json:"name"`
	Debt            int64           `json:"debt"`
	Owed            int64           `json:"owed"`
	Status          ledger.Standing `json:"status"`
	LastPaymentDate *time.Time      `json:"lastPaymentDate"`
}

type debtor struct {
	Student   string `json:"student"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	GroupID   string `json:"groupId"`
	GroupName string `json:"groupName"`
	Debt      int64  `json:"debt"`
	Owed      int64  `json:"owed"`
}

type debtsResponse struct {
	Students  []debtor `json:"students"`
	Count     int      `json:"count"`
	TotalOwed int64    `json:"totalOwed"`
}

type summaryResponse struct {
	Paid      int64 `json:"paid"`
	Unpaid    int64 `json:"unpaid"`
	Tolerance int64 `json:"tolerance"`
}

type reconcileResponse struct {
	Student        string `json:"student"`
	OpeningBalance int64  `json:"openingBalance"`
	TotalCharged   int64  `json:"totalCharged"`
	TotalPaid      int64  `json:"totalPaid"`
	Stored         int64  `json:"stored"`
	Expected       int64  `json:"expected"`
	Drift          int64  `json:"drift"`
}

type driftReport struct {
	Checked    int                 `json:"checked"`
	Drifted    []reconcileResponse `json:"drifted"`
	TotalDrift int64               `json:"totalDrift"`
}

func (h *Handler) loadStudent(r *http.Request, param string) (models.Student, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, param))
	if err != nil {
		return models.Student{}, apperr.Validation("id", "ID must be a valid ID.")
	}
	st, err := studentstore.New(h.DB).GetByID(r.Context(), id)
	if errors.Is(err, studentstore.ErrNotFound) {
		return models.Student{}, apperr.NotFound("student not found")
	}
	if err != nil {
		return models.Student{}, apperr.Internal("load student", err)
	}
	return st, nil
}

// ServeBalance handles GET /students/{id}/balance.
func (h *Handler) ServeBalance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "student balance")
	defer cancel()
	r = r.WithContext(ctx)

	caller, scope, err := authz.Authorize(r, authz.BalanceView)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	st, err := h.loadStudent(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ok, err := grouppolicy.CanSeeStudent(ctx, h.DB, caller, scope, st)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("check student visibility", err))
		return
	}
	if !ok {
		respond.Error(w, r, h.Log, apperr.Forbidden("you may only view students of your own groups"))
		return
	}

	respond.JSON(w, http.StatusOK, balanceResponse{
		Student:         st.ID.Hex(),
		Name:            st.FullName(),
		Debt:            st.Debt,
		Owed:            ledger.Owed(st.Debt),
		Status:          h.Policy.Classify(st.Debt),
		LastPaymentDate: st.LastPaymentDate,
	})
}

// ServeDebts handles GET /finance/debts: active students who owe money,
// largest debt first.
func (h *Handler) ServeDebts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "debt report")
	defer cancel()

	if _, _, err := authz.Authorize(r, authz.FinanceReport); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	students, err := studentstore.New(h.DB).ListDebtors(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("list debtors", err))
		return
	}
	gids := make([]primitive.ObjectID, 0, len(students))
	for _, st := range students {
		gids = append(gids, st.GroupID)
	}
	names, err := groupstore.New(h.DB).Names(ctx, gids)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("load groups", err))
		return
	}

	out := debtsResponse{Students: make([]debtor, 0, len(students))}
	for _, st := range students {
		owed := ledger.Owed(st.Debt)
		out.Students = append(out.Students, debtor{
			Student:   st.ID.Hex(),
			Name:      st.FullName(),
			Phone:     st.PhoneNumber,
			GroupID:   st.GroupID.Hex(),
			GroupName: names[st.GroupID],
			Debt:      st.Debt,
			Owed:      owed,
		})
		out.TotalOwed += owed
	}
	out.Count = len(out.Students)
	respond.JSON(w, http.StatusOK, out)
}

// ServeSummary handles GET /finance/summary.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "finance summary")
	defer cancel()

	if _, _, err := authz.Authorize(r, authz.FinanceReport); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	paid, unpaid, err := studentstore.New(h.DB).CountStanding(ctx, h.Policy.PaidTolerance)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("count standing", err))
		return
	}
	respond.JSON(w, http.StatusOK, summaryResponse{Paid: paid, Unpaid: unpaid, Tolerance: h.Policy.PaidTolerance})
}

// ServeReconcile handles GET /finance/reconcile/{studentID}. It rebuilds the
// balance from the student's opening balance, lesson charges and payments
// and reports how far the stored balance has drifted from it.
func (h *Handler) ServeReconcile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "reconcile")
	defer cancel()

	caller, _, err := authz.Authorize(r, authz.FinanceReconcile)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	r = r.WithContext(ctx)

	st, err := h.loadStudent(r, "studentID")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	charged, err := attendancestore.New(h.DB).SumChargedByStudent(ctx, st.ID)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("sum charges", err))
		return
	}
	paid, err := paymentstore.New(h.DB).SumByStudent(ctx, st.ID)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("sum payments", err))
		return
	}

	expected := ledger.Expected(st.OpeningBalance, charged, paid)
	out := reconcileResponse{
		Student:        st.ID.Hex(),
		OpeningBalance: st.OpeningBalance,
		TotalCharged:   charged,
		TotalPaid:      paid,
		Stored:         st.Debt,
		Expected:       expected,
		Drift:          st.Debt - expected,
	}
	if out.Drift != 0 {
		h.Log.Warn("balance drift detected",
			zap.String("student_id", st.ID.Hex()),
			zap.Int64("stored", out.Stored),
			zap.Int64("expected", out.Expected),
			zap.Int64("drift", out.Drift),
			zap.String("actor_id", caller.UserID.Hex()))
	}
	respond.JSON(w, http.StatusOK, out)
}

// ServeReconcileAll handles GET /finance/reconcile. It runs the same check as
// ServeReconcile over every student and lists only those that drifted. The
// reads are not a snapshot, so a write landing mid-report can show up as
// drift that a single-student reconcile will not confirm.
func (h *Handler) ServeReconcileAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "reconcile all")
	defer cancel()

	if _, _, err := authz.Authorize(r, authz.FinanceReconcile); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	students, err := studentstore.New(h.DB).ListBalances(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("list balances", err))
		return
	}
	charged, err := attendancestore.New(h.DB).SumChargedPerStudent(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("sum charges", err))
		return
	}
	paid, err := paymentstore.New(h.DB).SumPerStudent(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("sum payments", err))
		return
	}

	out := driftReport{Checked: len(students), Drifted: []reconcileResponse{}}
	for _, st := range students {
		expected := ledger.Expected(st.OpeningBalance, charged[st.ID], paid[st.ID])
		if st.Debt == expected {
			continue
		}
		out.Drifted = append(out.Drifted, reconcileResponse{
			Student:        st.ID.Hex(),
			OpeningBalance: st.OpeningBalance,
			TotalCharged:   charged[st.ID],
			TotalPaid:      paid[st.ID],
			Stored:         st.Debt,
			Expected:       expected,
			Drift:          st.Debt - expected,
		})
		out.TotalDrift += st.Debt - expected
	}
	if len(out.Drifted) > 0 {
		h.Log.Warn("balance drift detected",
			zap.Int("students", len(out.Drifted)),
			zap.Int("checked", out.Checked),
			zap.Int64("total_drift", out.TotalDrift))
	}
	respond.JSON(w, http.StatusOK, out)
}
