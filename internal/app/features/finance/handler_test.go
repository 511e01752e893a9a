package finance_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/eduledger/internal/app/features/attendance"
	"github.com/dalemusser/eduledger/internal/app/features/finance"
	"github.com/dalemusser/eduledger/internal/app/features/payments"
	"github.com/dalemusser/eduledger/internal/domain/ledger"
	"github.com/dalemusser/eduledger/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type balanceBody struct {
	Debt   int64  `json:"debt"`
	Owed   int64  `json:"owed"`
	Status string `json:"status"`
}

type reconcileBody struct {
	TotalCharged int64 `json:"totalCharged"`
	TotalPaid    int64 `json:"totalPaid"`
	Stored       int64 `json:"stored"`
	Expected     int64 `json:"expected"`
	Drift        int64 `json:"drift"`
}

func serve(t *testing.T, fn http.HandlerFunc, user testutil.TestUser, target string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = testutil.WithChiURLParams(testutil.WithUser(req, user), params)
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

// Three lessons at 1,200,000 / 12, then a payment covering them.
func TestLedgerScenario(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	policy := ledger.DefaultPolicy()
	att := attendance.NewHandler(db, policy, false, zap.NewNop())
	pay := payments.NewHandler(db, zap.NewNop())
	fin := finance.NewHandler(db, policy, zap.NewNop())

	_, profile := fx.CreateTeacher(ctx, "T")
	course := fx.CreateCourse(ctx, "Math", 1200000)
	g := fx.CreateGroup(ctx, "G", course.ID, profile.ID)
	st := fx.CreateStudent(ctx, "Ann", g.ID, 0)
	director := testutil.DirectorUser()

	for _, date := range []string{"2024-03-04", "2024-03-06", "2024-03-08"} {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/attendance/bulk", map[string]any{
			"groupId": g.ID.Hex(),
			"date":    date,
			"records": []map[string]string{{"student": st.ID.Hex(), "status": "present"}},
		})
		rec := httptest.NewRecorder()
		att.HandleBulk(rec, testutil.WithUser(req, director))
		testutil.AssertStatus(t, rec, http.StatusOK)
	}

	params := map[string]string{"id": st.ID.Hex()}
	rec := serve(t, fin.ServeBalance, director, "/students/x/balance", params)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var b balanceBody
	testutil.DecodeJSON(t, rec, &b)
	if b.Debt != -300000 || b.Owed != 300000 || b.Status != "unpaid" {
		t.Errorf("after lessons: %+v", b)
	}

	req := testutil.NewJSONRequest(t, http.MethodPost, "/payments", map[string]any{
		"student": st.ID.Hex(), "group": g.ID.Hex(), "amount": 300000,
	})
	rec = httptest.NewRecorder()
	pay.HandleCreate(rec, testutil.WithUser(req, director))
	testutil.AssertStatus(t, rec, http.StatusCreated)

	rec = serve(t, fin.ServeBalance, director, "/students/x/balance", params)
	testutil.DecodeJSON(t, rec, &b)
	if b.Debt != 0 || b.Owed != 0 || b.Status != "paid" {
		t.Errorf("after payment: %+v", b)
	}

	rec = serve(t, fin.ServeReconcile, testutil.AccountantUser(), "/finance/reconcile/x", map[string]string{"studentID": st.ID.Hex()})
	testutil.AssertStatus(t, rec, http.StatusOK)
	var rc reconcileBody
	testutil.DecodeJSON(t, rec, &rc)
	if rc.TotalCharged != 300000 || rc.TotalPaid != 300000 || rc.Expected != 0 || rc.Drift != 0 {
		t.Errorf("reconcile: %+v", rc)
	}

	// A write that bypasses the ledger shows up as drift.
	if _, err := db.Collection("students").UpdateOne(ctx, bson.M{"_id": st.ID}, bson.M{"$inc": bson.M{"debt": -500}}); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	rec = serve(t, fin.ServeReconcile, testutil.AccountantUser(), "/finance/reconcile/x", map[string]string{"studentID": st.ID.Hex()})
	testutil.DecodeJSON(t, rec, &rc)
	if rc.Drift != -500 {
		t.Errorf("drift = %d, want -500", rc.Drift)
	}
}

func TestServeBalance_TeacherScope(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fin := finance.NewHandler(db, ledger.DefaultPolicy(), zap.NewNop())

	teacher, profile := fx.CreateTeacher(ctx, "Mine")
	_, otherProfile := fx.CreateTeacher(ctx, "Theirs")
	course := fx.CreateCourse(ctx, "Math", 1200000)
	mine := fx.CreateStudent(ctx, "Ann", fx.CreateGroup(ctx, "G1", course.ID, profile.ID).ID, -5)
	theirs := fx.CreateStudent(ctx, "Bob", fx.CreateGroup(ctx, "G2", course.ID, otherProfile.ID).ID, -5)
	user := testutil.TeacherUser(teacher.ID)

	testutil.AssertStatus(t, serve(t, fin.ServeBalance, user, "/", map[string]string{"id": mine.ID.Hex()}), http.StatusOK)
	testutil.AssertStatus(t, serve(t, fin.ServeBalance, user, "/", map[string]string{"id": theirs.ID.Hex()}), http.StatusForbidden)
	testutil.AssertStatus(t, serve(t, fin.ServeBalance, user, "/", map[string]string{"id": primitive.NewObjectID().Hex()}), http.StatusNotFound)
	testutil.AssertStatus(t, serve(t, fin.ServeBalance, user, "/", map[string]string{"id": "bad"}), http.StatusBadRequest)
	testutil.AssertStatus(t, serve(t, fin.ServeBalance, testutil.StudentUser(), "/", map[string]string{"id": mine.ID.Hex()}), http.StatusForbidden)
}

func TestDebtsAndSummary_ToleranceBoundary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fin := finance.NewHandler(db, ledger.DefaultPolicy(), zap.NewNop())

	course := fx.CreateCourse(ctx, "Math", 1200000)
	g := fx.CreateGroup(ctx, "G", course.ID, primitive.NewObjectID())
	fx.CreateStudent(ctx, "InBand", g.ID, -10000)
	fx.CreateStudent(ctx, "OverBand", g.ID, -10001)
	fx.CreateStudent(ctx, "Credit", g.ID, 50000)
	fx.CreateStudent(ctx, "Big", g.ID, -400000)

	rec := serve(t, fin.ServeSummary, testutil.ManagerUser(), "/finance/summary", nil)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var sum struct {
		Paid   int64 `json:"paid"`
		Unpaid int64 `json:"unpaid"`
	}
	testutil.DecodeJSON(t, rec, &sum)
	if sum.Paid != 2 || sum.Unpaid != 2 {
		t.Errorf("summary = %+v, want 2 paid / 2 unpaid", sum)
	}

	rec = serve(t, fin.ServeDebts, testutil.AccountantUser(), "/finance/debts", nil)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var debts struct {
		Students []struct {
			Name      string `json:"name"`
			GroupName string `json:"groupName"`
			Owed      int64  `json:"owed"`
		} `json:"students"`
		Count     int   `json:"count"`
		TotalOwed int64 `json:"totalOwed"`
	}
	testutil.DecodeJSON(t, rec, &debts)
	if debts.Count != 3 || debts.TotalOwed != 420001 {
		t.Errorf("debts count %d total %d", debts.Count, debts.TotalOwed)
	}
	if debts.Students[0].Owed != 400000 || debts.Students[0].GroupName != "G" {
		t.Errorf("largest debt first: %+v", debts.Students[0])
	}

	testutil.AssertStatus(t, serve(t, fin.ServeDebts, testutil.TeacherUser(primitive.NewObjectID()), "/", nil), http.StatusForbidden)
}

func TestServeReconcile_Access(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fin := finance.NewHandler(db, ledger.DefaultPolicy(), zap.NewNop())

	course := fx.CreateCourse(ctx, "Math", 1200000)
	g := fx.CreateGroup(ctx, "G", course.ID, primitive.NewObjectID())
	st := fx.CreateStudent(ctx, "Ann", g.ID, -20000)

	tests := []struct {
		name string
		user testutil.TestUser
		id   string
		want int
	}{
		{"director", testutil.DirectorUser(), st.ID.Hex(), http.StatusOK},
		{"admin", testutil.AdminUser(), st.ID.Hex(), http.StatusOK},
		{"accountant", testutil.AccountantUser(), st.ID.Hex(), http.StatusOK},
		{"manager lacks reconcile", testutil.ManagerUser(), st.ID.Hex(), http.StatusForbidden},
		{"teacher", testutil.TeacherUser(primitive.NewObjectID()), st.ID.Hex(), http.StatusForbidden},
		{"bad id", testutil.DirectorUser(), "nope", http.StatusBadRequest},
		{"unknown student", testutil.DirectorUser(), primitive.NewObjectID().Hex(), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, fin.ServeReconcile, tt.user, "/finance/reconcile/x", map[string]string{"studentID": tt.id})
			testutil.AssertStatus(t, rec, tt.want)
			if tt.want != http.StatusOK {
				return
			}
			var rc reconcileBody
			testutil.DecodeJSON(t, rec, &rc)
			if rc.Stored != -20000 || rc.Expected != -20000 || rc.Drift != 0 {
				t.Errorf("reconcile: %+v", rc)
			}
		})
	}
}

func TestServeReconcileAll_ListsOnlyDrifted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	policy := ledger.DefaultPolicy()
	pay := payments.NewHandler(db, zap.NewNop())
	fin := finance.NewHandler(db, policy, zap.NewNop())

	course := fx.CreateCourse(ctx, "Math", 1200000)
	g := fx.CreateGroup(ctx, "G", course.ID, primitive.NewObjectID())
	clean := fx.CreateStudent(ctx, "Clean", g.ID, -100000)
	drifted := fx.CreateStudent(ctx, "Drifted", g.ID, 0)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/payments", map[string]any{
		"student": clean.ID.Hex(), "group": g.ID.Hex(), "amount": 40000,
	})
	rec := httptest.NewRecorder()
	pay.HandleCreate(rec, testutil.WithUser(req, testutil.DirectorUser()))
	testutil.AssertStatus(t, rec, http.StatusCreated)

	if _, err := db.Collection("students").UpdateOne(ctx, bson.M{"_id": drifted.ID}, bson.M{"$inc": bson.M{"debt": 700}}); err != nil {
		t.Fatalf("tamper: %v", err)
	}

	rec = serve(t, fin.ServeReconcileAll, testutil.AccountantUser(), "/finance/reconcile", nil)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var report struct {
		Checked    int             `json:"checked"`
		Drifted    []reconcileBody `json:"drifted"`
		TotalDrift int64           `json:"totalDrift"`
	}
	testutil.DecodeJSON(t, rec, &report)
	if report.Checked != 2 || len(report.Drifted) != 1 || report.TotalDrift != 700 {
		t.Fatalf("report = %+v", report)
	}
	if d := report.Drifted[0]; d.Stored != 700 || d.Expected != 0 || d.Drift != 700 {
		t.Errorf("drifted = %+v", d)
	}

	testutil.AssertStatus(t, serve(t, fin.ServeReconcileAll, testutil.ManagerUser(), "/finance/reconcile", nil), http.StatusForbidden)
}
