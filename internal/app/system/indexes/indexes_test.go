package indexes_test

import (
	"context"
	"testing"

	"github.com/dalemusser/eduledger/internal/app/system/indexes"
	"github.com/dalemusser/eduledger/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, ctx context.Context, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes on %s failed: %v", coll, err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// SetupTestDB already ran EnsureAll once.
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("third EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesLedgerIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	expected := map[string][]string{
		"attendance":        {"uniq_attendance_group_student_date", "idx_attendance_group_date", "idx_attendance_student_date"},
		"attendance_sheets": {"uniq_attendance_sheets_group_date"},
		"payments":          {"idx_payments_student_date", "idx_payments_group_date", "idx_payments_date_id"},
		"employee_payments": {"idx_employee_payments_employee_date", "idx_employee_payments_category_date"},
		"students":          {"uniq_students_phone", "idx_students_group", "idx_students_active_debt"},
		"teachers":          {"uniq_teachers_user"},
		"groups":            {"uniq_groups_name", "idx_groups_teacher_status", "idx_groups_student_ids"},
	}

	for coll, want := range expected {
		names := indexNames(t, ctx, db, coll)
		for _, name := range want {
			if !names[name] {
				t.Errorf("expected index %q on %s", name, coll)
			}
		}
	}
}

func TestEnsureAll_AttendanceUniqueEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	doc := bson.M{"group_id": "g1", "student_id": "s1", "date": "2024-03-04", "status": "present"}
	if _, err := db.Collection("attendance").InsertOne(ctx, doc); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	dup := bson.M{"group_id": "g1", "student_id": "s1", "date": "2024-03-04", "status": "absent"}
	if _, err := db.Collection("attendance").InsertOne(ctx, dup); err == nil {
		t.Error("expected duplicate key error for (group, student, date)")
	}

	other := bson.M{"group_id": "g1", "student_id": "s1", "date": "2024-03-05", "status": "present"}
	if _, err := db.Collection("attendance").InsertOne(ctx, other); err != nil {
		t.Errorf("different date should insert: %v", err)
	}
}
