package attendancestore_test

import (
	"errors"
	"testing"

	attendancestore "github.com/dalemusser/eduledger/internal/app/store/attendance"
	"github.com/dalemusser/eduledger/internal/domain/models"
	"github.com/dalemusser/eduledger/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func record(groupID, studentID primitive.ObjectID, date, status string, charged int64) models.AttendanceRecord {
	return models.AttendanceRecord{
		GroupID:       groupID,
		StudentID:     studentID,
		TeacherID:     primitive.NewObjectID(),
		Date:          date,
		Status:        status,
		ChargedAmount: charged,
		SubmissionID:  "sub-1",
		Mode:          models.ModeBulk,
	}
}

func TestStore_InsertMany_DuplicateTriple(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := attendancestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g, s1, s2 := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	recs, err := store.InsertMany(ctx, []models.AttendanceRecord{
		record(g, s1, "2024-03-04", models.AttendancePresent, 100000),
		record(g, s2, "2024-03-04", models.AttendanceAbsent, 0),
	})
	if err != nil {
		t.Fatalf("InsertMany failed: %v", err)
	}
	if len(recs) != 2 || recs[0].ID.IsZero() {
		t.Fatalf("expected ids assigned, got %+v", recs)
	}

	exists, err := store.ExistsForGroupDate(ctx, g, "2024-03-04")
	if err != nil || !exists {
		t.Errorf("ExistsForGroupDate = %v, %v; want true", exists, err)
	}
	exists, _ = store.ExistsForGroupDate(ctx, g, "2024-03-05")
	if exists {
		t.Error("ExistsForGroupDate on empty day = true")
	}

	_, err = store.InsertMany(ctx, []models.AttendanceRecord{record(g, s1, "2024-03-04", models.AttendanceLate, 100000)})
	if !errors.Is(err, attendancestore.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestStore_UpsertGuarded(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := attendancestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g, s := primitive.NewObjectID(), primitive.NewObjectID()

	// New row: previous charge 0.
	res, err := store.UpsertGuarded(ctx, record(g, s, "2024-03-04", models.AttendancePresent, 100000), 0)
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if res.Upserted != 1 {
		t.Errorf("Upserted = %d, want 1", res.Upserted)
	}

	// Correct the row to absent, knowing the stored charge.
	res, err = store.UpsertGuarded(ctx, record(g, s, "2024-03-04", models.AttendanceAbsent, 0), 100000)
	if err != nil {
		t.Fatalf("correction failed: %v", err)
	}
	if res.Matched != 1 || res.Modified != 1 {
		t.Errorf("result = %+v, want matched 1 modified 1", res)
	}

	// A writer with an outdated view (thinks the charge is still 100000).
	_, err = store.UpsertGuarded(ctx, record(g, s, "2024-03-04", models.AttendanceLate, 100000), 100000)
	if !errors.Is(err, attendancestore.ErrStale) {
		t.Errorf("expected ErrStale, got %v", err)
	}

	byStudent, err := store.FindForGroupDate(ctx, g, "2024-03-04")
	if err != nil {
		t.Fatalf("FindForGroupDate failed: %v", err)
	}
	got := byStudent[s]
	if got.Status != models.AttendanceAbsent || got.ChargedAmount != 0 {
		t.Errorf("stored row = %+v", got)
	}
	if len(byStudent) != 1 {
		t.Errorf("expected a single row, got %d", len(byStudent))
	}
}

func TestStore_UpsertSameCharge(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := attendancestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := primitive.NewObjectID()
	charged, fresh := primitive.NewObjectID(), primitive.NewObjectID()

	if _, err := store.UpsertGuarded(ctx, record(g, charged, "2024-03-04", models.AttendancePresent, 100000), 0); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	res, items, err := store.UpsertSameCharge(ctx, []models.AttendanceRecord{
		// present -> late keeps the same charge
		record(g, charged, "2024-03-04", models.AttendanceLate, 100000),
		// new absent row
		record(g, fresh, "2024-03-04", models.AttendanceAbsent, 0),
	})
	if err != nil {
		t.Fatalf("UpsertSameCharge failed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("unexpected item errors: %+v", items)
	}
	if res.Matched != 1 || res.Upserted != 1 {
		t.Errorf("result = %+v, want matched 1 upserted 1", res)
	}

	// Claiming "absent, charge 0" over a charged row is stale.
	_, items, err = store.UpsertSameCharge(ctx, []models.AttendanceRecord{
		record(g, fresh, "2024-03-04", models.AttendanceExcused, 0),
		record(g, charged, "2024-03-04", models.AttendanceAbsent, 0),
	})
	if err != nil {
		t.Fatalf("UpsertSameCharge failed: %v", err)
	}
	if len(items) != 1 || items[0].Index != 1 || !errors.Is(items[0].Err, attendancestore.ErrStale) {
		t.Fatalf("expected stale error on index 1, got %+v", items)
	}

	byStudent, _ := store.FindForGroupDate(ctx, g, "2024-03-04")
	if byStudent[fresh].Status != models.AttendanceExcused {
		t.Errorf("independent row not applied: %+v", byStudent[fresh])
	}
	if byStudent[charged].Status != models.AttendanceLate || byStudent[charged].ChargedAmount != 100000 {
		t.Errorf("stale row was modified: %+v", byStudent[charged])
	}
}

func TestStore_DeleteAndSum(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := attendancestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g, s := primitive.NewObjectID(), primitive.NewObjectID()
	recs, err := store.InsertMany(ctx, []models.AttendanceRecord{
		record(g, s, "2024-03-04", models.AttendancePresent, 100000),
		record(g, s, "2024-03-06", models.AttendanceLate, 100000),
		record(g, s, "2024-03-08", models.AttendanceAbsent, 0),
	})
	if err != nil {
		t.Fatalf("InsertMany failed: %v", err)
	}

	total, err := store.SumChargedByStudent(ctx, s)
	if err != nil {
		t.Fatalf("SumChargedByStudent failed: %v", err)
	}
	if total != 200000 {
		t.Errorf("total = %d, want 200000", total)
	}

	deleted, err := store.Delete(ctx, recs[0].ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted.ChargedAmount != 100000 {
		t.Errorf("deleted charge = %d", deleted.ChargedAmount)
	}
	if _, err := store.Delete(ctx, recs[0].ID); !errors.Is(err, attendancestore.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}

	month, err := store.ListByGroupRange(ctx, g, "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("ListByGroupRange failed: %v", err)
	}
	if len(month) != 2 || month[0].Date != "2024-03-06" {
		t.Errorf("unexpected month rows: %+v", month)
	}

	if total, _ := store.SumChargedByStudent(ctx, primitive.NewObjectID()); total != 0 {
		t.Errorf("sum for unknown student = %d", total)
	}
}

func TestStore_ClaimAndReleaseSheet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := attendancestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g, s := primitive.NewObjectID(), primitive.NewObjectID()

	if err := store.ClaimSheet(ctx, g, "2024-03-04", "sub-a"); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if err := store.ClaimSheet(ctx, g, "2024-03-04", "sub-b"); !errors.Is(err, attendancestore.ErrSheetTaken) {
		t.Errorf("second claim: expected ErrSheetTaken, got %v", err)
	}
	if err := store.ClaimSheet(ctx, g, "2024-03-05", "sub-c"); err != nil {
		t.Errorf("claim on another day failed: %v", err)
	}

	recs, err := store.InsertMany(ctx, []models.AttendanceRecord{record(g, s, "2024-03-04", models.AttendancePresent, 100000)})
	if err != nil {
		t.Fatalf("InsertMany failed: %v", err)
	}

	// A record is still there, so the claim stays.
	if err := store.ReleaseSheet(ctx, g, "2024-03-04"); err != nil {
		t.Fatalf("ReleaseSheet failed: %v", err)
	}
	if err := store.ClaimSheet(ctx, g, "2024-03-04", "sub-d"); !errors.Is(err, attendancestore.ErrSheetTaken) {
		t.Errorf("claim with records left: expected ErrSheetTaken, got %v", err)
	}

	if _, err := store.Delete(ctx, recs[0].ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.ReleaseSheet(ctx, g, "2024-03-04"); err != nil {
		t.Fatalf("ReleaseSheet failed: %v", err)
	}
	if err := store.ClaimSheet(ctx, g, "2024-03-04", "sub-e"); err != nil {
		t.Errorf("claim after release failed: %v", err)
	}
}
