package studentstore_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	studentstore "github.com/dalemusser/eduledger/internal/app/store/students"
	"github.com/dalemusser/eduledger/internal/domain/models"
	"github.com/dalemusser/eduledger/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreatePinsOpeningBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Student{FirstName: "Aziz", PhoneNumber: "+998900000001", Debt: -50000})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.OpeningBalance != -50000 {
		t.Errorf("OpeningBalance = %d, want -50000", created.OpeningBalance)
	}
	if !created.IsActive || created.Status != models.StudentActive {
		t.Errorf("expected active student, got %+v", created)
	}

	_, err = store.Create(ctx, models.Student{FirstName: "Other", PhoneNumber: "+998900000001"})
	if !errors.Is(err, studentstore.ErrDuplicatePhone) {
		t.Errorf("expected ErrDuplicatePhone, got %v", err)
	}
}

func TestStore_CreateDerivesIsActiveFromStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name   string
		status string
		active bool
		want   bool
	}{
		{"explicit active", models.StudentActive, false, true},
		{"pending", models.StudentPending, true, false},
		{"dropped", models.StudentDropped, true, false},
		{"graduated", models.StudentGraduated, false, false},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created, err := store.Create(ctx, models.Student{
				FirstName:   tt.name,
				PhoneNumber: fmt.Sprintf("+99891%07d", i),
				Status:      tt.status,
				IsActive:    tt.active,
				Debt:        -50000,
			})
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			if created.IsActive != tt.want {
				t.Errorf("IsActive = %v, want %v", created.IsActive, tt.want)
			}
			reloaded, err := store.GetByID(ctx, created.ID)
			if err != nil {
				t.Fatalf("GetByID failed: %v", err)
			}
			if reloaded.IsActive != tt.want {
				t.Errorf("stored IsActive = %v, want %v", reloaded.IsActive, tt.want)
			}
		})
	}

	debtors, err := store.ListDebtors(ctx)
	if err != nil {
		t.Fatalf("ListDebtors failed: %v", err)
	}
	if len(debtors) != 1 || debtors[0].Status != models.StudentActive {
		t.Errorf("debtors = %+v, want only the active student", debtors)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, studentstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ApplyDelta(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studentstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	st := fx.CreateStudent(ctx, "Lola", primitive.NilObjectID, 0)

	got, err := store.ApplyDelta(ctx, st.ID, -100000)
	if err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}
	if got != -100000 {
		t.Errorf("new debt = %d, want -100000", got)
	}
	if got, _ = store.ApplyDelta(ctx, st.ID, 30000); got != -70000 {
		t.Errorf("new debt = %d, want -70000", got)
	}

	if _, err := store.ApplyDelta(ctx, primitive.NewObjectID(), 5); !errors.Is(err, studentstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_RecordPayment_StampsDate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studentstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	st := fx.CreateStudent(ctx, "Bek", primitive.NilObjectID, -200000)
	paidAt := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	got, err := store.RecordPayment(ctx, st.ID, 200000, paidAt)
	if err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	if got != 0 {
		t.Errorf("new debt = %d, want 0", got)
	}
	reloaded, _ := store.GetByID(ctx, st.ID)
	if reloaded.LastPaymentDate == nil || !reloaded.LastPaymentDate.Equal(paidAt) {
		t.Errorf("LastPaymentDate = %v, want %v", reloaded.LastPaymentDate, paidAt)
	}
}

func TestStore_RecordPayment_BackdatedKeepsLatestDate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studentstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	st := fx.CreateStudent(ctx, "Dilya", primitive.NilObjectID, -300000)
	latest := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	older := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	if _, err := store.RecordPayment(ctx, st.ID, 100000, latest); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	got, err := store.RecordPayment(ctx, st.ID, 50000, older)
	if err != nil {
		t.Fatalf("backdated RecordPayment failed: %v", err)
	}
	if got != -150000 {
		t.Errorf("new debt = %d, want -150000", got)
	}

	reloaded, _ := store.GetByID(ctx, st.ID)
	if reloaded.LastPaymentDate == nil || !reloaded.LastPaymentDate.Equal(latest) {
		t.Errorf("LastPaymentDate = %v, want %v", reloaded.LastPaymentDate, latest)
	}
}

func TestStore_ApplyDelta_ConcurrentNoLostUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studentstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	st := fx.CreateStudent(ctx, "Race", primitive.NilObjectID, 0)

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := store.ApplyDelta(ctx, st.ID, 50000); err != nil {
				t.Errorf("ApplyDelta: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := fx.StudentDebt(ctx, st.ID); got != workers*50000 {
		t.Errorf("debt = %d, want %d", got, workers*50000)
	}
}

func TestStore_ListDebtorsAndStanding(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studentstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateStudent(ctx, "Clear", primitive.NilObjectID, 0)
	fx.CreateStudent(ctx, "Edge", primitive.NilObjectID, -10000)
	over := fx.CreateStudent(ctx, "Over", primitive.NilObjectID, -10001)
	big := fx.CreateStudent(ctx, "Big", primitive.NilObjectID, -300000)

	debtors, err := store.ListDebtors(ctx)
	if err != nil {
		t.Fatalf("ListDebtors failed: %v", err)
	}
	if len(debtors) != 3 {
		t.Fatalf("len(debtors) = %d, want 3", len(debtors))
	}
	if debtors[0].ID != big.ID || debtors[1].ID != over.ID {
		t.Errorf("debtors not sorted by debt: %v, %v", debtors[0].FirstName, debtors[1].FirstName)
	}

	paid, unpaid, err := store.CountStanding(ctx, 10000)
	if err != nil {
		t.Fatalf("CountStanding failed: %v", err)
	}
	if paid != 2 || unpaid != 2 {
		t.Errorf("paid, unpaid = %d, %d; want 2, 2", paid, unpaid)
	}
}

func TestStore_ListForGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studentstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	groupID := primitive.NewObjectID()
	a := fx.CreateStudent(ctx, "Anvar", groupID, 0)
	rosterOnly := fx.CreateStudent(ctx, "Bobur", primitive.NilObjectID, 0)
	fx.CreateStudent(ctx, "Elsewhere", primitive.NewObjectID(), 0)

	got, err := store.ListForGroup(ctx, groupID, []primitive.ObjectID{rosterOnly.ID})
	if err != nil {
		t.Fatalf("ListForGroup failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != a.ID || got[1].ID != rosterOnly.ID {
		t.Errorf("unexpected students: %+v", got)
	}
}
