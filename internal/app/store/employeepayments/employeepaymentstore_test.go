package employeepaymentstore_test

import (
	"testing"
	"time"

	employeepaymentstore "github.com/dalemusser/eduledger/internal/app/store/employeepayments"
	"github.com/dalemusser/eduledger/internal/domain/models"
	"github.com/dalemusser/eduledger/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_ListByCategoryAndRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := employeepaymentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teacher := primitive.NewObjectID()
	manager := primitive.NewObjectID()
	march := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

	entries := []models.EmployeePayment{
		{EmployeeID: teacher, EmployeeType: "Teacher", Category: models.CategoryTeacherSalary, Amount: 3000000, PaymentDate: march},
		{EmployeeID: teacher, EmployeeType: "Teacher", Category: models.CategoryTeacherSalary, Amount: 3100000, PaymentDate: april},
		{EmployeeID: manager, EmployeeType: "Manager", Category: models.CategoryManagerSalary, Amount: 4000000, PaymentDate: march},
	}
	for _, e := range entries {
		if _, err := store.Create(ctx, e); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	tests := []struct {
		name      string
		filter    employeepaymentstore.Filter
		wantCount int
		wantTotal int64
	}{
		{"all", employeepaymentstore.Filter{}, 3, 10100000},
		{"teacher salary", employeepaymentstore.Filter{Category: models.CategoryTeacherSalary}, 2, 6100000},
		{"march only", employeepaymentstore.Filter{From: &march, To: &march}, 2, 7000000},
		{"by employee", employeepaymentstore.Filter{EmployeeID: manager}, 1, 4000000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := store.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(got) != tt.wantCount {
				t.Errorf("count = %d, want %d", len(got), tt.wantCount)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
		})
	}
}
