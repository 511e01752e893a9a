package coursestore_test

import (
	"errors"
	"testing"

	coursestore "github.com/dalemusser/eduledger/internal/app/store/courses"
	"github.com/dalemusser/eduledger/internal/domain/models"
	"github.com/dalemusser/eduledger/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := coursestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Course{Name: "IELTS", Price: 1200000, LessonsPerMonth: 8, IsActive: true})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Price != 1200000 || got.LessonsPerMonth != 8 {
		t.Errorf("unexpected course %+v", got)
	}

	if _, err := store.Create(ctx, models.Course{Name: "IELTS"}); !errors.Is(err, coursestore.ErrDuplicateCourseName) {
		t.Errorf("expected ErrDuplicateCourseName, got %v", err)
	}
	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, coursestore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
