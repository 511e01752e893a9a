// internal/app/store/students/studentstore.go
package studentstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/eduledger/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound       = errors.New("student not found")
	ErrDuplicatePhone = errors.New("a student with this phone number already exists")
)

// Store owns the students collection, including the running balance.
//
// The balance (debt) is only ever changed through ApplyDelta / RecordPayment,
// which use a server-side $inc. Nothing in this package reads the balance to
// compute a new value.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("students")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Student, error) {
	var st models.Student
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&st); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Student{}, ErrNotFound
		}
		return models.Student{}, err
	}
	return st, nil
}

// GetMany loads students by id. Missing ids are simply absent from the map.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Student, error) {
	out := make(map[primitive.ObjectID]models.Student, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var st models.Student
		if err := cur.Decode(&st); err != nil {
			return nil, err
		}
		out[st.ID] = st
	}
	return out, cur.Err()
}

// Create inserts a student. The opening balance is pinned to the initial
// debt so reconciliation has an anchor.
func (s *Store) Create(ctx context.Context, st models.Student) (models.Student, error) {
	now := time.Now().UTC()
	st.ID = primitive.NewObjectID()
	st.OpeningBalance = st.Debt
	if st.Status == "" {
		st.Status = models.StudentActive
	}
	st.IsActive = st.Status == models.StudentActive
	st.CreatedAt = now
	st.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, st); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Student{}, ErrDuplicatePhone
		}
		return models.Student{}, err
	}
	return st, nil
}

// ApplyDelta adds delta to the student's balance and returns the new value.
func (s *Store) ApplyDelta(ctx context.Context, id primitive.ObjectID, delta int64) (int64, error) {
	return s.inc(ctx, id, delta, bson.M{
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
}

// RecordPayment is ApplyDelta that also advances last_payment_date. A
// backdated payment never moves the date backwards.
func (s *Store) RecordPayment(ctx context.Context, id primitive.ObjectID, delta int64, paidAt time.Time) (int64, error) {
	return s.inc(ctx, id, delta, bson.M{
		"$set": bson.M{"updated_at": time.Now().UTC()},
		"$max": bson.M{"last_payment_date": paidAt.UTC()},
	})
}

// inc adds delta to debt alongside the extra update operators in update.
func (s *Store) inc(ctx context.Context, id primitive.ObjectID, delta int64, update bson.M) (int64, error) {
	update["$inc"] = bson.M{"debt": delta}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"debt": 1})

	var out struct {
		Debt int64 `bson:"debt"`
	}
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		update,
		opts,
	).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return out.Debt, nil
}

// ListForGroup returns students linked to the group either by their own
// group_id or through the group's roster, sorted by name.
func (s *Store) ListForGroup(ctx context.Context, groupID primitive.ObjectID, roster []primitive.ObjectID) ([]models.Student, error) {
	or := bson.A{bson.M{"group_id": groupID}}
	if len(roster) > 0 {
		or = append(or, bson.M{"_id": bson.M{"$in": roster}})
	}
	return s.find(ctx, bson.M{"$or": or},
		options.Find().SetSort(bson.D{{Key: "first_name", Value: 1}, {Key: "last_name", Value: 1}, {Key: "_id", Value: 1}}))
}

// ListDebtors returns active students with a negative balance, largest
// debt first.
func (s *Store) ListDebtors(ctx context.Context) ([]models.Student, error) {
	return s.find(ctx, bson.M{"is_active": true, "debt": bson.M{"$lt": 0}},
		options.Find().SetSort(bson.D{{Key: "debt", Value: 1}, {Key: "_id", Value: 1}}))
}

// CountStanding counts active students that are paid and unpaid. A student
// is unpaid when they owe more than tolerance.
func (s *Store) CountStanding(ctx context.Context, tolerance int64) (paid, unpaid int64, err error) {
	total, err := s.c.CountDocuments(ctx, bson.M{"is_active": true})
	if err != nil {
		return 0, 0, err
	}
	unpaid, err = s.c.CountDocuments(ctx, bson.M{"is_active": true, "debt": bson.M{"$lt": -tolerance}})
	if err != nil {
		return 0, 0, err
	}
	return total - unpaid, unpaid, nil
}

// ListBalances returns every student with only the fields reconciliation
// needs: id, name, debt and opening balance.
func (s *Store) ListBalances(ctx context.Context) ([]models.Student, error) {
	return s.find(ctx, bson.M{}, options.Find().
		SetProjection(bson.M{"first_name": 1, "last_name": 1, "debt": 1, "opening_balance": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Student, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Student{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
