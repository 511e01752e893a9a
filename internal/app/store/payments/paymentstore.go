// internal/app/store/payments/paymentstore.go
package paymentstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/eduledger/internal/app/system/paging"
	"github.com/dalemusser/eduledger/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = errors.New("payment not found")
	// ErrStale: the payment's amount changed after the caller read it.
	ErrStale = errors.New("payment was modified concurrently")
)

// Store owns the payments collection (credit entries of the ledger).
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("payments")}
}

func (s *Store) Create(ctx context.Context, p models.Payment) (models.Payment, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	if p.Type == "" {
		p.Type = models.PaymentCash
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = now
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Payment{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Payment, error) {
	var p models.Payment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Payment{}, ErrNotFound
		}
		return models.Payment{}, err
	}
	return p, nil
}

// Changes lists the fields an amendment may touch. Nil fields are kept.
type Changes struct {
	Amount      *int64
	Type        *string
	PaymentDate *time.Time
}

// UpdateGuarded applies ch only if the stored amount still equals
// expectedAmount, and returns the updated payment. A missing payment gives
// ErrNotFound; a changed amount gives ErrStale.
func (s *Store) UpdateGuarded(ctx context.Context, id primitive.ObjectID, expectedAmount int64, ch Changes) (models.Payment, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if ch.Amount != nil {
		set["amount"] = *ch.Amount
	}
	if ch.Type != nil {
		set["type"] = *ch.Type
	}
	if ch.PaymentDate != nil {
		set["payment_date"] = ch.PaymentDate.UTC()
	}

	var p models.Payment
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "amount": expectedAmount},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Payment{}, err
	}
	if _, gerr := s.GetByID(ctx, id); gerr != nil {
		return models.Payment{}, gerr
	}
	return models.Payment{}, ErrStale
}

// Delete removes the payment and returns it; a second delete of the same id
// returns ErrNotFound, so a reversal can only be applied once.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (models.Payment, error) {
	var p models.Payment
	if err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Payment{}, ErrNotFound
		}
		return models.Payment{}, err
	}
	return p, nil
}

// Filter narrows List. Zero values are ignored. When GroupIn is non-nil
// results are limited to those groups (an empty slice matches nothing).
type Filter struct {
	StudentID primitive.ObjectID
	GroupID   primitive.ObjectID
	GroupIn   []primitive.ObjectID
	From      *time.Time
	To        *time.Time
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if !f.StudentID.IsZero() {
		q["student_id"] = f.StudentID
	}
	if f.GroupIn != nil {
		q["group_id"] = bson.M{"$in": f.GroupIn}
	}
	if !f.GroupID.IsZero() {
		if f.GroupIn != nil {
			q["$and"] = bson.A{bson.M{"group_id": f.GroupID}}
		} else {
			q["group_id"] = f.GroupID
		}
	}
	if f.From != nil || f.To != nil {
		r := bson.M{}
		if f.From != nil {
			r["$gte"] = f.From.UTC()
		}
		if f.To != nil {
			r["$lte"] = f.To.UTC()
		}
		q["payment_date"] = r
	}
	return q
}

// List returns one page of payments, newest first, starting at the 1-based
// index start.
func (s *Store) List(ctx context.Context, f Filter, start int) (paging.Page[models.Payment], error) {
	find := paging.ApplyOffset(options.Find(), start).
		SetSort(bson.D{{Key: "payment_date", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := s.c.Find(ctx, f.query(), find)
	if err != nil {
		return paging.Page[models.Payment]{}, err
	}
	defer cur.Close(ctx)
	var rows []models.Payment
	if err := cur.All(ctx, &rows); err != nil {
		return paging.Page[models.Payment]{}, err
	}
	return paging.Trim(rows, start), nil
}

// SumPerStudent totals payment amounts for every student that has paid.
func (s *Store) SumPerStudent(ctx context.Context) (map[primitive.ObjectID]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$student_id", "total": bson.M{"$sum": "$amount"}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := map[primitive.ObjectID]int64{}
	for cur.Next(ctx) {
		var row struct {
			ID    primitive.ObjectID `bson:"_id"`
			Total int64              `bson:"total"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.Total
	}
	return out, cur.Err()
}

// SumByStudent totals the amounts of a student's payments.
func (s *Store) SumByStudent(ctx context.Context, studentID primitive.ObjectID) (int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"student_id": studentID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}}},
	})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)
	var row struct {
		Total int64 `bson:"total"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&row); err != nil {
			return 0, err
		}
	}
	return row.Total, cur.Err()
}
