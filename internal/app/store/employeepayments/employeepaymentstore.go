// internal/app/store/employeepayments/employeepaymentstore.go
package employeepaymentstore

import (
	"context"
	"time"

	"github.com/dalemusser/eduledger/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store owns the salary ledger. Entries are append-only.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("employee_payments")}
}

func (s *Store) Create(ctx context.Context, p models.EmployeePayment) (models.EmployeePayment, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	if p.PaymentDate.IsZero() {
		p.PaymentDate = now
	}
	p.CreatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.EmployeePayment{}, err
	}
	return p, nil
}

// Filter narrows List; zero values are ignored.
type Filter struct {
	Category   string
	EmployeeID primitive.ObjectID
	From       *time.Time
	To         *time.Time
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if !f.EmployeeID.IsZero() {
		q["employee_id"] = f.EmployeeID
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

// List returns matching entries, newest first, and the sum of their amounts.
func (s *Store) List(ctx context.Context, f Filter) ([]models.EmployeePayment, int64, error) {
	cur, err := s.c.Find(ctx, f.query(),
		options.Find().SetSort(bson.D{{Key: "payment_date", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	out := []models.EmployeePayment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	var total int64
	for _, p := range out {
		total += p.Amount
	}
	return out, total, nil
}
