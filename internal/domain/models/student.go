// internal/domain/models/student.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Student lifecycle statuses.
const (
	StudentActive    = "Active"
	StudentPending   = "Pending"
	StudentDropped   = "Dropped"
	StudentGraduated = "Graduated"
)

// Student is an enrolled learner and the owner of a running balance.
//
// Debt is the signed balance in whole currency units: lesson charges
// subtract from it, payments add to it, so a negative value is money the
// student owes. It is only ever changed with a server-side $inc
// (see studentstore.Store.ApplyDelta). OpeningBalance is the value Debt
// had at enrollment and anchors reconciliation.
type Student struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	FirstName       string             `bson:"first_name" json:"first_name"`
	LastName        string             `bson:"last_name" json:"last_name"`
	PhoneNumber     string             `bson:"phone_number" json:"phone_number"`
	GroupID         primitive.ObjectID `bson:"group_id" json:"group_id"`
	Debt            int64              `bson:"debt" json:"debt"`
	OpeningBalance  int64              `bson:"opening_balance" json:"opening_balance"`
	LastPaymentDate *time.Time         `bson:"last_payment_date,omitempty" json:"last_payment_date,omitempty"`
	Status          string             `bson:"status" json:"status"`
	IsActive        bool               `bson:"is_active" json:"is_active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// FullName joins first and last name.
func (s Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}
