// internal/domain/models/payment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment types.
const (
	PaymentCash     = "Cash"
	PaymentCard     = "Card"
	PaymentTransfer = "Transfer"
)

// Payment is a credit entry on a student's balance.
type Payment struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	StudentID   primitive.ObjectID `bson:"student_id" json:"student_id"`
	GroupID     primitive.ObjectID `bson:"group_id" json:"group_id"`
	Amount      int64              `bson:"amount" json:"amount"`
	Type        string             `bson:"type" json:"type"`
	PaymentDate time.Time          `bson:"payment_date" json:"payment_date"`
	PaidBy      primitive.ObjectID `bson:"paid_by" json:"paid_by"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
