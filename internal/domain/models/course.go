// internal/domain/models/course.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Course defines the monthly price that lesson charges are derived from.
//
// LessonsPerMonth overrides the service-wide divisor when > 0.
type Course struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Price           int64              `bson:"price" json:"price"`
	DurationMonths  int                `bson:"duration_months" json:"duration_months"`
	LessonsPerMonth int                `bson:"lessons_per_month,omitempty" json:"lessons_per_month,omitempty"`
	IsActive        bool               `bson:"is_active" json:"is_active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
