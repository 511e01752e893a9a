// internal/app/store/teachers/teacherstore.go
package teacherstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/eduledger/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound        = errors.New("teacher profile not found")
	ErrDuplicateUserID = errors.New("this user already has a teacher profile")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("teachers")}
}

// GetByUserID resolves the teaching profile of a signed-in user.
func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (models.Teacher, error) {
	var t models.Teacher
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Teacher{}, ErrNotFound
		}
		return models.Teacher{}, err
	}
	return t, nil
}

func (s *Store) Create(ctx context.Context, t models.Teacher) (models.Teacher, error) {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Teacher{}, ErrDuplicateUserID
		}
		return models.Teacher{}, err
	}
	return t, nil
}
