package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/eduledger/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// seq keeps generated names, emails and phone numbers unique within a run.
var seq atomic.Int64

func next() int64 { return seq.Add(1) }

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert test %s: %v", coll, err)
	}
}

// CreateUser creates a user with the given role ("Director", "Teacher", ...).
func (f *Fixtures) CreateUser(ctx context.Context, fullName, role string) models.User {
	f.t.Helper()
	now := time.Now().UTC()
	u := models.User{
		ID:        primitive.NewObjectID(),
		FullName:  fullName,
		Email:     fmt.Sprintf("user%d@test.local", next()),
		Role:      role,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateTeacher creates a Teacher user and the teaching profile linked to it.
func (f *Fixtures) CreateTeacher(ctx context.Context, fullName string) (models.User, models.Teacher) {
	f.t.Helper()
	u := f.CreateUser(ctx, fullName, "Teacher")
	now := time.Now().UTC()
	tp := models.Teacher{
		ID:        primitive.NewObjectID(),
		UserID:    u.ID,
		FirstName: fullName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "teachers", tp)
	return u, tp
}

// CreateCourse creates an active course with the given monthly price.
func (f *Fixtures) CreateCourse(ctx context.Context, name string, price int64) models.Course {
	f.t.Helper()
	return f.CreateCourseWithLessons(ctx, name, price, 0)
}

// CreateCourseWithLessons creates a course that overrides lessons per month.
func (f *Fixtures) CreateCourseWithLessons(ctx context.Context, name string, price int64, lessons int) models.Course {
	f.t.Helper()
	now := time.Now().UTC()
	c := models.Course{
		ID:              primitive.NewObjectID(),
		Name:            name,
		Price:           price,
		DurationMonths:  6,
		LessonsPerMonth: lessons,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	f.insert(ctx, "courses", c)
	return c
}

// CreateGroup creates an active group. days are weekday names for the
// schedule ("Monday"); with none the group meets every day.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, courseID, teacherID primitive.ObjectID, days ...string) models.Group {
	f.t.Helper()
	if len(days) == 0 {
		days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	}
	sched := make([]models.ScheduleSlot, 0, len(days))
	for _, d := range days {
		sched = append(sched, models.ScheduleSlot{Day: d, StartTime: "10:00", EndTime: "11:30"})
	}
	now := time.Now().UTC()
	g := models.Group{
		ID:         primitive.NewObjectID(),
		Name:       name,
		CourseID:   courseID,
		TeacherID:  teacherID,
		StartDate:  now.AddDate(0, -1, 0),
		Status:     models.GroupActive,
		Schedule:   sched,
		StudentIDs: []primitive.ObjectID{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.insert(ctx, "groups", g)
	return g
}

// CreateStudent creates an active student in the group with the given
// opening balance and adds them to the group's roster.
func (f *Fixtures) CreateStudent(ctx context.Context, firstName string, groupID primitive.ObjectID, debt int64) models.Student {
	f.t.Helper()
	now := time.Now().UTC()
	s := models.Student{
		ID:             primitive.NewObjectID(),
		FirstName:      firstName,
		LastName:       "Test",
		PhoneNumber:    fmt.Sprintf("+99890%07d", next()),
		GroupID:        groupID,
		Debt:           debt,
		OpeningBalance: debt,
		Status:         models.StudentActive,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.insert(ctx, "students", s)
	if !groupID.IsZero() {
		_, err := f.db.Collection("groups").UpdateOne(ctx,
			bson.M{"_id": groupID},
			bson.M{"$addToSet": bson.M{"student_ids": s.ID}})
		if err != nil {
			f.t.Fatalf("failed to add student to group: %v", err)
		}
	}
	return s
}

// StudentDebt reads the stored balance of a student.
func (f *Fixtures) StudentDebt(ctx context.Context, id primitive.ObjectID) int64 {
	f.t.Helper()
	var s models.Student
	if err := f.db.Collection("students").FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		f.t.Fatalf("failed to load student %s: %v", id.Hex(), err)
	}
	return s.Debt
}

// CountDocs counts documents in coll matching filter.
func (f *Fixtures) CountDocs(ctx context.Context, coll string, filter bson.M) int64 {
	f.t.Helper()
	n, err := f.db.Collection(coll).CountDocuments(ctx, filter)
	if err != nil {
		f.t.Fatalf("count %s: %v", coll, err)
	}
	return n
}
