// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group statuses.
const (
	GroupPending   = "Pending"
	GroupActive    = "Active"
	GroupCompleted = "Completed"
	GroupCanceled  = "Canceled"
)

// ScheduleSlot is one weekly lesson. Day is an English weekday name
// ("Monday" ... "Sunday"); times are "HH:MM" in the center's local time.
type ScheduleSlot struct {
	Day       string `bson:"day" json:"day"`
	StartTime string `bson:"start_time" json:"start_time"`
	EndTime   string `bson:"end_time" json:"end_time"`
}

// Group is a class of students taught by one teacher for one course.
//
// NOTE:
//   - StudentIDs is the roster as maintained by enrollment; a student also
//     carries its own GroupID. Either link is accepted as membership.
//   - At most one attendance sheet exists per (group, date); the unique
//     index lives on the attendance collection.
type Group struct {
	ID         primitive.ObjectID   `bson:"_id" json:"id"`
	Name       string               `bson:"name" json:"name"`
	CourseID   primitive.ObjectID   `bson:"course_id" json:"course_id"`
	TeacherID  primitive.ObjectID   `bson:"teacher_id" json:"teacher_id"`
	RoomID     *primitive.ObjectID  `bson:"room_id,omitempty" json:"room_id,omitempty"`
	StartDate  time.Time            `bson:"start_date" json:"start_date"`
	Status     string               `bson:"status" json:"status"`
	Schedule   []ScheduleSlot       `bson:"schedule" json:"schedule"`
	StudentIDs []primitive.ObjectID `bson:"student_ids" json:"student_ids"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasStudent reports whether id is on the group's roster.
func (g Group) HasStudent(id primitive.ObjectID) bool {
	for _, sid := range g.StudentIDs {
		if sid == id {
			return true
		}
	}
	return false
}

// MeetsOn reports whether the group has a scheduled lesson on the given weekday.
func (g Group) MeetsOn(day time.Weekday) bool {
	for _, s := range g.Schedule {
		if s.Day == day.String() {
			return true
		}
	}
	return false
}
