// internal/domain/models/attendance.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attendance statuses as stored.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceExcused = "excused"
	AttendanceLate    = "late"
)

// Submission modes recorded on each attendance row.
const (
	ModeStrict = "strict"
	ModeBulk   = "bulk"
)

// AttendanceRecord is one cell of the attendance table: a student's status
// in a group on a calendar date. (GroupID, StudentID, Date) is unique.
//
// ChargedAmount is the lesson charge currently debited from the student for
// this row. It doubles as the ledger's charge entry: the student's balance
// always reflects the sum of ChargedAmount over all of their rows.
type AttendanceRecord struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	GroupID       primitive.ObjectID `bson:"group_id" json:"group_id"`
	StudentID     primitive.ObjectID `bson:"student_id" json:"student_id"`
	TeacherID     primitive.ObjectID `bson:"teacher_id" json:"teacher_id"` // recording user
	Date          string             `bson:"date" json:"date"`             // YYYY-MM-DD
	Status        string             `bson:"status" json:"status"`
	Reason        string             `bson:"reason" json:"reason"`
	ChargedAmount int64              `bson:"charged_amount" json:"charged_amount"`
	SubmissionID  string             `bson:"submission_id" json:"submission_id"`
	Mode          string             `bson:"mode" json:"mode"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
