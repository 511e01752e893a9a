// internal/app/features/attendance/types.go
package attendance

import (
	attendancestore "github.com/dalemusser/eduledger/internal/app/store/attendance"
	"github.com/dalemusser/eduledger/internal/domain/models"
)

// recordRow is one student's mark in a submitted sheet.
type recordRow struct {
	Student string `json:"student" validate:"required,objectid" label:"Student"`
	Status  string `json:"status" validate:"required,attstatus" label:"Status"`
	Reason  string `json:"reason" validate:"max=500" label:"Reason"`
}

// strictRequest is the body of POST /attendance.
type strictRequest struct {
	Group   string      `json:"group" validate:"required,objectid" label:"Group"`
	Date    string      `json:"date" validate:"required,ymd" label:"Date"`
	Records []recordRow `json:"records" validate:"required,min=1,dive" label:"Records"`
}

// bulkRequest is the body of POST /attendance/bulk.
type bulkRequest struct {
	GroupID string      `json:"groupId" validate:"required,objectid" label:"Group"`
	Date    string      `json:"date" validate:"required,ymd" label:"Date"`
	Records []recordRow `json:"records" validate:"required,min=1,dive" label:"Records"`
}

type studentDebt struct {
	Student string `json:"student"`
	Debt    int64  `json:"debt"`
}

type strictResponse struct {
	Message      string                    `json:"message"`
	SubmissionID string                    `json:"submissionId"`
	Records      []models.AttendanceRecord `json:"records"`
	Debts        []studentDebt             `json:"debts"`
}

type rowError struct {
	Student string `json:"student"`
	Message string `json:"message"`
}

type bulkResponse struct {
	Count           int                         `json:"count"`
	SubmissionID    string                      `json:"submissionId"`
	Records         []models.AttendanceRecord   `json:"records"`
	BulkWriteResult attendancestore.WriteResult `json:"bulkWriteResult"`
	Charged         int64                       `json:"charged"`
	Refunded        int64                       `json:"refunded"`
	Errors          []rowError                  `json:"errors"`
}

type groupRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type tableStudent struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Debt       int64             `json:"debt"`
	Attendance map[string]string `json:"attendance"` // date -> status
}

type tableResponse struct {
	Group      groupRef       `json:"group"`
	Month      string         `json:"month"`
	Dates      []string       `json:"dates"`
	LessonDays []string       `json:"lessonDays"`
	Students   []tableStudent `json:"students"`
}

type dayRecord struct {
	models.AttendanceRecord
	StudentName string `json:"student_name"`
}

type dayResponse struct {
	Group   groupRef    `json:"group"`
	Date    string      `json:"date"`
	Records []dayRecord `json:"records"`
}

type deleteResponse struct {
	Message  string `json:"message"`
	Refunded int64  `json:"refunded"`
	NewDebt  int64  `json:"newDebt"`
}
