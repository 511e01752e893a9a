// internal/app/features/attendance/sheet.go
package attendance

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/eduledger/internal/app/policy/grouppolicy"
	coursestore "github.com/dalemusser/eduledger/internal/app/store/courses"
	groupstore "github.com/dalemusser/eduledger/internal/app/store/groups"
	studentstore "github.com/dalemusser/eduledger/internal/app/store/students"
	"github.com/dalemusser/eduledger/internal/app/system/apperr"
	"github.com/dalemusser/eduledger/internal/app/system/authz"
	"github.com/dalemusser/eduledger/internal/app/system/inputval"
	"github.com/dalemusser/eduledger/internal/app/system/normalize"
	"github.com/dalemusser/eduledger/internal/domain/ledger"
	"github.com/dalemusser/eduledger/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// mark is a validated row of a sheet.
type mark struct {
	StudentID primitive.ObjectID
	Status    string // canonical, lowercase
	Reason    string
}

// sheet is a submission that passed every check and may be written.
type sheet struct {
	Caller         authz.Caller
	Group          models.Group
	Date           string
	Marks          []mark
	PricePerLesson int64
}

// validationErr turns the first failed rule into a 400.
func validationErr(res *inputval.Result) error {
	return apperr.Validation(res.FirstField(), res.First())
}

// loadGroup resolves a group the caller may act on under capability c.
func (h *Handler) loadGroup(ctx context.Context, r *http.Request, c authz.Capability, groupHex string) (authz.Caller, models.Group, error) {
	caller, scope, err := authz.Authorize(r, c)
	if err != nil {
		return authz.Caller{}, models.Group{}, err
	}
	gid, err := primitive.ObjectIDFromHex(groupHex)
	if err != nil {
		return caller, models.Group{}, apperr.Validation("group", "Group must be a valid ID.")
	}
	g, err := groupstore.New(h.DB).GetByID(ctx, gid)
	if errors.Is(err, groupstore.ErrNotFound) {
		return caller, models.Group{}, apperr.NotFound("group not found")
	}
	if err != nil {
		return caller, models.Group{}, apperr.Internal("load group", err)
	}
	ok, err := grouppolicy.CanActOnGroup(ctx, h.DB, caller, scope, g)
	if err != nil {
		return caller, models.Group{}, apperr.Internal("check group ownership", err)
	}
	if !ok {
		return caller, models.Group{}, apperr.Forbidden("you may only work with your own groups")
	}
	return caller, g, nil
}

// prepare runs every check a sheet must pass before anything is written:
// caller and group, schedule, course price, and that each student exists and
// belongs to the group. rows must already have passed struct validation.
//
// When dedupe is set a student listed more than once keeps the last mark, at
// the position of their first one; otherwise a repeated student is rejected.
func (h *Handler) prepare(ctx context.Context, r *http.Request, groupHex, date string, rows []recordRow, dedupe bool) (*sheet, error) {
	caller, g, err := h.loadGroup(ctx, r, authz.AttendanceRecord, groupHex)
	if err != nil {
		return nil, err
	}

	day, _ := normalize.Date(date)
	if !g.MeetsOn(day.Weekday()) {
		h.Log.Warn("attendance submitted for a day without a lesson",
			zap.String("group_id", g.ID.Hex()),
			zap.String("date", date),
			zap.String("weekday", day.Weekday().String()))
		if h.EnforceSchedule {
			return nil, apperr.Validation("date", fmt.Sprintf("Group %s has no lesson on %s.", g.Name, day.Weekday()))
		}
	}

	course, err := coursestore.New(h.DB).GetByID(ctx, g.CourseID)
	if errors.Is(err, coursestore.ErrNotFound) {
		return nil, apperr.Inconsistency("course data for this group is missing; lesson price cannot be computed", err)
	}
	if err != nil {
		return nil, apperr.Internal("load course", err)
	}
	price, err := h.Policy.PricePerLesson(course)
	if err != nil {
		return nil, apperr.Inconsistency("course price is not usable; lesson price cannot be computed", err)
	}

	marks := make([]mark, 0, len(rows))
	pos := make(map[primitive.ObjectID]int, len(rows))
	for _, row := range rows {
		sid, _ := primitive.ObjectIDFromHex(row.Student)
		status, _ := ledger.NormalizeStatus(row.Status)
		m := mark{StudentID: sid, Status: status, Reason: normalize.Note(row.Reason)}
		if i, seen := pos[sid]; seen {
			if !dedupe {
				return nil, apperr.Validation("student", "Student "+sid.Hex()+" is listed more than once.")
			}
			marks[i] = m
			continue
		}
		pos[sid] = len(marks)
		marks = append(marks, m)
	}

	ids := make([]primitive.ObjectID, 0, len(marks))
	for _, m := range marks {
		ids = append(ids, m.StudentID)
	}
	students, err := studentstore.New(h.DB).GetMany(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("load students", err)
	}
	for _, id := range ids {
		st, ok := students[id]
		if !ok {
			return nil, apperr.NotFound("student " + id.Hex() + " not found")
		}
		if st.GroupID != g.ID && !g.HasStudent(id) {
			return nil, apperr.Validation("student", st.FullName()+" is not a member of group "+g.Name+".")
		}
	}

	return &sheet{
		Caller:         caller,
		Group:          g,
		Date:           date,
		Marks:          marks,
		PricePerLesson: price,
	}, nil
}

// record builds the stored row for m.
func (s *sheet) record(m mark, submissionID, mode string) models.AttendanceRecord {
	return models.AttendanceRecord{
		GroupID:       s.Group.ID,
		StudentID:     m.StudentID,
		TeacherID:     s.Caller.UserID,
		Date:          s.Date,
		Status:        m.Status,
		Reason:        m.Reason,
		ChargedAmount: ledger.ChargeFor(m.Status, s.PricePerLesson),
		SubmissionID:  submissionID,
		Mode:          mode,
	}
}
