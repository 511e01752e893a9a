// internal/app/features/attendance/view.go
package attendance

import (
	"net/http"
	"time"

	attendancestore "github.com/dalemusser/eduledger/internal/app/store/attendance"
	studentstore "github.com/dalemusser/eduledger/internal/app/store/students"
	"github.com/dalemusser/eduledger/internal/app/system/apperr"
	"github.com/dalemusser/eduledger/internal/app/system/authz"
	"github.com/dalemusser/eduledger/internal/app/system/inputval"
	"github.com/dalemusser/eduledger/internal/app/system/normalize"
	"github.com/dalemusser/eduledger/internal/app/system/respond"
	"github.com/dalemusser/eduledger/internal/app/system/timeouts"
	"github.com/dalemusser/eduledger/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeTable handles GET /attendance/table/{groupID}?month=YYYY-MM.
// It returns the students × dates grid of one month (default: current month).
func (h *Handler) ServeTable(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "attendance table")
	defer cancel()

	_, g, err := h.loadGroup(ctx, r, authz.AttendanceView, chi.URLParam(r, "groupID"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	month := normalize.QueryParam(r.URL.Query().Get("month"))
	if month == "" {
		month = time.Now().UTC().Format("2006-01")
	}
	first, last, ok := normalize.MonthRange(month)
	if !ok {
		respond.Error(w, r, h.Log, apperr.Validation("month", "Month must be a month in YYYY-MM format."))
		return
	}

	students, err := studentstore.New(h.DB).ListForGroup(ctx, g.ID, g.StudentIDs)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("load students", err))
		return
	}
	recs, err := attendancestore.New(h.DB).ListByGroupRange(ctx, g.ID, first, last)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("load attendance", err))
		return
	}

	byStudent := make(map[primitive.ObjectID]map[string]string, len(students))
	for _, rec := range recs {
		m := byStudent[rec.StudentID]
		if m == nil {
			m = make(map[string]string)
			byStudent[rec.StudentID] = m
		}
		m[rec.Date] = rec.Status
	}

	dates := normalize.DaysInMonth(month)
	out := tableResponse{
		Group:      groupRef{ID: g.ID.Hex(), Name: g.Name},
		Month:      month,
		Dates:      dates,
		LessonDays: []string{},
		Students:   make([]tableStudent, 0, len(students)),
	}
	for _, d := range dates {
		if t, ok := normalize.Date(d); ok && g.MeetsOn(t.Weekday()) {
			out.LessonDays = append(out.LessonDays, d)
		}
	}
	for _, st := range students {
		att := byStudent[st.ID]
		if att == nil {
			att = map[string]string{}
		}
		out.Students = append(out.Students, tableStudent{
			ID:         st.ID.Hex(),
			Name:       st.FullName(),
			Debt:       st.Debt,
			Attendance: att,
		})
	}

	respond.JSON(w, http.StatusOK, out)
}

// ServeDay handles GET /attendance/group/{groupID}/date/{date}.
func (h *Handler) ServeDay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "attendance day")
	defer cancel()

	_, g, err := h.loadGroup(ctx, r, authz.AttendanceView, chi.URLParam(r, "groupID"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	date := chi.URLParam(r, "date")
	if !inputval.IsValidDate(date) {
		respond.Error(w, r, h.Log, apperr.Validation("date", "Date must be a date in YYYY-MM-DD format."))
		return
	}

	recs, err := attendancestore.New(h.DB).ListByGroupRange(ctx, g.ID, date, date)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("load attendance", err))
		return
	}
	ids := make([]primitive.ObjectID, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.StudentID)
	}
	students, err := studentstore.New(h.DB).GetMany(ctx, ids)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("load students", err))
		return
	}

	out := dayResponse{
		Group:   groupRef{ID: g.ID.Hex(), Name: g.Name},
		Date:    date,
		Records: make([]dayRecord, 0, len(recs)),
	}
	for _, rec := range recs {
		out.Records = append(out.Records, dayRecord{AttendanceRecord: rec, StudentName: studentName(students, rec)})
	}
	respond.JSON(w, http.StatusOK, out)
}

func studentName(students map[primitive.ObjectID]models.Student, rec models.AttendanceRecord) string {
	if st, ok := students[rec.StudentID]; ok {
		return st.FullName()
	}
	return ""
}
