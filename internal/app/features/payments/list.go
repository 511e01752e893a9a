// internal/app/features/payments/list.go
package payments

import (
	"net/http"
	"time"

	"github.com/dalemusser/eduledger/internal/app/policy/grouppolicy"
	groupstore "github.com/dalemusser/eduledger/internal/app/store/groups"
	paymentstore "github.com/dalemusser/eduledger/internal/app/store/payments"
	studentstore "github.com/dalemusser/eduledger/internal/app/store/students"
	"github.com/dalemusser/eduledger/internal/app/system/apperr"
	"github.com/dalemusser/eduledger/internal/app/system/authz"
	"github.com/dalemusser/eduledger/internal/app/system/normalize"
	"github.com/dalemusser/eduledger/internal/app/system/paging"
	"github.com/dalemusser/eduledger/internal/app/system/respond"
	"github.com/dalemusser/eduledger/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// parseFilter reads student, group, from and to. Dates are YYYY-MM-DD and
// both ends are inclusive.
func parseFilter(r *http.Request) (paymentstore.Filter, error) {
	var f paymentstore.Filter
	if v := normalize.QueryParam(query.Get(r, "student")); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return f, apperr.Validation("student", "Student must be a valid ID.")
		}
		f.StudentID = id
	}
	if v := normalize.QueryParam(query.Get(r, "group")); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return f, apperr.Validation("group", "Group must be a valid ID.")
		}
		f.GroupID = id
	}
	if v := normalize.QueryParam(query.Get(r, "from")); v != "" {
		d, ok := normalize.Date(v)
		if !ok {
			return f, apperr.Validation("from", "From must be a date in YYYY-MM-DD format.")
		}
		f.From = &d
	}
	if v := normalize.QueryParam(query.Get(r, "to")); v != "" {
		d, ok := normalize.Date(v)
		if !ok {
			return f, apperr.Validation("to", "To must be a date in YYYY-MM-DD format.")
		}
		end := d.Add(24*time.Hour - time.Nanosecond)
		f.To = &end
	}
	return f, nil
}

// ServeList handles GET /payments. Teachers only see payments of their own
// groups.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "payment list")
	defer cancel()

	caller, scope, err := authz.Authorize(r, authz.PaymentList)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	f.GroupIn, err = grouppolicy.VisibleGroupIDs(ctx, h.DB, caller, scope)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("resolve visible groups", err))
		return
	}

	start := paging.ParseStart(r)
	page, err := paymentstore.New(h.DB).List(ctx, f, start)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("list payments", err))
		return
	}

	var sids, gids []primitive.ObjectID
	for _, p := range page.Items {
		sids = append(sids, p.StudentID)
		gids = append(gids, p.GroupID)
	}
	students, err := studentstore.New(h.DB).GetMany(ctx, sids)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("load students", err))
		return
	}
	groups, err := groupstore.New(h.DB).Names(ctx, gids)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("load groups", err))
		return
	}

	out := listResponse{Page: paging.Page[listItem]{
		Items:   make([]listItem, 0, len(page.Items)),
		HasNext: page.HasNext,
		Range:   page.Range,
	}}
	for _, p := range page.Items {
		item := listItem{Payment: p, GroupName: groups[p.GroupID]}
		if st, ok := students[p.StudentID]; ok {
			item.StudentName = st.FullName()
		}
		out.Items = append(out.Items, item)
		out.Total += p.Amount
	}

	respond.JSON(w, http.StatusOK, out)
}
