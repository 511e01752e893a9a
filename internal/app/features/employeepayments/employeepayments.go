// internal/app/features/employeepayments/employeepayments.go
package employeepayments

import (
	"errors"
	"net/http"
	"time"

	employeepaymentstore "github.com/dalemusser/eduledger/internal/app/store/employeepayments"
	userstore "github.com/dalemusser/eduledger/internal/app/store/users"
	"github.com/dalemusser/eduledger/internal/app/system/apperr"
	"github.com/dalemusser/eduledger/internal/app/system/authz"
	"github.com/dalemusser/eduledger/internal/app/system/inputval"
	"github.com/dalemusser/eduledger/internal/app/system/normalize"
	"github.com/dalemusser/eduledger/internal/app/system/respond"
	"github.com/dalemusser/eduledger/internal/app/system/timeouts"
	"github.com/dalemusser/eduledger/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type createRequest struct {
	EmployeeID   string `json:"employeeId" validate:"required,objectid" label:"Employee"`
	EmployeeType string `json:"employeeType" validate:"required,oneof=Teacher Manager Admin" label:"Employee type"`
	Amount       int64  `json:"amount" validate:"required,gt=0" label:"Amount"`
	PaymentDate  string `json:"paymentDate" validate:"omitempty,ymd" label:"Payment date"`
	Description  string `json:"description" validate:"max=500" label:"Description"`
	Category     string `json:"category" validate:"required,oneof=teacherSalary managerSalary adminSalary" label:"Category"`
}

type createResponse struct {
	Message string                 `json:"message"`
	Payment models.EmployeePayment `json:"payment"`
}

type listResponse struct {
	Items []models.EmployeePayment `json:"items"`
	Count int                      `json:"count"`
	Total int64                    `json:"total"`
}

// HandleCreate handles POST /employee-payments.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "employee payment create")
	defer cancel()

	caller, _, err := authz.Authorize(r, authz.EmployeePaymentCreate)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	var req createRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation(res.FirstField(), res.First()))
		return
	}
	if want, _ := models.SalaryCategoryFor(req.EmployeeType); want != req.Category {
		respond.Error(w, r, h.Log, apperr.Validation("category", "Category "+req.Category+" does not match employee type "+req.EmployeeType+"."))
		return
	}

	eid, _ := primitive.ObjectIDFromHex(req.EmployeeID)
	u, err := userstore.New(h.DB).GetByID(ctx, eid)
	if errors.Is(err, userstore.ErrNotFound) {
		respond.Error(w, r, h.Log, apperr.NotFound("employee not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("load employee", err))
		return
	}
	if role, ok := authz.ParseRole(u.Role); !ok || role.Title() != req.EmployeeType {
		respond.Error(w, r, h.Log, apperr.Validation("employeeType", "Employee "+u.FullName+" is not a "+req.EmployeeType+"."))
		return
	}

	p := models.EmployeePayment{
		EmployeeID:   u.ID,
		EmployeeType: req.EmployeeType,
		Amount:       req.Amount,
		Description:  normalize.Note(req.Description),
		Category:     req.Category,
		PaidBy:       caller.UserID,
	}
	if req.PaymentDate != "" {
		p.PaymentDate, _ = normalize.Date(req.PaymentDate)
	}

	created, err := employeepaymentstore.New(h.DB).Create(ctx, p)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("record salary payment", err))
		return
	}

	h.Log.Info("salary payment recorded",
		zap.String("employee_id", u.ID.Hex()),
		zap.String("category", created.Category),
		zap.String("paid_by", caller.UserID.Hex()),
		zap.Int64("amount", created.Amount))

	respond.JSON(w, http.StatusCreated, createResponse{Message: "Salary payment recorded.", Payment: created})
}

// ServeList handles GET /employee-payments?category=&from=&to=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "employee payment list")
	defer cancel()

	if _, _, err := authz.Authorize(r, authz.EmployeePaymentList); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	var f employeepaymentstore.Filter
	switch c := normalize.QueryParam(query.Get(r, "category")); c {
	case "":
	case models.CategoryTeacherSalary, models.CategoryManagerSalary, models.CategoryAdminSalary:
		f.Category = c
	default:
		respond.Error(w, r, h.Log, apperr.Validation("category", "Category must be one of: teacherSalary, managerSalary, adminSalary."))
		return
	}
	if v := normalize.QueryParam(query.Get(r, "from")); v != "" {
		d, ok := normalize.Date(v)
		if !ok {
			respond.Error(w, r, h.Log, apperr.Validation("from", "From must be a date in YYYY-MM-DD format."))
			return
		}
		f.From = &d
	}
	if v := normalize.QueryParam(query.Get(r, "to")); v != "" {
		d, ok := normalize.Date(v)
		if !ok {
			respond.Error(w, r, h.Log, apperr.Validation("to", "To must be a date in YYYY-MM-DD format."))
			return
		}
		end := d.Add(24*time.Hour - time.Nanosecond)
		f.To = &end
	}

	items, total, err := employeepaymentstore.New(h.DB).List(ctx, f)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("list salary payments", err))
		return
	}
	respond.JSON(w, http.StatusOK, listResponse{Items: items, Count: len(items), Total: total})
}
