// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/eduledger/internal/app/system/apperr"
	"github.com/dalemusser/eduledger/internal/app/system/auth"
	"github.com/dalemusser/eduledger/internal/app/system/respond"
)

// Capability names one guarded ledger operation.
type Capability string

const (
	AttendanceRecord      Capability = "attendance.record"
	AttendanceView        Capability = "attendance.view"
	AttendanceDelete      Capability = "attendance.delete"
	PaymentCreate         Capability = "payment.create"
	PaymentList           Capability = "payment.list"
	PaymentUpdate         Capability = "payment.update"
	PaymentDelete         Capability = "payment.delete"
	EmployeePaymentCreate Capability = "employeepayment.create"
	EmployeePaymentList   Capability = "employeepayment.list"
	BalanceView           Capability = "balance.view"
	FinanceReport         Capability = "finance.report"
	FinanceReconcile      Capability = "finance.reconcile"
)

// Scope says how far a granted capability reaches.
type Scope int

const (
	// ScopeNone: not granted.
	ScopeNone Scope = iota
	// ScopeOwnGroups: only groups the caller teaches, and their students.
	ScopeOwnGroups
	// ScopeAll: every group and student.
	ScopeAll
)

var (
	staffAndTeacher = []Role{RoleDirector, RoleAdmin, RoleManager, RoleTeacher}
	financeDesk     = []Role{RoleDirector, RoleAdmin, RoleAccountant}
)

// table is the single source of truth for who may do what. Teachers get
// ScopeOwnGroups wherever they appear.
var table = map[Capability][]Role{
	AttendanceRecord:      staffAndTeacher,
	AttendanceView:        staffAndTeacher,
	AttendanceDelete:      {RoleDirector, RoleAdmin},
	PaymentCreate:         staffAndTeacher,
	PaymentList:           {RoleDirector, RoleAdmin, RoleManager, RoleAccountant, RoleTeacher},
	PaymentUpdate:         {RoleDirector, RoleManager},
	PaymentDelete:         {RoleDirector, RoleManager},
	EmployeePaymentCreate: financeDesk,
	EmployeePaymentList:   financeDesk,
	BalanceView:           {RoleDirector, RoleAdmin, RoleManager, RoleAccountant, RoleTeacher},
	FinanceReport:         {RoleDirector, RoleAdmin, RoleManager, RoleAccountant},
	FinanceReconcile:      financeDesk,
}

// Can reports the scope at which role holds capability c.
func Can(role Role, c Capability) Scope {
	for _, r := range table[c] {
		if r == role {
			if r == RoleTeacher {
				return ScopeOwnGroups
			}
			return ScopeAll
		}
	}
	return ScopeNone
}

// Caller is the authenticated user resolved to a typed role.
type Caller struct {
	UserID primitive.ObjectID
	Name   string
	Role   Role
}

// UserCtx returns the caller, or ok=false when nobody is signed in or the
// token carries a malformed id or unknown role.
func UserCtx(r *http.Request) (Caller, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return Caller{}, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return Caller{}, false
	}
	role, ok := ParseRole(u.Role)
	if !ok {
		return Caller{}, false
	}
	return Caller{UserID: id, Name: u.Name, Role: role}, true
}

// Authorize resolves the caller and checks c. It returns 401 when there is no
// usable caller and 403 when the role lacks the capability.
func Authorize(r *http.Request, c Capability) (Caller, Scope, error) {
	caller, ok := UserCtx(r)
	if !ok {
		return Caller{}, ScopeNone, apperr.Unauthorized("sign in required")
	}
	scope := Can(caller.Role, c)
	if scope == ScopeNone {
		return caller, ScopeNone, apperr.Forbidden("your role may not perform this action")
	}
	return caller, scope, nil
}

// Require is route middleware enforcing c. Handlers still call Authorize to
// learn the scope.
func Require(c Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, _, err := Authorize(r, c); err != nil {
				respond.Error(w, r, nil, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
