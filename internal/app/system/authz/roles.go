// internal/app/system/authz/roles.go
package authz

import "strings"

// Role is the closed set of staff and student roles.
type Role string

const (
	RoleDirector   Role = "director"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleTeacher    Role = "teacher"
	RoleAccountant Role = "accountant"
	RoleStudent    Role = "student"
)

var allRoles = []Role{RoleDirector, RoleAdmin, RoleManager, RoleTeacher, RoleAccountant, RoleStudent}

// ParseRole maps a stored or token role ("Director", " teacher") to a Role.
func ParseRole(s string) (Role, bool) {
	v := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, r := range allRoles {
		if v == r {
			return r, true
		}
	}
	return "", false
}

// Title returns the capitalised form used in stored user documents
// ("Teacher"), which is also the employee type in the salary ledger.
func (r Role) Title() string {
	if r == "" {
		return ""
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}
