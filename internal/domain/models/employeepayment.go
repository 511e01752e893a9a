// internal/domain/models/employeepayment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Salary categories; each employee type maps to exactly one.
const (
	CategoryTeacherSalary = "teacherSalary"
	CategoryManagerSalary = "managerSalary"
	CategoryAdminSalary   = "adminSalary"
)

// SalaryCategoryFor returns the category an employee type must be paid under.
func SalaryCategoryFor(employeeType string) (string, bool) {
	switch employeeType {
	case "Teacher":
		return CategoryTeacherSalary, true
	case "Manager":
		return CategoryManagerSalary, true
	case "Admin":
		return CategoryAdminSalary, true
	}
	return "", false
}

// EmployeePayment is a salary disbursement. It is a separate ledger and is
// never reconciled against student balances.
type EmployeePayment struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	EmployeeID   primitive.ObjectID `bson:"employee_id" json:"employee_id"`
	EmployeeType string             `bson:"employee_type" json:"employee_type"`
	Amount       int64              `bson:"amount" json:"amount"`
	PaymentDate  time.Time          `bson:"payment_date" json:"payment_date"`
	Description  string             `bson:"description" json:"description"`
	Category     string             `bson:"category" json:"category"`
	PaidBy       primitive.ObjectID `bson:"paid_by" json:"paid_by"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
