// Package ledger holds the balance rules shared by the attendance and
// payment features.
//
// Sign convention: a student's stored balance (Student.Debt) goes down when
// a lesson is charged and up when a payment is posted. A negative balance is
// money the student owes; Owed reports it as a positive amount.
//
// Every function here is pure. Callers apply the returned deltas with a
// single server-side increment (studentstore.Store.ApplyDelta).
package ledger

import (
	"errors"
	"strings"

	"github.com/dalemusser/eduledger/internal/domain/models"
)

const (
	// DefaultLessonsPerMonth is the divisor used when a course does not set
	// its own lessons_per_month.
	DefaultLessonsPerMonth = 12

	// DefaultPaidTolerance is the absolute grace band: a student owing this
	// much or less still counts as paid.
	DefaultPaidTolerance int64 = 10000
)

var (
	// ErrNoPrice is returned when a course cannot be charged because its
	// monthly price is missing or not positive.
	ErrNoPrice = errors.New("course has no monthly price")

	// ErrBadDivisor is returned when neither the course nor the policy
	// provide a positive lessons-per-month value.
	ErrBadDivisor = errors.New("lessons per month must be positive")
)

// Policy carries the business constants of the ledger.
type Policy struct {
	LessonsPerMonth int
	PaidTolerance   int64
}

// DefaultPolicy returns the policy with the standard constants.
func DefaultPolicy() Policy {
	return Policy{
		LessonsPerMonth: DefaultLessonsPerMonth,
		PaidTolerance:   DefaultPaidTolerance,
	}
}

// LessonsFor returns the divisor that applies to the course.
func (p Policy) LessonsFor(c models.Course) int {
	if c.LessonsPerMonth > 0 {
		return c.LessonsPerMonth
	}
	return p.LessonsPerMonth
}

// PricePerLesson returns course.Price / lessons, truncated to whole units.
func (p Policy) PricePerLesson(c models.Course) (int64, error) {
	if c.Price <= 0 {
		return 0, ErrNoPrice
	}
	lessons := p.LessonsFor(c)
	if lessons <= 0 {
		return 0, ErrBadDivisor
	}
	return c.Price / int64(lessons), nil
}

// NormalizeStatus maps an attendance status to its stored form.
// Older clients send capitalised values ("Present"); both are accepted.
func NormalizeStatus(s string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case models.AttendancePresent, models.AttendanceAbsent, models.AttendanceExcused, models.AttendanceLate:
		return v, true
	}
	return "", false
}

// Chargeable reports whether attending with this status costs a lesson.
func Chargeable(status string) bool {
	return status == models.AttendancePresent || status == models.AttendanceLate
}

// ChargeFor is the amount a record with the given status should carry.
func ChargeFor(status string, pricePerLesson int64) int64 {
	if Chargeable(status) {
		return pricePerLesson
	}
	return 0
}

// ChargeDelta is the balance change when a record's charge moves from
// oldCharged to newCharged. Re-recording the same charge yields 0.
func ChargeDelta(oldCharged, newCharged int64) int64 {
	return oldCharged - newCharged
}

// PaymentDelta is the balance change for posting a payment.
func PaymentDelta(amount int64) int64 { return amount }

// ReversalDelta is the balance change for deleting a payment.
func ReversalDelta(amount int64) int64 { return -amount }

// AmendDelta is the balance change for correcting a payment amount. It is
// applied as one increment, never as a reversal followed by a new posting.
func AmendDelta(oldAmount, newAmount int64) int64 { return newAmount - oldAmount }

// Owed returns how much the student owes, or 0 when the balance is not negative.
func Owed(debt int64) int64 {
	if debt < 0 {
		return -debt
	}
	return 0
}

// Standing is the paid / unpaid classification of a balance.
type Standing string

const (
	Paid   Standing = "paid"
	Unpaid Standing = "unpaid"
)

// Classify returns Paid when the balance is not negative or the amount owed
// is within the tolerance band.
func (p Policy) Classify(debt int64) Standing {
	if debt >= 0 || Owed(debt) <= p.PaidTolerance {
		return Paid
	}
	return Unpaid
}

// Expected is the balance implied by the entry history.
func Expected(openingBalance, totalCharged, totalPaid int64) int64 {
	return openingBalance - totalCharged + totalPaid
}
