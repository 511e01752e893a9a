package ledger_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/eduledger/internal/domain/ledger"
	"github.com/dalemusser/eduledger/internal/domain/models"
)

func TestPricePerLesson(t *testing.T) {
	p := ledger.DefaultPolicy()

	tests := []struct {
		name    string
		course  models.Course
		want    int64
		wantErr error
	}{
		{"default divisor", models.Course{Price: 1200000}, 100000, nil},
		{"course override", models.Course{Price: 1200000, LessonsPerMonth: 8}, 150000, nil},
		{"truncates remainder", models.Course{Price: 950000}, 79166, nil},
		{"zero price", models.Course{Price: 0}, 0, ledger.ErrNoPrice},
		{"negative price", models.Course{Price: -5}, 0, ledger.ErrNoPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.PricePerLesson(tt.course)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PricePerLesson = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPricePerLesson_BadPolicyDivisor(t *testing.T) {
	p := ledger.Policy{LessonsPerMonth: 0}
	if _, err := p.PricePerLesson(models.Course{Price: 100}); !errors.Is(err, ledger.ErrBadDivisor) {
		t.Errorf("expected ErrBadDivisor, got %v", err)
	}
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"present", "present", true},
		{"Present", "present", true},
		{" LATE ", "late", true},
		{"excused", "excused", true},
		{"Absent", "absent", true},
		{"sick", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ledger.NormalizeStatus(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("NormalizeStatus(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestChargeFor(t *testing.T) {
	const price = 100000
	tests := []struct {
		status string
		want   int64
	}{
		{models.AttendancePresent, price},
		{models.AttendanceLate, price},
		{models.AttendanceAbsent, 0},
		{models.AttendanceExcused, 0},
	}
	for _, tt := range tests {
		if got := ledger.ChargeFor(tt.status, price); got != tt.want {
			t.Errorf("ChargeFor(%q) = %d, want %d", tt.status, got, tt.want)
		}
	}
}

func TestChargeDelta(t *testing.T) {
	tests := []struct {
		name     string
		old, new int64
		want     int64
	}{
		{"first charge", 0, 100000, -100000},
		{"same charge again", 100000, 100000, 0},
		{"corrected to absent", 100000, 0, 100000},
		{"absent stays absent", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ledger.ChargeDelta(tt.old, tt.new); got != tt.want {
				t.Errorf("ChargeDelta(%d, %d) = %d, want %d", tt.old, tt.new, got, tt.want)
			}
		})
	}
}

func TestAmendDelta_IsSingleDifference(t *testing.T) {
	// 500000 -> 300000 moves the balance by exactly 200000.
	got := ledger.AmendDelta(500000, 300000)
	if got != -200000 {
		t.Errorf("AmendDelta = %d, want -200000", got)
	}
	if owedChange := -got; owedChange != 200000 {
		t.Errorf("owed change = %d, want 200000", owedChange)
	}
}

func TestPaymentRoundTrip(t *testing.T) {
	start := int64(-250000)
	after := start + ledger.PaymentDelta(100000)
	if after != -150000 {
		t.Fatalf("after payment = %d, want -150000", after)
	}
	if back := after + ledger.ReversalDelta(100000); back != start {
		t.Errorf("after reversal = %d, want %d", back, start)
	}
}

func TestClassify(t *testing.T) {
	p := ledger.DefaultPolicy()
	tests := []struct {
		debt int64
		want ledger.Standing
	}{
		{0, ledger.Paid},
		{50000, ledger.Paid},
		{-1, ledger.Paid},
		{-10000, ledger.Paid},
		{-10001, ledger.Unpaid},
		{-300000, ledger.Unpaid},
	}
	for _, tt := range tests {
		if got := p.Classify(tt.debt); got != tt.want {
			t.Errorf("Classify(%d) = %q, want %q", tt.debt, got, tt.want)
		}
	}
}

func TestOwed(t *testing.T) {
	if got := ledger.Owed(-300000); got != 300000 {
		t.Errorf("Owed(-300000) = %d", got)
	}
	if got := ledger.Owed(5000); got != 0 {
		t.Errorf("Owed(5000) = %d", got)
	}
}

func TestScenario_ThreeLessonsThenPayment(t *testing.T) {
	p := ledger.DefaultPolicy()
	price, err := p.PricePerLesson(models.Course{Price: 1200000})
	if err != nil {
		t.Fatal(err)
	}

	var debt, charged int64
	for i := 0; i < 3; i++ {
		c := ledger.ChargeFor(models.AttendancePresent, price)
		debt += ledger.ChargeDelta(0, c)
		charged += c
	}
	if debt != -300000 {
		t.Fatalf("debt after 3 lessons = %d, want -300000", debt)
	}
	if p.Classify(debt) != ledger.Unpaid {
		t.Errorf("expected unpaid before payment")
	}

	debt += ledger.PaymentDelta(300000)
	if debt != 0 {
		t.Fatalf("debt after payment = %d, want 0", debt)
	}
	if p.Classify(debt) != ledger.Paid {
		t.Errorf("expected paid after payment")
	}
	if exp := ledger.Expected(0, charged, 300000); exp != debt {
		t.Errorf("Expected = %d, stored = %d", exp, debt)
	}
}
