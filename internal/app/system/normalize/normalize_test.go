package normalize

import (
	"testing"
	"time"
)

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"John Doe", "John Doe"},
		{"  John   Doe  ", "John Doe"},
		{"", ""},
		{"   ", ""},
		{"UPPERCASE NAME", "UPPERCASE NAME"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Name(tt.input); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNote(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"sick leave", "sick leave"},
		{"  doctor's note  ", "doctor's note"},
		{"<b>late</b> bus", "late bus"},
		{"<script>alert(1)</script>ok", "ok"},
		{"salary & bonus", "salary & bonus"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Note(tt.input); got != tt.want {
				t.Errorf("Note(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEmail(t *testing.T) {
	if got := Email("  User@Example.Com "); got != "user@example.com" {
		t.Errorf("Email = %q", got)
	}
}

func TestMonthRange(t *testing.T) {
	tests := []struct {
		month       string
		first, last string
		ok          bool
	}{
		{"2024-02", "2024-02-01", "2024-02-29", true},
		{"2023-02", "2023-02-01", "2023-02-28", true},
		{"2024-12", "2024-12-01", "2024-12-31", true},
		{"2024-13", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.month, func(t *testing.T) {
			first, last, ok := MonthRange(tt.month)
			if first != tt.first || last != tt.last || ok != tt.ok {
				t.Errorf("MonthRange(%q) = %q, %q, %v; want %q, %q, %v",
					tt.month, first, last, ok, tt.first, tt.last, tt.ok)
			}
		})
	}
}

func TestDaysInMonth(t *testing.T) {
	days := DaysInMonth("2024-04")
	if len(days) != 30 {
		t.Fatalf("len = %d, want 30", len(days))
	}
	if days[0] != "2024-04-01" || days[29] != "2024-04-30" {
		t.Errorf("range = %s..%s", days[0], days[29])
	}
	if DaysInMonth("bad") != nil {
		t.Error("expected nil for bad month")
	}
}

func TestDate(t *testing.T) {
	got, ok := Date("2024-03-04")
	if !ok {
		t.Fatal("expected ok")
	}
	if want := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("Date = %v, want %v", got, want)
	}
	if _, ok := Date("2024-3-4"); ok {
		t.Error("expected failure for unpadded date")
	}
}
