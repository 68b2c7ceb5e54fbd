package compta

import (
	"testing"
	"time"
)

func TestExerciceBounds(t *testing.T) {
	ex := NewExercice(2025)
	if got := ex.Start(); !got.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", got)
	}
	end := ex.End()
	if end.Year() != 2025 || end.Month() != time.December || end.Day() != 31 {
		t.Fatalf("end = %v", end)
	}
	if !ex.Contains(time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)) {
		t.Fatalf("expected last second inside the exercice")
	}
	if ex.Contains(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("next year must be outside")
	}
}

func TestEntryFilterAccountRange(t *testing.T) {
	f := EntryFilter{AccountMin: "41", AccountMax: "44"}
	for _, number := range []string{"41", "411", "42", "4431", "44"} {
		if !f.AccountInRange(number) {
			t.Errorf("%s should be in [41,44]", number)
		}
	}
	for _, number := range []string{"40", "409", "45", "521"} {
		if f.AccountInRange(number) {
			t.Errorf("%s should be outside [41,44]", number)
		}
	}
}
