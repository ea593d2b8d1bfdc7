package date

import "testing"

func TestParseDatetime(t *testing.T) {
	dt, err := ParseDatetime("2024-01-01 20:06:29")
	if err != nil {
		t.Fatalf("ParseDatetime() error = %v", err)
	}
	if got := dt.String(); got != "2024-01-01 20:06:29" {
		t.Errorf("String() = %q", got)
	}
	if got := dt.Day().String(); got != "2024-01-01" {
		t.Errorf("Day() = %q", got)
	}

	// A bare date maps to midnight.
	dt, err = ParseDatetime("2024-01-01")
	if err != nil {
		t.Fatalf("ParseDatetime() error = %v", err)
	}
	if got := dt.String(); got != "2024-01-01 00:00:00" {
		t.Errorf("String() = %q", got)
	}

	if _, err := ParseDatetime("not a datetime"); err == nil {
		t.Errorf("ParseDatetime() expected error on garbage input")
	}
}

func TestDaysSince(t *testing.T) {
	buy := MustParseDatetime("2024-01-01 10:00:00")

	// 2024 is a leap year: Jan 1st to Jun 1st spans 152 full days.
	sell := MustParseDatetime("2024-06-01 10:00:00")
	if got := sell.DaysSince(buy); got != 152 {
		t.Errorf("DaysSince() = %d, want 152", got)
	}

	// Non-leap year, same dates: 151 days.
	if got := MustParseDatetime("2023-06-01 10:00:00").DaysSince(MustParseDatetime("2023-01-01 10:00:00")); got != 151 {
		t.Errorf("DaysSince() = %d, want 151", got)
	}

	// Partial days truncate.
	sell = MustParseDatetime("2024-01-02 09:59:59")
	if got := sell.DaysSince(buy); got != 0 {
		t.Errorf("DaysSince() = %d, want 0", got)
	}
}
