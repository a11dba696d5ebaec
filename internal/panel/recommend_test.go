package panel

import (
	"math"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func floatPtr(f float64) *float64 { return &f }

func TestRecommend(t *testing.T) {
	today := date(2026, 3, 2)

	t.Run("Calendar Months", func(t *testing.T) {
		for months := MinMonths; months <= MaxMonths; months++ {
			rec := Recommend(today, months, 5000, nil)
			want := time.Date(2026, time.Month(3+months), 2, 0, 0, 0, 0, time.UTC)
			if !rec.Date.Equal(want) {
				t.Errorf("%d months: got %s, want %s", months, rec.Date.Format(time.DateOnly), want.Format(time.DateOnly))
			}
		}
	})

	t.Run("Month End Overflow", func(t *testing.T) {
		rec := Recommend(date(2026, 8, 31), 6, 5000, nil)
		if got := rec.Date.Format(time.DateOnly); got != "2027-03-03" {
			t.Errorf("expected 2027-03-03, got %s", got)
		}
	})

	t.Run("Mileage", func(t *testing.T) {
		tt := []struct {
			name    string
			mileage *float64
			miles   int
			want    *int
		}{
			{name: "present", mileage: floatPtr(48250), miles: 5000, want: intPtr(53250)},
			{name: "fractional rounds", mileage: floatPtr(48250.6), miles: 3000, want: intPtr(51251)},
			{name: "zero", mileage: floatPtr(0), miles: 15000, want: intPtr(15000)},
			{name: "absent", mileage: nil, miles: 5000},
			{name: "NaN", mileage: floatPtr(math.NaN()), miles: 5000},
			{name: "infinite", mileage: floatPtr(math.Inf(1)), miles: 5000},
		}
		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				rec := Recommend(today, 6, tc.miles, tc.mileage)
				switch {
				case tc.want == nil && rec.Mileage != nil:
					t.Errorf("expected no mileage, got %d", *rec.Mileage)
				case tc.want != nil && (rec.Mileage == nil || *rec.Mileage != *tc.want):
					t.Errorf("expected %d, got %v", *tc.want, rec.Mileage)
				}
			})
		}
	})
}

func TestDateWindow(t *testing.T) {
	// 2026-04-19 is a Sunday, 2026-04-25 a Saturday.
	tt := []struct {
		base       time.Time
		wantMonday string
	}{
		{base: date(2026, 4, 19), wantMonday: "2026-04-13"},
		{base: date(2026, 4, 20), wantMonday: "2026-04-20"},
		{base: date(2026, 4, 21), wantMonday: "2026-04-20"},
		{base: date(2026, 4, 22), wantMonday: "2026-04-20"},
		{base: date(2026, 4, 23), wantMonday: "2026-04-20"},
		{base: date(2026, 4, 24), wantMonday: "2026-04-20"},
		{base: date(2026, 4, 25), wantMonday: "2026-04-20"},
		{base: time.Date(2026, 4, 22, 23, 59, 0, 0, time.UTC), wantMonday: "2026-04-20"},
	}

	for _, tc := range tt {
		t.Run(tc.base.Weekday().String(), func(t *testing.T) {
			window := DateWindow(tc.base)
			if len(window) != WindowSize {
				t.Fatalf("expected %d dates, got %d", WindowSize, len(window))
			}
			if window[0].Weekday() != time.Monday || window[4].Weekday() != time.Friday {
				t.Errorf("window runs %s..%s", window[0].Weekday(), window[4].Weekday())
			}
			if got := window[0].Format(time.DateOnly); got != tc.wantMonday {
				t.Errorf("monday = %s, want %s", got, tc.wantMonday)
			}
			for i := 1; i < len(window); i++ {
				if window[i].Sub(window[i-1]) != 24*time.Hour {
					t.Errorf("dates %d and %d are not consecutive", i-1, i)
				}
			}
		})
	}

	t.Run("Across Month Boundary", func(t *testing.T) {
		window := DateWindow(date(2026, 9, 2))
		if window[0].Format(time.DateOnly) != "2026-08-31" || window[4].Format(time.DateOnly) != "2026-09-04" {
			t.Errorf("unexpected window %v", window)
		}
	})
}

func TestIntervals(t *testing.T) {
	if StepMonths(12, 1) != 12 || StepMonths(3, -1) != 3 || StepMonths(6, 1) != 7 {
		t.Error("StepMonths does not clamp")
	}
	if StepMiles(15000, 1) != 15000 || StepMiles(3000, -1) != 3000 || StepMiles(5000, 2) != 7000 {
		t.Error("StepMiles does not clamp")
	}
	if ValidMiles(5500) || ValidMiles(2000) || !ValidMiles(3000) {
		t.Error("ValidMiles accepts off-step or out-of-range values")
	}
	if ValidMonths(2) || ValidMonths(13) || !ValidMonths(12) {
		t.Error("ValidMonths accepts out-of-range values")
	}
}

func intPtr(i int) *int { return &i }
