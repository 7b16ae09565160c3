package recurrence

import (
	"testing"
	"time"
)

func mustGenerate(t *testing.T, r Rule, start, end time.Time) []time.Time {
	t.Helper()
	got, err := Generate(r, start, end)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return got
}

func utcDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestDailyInterval(t *testing.T) {
	r := Rule{
		Pattern:   Daily,
		StartDate: NewDate(2024, time.March, 1),
		Daily:     &DailyRule{Every: 3},
	}
	got := mustGenerate(t, r, utcDay(2024, time.March, 1), utcDay(2024, time.March, 15))

	want := []time.Time{
		utcDay(2024, time.March, 1),
		utcDay(2024, time.March, 4),
		utcDay(2024, time.March, 7),
		utcDay(2024, time.March, 10),
		utcDay(2024, time.March, 13),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	for i := 1; i < len(got); i++ {
		if !got[i].After(got[i-1]) {
			t.Errorf("dates not strictly increasing at %d: %v, %v", i, got[i-1], got[i])
		}
	}
}

func TestDailyHorizonTail(t *testing.T) {
	// A later horizon sees the tail of the same sequence.
	r := Rule{
		Pattern:   Daily,
		StartDate: NewDate(2024, time.March, 1),
		Daily:     &DailyRule{Every: 7},
	}
	got := mustGenerate(t, r, utcDay(2024, time.April, 1), utcDay(2024, time.April, 20))

	want := []time.Time{
		utcDay(2024, time.April, 5),
		utcDay(2024, time.April, 12),
		utcDay(2024, time.April, 19),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNonePattern(t *testing.T) {
	r := Rule{Pattern: None, StartDate: NewDate(2024, time.June, 10)}

	got := mustGenerate(t, r, utcDay(2024, time.June, 1), utcDay(2024, time.July, 1))
	if len(got) != 1 || !got[0].Equal(utcDay(2024, time.June, 10)) {
		t.Fatalf("got %v, want single 2024-06-10", got)
	}

	got = mustGenerate(t, r, utcDay(2024, time.July, 1), utcDay(2024, time.August, 1))
	if len(got) != 0 {
		t.Fatalf("outside horizon: got %v, want none", got)
	}
}

func TestWeeklyDaySet(t *testing.T) {
	// Mondays and Thursdays; 2024-04-01 is a Monday.
	r := Rule{
		Pattern:   Weekly,
		StartDate: NewDate(2024, time.April, 1),
		Weekly:    &WeeklyRule{DaysOfWeek: []int{0, 3}},
	}
	got := mustGenerate(t, r, utcDay(2024, time.April, 1), utcDay(2024, time.April, 15))

	want := []time.Time{
		utcDay(2024, time.April, 1),
		utcDay(2024, time.April, 4),
		utcDay(2024, time.April, 8),
		utcDay(2024, time.April, 11),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestWeeklyIntervalSkipsWeeks(t *testing.T) {
	// Every 2nd week on Wednesday; start mid-week so week 0 still counts.
	// 2024-04-02 is a Tuesday; Wednesday of week 0 is 2024-04-03.
	r := Rule{
		Pattern:   Weekly,
		StartDate: NewDate(2024, time.April, 2),
		Weekly:    &WeeklyRule{DaysOfWeek: []int{2}, IntervalWeeks: 2},
	}
	got := mustGenerate(t, r, utcDay(2024, time.April, 1), utcDay(2024, time.May, 1))

	want := []time.Time{
		utcDay(2024, time.April, 3),
		utcDay(2024, time.April, 17),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBiweeklyAnchor(t *testing.T) {
	// Start week is week 0. anchorWeek=1 shifts emission to odd weeks.
	r := Rule{
		Pattern:   Biweekly,
		StartDate: NewDate(2024, time.April, 1), // Monday
		Biweekly:  &BiweeklyRule{DaysOfWeek: []int{0}, AnchorWeek: 1},
	}
	got := mustGenerate(t, r, utcDay(2024, time.April, 1), utcDay(2024, time.May, 6))

	want := []time.Time{
		utcDay(2024, time.April, 8),
		utcDay(2024, time.April, 22),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBiweeklyDefaultAnchor(t *testing.T) {
	r := Rule{
		Pattern:   Biweekly,
		StartDate: NewDate(2024, time.April, 1), // Monday
		Biweekly:  &BiweeklyRule{DaysOfWeek: []int{0}},
	}
	got := mustGenerate(t, r, utcDay(2024, time.April, 1), utcDay(2024, time.May, 6))

	want := []time.Time{
		utcDay(2024, time.April, 1),
		utcDay(2024, time.April, 15),
		utcDay(2024, time.April, 29),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMonthlyDayClampsToLastDay(t *testing.T) {
	r := Rule{
		Pattern:   Monthly,
		StartDate: NewDate(2024, time.March, 31),
		Monthly:   &MonthlyRule{DayOfMonth: 31, RollStrategy: RollLastDay},
	}
	got := mustGenerate(t, r, utcDay(2024, time.March, 1), utcDay(2024, time.July, 1))

	want := []time.Time{
		utcDay(2024, time.March, 31),
		utcDay(2024, time.April, 30), // clamped, never rolls into May
		utcDay(2024, time.May, 31),
		utcDay(2024, time.June, 30),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMonthlyDaySkipStrategy(t *testing.T) {
	r := Rule{
		Pattern:   Monthly,
		StartDate: NewDate(2024, time.January, 31),
		Monthly:   &MonthlyRule{DayOfMonth: 31, RollStrategy: RollSkip},
	}
	got := mustGenerate(t, r, utcDay(2024, time.January, 1), utcDay(2024, time.June, 1))

	want := []time.Time{
		utcDay(2024, time.January, 31),
		utcDay(2024, time.March, 31), // Feb and Apr skipped
		utcDay(2024, time.May, 31),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMonthlyLastSaturday(t *testing.T) {
	sat := 5
	r := Rule{
		Pattern:   Monthly,
		StartDate: NewDate(2024, time.January, 1),
		Monthly:   &MonthlyRule{Nth: -1, Weekday: &sat},
	}
	got := mustGenerate(t, r, utcDay(2024, time.January, 1), utcDay(2024, time.April, 1))

	want := []time.Time{
		utcDay(2024, time.January, 27),
		utcDay(2024, time.February, 24),
		utcDay(2024, time.March, 30),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMonthlyFifthWeekdaySkipsShortMonths(t *testing.T) {
	// Fifth Friday only exists in some months.
	fri := 4
	r := Rule{
		Pattern:   Monthly,
		StartDate: NewDate(2024, time.January, 1),
		Monthly:   &MonthlyRule{Nth: 5, Weekday: &fri},
	}
	got := mustGenerate(t, r, utcDay(2024, time.January, 1), utcDay(2024, time.June, 1))

	want := []time.Time{
		utcDay(2024, time.March, 29),
		utcDay(2024, time.May, 31),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAllowedMonthsDropsWithoutShifting(t *testing.T) {
	r := Rule{
		Pattern:   Monthly,
		StartDate: NewDate(2024, time.January, 15),
		Monthly:   &MonthlyRule{DayOfMonth: 15},
		Filters:   &Filters{AllowedMonths: []int{6, 7, 8}},
	}
	got := mustGenerate(t, r, utcDay(2024, time.January, 1), utcDay(2025, time.January, 1))

	want := []time.Time{
		utcDay(2024, time.June, 15),
		utcDay(2024, time.July, 15),
		utcDay(2024, time.August, 15),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExcludeDates(t *testing.T) {
	r := Rule{
		Pattern:   Daily,
		StartDate: NewDate(2024, time.May, 1),
		Daily:     &DailyRule{Every: 1},
		Filters:   &Filters{ExcludeDates: []Date{NewDate(2024, time.May, 2)}},
	}
	got := mustGenerate(t, r, utcDay(2024, time.May, 1), utcDay(2024, time.May, 4))

	want := []time.Time{
		utcDay(2024, time.May, 1),
		utcDay(2024, time.May, 3),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestIncludeDatesBypassMonthFilter(t *testing.T) {
	r := Rule{
		Pattern:   Monthly,
		StartDate: NewDate(2024, time.June, 1),
		Monthly:   &MonthlyRule{DayOfMonth: 1},
		Filters: &Filters{
			AllowedMonths: []int{6},
			IncludeDates:  []Date{NewDate(2024, time.December, 24)},
		},
	}
	got := mustGenerate(t, r, utcDay(2024, time.June, 1), utcDay(2025, time.January, 1))

	want := []time.Time{
		utcDay(2024, time.June, 1),
		utcDay(2024, time.December, 24),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCustomSingleDateIgnoresAllowedMonths(t *testing.T) {
	// The month filter is disjoint from the literal date's month; the date
	// is an explicit emission and must survive anyway.
	r := Rule{
		Pattern:   Custom,
		StartDate: NewDate(2024, time.January, 1),
		Custom:    &CustomRule{Dates: []Date{NewDate(2024, time.December, 24)}},
		Filters:   &Filters{AllowedMonths: []int{6, 7, 8}},
	}
	got := mustGenerate(t, r, utcDay(2024, time.January, 1), utcDay(2025, time.January, 1))
	if len(got) != 1 || !got[0].Equal(utcDay(2024, time.December, 24)) {
		t.Fatalf("got %v, want single 2024-12-24", got)
	}
}

func TestCustomDatesStillHonorExcludeDates(t *testing.T) {
	r := Rule{
		Pattern:   Custom,
		StartDate: NewDate(2024, time.January, 1),
		Custom: &CustomRule{Dates: []Date{
			NewDate(2024, time.December, 24),
			NewDate(2024, time.December, 31),
		}},
		Filters: &Filters{
			AllowedMonths: []int{6, 7, 8},
			ExcludeDates:  []Date{NewDate(2024, time.December, 31)},
		},
	}
	got := mustGenerate(t, r, utcDay(2024, time.January, 1), utcDay(2025, time.January, 1))
	if len(got) != 1 || !got[0].Equal(utcDay(2024, time.December, 24)) {
		t.Fatalf("got %v, want single 2024-12-24 (Dec 31 excluded)", got)
	}
}

func TestCustomDaysOfMonthStillMonthFiltered(t *testing.T) {
	// Only the literal dates bypass the month filter; the day-of-month part
	// of a custom rule is pattern-generated and stays filtered.
	r := Rule{
		Pattern:   Custom,
		StartDate: NewDate(2024, time.January, 1),
		Custom: &CustomRule{
			DaysOfMonth: []int{15},
			Dates:       []Date{NewDate(2024, time.December, 24)},
		},
		Filters: &Filters{AllowedMonths: []int{2}},
	}
	got := mustGenerate(t, r, utcDay(2024, time.January, 1), utcDay(2024, time.April, 1))

	want := []time.Time{utcDay(2024, time.February, 15)}
	if len(got) != len(want) {
		t.Fatalf("got %d dates, want %d: %v", len(got), len(want), got)
	}
	if !got[0].Equal(want[0]) {
		t.Errorf("got[0] = %v, want %v", got[0], want[0])
	}
}

func TestCustomDaysOfMonthSkipMissingDays(t *testing.T) {
	r := Rule{
		Pattern:   Custom,
		StartDate: NewDate(2024, time.January, 1),
		Custom:    &CustomRule{DaysOfMonth: []int{15, 31}},
	}
	got := mustGenerate(t, r, utcDay(2024, time.January, 1), utcDay(2024, time.March, 1))

	want := []time.Time{
		utcDay(2024, time.January, 15),
		utcDay(2024, time.January, 31),
		utcDay(2024, time.February, 15), // no Feb 31, skipped
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMaxOccurrencesCountsFromRuleStart(t *testing.T) {
	r := Rule{
		Pattern:        Daily,
		StartDate:      NewDate(2024, time.March, 1),
		Daily:          &DailyRule{Every: 1},
		MaxOccurrences: 5,
	}
	// Horizon starts after the third occurrence; only 4th and 5th remain.
	got := mustGenerate(t, r, utcDay(2024, time.March, 4), utcDay(2024, time.March, 31))

	want := []time.Time{
		utcDay(2024, time.March, 4),
		utcDay(2024, time.March, 5),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEndDateStopsEmission(t *testing.T) {
	end := NewDate(2024, time.March, 5)
	r := Rule{
		Pattern:   Daily,
		StartDate: NewDate(2024, time.March, 1),
		Daily:     &DailyRule{Every: 2},
		EndDate:   &end,
	}
	got := mustGenerate(t, r, utcDay(2024, time.March, 1), utcDay(2024, time.April, 1))

	want := []time.Time{
		utcDay(2024, time.March, 1),
		utcDay(2024, time.March, 3),
		utcDay(2024, time.March, 5),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDueTimeInZone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	r := Rule{
		Pattern:   Daily,
		StartDate: NewDate(2024, time.June, 10),
		DueTime:   "18:30",
		TimeZone:  "America/New_York",
		Daily:     &DailyRule{Every: 1},
	}
	got := mustGenerate(t, r,
		time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.June, 11, 0, 0, 0, 0, time.UTC),
	)
	if len(got) != 1 {
		t.Fatalf("got %d dates, want 1: %v", len(got), got)
	}
	want := time.Date(2024, time.June, 10, 18, 30, 0, 0, loc)
	if !got[0].Equal(want) {
		t.Errorf("got %v, want %v", got[0], want)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	sat := 5
	r := Rule{
		Pattern:   Monthly,
		StartDate: NewDate(2024, time.January, 1),
		Monthly:   &MonthlyRule{Nth: -1, Weekday: &sat},
		Filters:   &Filters{AllowedMonths: []int{1, 3, 5}},
	}
	a := mustGenerate(t, r, utcDay(2024, time.January, 1), utcDay(2025, time.January, 1))
	b := mustGenerate(t, r, utcDay(2024, time.January, 1), utcDay(2025, time.January, 1))
	if len(a) != len(b) {
		t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			t.Errorf("run mismatch at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestNoDuplicates(t *testing.T) {
	// Custom day-of-month plus an overlapping literal date.
	r := Rule{
		Pattern:   Custom,
		StartDate: NewDate(2024, time.January, 1),
		Custom: &CustomRule{
			DaysOfMonth: []int{15},
			Dates:       []Date{NewDate(2024, time.January, 15)},
		},
	}
	got := mustGenerate(t, r, utcDay(2024, time.January, 1), utcDay(2024, time.February, 1))
	if len(got) != 1 {
		t.Fatalf("got %d dates, want 1: %v", len(got), got)
	}
}
