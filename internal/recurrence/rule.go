package recurrence

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Pattern string

const (
	None     Pattern = "none"
	Daily    Pattern = "daily"
	Weekly   Pattern = "weekly"
	Biweekly Pattern = "biweekly"
	Monthly  Pattern = "monthly"
	Custom   Pattern = "custom"
)

var patterns = map[Pattern]bool{
	None:     true,
	Daily:    true,
	Weekly:   true,
	Biweekly: true,
	Monthly:  true,
	Custom:   true,
}

// Weekdays are numbered 0=Monday through 6=Sunday throughout this package.

// RollStrategy controls what happens when a monthly day-of-month rule
// targets a day the month doesn't have (e.g. the 31st in April).
type RollStrategy string

const (
	// RollLastDay clamps to the final day of the month. Never rolls
	// into the next month.
	RollLastDay RollStrategy = "last_day"
	// RollSkip skips that month entirely.
	RollSkip RollStrategy = "skip"
)

// InvalidRuleError describes a malformed recurrence payload. It is returned
// from Validate at rule-save time; the generator assumes a validated rule.
type InvalidRuleError struct {
	Field  string
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid recurrence rule: %s: %s", e.Field, e.Reason)
}

// Date is a civil calendar date with no time component, serialized as
// "YYYY-MM-DD". The zero value is the zero date.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// DateOf returns the civil date of t in t's location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Valid reports whether d is a real calendar date (e.g. not Feb 30).
func (d Date) Valid() bool {
	if d.Month < time.January || d.Month > time.December {
		return false
	}
	return d.Day >= 1 && d.Day <= daysInMonth(d.Year, d.Month)
}

// In returns the time at midnight on d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// At combines d with a clock time in loc.
func (d Date) At(hour, minute int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, loc)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.In(time.UTC).AddDate(0, 0, n))
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func (d Date) After(other Date) bool {
	return other.Before(d)
}

// Weekday returns the day of week with Monday=0 .. Sunday=6.
func (d Date) Weekday() int {
	return mondayIndex(d.In(time.UTC).Weekday())
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func mondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Rule is the persisted recurrence configuration for a chore. Exactly one
// pattern payload matching Pattern must be set (none needs no payload).
// It round-trips through JSON unchanged: the same rule and horizon always
// produce the same generated dates.
type Rule struct {
	Pattern   Pattern `json:"pattern"`
	StartDate Date    `json:"startDate"`
	DueTime   string  `json:"dueTime,omitempty"`  // "HH:MM", default midnight
	TimeZone  string  `json:"timeZone,omitempty"` // IANA name, default UTC

	// Stop guards. Whichever triggers first wins; with neither set,
	// generation is bounded only by the caller's horizon.
	EndDate        *Date `json:"endDate,omitempty"`
	MaxOccurrences int   `json:"maxOccurrences,omitempty"`

	Daily    *DailyRule    `json:"daily,omitempty"`
	Weekly   *WeeklyRule   `json:"weekly,omitempty"`
	Biweekly *BiweeklyRule `json:"biweekly,omitempty"`
	Monthly  *MonthlyRule  `json:"monthly,omitempty"`
	Custom   *CustomRule   `json:"custom,omitempty"`

	Filters *Filters `json:"filters,omitempty"`
}

type DailyRule struct {
	Every int `json:"every"` // interval in days, >= 1
}

type WeeklyRule struct {
	DaysOfWeek    []int `json:"daysOfWeek"` // 0=Mon .. 6=Sun
	IntervalWeeks int   `json:"intervalWeeks,omitempty"`
}

// BiweeklyRule is a weekly rule with a fixed two-week cadence anchored to
// anchorWeek, where the ISO week containing startDate is week 0.
type BiweeklyRule struct {
	DaysOfWeek []int `json:"daysOfWeek"`
	AnchorWeek int   `json:"anchorWeek,omitempty"`
}

// MonthlyRule is one of two shapes: a calendar day (DayOfMonth set) or an
// nth-weekday selector (Nth and Weekday set). Nth=-1 means the last
// occurrence of Weekday in the month.
type MonthlyRule struct {
	DayOfMonth   int          `json:"dayOfMonth,omitempty"`
	RollStrategy RollStrategy `json:"rollStrategy,omitempty"` // default last_day

	Nth     int  `json:"nth,omitempty"`
	Weekday *int `json:"weekday,omitempty"` // 0=Mon .. 6=Sun
}

type CustomRule struct {
	DaysOfMonth []int  `json:"daysOfMonth,omitempty"` // emitted each month, skipped if absent
	Dates       []Date `json:"dates,omitempty"`       // literal one-off dates
}

// Filters prune or extend the generated sequence. Month filtering and
// excludeDates drop occurrences without shifting them; includeDates are
// explicit one-off additions that bypass the month filter but still honor
// excludeDates and the stop guards.
type Filters struct {
	AllowedMonths []int  `json:"allowedMonths,omitempty"` // subset of 1..12
	ExcludeDates  []Date `json:"excludeDates,omitempty"`
	IncludeDates  []Date `json:"includeDates,omitempty"`
}

// Validate checks the rule payload. It is called at rule-save time so that
// generation can assume a well-formed rule.
func (r Rule) Validate() error {
	if !patterns[r.Pattern] {
		return &InvalidRuleError{Field: "pattern", Reason: fmt.Sprintf("unknown pattern %q", r.Pattern)}
	}
	if r.StartDate.IsZero() {
		return &InvalidRuleError{Field: "startDate", Reason: "required"}
	}
	if !r.StartDate.Valid() {
		return &InvalidRuleError{Field: "startDate", Reason: "not a calendar date"}
	}
	if r.DueTime != "" {
		if _, _, err := parseClock(r.DueTime); err != nil {
			return &InvalidRuleError{Field: "dueTime", Reason: err.Error()}
		}
	}
	if r.TimeZone != "" {
		if _, err := time.LoadLocation(r.TimeZone); err != nil {
			return &InvalidRuleError{Field: "timeZone", Reason: fmt.Sprintf("unknown time zone %q", r.TimeZone)}
		}
	}
	if r.EndDate != nil && !r.EndDate.Valid() {
		return &InvalidRuleError{Field: "endDate", Reason: "not a calendar date"}
	}
	if r.MaxOccurrences < 0 {
		return &InvalidRuleError{Field: "maxOccurrences", Reason: "must be >= 0"}
	}

	switch r.Pattern {
	case None:
	case Daily:
		if r.Daily == nil {
			return &InvalidRuleError{Field: "daily", Reason: "required for daily pattern"}
		}
		if r.Daily.Every < 1 {
			return &InvalidRuleError{Field: "daily.every", Reason: "must be >= 1"}
		}
	case Weekly:
		if r.Weekly == nil {
			return &InvalidRuleError{Field: "weekly", Reason: "required for weekly pattern"}
		}
		if len(r.Weekly.DaysOfWeek) == 0 {
			return &InvalidRuleError{Field: "weekly.daysOfWeek", Reason: "at least one day required"}
		}
		if err := validateDays(r.Weekly.DaysOfWeek); err != nil {
			return &InvalidRuleError{Field: "weekly.daysOfWeek", Reason: err.Error()}
		}
		if r.Weekly.IntervalWeeks < 0 {
			return &InvalidRuleError{Field: "weekly.intervalWeeks", Reason: "must be >= 1"}
		}
	case Biweekly:
		if r.Biweekly == nil {
			return &InvalidRuleError{Field: "biweekly", Reason: "required for biweekly pattern"}
		}
		if len(r.Biweekly.DaysOfWeek) == 0 {
			return &InvalidRuleError{Field: "biweekly.daysOfWeek", Reason: "at least one day required"}
		}
		if err := validateDays(r.Biweekly.DaysOfWeek); err != nil {
			return &InvalidRuleError{Field: "biweekly.daysOfWeek", Reason: err.Error()}
		}
	case Monthly:
		if r.Monthly == nil {
			return &InvalidRuleError{Field: "monthly", Reason: "required for monthly pattern"}
		}
		m := r.Monthly
		byDay := m.DayOfMonth != 0
		byNth := m.Nth != 0 || m.Weekday != nil
		switch {
		case byDay && byNth:
			return &InvalidRuleError{Field: "monthly", Reason: "dayOfMonth and nth-weekday are mutually exclusive"}
		case byDay:
			if m.DayOfMonth < 1 || m.DayOfMonth > 31 {
				return &InvalidRuleError{Field: "monthly.dayOfMonth", Reason: "must be in 1..31"}
			}
			if m.RollStrategy != "" && m.RollStrategy != RollLastDay && m.RollStrategy != RollSkip {
				return &InvalidRuleError{Field: "monthly.rollStrategy", Reason: fmt.Sprintf("unknown strategy %q", m.RollStrategy)}
			}
		case byNth:
			if m.Weekday == nil {
				return &InvalidRuleError{Field: "monthly.weekday", Reason: "required with nth"}
			}
			if *m.Weekday < 0 || *m.Weekday > 6 {
				return &InvalidRuleError{Field: "monthly.weekday", Reason: "must be in 0..6"}
			}
			if m.Nth < -1 || m.Nth == 0 || m.Nth > 5 {
				return &InvalidRuleError{Field: "monthly.nth", Reason: "must be in 1..5 or -1"}
			}
		default:
			return &InvalidRuleError{Field: "monthly", Reason: "dayOfMonth or nth-weekday required"}
		}
	case Custom:
		if r.Custom == nil {
			return &InvalidRuleError{Field: "custom", Reason: "required for custom pattern"}
		}
		if len(r.Custom.DaysOfMonth) == 0 && len(r.Custom.Dates) == 0 {
			return &InvalidRuleError{Field: "custom", Reason: "daysOfMonth or dates required"}
		}
		for _, d := range r.Custom.DaysOfMonth {
			if d < 1 || d > 31 {
				return &InvalidRuleError{Field: "custom.daysOfMonth", Reason: "days must be in 1..31"}
			}
		}
	}

	if r.Filters != nil {
		for _, m := range r.Filters.AllowedMonths {
			if m < 1 || m > 12 {
				return &InvalidRuleError{Field: "filters.allowedMonths", Reason: "months must be in 1..12"}
			}
		}
	}

	return nil
}

// Parse decodes and validates a JSON rule payload.
func Parse(data []byte) (Rule, error) {
	var r Rule
	if err := json.Unmarshal(data, &r); err != nil {
		return Rule{}, fmt.Errorf("decode recurrence rule: %w", err)
	}
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

// Describe returns a short human-readable summary of the rule.
func (r Rule) Describe() string {
	switch r.Pattern {
	case None:
		return "Does not repeat"
	case Daily:
		if r.Daily != nil && r.Daily.Every > 1 {
			return fmt.Sprintf("Repeats every %d days", r.Daily.Every)
		}
		return "Repeats daily"
	case Weekly:
		if r.Weekly == nil {
			return "Repeats weekly"
		}
		prefix := "Repeats weekly"
		if r.Weekly.IntervalWeeks > 1 {
			prefix = fmt.Sprintf("Repeats every %d weeks", r.Weekly.IntervalWeeks)
		}
		return prefix + " on " + dayList(r.Weekly.DaysOfWeek)
	case Biweekly:
		if r.Biweekly == nil {
			return "Repeats every 2 weeks"
		}
		return "Repeats every 2 weeks on " + dayList(r.Biweekly.DaysOfWeek)
	case Monthly:
		if r.Monthly == nil {
			return "Repeats monthly"
		}
		if r.Monthly.DayOfMonth > 0 {
			return fmt.Sprintf("Repeats monthly on day %d", r.Monthly.DayOfMonth)
		}
		if r.Monthly.Weekday != nil {
			name := weekdayName(*r.Monthly.Weekday)
			if r.Monthly.Nth == -1 {
				return fmt.Sprintf("Repeats monthly on the last %s", name)
			}
			return fmt.Sprintf("Repeats monthly on %s #%d", name, r.Monthly.Nth)
		}
		return "Repeats monthly"
	case Custom:
		return "Repeats on custom dates"
	}
	return ""
}

func dayList(days []int) string {
	var names []string
	for _, d := range days {
		names = append(names, weekdayName(d)[:3])
	}
	return strings.Join(names, ", ")
}

func weekdayName(day int) string {
	// day is Monday-based; time.Weekday is Sunday-based.
	return time.Weekday((day + 1) % 7).String()
}

func validateDays(days []int) error {
	seen := make(map[int]bool)
	for _, d := range days {
		if d < 0 || d > 6 {
			return fmt.Errorf("day %d out of range 0..6", d)
		}
		if seen[d] {
			return fmt.Errorf("day %d listed twice", d)
		}
		seen[d] = true
	}
	return nil
}

func parseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}
