package recurrence

import (
	"fmt"
	"sort"
	"time"
)

// Safety cap on candidate dates considered for a single generation run.
// The caller's horizon is the real bound; this only guards pathological rules.
const maxCandidates = 10000

// Generate expands a validated rule into the ordered sequence of due instants
// falling within [horizonStart, horizonEnd). It is a pure function of the
// rule and horizon: the same inputs always produce the same output, with no
// external state.
//
// maxOccurrences and endDate are counted from the rule's startDate, not from
// the horizon, so a later horizon window sees the tail of the same sequence.
func Generate(r Rule, horizonStart, horizonEnd time.Time) ([]time.Time, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if !horizonEnd.After(horizonStart) {
		return nil, nil
	}

	loc := time.UTC
	if r.TimeZone != "" {
		l, err := time.LoadLocation(r.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("load rule time zone: %w", err)
		}
		loc = l
	}

	hour, minute := 0, 0
	if r.DueTime != "" {
		h, m, err := parseClock(r.DueTime)
		if err != nil {
			return nil, err
		}
		hour, minute = h, m
	}

	// Last civil date worth considering: the horizon end in the rule's zone,
	// tightened by the rule's own end date.
	last := DateOf(horizonEnd.In(loc))
	if r.EndDate != nil && r.EndDate.Before(last) {
		last = *r.EndDate
	}

	dates := candidates(r, last)
	dates = applyFilters(r, dates, last)

	var out []time.Time
	emitted := 0
	for _, d := range dates {
		emitted++
		if r.MaxOccurrences > 0 && emitted > r.MaxOccurrences {
			break
		}
		at := d.At(hour, minute, loc)
		if at.Before(horizonStart) || !at.Before(horizonEnd) {
			continue
		}
		out = append(out, at)
	}
	return out, nil
}

// candidates yields the raw pattern dates from startDate through last,
// in increasing order, before any filters.
func candidates(r Rule, last Date) []Date {
	start := r.StartDate
	if last.Before(start) && r.Pattern != Custom {
		return nil
	}

	switch r.Pattern {
	case None:
		return []Date{start}
	case Daily:
		return dailyCandidates(start, last, r.Daily.Every)
	case Weekly:
		interval := r.Weekly.IntervalWeeks
		if interval < 1 {
			interval = 1
		}
		return weekCandidates(start, last, r.Weekly.DaysOfWeek, interval, 0)
	case Biweekly:
		return weekCandidates(start, last, r.Biweekly.DaysOfWeek, 2, r.Biweekly.AnchorWeek)
	case Monthly:
		if r.Monthly.DayOfMonth > 0 {
			return monthDayCandidates(start, last, r.Monthly.DayOfMonth, r.Monthly.RollStrategy)
		}
		return nthWeekdayCandidates(start, last, r.Monthly.Nth, *r.Monthly.Weekday)
	case Custom:
		return customCandidates(start, last, r.Custom)
	}
	return nil
}

func dailyCandidates(start, last Date, every int) []Date {
	var out []Date
	for d := start; !last.Before(d) && len(out) < maxCandidates; d = d.AddDays(every) {
		out = append(out, d)
	}
	return out
}

// weekCandidates walks whole weeks from the week containing start (week 0,
// Monday-based) and emits the configured weekdays in weeks where
// (week - anchor) is a multiple of interval.
func weekCandidates(start, last Date, daysOfWeek []int, interval, anchor int) []Date {
	days := append([]int(nil), daysOfWeek...)
	sort.Ints(days)

	weekZero := start.AddDays(-start.Weekday()) // Monday of start's week
	var out []Date
	for w := 0; len(out) < maxCandidates; w++ {
		monday := weekZero.AddDays(7 * w)
		if last.Before(monday) {
			break
		}
		if ((w-anchor)%interval+interval)%interval != 0 {
			continue
		}
		for _, day := range days {
			d := monday.AddDays(day)
			if d.Before(start) || last.Before(d) {
				continue
			}
			out = append(out, d)
		}
	}
	return out
}

func monthDayCandidates(start, last Date, dayOfMonth int, roll RollStrategy) []Date {
	var out []Date
	year, month := start.Year, start.Month
	for len(out) < maxCandidates {
		first := NewDate(year, month, 1)
		if last.Before(first) {
			break
		}
		day := dayOfMonth
		if dim := daysInMonth(year, month); day > dim {
			if roll == RollSkip {
				year, month = nextMonth(year, month)
				continue
			}
			day = dim
		}
		d := NewDate(year, month, day)
		if !d.Before(start) && !last.Before(d) {
			out = append(out, d)
		}
		year, month = nextMonth(year, month)
	}
	return out
}

func nthWeekdayCandidates(start, last Date, nth, weekday int) []Date {
	var out []Date
	year, month := start.Year, start.Month
	for len(out) < maxCandidates {
		first := NewDate(year, month, 1)
		if last.Before(first) {
			break
		}
		if d, ok := nthWeekdayOfMonth(year, month, nth, weekday); ok {
			if !d.Before(start) && !last.Before(d) {
				out = append(out, d)
			}
		}
		year, month = nextMonth(year, month)
	}
	return out
}

// nthWeekdayOfMonth resolves e.g. "second Tuesday" or, for nth=-1, the last
// occurrence of weekday in the month. ok is false when the month has no nth
// occurrence (e.g. a fifth Friday).
func nthWeekdayOfMonth(year int, month time.Month, nth, weekday int) (Date, bool) {
	firstDay := NewDate(year, month, 1)
	offset := (weekday - firstDay.Weekday() + 7) % 7
	if nth == -1 {
		day := 1 + offset
		for day+7 <= daysInMonth(year, month) {
			day += 7
		}
		return NewDate(year, month, day), true
	}
	day := 1 + offset + 7*(nth-1)
	if day > daysInMonth(year, month) {
		return Date{}, false
	}
	return NewDate(year, month, day), true
}

// customCandidates expands only the day-of-month part of a custom rule; the
// rule's literal dates are explicit emissions handled in applyFilters.
func customCandidates(start, last Date, c *CustomRule) []Date {
	var out []Date
	if len(c.DaysOfMonth) > 0 && !last.Before(start) {
		year, month := start.Year, start.Month
		for len(out) < maxCandidates {
			first := NewDate(year, month, 1)
			if last.Before(first) {
				break
			}
			dim := daysInMonth(year, month)
			for _, day := range c.DaysOfMonth {
				if day > dim {
					continue // month doesn't have this day
				}
				d := NewDate(year, month, day)
				if !d.Before(start) && !last.Before(d) {
					out = append(out, d)
				}
			}
			year, month = nextMonth(year, month)
		}
	}
	return out
}

// applyFilters runs the post-generation pipeline: month filter, exclusions,
// then explicit emissions. Dropped dates are skipped, never shifted.
// Explicit emissions (includeDates and custom literal dates) bypass the
// month filter but still honor excludeDates.
func applyFilters(r Rule, dates []Date, last Date) []Date {
	var allowed map[int]bool
	var excluded map[Date]bool
	if f := r.Filters; f != nil {
		allowed = make(map[int]bool, len(f.AllowedMonths))
		for _, m := range f.AllowedMonths {
			allowed[m] = true
		}
		excluded = make(map[Date]bool, len(f.ExcludeDates))
		for _, d := range f.ExcludeDates {
			excluded[d] = true
		}
	}

	var out []Date
	for _, d := range dates {
		if len(allowed) > 0 && !allowed[int(d.Month)] {
			continue
		}
		if excluded[d] {
			continue
		}
		out = append(out, d)
	}

	var explicit []Date
	if r.Pattern == Custom && r.Custom != nil {
		// Literal dates are not anchored to startDate.
		explicit = append(explicit, r.Custom.Dates...)
	}
	if r.Filters != nil {
		explicit = append(explicit, r.Filters.IncludeDates...)
	}
	for _, d := range explicit {
		if excluded[d] || last.Before(d) {
			continue
		}
		out = append(out, d)
	}

	return sortedUnique(out)
}

func nextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

func sortedUnique(dates []Date) []Date {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	out := dates[:0]
	for i, d := range dates {
		if i > 0 && d == dates[i-1] {
			continue
		}
		out = append(out, d)
	}
	return out
}
