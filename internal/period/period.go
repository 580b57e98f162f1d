// Package period defines the date-anchored time windows used to scope every
// financial and operational aggregation. Resolution is pure: a Period always
// maps to exactly one half-open range [Start, End).
package period

import "time"

// Type names a supported window shape.
type Type string

const (
	Month        Type = "month"
	LastMonth    Type = "last_month"
	Last3Months  Type = "last_3_months"
	Last6Months  Type = "last_6_months"
	Last12Months Type = "last_12_months"
	Quarter      Type = "quarter"
	YTD          Type = "ytd"
	Year         Type = "year"
)

// Parse maps a raw string to a Type. Unknown or empty values fall back to
// Month — this is a deliberate UX choice carried from the original design:
// invalid period falls back to month, never an error.
func Parse(s string) Type {
	switch Type(s) {
	case Month, LastMonth, Last3Months, Last6Months, Last12Months, Quarter, YTD, Year:
		return Type(s)
	default:
		return Month
	}
}

// Period is a value object: a window type anchored at a reference instant.
type Period struct {
	Type Type
	Date time.Time
}

// New builds a Period from a raw type string (with the month fallback) and a
// reference date.
func New(rawType string, date time.Time) Period {
	return Period{Type: Parse(rawType), Date: date}
}

// Range resolves the period to its half-open [start, end) bounds. All bounds
// are midnight-aligned in the reference date's location, except YTD whose end
// is the reference instant itself.
func (p Period) Range() (start, end time.Time) {
	d := p.Date
	loc := d.Location()
	monthStart := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, loc)

	switch p.Type {
	case LastMonth:
		return monthStart.AddDate(0, -1, 0), monthStart
	case Last3Months:
		return monthStart.AddDate(0, -3, 0), monthStart
	case Last6Months:
		return monthStart.AddDate(0, -6, 0), monthStart
	case Last12Months:
		return monthStart.AddDate(0, -12, 0), monthStart
	case Quarter:
		qMonth := time.Month((int(d.Month())-1)/3*3 + 1)
		qStart := time.Date(d.Year(), qMonth, 1, 0, 0, 0, 0, loc)
		return qStart, qStart.AddDate(0, 3, 0)
	case YTD:
		return time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, loc), d
	case Year:
		yStart := time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, loc)
		return yStart, yStart.AddDate(1, 0, 0)
	default: // Month
		return monthStart, monthStart.AddDate(0, 1, 0)
	}
}

// Previous returns the window immediately before this one, with the same
// length. Used for period-over-period comparisons.
func (p Period) Previous() (start, end time.Time) {
	curStart, curEnd := p.Range()
	span := curEnd.Sub(curStart)
	switch p.Type {
	case Month, LastMonth:
		return curStart.AddDate(0, -1, 0), curStart
	case Quarter:
		return curStart.AddDate(0, -3, 0), curStart
	case Year:
		return curStart.AddDate(-1, 0, 0), curStart
	case Last3Months:
		return curStart.AddDate(0, -3, 0), curStart
	case Last6Months:
		return curStart.AddDate(0, -6, 0), curStart
	case Last12Months:
		return curStart.AddDate(0, -12, 0), curStart
	default: // YTD — same span ending where the current window starts
		return curStart.Add(-span), curStart
	}
}
