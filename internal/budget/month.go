package budget

import (
	"fmt"
	"strings"
	"time"
)

// Month is one of the twelve canonical month names.
type Month string

const (
	Enero      Month = "Enero"
	Febrero    Month = "Febrero"
	Marzo      Month = "Marzo"
	Abril      Month = "Abril"
	Mayo       Month = "Mayo"
	Junio      Month = "Junio"
	Julio      Month = "Julio"
	Agosto     Month = "Agosto"
	Septiembre Month = "Septiembre"
	Octubre    Month = "Octubre"
	Noviembre  Month = "Noviembre"
	Diciembre  Month = "Diciembre"
)

// Months lists the canonical names in calendar order.
var Months = []Month{
	Enero, Febrero, Marzo, Abril, Mayo, Junio,
	Julio, Agosto, Septiembre, Octubre, Noviembre, Diciembre,
}

// ParseMonth accepts a canonical name (any case) or a month number "1".."12".
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)

	for i, m := range Months {
		if strings.EqualFold(s, string(m)) || s == fmt.Sprint(i+1) || s == fmt.Sprintf("%02d", i+1) {
			return m, nil
		}
	}

	return "", fmt.Errorf("%w: unknown month %q", ErrValidation, s)
}

// MonthOf converts a calendar month into its canonical name.
func MonthOf(m time.Month) Month {
	return Months[m-1]
}

// Number returns the calendar month number, or 0 for a non-canonical name.
func (m Month) Number() time.Month {
	for i, c := range Months {
		if c == m {
			return time.Month(i + 1)
		}
	}

	return 0
}

// Valid reports whether m is a canonical month name.
func (m Month) Valid() bool {
	return m.Number() != 0
}

// Period identifies one MonthlyBudget.
type Period struct {
	Month Month
	Year  int
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Month: MonthOf(t.Month()), Year: t.Year()}
}

// Key renders the composite "{month}-{year}" key, also used as the budget id.
func (p Period) Key() string {
	return fmt.Sprintf("%s-%d", p.Month, p.Year)
}

func (p Period) String() string {
	return fmt.Sprintf("%s %d", p.Month, p.Year)
}

// Validate checks the month name is canonical.
func (p Period) Validate() error {
	if !p.Month.Valid() {
		return fmt.Errorf("%w: unknown month %q", ErrValidation, p.Month)
	}

	return nil
}

// Start returns the first instant of the period in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month.Number(), 1, 0, 0, 0, 0, time.UTC)
}

// Days returns the number of days in the period.
func (p Period) Days() int {
	return p.Start().AddDate(0, 1, -1).Day()
}

// Previous returns the period one month earlier.
func (p Period) Previous() Period {
	return PeriodOf(p.Start().AddDate(0, -1, 0))
}

// Before reports whether p is strictly earlier than o.
func (p Period) Before(o Period) bool {
	return p.Start().Before(o.Start())
}
