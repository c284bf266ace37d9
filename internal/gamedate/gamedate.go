package gamedate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalid is returned when text does not have the Y.M.D shape or a component is out of range.
var ErrInvalid = errors.New("invalid game date")

// Date is an in-game calendar date. Only ordering is meaningful; no calendar arithmetic is performed.
type Date struct {
	Year  int
	Month int
	Day   int
}

// EU4Start is the default start date of an EU4 campaign.
var EU4Start = Date{Year: 1444, Month: 11, Day: 11}

// New builds a Date, validating month and day ranges.
func New(year, month, day int) (Date, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return Date{}, fmt.Errorf("%w: %d.%d.%d", ErrInvalid, year, month, day)
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// Parse reads a date of the form "Y.M.D". The year has 1-4 digits, month and day 1-2 digits each.
func Parse(s string) (Date, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	var nums [3]int
	for i, p := range parts {
		maxLen := 2
		if i == 0 {
			maxLen = 4
		}
		if p == "" || len(p) > maxLen || !allDigits(p) {
			return Date{}, fmt.Errorf("%w: %q", ErrInvalid, s)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("%w: %q", ErrInvalid, s)
		}
		nums[i] = n
	}
	return New(nums[0], nums[1], nums[2])
}

// MustParse is Parse for constants and tests; it panics on bad input.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Compare returns -1, 0 or 1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(d.Month, o.Month)
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }
// IsZero reports whether d is the unset date.
func (d Date) IsZero() bool       { return d == Date{} }

func (d Date) String() string {
	return fmt.Sprintf("%d.%d.%d", d.Year, d.Month, d.Day)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
