package date

import (
	"encoding/json"
	"fmt"
	"time"
)

// DatetimeFormat is the format used by broker exports and the ledger file:
// second resolution, lexicographically sortable.
const DatetimeFormat = "2006-01-02 15:04:05"

// Datetime is an instant with second granularity. Unlike Date it carries a
// time of day, so same-day transactions keep their relative order.
type Datetime struct {
	t time.Time
}

// NewDatetime returns a Datetime for the given instant, truncated to the second, in UTC.
func NewDatetime(t time.Time) Datetime {
	return Datetime{t: t.UTC().Truncate(time.Second)}
}

// ParseDatetime parses an instant in the "2006-01-02 15:04:05" format.
// A bare date is accepted too and maps to midnight.
func ParseDatetime(str string) (Datetime, error) {
	if t, err := time.Parse(DatetimeFormat, str); err == nil {
		return Datetime{t: t}, nil
	}
	d, err := Parse(str)
	if err != nil {
		return Datetime{}, fmt.Errorf("invalid datetime %q want format %q: %w", str, DatetimeFormat, err)
	}
	return Datetime{t: d.time()}, nil
}

// MustParseDatetime is like ParseDatetime but panics on error.
func MustParseDatetime(str string) Datetime {
	t, err := ParseDatetime(str)
	if err != nil {
		panic(err.Error())
	}
	return t
}

// FromUnix returns the Datetime for a unix timestamp in seconds, in UTC.
func FromUnix(sec int64) Datetime {
	return Datetime{t: time.Unix(sec, 0).UTC()}
}

// Day returns the calendar day of the instant, used as key for daily price
// and conversion-rate lookups.
func (d Datetime) Day() Date { return New(d.t.Date()) }

// Before reports whether d is strictly before x.
func (d Datetime) Before(x Datetime) bool { return d.t.Before(x.t) }

// After reports whether d is strictly after x.
func (d Datetime) After(x Datetime) bool { return d.t.After(x.t) }

// Equal reports whether d and x are the same instant.
func (d Datetime) Equal(x Datetime) bool { return d.t.Equal(x.t) }

// IsZero reports whether d is the zero instant.
func (d Datetime) IsZero() bool { return d.t.IsZero() }

// DaysSince returns the number of whole days elapsed from x to d.
func (d Datetime) DaysSince(x Datetime) int {
	return int(d.t.Sub(x.t) / Day)
}

// String formats the instant in its standard format.
func (d Datetime) String() string { return d.t.Format(DatetimeFormat) }

// Compare returns -1, 0 or 1 comparing d to x chronologically.
func (d Datetime) Compare(x Datetime) int { return d.t.Compare(x.t) }

func (d Datetime) MarshalJSON() ([]byte, error) {
	str := d.String()
	return json.Marshal(&str)
}

func (d *Datetime) UnmarshalJSON(bytes []byte) error {
	var str string
	if err := json.Unmarshal(bytes, &str); err != nil {
		return err
	}
	t, err := ParseDatetime(str)
	if err != nil {
		return err
	}
	*d = t
	return nil
}

var _ json.Marshaler = (*Datetime)(nil)
var _ json.Unmarshaler = (*Datetime)(nil)
