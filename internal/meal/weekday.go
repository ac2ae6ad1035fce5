package meal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hpungsan/nextmeal/internal/errors"
)

// Weekday is a zero-based day index in a week that starts on Monday.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// Weekdays is the fixed week ordering used for positional lookup.
var Weekdays = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Valid reports whether d is within Monday..Sunday.
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// String returns the English day name.
func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return Weekdays[d]
}

// MarshalJSON encodes the day by name.
func (d Weekday) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a day name or a zero-based index.
func (d *Weekday) UnmarshalJSON(b []byte) error {
	var idx int
	if err := json.Unmarshal(b, &idx); err == nil {
		day := Weekday(idx)
		if !day.Valid() {
			return fmt.Errorf("day_of_week index %d out of range", idx)
		}
		*d = day
		return nil
	}
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return fmt.Errorf("day_of_week must be a name or index: %w", err)
	}
	day, err := ParseWeekday(name)
	if err != nil {
		return err
	}
	*d = day
	return nil
}

// ParseWeekday maps a day name to its index, ignoring case and whitespace.
func ParseWeekday(s string) (Weekday, error) {
	name := Canonical(s)
	for i, w := range Weekdays {
		if w == name {
			return Weekday(i), nil
		}
	}
	return 0, errors.NewInvalidRequest(fmt.Sprintf("unknown day of week %q", s))
}

// WeekdayOf returns the Monday-based weekday of t.
func WeekdayOf(t time.Time) Weekday {
	// time.Weekday counts from Sunday=0.
	return Weekday((int(t.Weekday()) + 6) % 7)
}
