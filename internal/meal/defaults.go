package meal

import "time"

// Default returns the pre-filled values offered for a new meal entry.
func Default(now time.Time) Record {
	return Record{
		ProteinG: 20,
		CarbsG:   50,
		FatG:     15,
		Type:     Breakfast,
		Hour:     12,
		Day:      WeekdayOf(now),
	}
}
