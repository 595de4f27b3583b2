package timezone

import (
	"time"
	_ "time/tzdata"
)

// DateLayout is the layout run dates are stored and printed with.
const DateLayout = time.DateOnly

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Berlin")
	if err != nil {
		panic(err)
	}
}

// Load replaces Location with the named IANA zone. An empty name keeps the current one.
func Load(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	Location = loc
	return nil
}

// force the game's server save timezone, otherwise a host in another zone
// will disagree about which calendar day Year()/Month()/Day() fall on
func Now() time.Time {
	return time.Now().In(Location)
}

// StartOfDay returns midnight of the calendar day t falls on in Location.
func StartOfDay(t time.Time) time.Time {
	t = t.In(Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Location)
}

func FormatDate(t time.Time) string {
	return t.In(Location).Format(DateLayout)
}

func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, Location)
}
