package clock

import (
	"sync"
	"time"
)

// Clock abstracts wall time so day-key logic can be tested deterministically.
type Clock interface {
	Now() time.Time
}

type System struct{}

func NewSystem() *System {
	return &System{}
}

func (System) Now() time.Time {
	return time.Now()
}

var (
	tokyoOnce sync.Once
	tokyo     *time.Location
)

func tokyoLocation() *time.Location {
	tokyoOnce.Do(func() {
		loc, err := time.LoadLocation("Asia/Tokyo")
		if err != nil {
			// JST has no DST, a fixed offset is equivalent.
			loc = time.FixedZone("JST", 9*60*60)
		}
		tokyo = loc
	})
	return tokyo
}

// DayKey returns the calendar day of t in Asia/Tokyo as "YYYY-MM-DD".
// The key is stable for every caller within one JST calendar day
// regardless of the server's local time zone.
func DayKey(t time.Time) string {
	return t.In(tokyoLocation()).Format("2006-01-02")
}
