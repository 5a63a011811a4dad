package clock

import "time"

// Clock abstracts time to keep usecases deterministic in tests.
//
// Values returned by Now must keep their monotonic reading so that
// elapsed time is measured with t.Sub and survives wall clock changes.
// Callers convert to a display zone only when formatting.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
