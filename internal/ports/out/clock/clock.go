package clock

import "time"

// Clock provides time to the application (registration timestamps, check-in times, session expiry).
type Clock interface {
	Now() time.Time
}
