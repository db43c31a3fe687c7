package clock

import "time"

// SystemClock returns the current wall-clock time in UTC.
type SystemClock struct{}

func NewSystemClock() SystemClock { return SystemClock{} }

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Func adapts a plain function to the clock port.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }
