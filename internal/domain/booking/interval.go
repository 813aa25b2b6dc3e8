package booking

import "time"

// TimeInterval is a half-open [Start, End) span of time.
type TimeInterval struct {
	Start time.Time
	End   time.Time
}

// NewTimeInterval builds the interval starting at start and lasting duration.
func NewTimeInterval(start time.Time, duration time.Duration) TimeInterval {
	return TimeInterval{Start: start, End: start.Add(duration)}
}

// Overlaps reports whether the two intervals share any instant.
// Touching endpoints do not overlap.
func (i TimeInterval) Overlaps(other TimeInterval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

// Duration returns End - Start.
func (i TimeInterval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}
