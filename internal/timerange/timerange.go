// Package timerange parses the start offset and duration arguments that select
// which slice of a source the pipeline processes.
package timerange

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// UnboundedSentinel is the duration argument meaning "the entire source".
const UnboundedSentinel = "-1"

// Range is a (start offset, duration) pair. A zero Duration means unbounded,
// in which case the whole source is processed and Start is not used.
type Range struct {
	Start    time.Duration
	Duration time.Duration
}

// Full returns the unbounded range covering the entire source.
func Full() Range {
	return Range{}
}

// Parse converts command-line arguments into a Range. start accepts "0",
// plain seconds, "MM:SS" or "HH:MM:SS" with optional fractional seconds.
// duration accepts a positive number of seconds or the "-1" sentinel.
func Parse(start, duration string) (Range, error) {
	offset, err := ParseOffset(start)
	if err != nil {
		return Range{}, err
	}
	duration = strings.TrimSpace(duration)
	if duration == UnboundedSentinel {
		return Range{Start: offset}, nil
	}
	seconds, err := strconv.ParseFloat(duration, 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return Range{}, fmt.Errorf("duration %q: expected seconds or %s for the entire source", duration, UnboundedSentinel)
	}
	if seconds <= 0 {
		return Range{}, fmt.Errorf("duration %q: must be positive or %s for the entire source", duration, UnboundedSentinel)
	}
	length, ok := secondsToDuration(seconds)
	if !ok {
		return Range{}, fmt.Errorf("duration %q: out of range", duration)
	}
	if length <= 0 {
		return Range{}, fmt.Errorf("duration %q: shorter than a nanosecond", duration)
	}
	return Range{Start: offset, Duration: length}, nil
}

// ParseOffset parses a start offset.
func ParseOffset(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("start offset is empty")
	}
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("start offset %q: expected HH:MM:SS", value)
	}
	var total float64
	for i, part := range parts {
		last := i == len(parts)-1
		var component float64
		if last {
			parsed, err := strconv.ParseFloat(part, 64)
			if err != nil || parsed < 0 || math.IsInf(parsed, 0) || math.IsNaN(parsed) {
				return 0, fmt.Errorf("start offset %q: invalid seconds %q", value, part)
			}
			component = parsed
		} else {
			parsed, err := strconv.Atoi(part)
			if err != nil || parsed < 0 {
				return 0, fmt.Errorf("start offset %q: invalid field %q", value, part)
			}
			component = float64(parsed)
		}
		if len(parts) > 1 && i > 0 && component >= 60 {
			return 0, fmt.Errorf("start offset %q: field %q out of range", value, part)
		}
		total = total*60 + component
	}
	offset, ok := secondsToDuration(total)
	if !ok {
		return 0, fmt.Errorf("start offset %q: out of range", value)
	}
	return offset, nil
}

// Unbounded reports whether the range covers the entire source.
func (r Range) Unbounded() bool {
	return r.Duration <= 0
}

// StartArg renders the start offset in the HH:MM:SS form the transcoder accepts.
func (r Range) StartArg() string {
	return FormatClock(r.Start)
}

// DurationArg renders the duration in seconds, or the sentinel when unbounded.
func (r Range) DurationArg() string {
	if r.Unbounded() {
		return UnboundedSentinel
	}
	return strconv.FormatFloat(r.Duration.Seconds(), 'f', -1, 64)
}

// String renders the range for logs.
func (r Range) String() string {
	if r.Unbounded() {
		return "full"
	}
	return r.StartArg() + "+" + r.DurationArg() + "s"
}

// FormatClock renders d as HH:MM:SS with millisecond precision when needed.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second
	millis := d / time.Millisecond
	if millis > 0 {
		return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
	}
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// maxSeconds is the largest second count a time.Duration can hold.
const maxSeconds = float64(math.MaxInt64) / float64(time.Second)

// secondsToDuration reports false when seconds does not fit in a
// time.Duration; converting anyway would wrap to a negative value.
func secondsToDuration(seconds float64) (time.Duration, bool) {
	if seconds < 0 || seconds >= maxSeconds {
		return 0, false
	}
	return time.Duration(math.Round(seconds * float64(time.Second))), true
}
