package deadline

import (
	"fmt"
	"strings"
	"time"
)

// State is the submission window state at a point in time
type State string

const (
	StateOpen    State = "open"
	StateWarning State = "warning"
	StateGrace   State = "grace"
	StateClosed  State = "closed"
)

// Accepting reports whether submissions are accepted in this state
func (s State) Accepting() bool {
	return s != StateClosed
}

// Classify places now relative to the deadline.
// The OPEN/WARNING edge belongs to WARNING and the GRACE/CLOSED edge belongs to GRACE.
func Classify(now, deadline time.Time, warningLead, grace time.Duration) State {
	graceEnd := deadline.Add(grace)
	switch {
	case now.After(graceEnd):
		return StateClosed
	case !now.Before(deadline):
		return StateGrace
	case !now.Before(deadline.Add(-warningLead)):
		return StateWarning
	default:
		return StateOpen
	}
}

// Policy holds the configured deadline. The zero value has no deadline and is always open.
type Policy struct {
	Deadline    time.Time
	WarningLead time.Duration
	Grace       time.Duration
}

// Window describes the state at one instant along with the values a caller needs to render a notice
type Window struct {
	State     State
	Deadline  time.Time
	Remaining time.Duration
	GraceEnd  time.Time
}

// Enabled reports whether a deadline is configured
func (p Policy) Enabled() bool {
	return !p.Deadline.IsZero()
}

// Classify returns the state at now
func (p Policy) Classify(now time.Time) State {
	if !p.Enabled() {
		return StateOpen
	}
	return Classify(now, p.Deadline, p.WarningLead, p.Grace)
}

// GraceEnd returns the last instant at which submissions are accepted
func (p Policy) GraceEnd() time.Time {
	if !p.Enabled() {
		return time.Time{}
	}
	return p.Deadline.Add(p.Grace)
}

// Window classifies now and fills in the remaining time or the grace end
func (p Policy) Window(now time.Time) Window {
	w := Window{State: p.Classify(now)}
	if !p.Enabled() {
		return w
	}

	w.Deadline = p.Deadline
	switch w.State {
	case StateOpen, StateWarning:
		w.Remaining = p.Deadline.Sub(now)
	case StateGrace:
		w.GraceEnd = p.GraceEnd()
	}
	return w
}

// FormatRemaining renders a duration as days, hours and minutes
func FormatRemaining(d time.Duration) string {
	if d < time.Minute {
		return "less than 1 minute"
	}

	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int(d / time.Minute)

	var parts []string
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	return strings.Join(parts, ", ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
