// package visits implements the per-session visit counter.
//
// A visitor's session carries two values: the number of distinct visits and the time of the last counted visit.
// A request counts as a new visit once a full day has passed since the last one.
package visits

import (
	"fmt"
	"time"

	"github.com/desertthunder/rango/internal/shared"
)

// Session keys under which [State] is stored.
const (
	VisitsKey    = "visits"
	LastVisitKey = "last_visit"
)

// Interval is the elapsed time after which a request counts as a new visit.
const Interval = 24 * time.Hour

// State is a visitor's counter. The zero value means no visit has been recorded.
type State struct {
	Visits    int
	LastVisit time.Time
}

// Track returns the state after a request at now.
//
// Missing fields default to one visit at now. When at least [Interval] has elapsed since LastVisit the count
// goes up by one and LastVisit moves to now; otherwise the state is returned unchanged.
func Track(state State, now time.Time) State {
	if state.Visits <= 0 {
		state.Visits = 1
	}
	if state.LastVisit.IsZero() {
		state.LastVisit = now
	}

	if now.Sub(state.LastVisit) >= Interval {
		state.Visits++
		state.LastVisit = now
	}
	return state
}

// FormatLastVisit serializes t as RFC 3339 with nanoseconds.
func FormatLastVisit(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// ParseLastVisit parses a value written by [FormatLastVisit].
func ParseLastVisit(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: last_visit %q: %v", shared.ErrMalformedSession, s, err)
	}
	return t, nil
}

// FromSession reads the counter from session values.
//
// Absent keys yield zero fields. A value of the wrong type or an unparseable timestamp is dropped from the
// returned state and reported as an error wrapping [shared.ErrMalformedSession]; the state is still usable.
func FromSession(values map[any]any) (State, error) {
	var (
		state State
		err   error
	)

	switch v := values[VisitsKey].(type) {
	case nil:
	case int:
		state.Visits = v
	default:
		err = fmt.Errorf("%w: visits has type %T", shared.ErrMalformedSession, v)
	}

	switch v := values[LastVisitKey].(type) {
	case nil:
	case string:
		t, perr := ParseLastVisit(v)
		if perr != nil {
			err = perr
			break
		}
		state.LastVisit = t
	default:
		err = fmt.Errorf("%w: last_visit has type %T", shared.ErrMalformedSession, v)
	}

	return state, err
}

// Apply writes the state into session values.
func (s State) Apply(values map[any]any) {
	values[VisitsKey] = s.Visits
	values[LastVisitKey] = FormatLastVisit(s.LastVisit)
}
