package visits

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/rango/internal/shared"
)

var epoch = time.Date(2024, time.March, 1, 9, 30, 0, 123456789, time.UTC)

func TestTrack(t *testing.T) {
	t.Run("first visit defaults", func(t *testing.T) {
		got := Track(State{}, epoch)
		if got.Visits != 1 {
			t.Errorf("expected 1 visit, got %d", got.Visits)
		}
		if !got.LastVisit.Equal(epoch) {
			t.Errorf("expected last visit %v, got %v", epoch, got.LastVisit)
		}
	})

	tests := []struct {
		name       string
		elapsed    time.Duration
		wantVisits int
		wantMoved  bool
	}{
		{"same instant", 0, 3, false},
		{"one hour later", time.Hour, 3, false},
		{"just under a day", Interval - time.Nanosecond, 3, false},
		{"exactly a day", Interval, 4, true},
		{"three days later", 3 * Interval, 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := epoch.Add(tt.elapsed)
			got := Track(State{Visits: 3, LastVisit: epoch}, now)

			if got.Visits != tt.wantVisits {
				t.Errorf("expected %d visits, got %d", tt.wantVisits, got.Visits)
			}

			want := epoch
			if tt.wantMoved {
				want = now
			}
			if !got.LastVisit.Equal(want) {
				t.Errorf("expected last visit %v, got %v", want, got.LastVisit)
			}
		})
	}

	t.Run("non-positive visits default to one", func(t *testing.T) {
		got := Track(State{Visits: -2, LastVisit: epoch}, epoch.Add(time.Minute))
		if got.Visits != 1 {
			t.Errorf("expected 1 visit, got %d", got.Visits)
		}
	})

	t.Run("monotonic over a request sequence", func(t *testing.T) {
		state := State{}
		now := epoch
		prev := 0
		for _, step := range []time.Duration{0, time.Hour, 25 * time.Hour, time.Minute, 48 * time.Hour, -time.Hour} {
			now = now.Add(step)
			state = Track(state, now)
			if state.Visits < prev {
				t.Fatalf("visits decreased from %d to %d", prev, state.Visits)
			}
			prev = state.Visits
		}
		if state.Visits != 3 {
			t.Errorf("expected 3 visits, got %d", state.Visits)
		}
	})
}

func TestLastVisitRoundTrip(t *testing.T) {
	times := []time.Time{
		epoch,
		epoch.In(time.FixedZone("CET", 3600)),
		time.Date(1999, time.December, 31, 23, 59, 59, 1, time.UTC),
	}
	for _, want := range times {
		got, err := ParseLastVisit(FormatLastVisit(want))
		if err != nil {
			t.Fatalf("ParseLastVisit failed: %v", err)
		}
		if !got.Equal(want) {
			t.Errorf("round trip changed %v to %v", want, got)
		}
	}

	if _, err := ParseLastVisit("2024-03-01 09:30:00"); !errors.Is(err, shared.ErrMalformedSession) {
		t.Errorf("expected ErrMalformedSession, got %v", err)
	}
}

func TestSession(t *testing.T) {
	t.Run("empty session", func(t *testing.T) {
		state, err := FromSession(map[any]any{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if state != (State{}) {
			t.Errorf("expected zero state, got %+v", state)
		}
	})

	t.Run("apply then read", func(t *testing.T) {
		values := map[any]any{}
		State{Visits: 7, LastVisit: epoch}.Apply(values)

		if _, ok := values[LastVisitKey].(string); !ok {
			t.Fatalf("expected last_visit stored as string, got %T", values[LastVisitKey])
		}

		state, err := FromSession(values)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if state.Visits != 7 || !state.LastVisit.Equal(epoch) {
			t.Errorf("unexpected state %+v", state)
		}
	})

	t.Run("malformed values are dropped", func(t *testing.T) {
		tests := []struct {
			name   string
			values map[any]any
			want   State
		}{
			{"bad timestamp", map[any]any{VisitsKey: 4, LastVisitKey: "yesterday"}, State{Visits: 4}},
			{"visits as string", map[any]any{VisitsKey: "4", LastVisitKey: FormatLastVisit(epoch)}, State{LastVisit: epoch}},
			{"last_visit as int", map[any]any{VisitsKey: 2, LastVisitKey: 12}, State{Visits: 2}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				state, err := FromSession(tt.values)
				if !errors.Is(err, shared.ErrMalformedSession) {
					t.Errorf("expected ErrMalformedSession, got %v", err)
				}
				if state.Visits != tt.want.Visits || !state.LastVisit.Equal(tt.want.LastVisit) {
					t.Errorf("expected %+v, got %+v", tt.want, state)
				}
			})
		}
	})

	t.Run("malformed timestamp resets to a fresh visit", func(t *testing.T) {
		state, _ := FromSession(map[any]any{VisitsKey: 4, LastVisitKey: "garbage"})
		got := Track(state, epoch)
		if got.Visits != 4 || !got.LastVisit.Equal(epoch) {
			t.Errorf("expected visits kept and last visit reset, got %+v", got)
		}
	})
}
