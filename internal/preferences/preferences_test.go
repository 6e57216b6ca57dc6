package preferences

import (
	"sync"
	"testing"
	"time"

	"github.com/afikmenashe/roadcrew/internal/events"
	"github.com/afikmenashe/roadcrew/internal/severity"
)

var today = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

func dateIn(days int) *time.Time {
	d := today.AddDate(0, 0, days)
	return &d
}

func noOverride() Preference {
	p := Defaults()
	p.SafetyAlways, p.TimeAlways, p.MoneyAlways = false, false, false
	return p
}

func TestShouldNotify(t *testing.T) {
	tests := []struct {
		name  string
		event events.ChangeEvent
		prefs func() Preference
		want  bool
	}{
		{
			name:  "safety override bypasses disabled category",
			event: events.ChangeEvent{EntityType: events.EntityVenueNote, AffectsSafety: true},
			prefs: func() Preference {
				p := Defaults()
				p.NotifyVenue = false
				return p
			},
			want: true,
		},
		{
			name:  "info below important threshold",
			event: events.ChangeEvent{EntityType: events.EntitySchedule},
			prefs: func() Preference {
				p := noOverride()
				p.MinSeverity = severity.Important
				return p
			},
			want: false,
		},
		{
			name:  "category disabled without override",
			event: events.ChangeEvent{EntityType: events.EntityContact, AffectsTime: true},
			prefs: func() Preference {
				p := noOverride()
				p.MinSeverity = severity.Info
				p.NotifyContact = false
				return p
			},
			want: false,
		},
		{
			name:  "time override bypasses min severity",
			event: events.ChangeEvent{EntityType: events.EntitySchedule, AffectsTime: true},
			prefs: Defaults,
			want:  true,
		},
		{
			name:  "override does not bypass day window",
			event: events.ChangeEvent{EntityType: events.EntitySchedule, AffectsSafety: true, AssociatedDate: dateIn(10)},
			prefs: Defaults,
			want:  false,
		},
		{
			name:  "within day window",
			event: events.ChangeEvent{EntityType: events.EntitySchedule, AffectsSafety: true, AssociatedDate: dateIn(2)},
			prefs: Defaults,
			want:  true,
		},
		{
			name:  "edge of day window",
			event: events.ChangeEvent{EntityType: events.EntitySchedule, AffectsMoney: true, AssociatedDate: dateIn(3)},
			prefs: Defaults,
			want:  true,
		},
		{
			name:  "past date never gated",
			event: events.ChangeEvent{EntityType: events.EntitySchedule, AffectsSafety: true, AssociatedDate: dateIn(-4)},
			prefs: Defaults,
			want:  true,
		},
		{
			name:  "zero window disables gate",
			event: events.ChangeEvent{EntityType: events.EntitySchedule, AffectsSafety: true, AssociatedDate: dateIn(90)},
			prefs: func() Preference {
				p := Defaults()
				p.DayWindow = 0
				return p
			},
			want: true,
		},
		{
			name:  "negative window disables gate",
			event: events.ChangeEvent{EntityType: events.EntitySchedule, AffectsSafety: true, AssociatedDate: dateIn(90)},
			prefs: func() Preference {
				p := Defaults()
				p.DayWindow = -1
				return p
			},
			want: true,
		},
		{
			name:  "no associated date is always in window",
			event: events.ChangeEvent{EntityType: events.EntityFinance, AffectsMoney: true},
			prefs: func() Preference {
				p := Defaults()
				p.DayWindow = 1
				return p
			},
			want: true,
		},
		{
			name:  "stored severity used for threshold",
			event: events.ChangeEvent{EntityType: events.EntitySchedule, Severity: severity.Critical},
			prefs: noOverride,
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.event
			got := ShouldNotify(&e, tt.prefs(), today)
			if got != tt.want {
				t.Errorf("ShouldNotify() = %v, want %v", got, tt.want)
			}
			// Pure: the same inputs give the same answer.
			if again := ShouldNotify(&e, tt.prefs(), today); again != got {
				t.Errorf("ShouldNotify() not pure: %v then %v", got, again)
			}
		})
	}
}

func TestShouldNotify_SafetyOverrideIgnoresToggles(t *testing.T) {
	e := &events.ChangeEvent{EntityType: events.EntityContact, AffectsSafety: true}
	for _, toggle := range []bool{true, false} {
		p := Defaults()
		p.MinSeverity = severity.Critical
		p.SafetyAlways = true
		p.NotifyContact = toggle
		if !ShouldNotify(e, p, today) {
			t.Errorf("safety change not notified with contact toggle = %v", toggle)
		}
	}
}

func TestShouldNotify_InfoBelowImportant(t *testing.T) {
	e := &events.ChangeEvent{EntityType: events.EntitySchedule}
	p := Defaults()
	p.MinSeverity = severity.Important
	if ShouldNotify(e, p, today) {
		t.Error("INFO change notified to IMPORTANT recipient")
	}
}

func TestResolve(t *testing.T) {
	user := Preference{MinSeverity: severity.Info, DayWindow: 7}
	tour := Preference{MinSeverity: severity.Important, DayWindow: 1}

	if got := Resolve(&user, &tour); got.DayWindow != 7 {
		t.Errorf("Resolve(user, tour).DayWindow = %d, want 7", got.DayWindow)
	}
	if got := Resolve(nil, &tour); got.MinSeverity != severity.Important {
		t.Errorf("Resolve(nil, tour).MinSeverity = %s, want IMPORTANT", got.MinSeverity)
	}
	got := Resolve(nil, nil)
	if got != Defaults() {
		t.Errorf("Resolve(nil, nil) = %+v, want defaults", got)
	}
	if got.MinSeverity != severity.Critical || got.DayWindow != 3 || !got.SafetyAlways || !got.TimeAlways || !got.MoneyAlways {
		t.Errorf("Defaults() = %+v", got)
	}
}

func TestDaysOut(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	tests := []struct {
		name string
		date time.Time
		want int
	}{
		{"same day", today, 0},
		{"tomorrow", today.AddDate(0, 0, 1), 1},
		{"yesterday", today.AddDate(0, 0, -1), -1},
		{"late evening local", time.Date(2026, 10, 20, 23, 30, 0, 0, berlin), 1},
		{"across DST change", time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysOut(tt.date, today); got != tt.want {
				t.Errorf("DaysOut() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestToday(t *testing.T) {
	// 23:30 UTC on the 19th is already the 20th in Tokyo.
	now := time.Date(2026, 10, 19, 23, 30, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*60*60)
	if got := Today(now, tokyo); got.Day() != 20 {
		t.Errorf("Today(tokyo) day = %d, want 20", got.Day())
	}
	if got := Today(now, nil); got.Day() != 19 {
		t.Errorf("Today(nil) day = %d, want 19", got.Day())
	}
}

func TestSnapshot(t *testing.T) {
	s := NewSnapshot(map[string]Preference{"tour-1": Defaults()})
	if !s.Contains("tour-1") || s.Contains("tour-2") {
		t.Fatalf("unexpected tour set")
	}

	p := Defaults()
	p.DayWindow = 9
	s.Replace(map[string]Preference{"tour-2": p})

	if s.Contains("tour-1") {
		t.Error("tour-1 still present after Replace")
	}
	got, ok := s.Lookup("tour-2")
	if !ok || got.DayWindow != 9 {
		t.Errorf("Lookup(tour-2) = %+v, %v", got, ok)
	}
	if s.TourCount() != 1 {
		t.Errorf("TourCount() = %d, want 1", s.TourCount())
	}
}

func TestSnapshot_ConcurrentReplace(t *testing.T) {
	s := NewSnapshot(nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Replace(map[string]Preference{"tour-1": Defaults()})
		}()
		go func() {
			defer wg.Done()
			s.Lookup("tour-1")
		}()
	}
	wg.Wait()
	if !s.Contains("tour-1") {
		t.Error("tour-1 missing after concurrent replaces")
	}
}
