// Package livealert evaluates recorded changes for connected users and turns
// accepted ones into on-screen alerts.
package livealert

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/afikmenashe/roadcrew/internal/events"
	"github.com/afikmenashe/roadcrew/internal/preferences"
	"github.com/afikmenashe/roadcrew/internal/sender/strategy"
	"github.com/afikmenashe/roadcrew/internal/sender/visual"
)

// DefaultBufferSize bounds both the pending change queue and the alert queue
// of a session.
const DefaultBufferSize = 16

// State is a session's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateSubscribed
	StateEvaluating
	StateSuppressed
	StateDisplayed
	StateUnsubscribed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubscribed:
		return "subscribed"
	case StateEvaluating:
		return "evaluating"
	case StateSuppressed:
		return "suppressed"
	case StateDisplayed:
		return "displayed"
	case StateUnsubscribed:
		return "unsubscribed"
	default:
		return "unknown"
	}
}

// Outcome is the result of evaluating one change.
type Outcome int

const (
	OutcomeDisplayed Outcome = iota
	OutcomeForeignTour
	OutcomeOwnChange
	OutcomeSuppressed
	OutcomeClosed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDisplayed:
		return "displayed"
	case OutcomeForeignTour:
		return "foreign_tour"
	case OutcomeOwnChange:
		return "own_change"
	case OutcomeSuppressed:
		return "suppressed"
	case OutcomeClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Config is the explicit context a session runs with.
type Config struct {
	UserID string
	// Tours the user belongs to.
	Tours []string
	// Preferences keyed by tour id, already resolved through the fallback chain.
	Preferences map[string]preferences.Preference
	// Location decides the user's calendar date. Defaults to UTC.
	Location *time.Location
	// Channel overrides the visual channel. By default alerts are queued on
	// the session itself and read from Alerts.
	Channel    strategy.Sender
	Now        func() time.Time
	BufferSize int
}

// Session is one connected user's live alert pipeline.
// Changes are evaluated one at a time in arrival order.
type Session struct {
	id     int64
	userID string
	loc    *time.Location
	now    func() time.Time
	prefs  *preferences.Snapshot

	channel strategy.Sender

	mu    sync.Mutex
	tours map[string]struct{}
	state State

	inbox     chan *events.ChangeEvent
	alerts    chan visual.Alert
	done      chan struct{}
	closeOnce sync.Once
}

// NewSession creates an idle session.
func NewSession(cfg Config) (*Session, error) {
	if cfg.UserID == "" {
		return nil, errors.New("user id is required")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}

	s := &Session{
		userID: cfg.UserID,
		loc:    cfg.Location,
		now:    cfg.Now,
		prefs:  preferences.NewSnapshot(cfg.Preferences),
		tours:  tourSet(cfg.Tours),
		state:  StateIdle,
		inbox:  make(chan *events.ChangeEvent, cfg.BufferSize),
		alerts: make(chan visual.Alert, cfg.BufferSize),
		done:   make(chan struct{}),
	}
	s.channel = cfg.Channel
	if s.channel == nil {
		s.channel = visual.NewSender(s)
	}
	return s, nil
}

// UserID returns the session's user.
func (s *Session) UserID() string { return s.userID }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Alerts returns the queue of alerts to render.
func (s *Session) Alerts() <-chan visual.Alert { return s.alerts }

// Done is closed when the session is unsubscribed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Subscribe moves an idle session to subscribed.
func (s *Session) Subscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		s.state = StateSubscribed
	}
}

// Watches reports whether the session belongs to tourID.
func (s *Session) Watches(tourID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tours[tourID]
	return ok
}

// ToursChanged replaces the tour set and the preference snapshot after the
// user joins or leaves a tour or edits a preference.
func (s *Session) ToursChanged(tours []string, prefs map[string]preferences.Preference) {
	s.mu.Lock()
	s.tours = tourSet(tours)
	s.mu.Unlock()
	s.prefs.Replace(prefs)
	slog.Debug("Live session tours refreshed", "user_id", s.userID, "tours", len(tours))
}

// Offer queues a change without blocking. It reports false when the session
// is closed or its queue is full.
func (s *Session) Offer(e *events.ChangeEvent) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.inbox <- e:
		return true
	default:
		slog.Warn("Live session queue full, dropping change",
			"user_id", s.userID,
			"change_id", e.ID,
		)
		return false
	}
}

// Run evaluates queued changes until ctx is done or the session is closed.
func (s *Session) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case e := <-s.inbox:
			s.Evaluate(ctx, e)
		}
	}
}

// Evaluate runs one change through the pipeline and returns what happened.
// Only changes on one of the user's tours, written by someone else, and
// accepted by the user's preference reach the visual channel.
func (s *Session) Evaluate(ctx context.Context, e *events.ChangeEvent) Outcome {
	s.mu.Lock()
	if s.state == StateUnsubscribed {
		s.mu.Unlock()
		return OutcomeClosed
	}
	_, member := s.tours[e.TourID]
	s.state = StateEvaluating
	s.mu.Unlock()

	outcome := s.evaluate(ctx, e, member)

	s.mu.Lock()
	if s.state != StateUnsubscribed {
		s.state = StateSubscribed
	}
	s.mu.Unlock()
	return outcome
}

func (s *Session) evaluate(ctx context.Context, e *events.ChangeEvent, member bool) Outcome {
	if !member {
		return OutcomeForeignTour
	}
	if e.AuthorID == s.userID {
		return OutcomeOwnChange
	}

	pref, ok := s.prefs.Lookup(e.TourID)
	if !ok {
		pref = preferences.Defaults()
	}
	today := preferences.Today(s.now(), s.loc)
	if !preferences.ShouldNotify(e, pref, today) {
		s.setState(StateSuppressed)
		slog.Debug("Live change suppressed", "user_id", s.userID, "change_id", e.ID)
		return OutcomeSuppressed
	}

	s.setState(StateDisplayed)
	res := s.channel.Deliver(ctx, s.userID, strategy.Message{
		TourID:   e.TourID,
		RefID:    e.ID,
		Severity: e.ResolvedSeverity(),
		Body:     e.Summary,
		Tags:     e.ImpactTags(),
	})
	if !res.OK {
		slog.Warn("Live alert delivery failed",
			"user_id", s.userID,
			"change_id", e.ID,
			"reason", res.Reason,
		)
	}
	return OutcomeDisplayed
}

// Push implements visual.Sink for the session's own alert queue.
// A full queue drops the alert.
func (s *Session) Push(_ string, alert visual.Alert) {
	select {
	case s.alerts <- alert:
	default:
		slog.Warn("Live alert queue full, dropping alert",
			"user_id", s.userID,
			"change_id", alert.ChangeID,
		)
	}
}

// Close unsubscribes the session. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.setState(StateUnsubscribed)
		close(s.done)
	})
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUnsubscribed {
		s.state = state
	}
}

func tourSet(tours []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tours))
	for _, t := range tours {
		set[t] = struct{}{}
	}
	return set
}
