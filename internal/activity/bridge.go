// Package activity carries the handshake between the app shell and an
// activity: the shell hands out a ticket, the activity sends back evidence,
// and the evidence is folded into the learner's progress.
package activity

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/yangwenmai/laosrs/internal/model"
)

// Errors
var (
	ErrInvalidEvidence = errors.New("invalid evidence")
	ErrInvalidTicket   = errors.New("invalid ticket")
)

// Recorder applies one review outcome. *progress.Store satisfies it.
type Recorder interface {
	UpdateItemProgress(ctx context.Context, id string, itemType model.ItemType, isCorrect bool) (model.ProgressItem, error)
}

// Bridge tracks the current ticket, the open sessions and the last evidence.
type Bridge struct {
	rec Recorder
	log log.FieldLogger

	mu       sync.Mutex
	ticket   *Ticket
	sessions map[string]struct{}
	last     *Evidence

	observers map[int]func(Evidence)
	nextObs   int
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger.
func WithLogger(l log.FieldLogger) Option {
	return func(b *Bridge) { b.log = l }
}

// New creates a Bridge that records evidence through rec.
func New(rec Recorder, opts ...Option) *Bridge {
	b := &Bridge{
		rec:       rec,
		log:       log.StandardLogger(),
		sessions:  make(map[string]struct{}),
		observers: make(map[int]func(Evidence)),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.WithField("component", "activity")
	return b
}

// CreateTicket builds a ticket with a fresh session id. The session is not
// active until the ticket is injected.
func (b *Bridge) CreateTicket(req TicketRequest) (Ticket, error) {
	if err := req.Validate(); err != nil {
		return Ticket{}, err
	}
	itemIDs := append([]string{}, req.ItemIDs...)
	return Ticket{
		ActivityID:   req.ActivityID,
		ActivityName: req.ActivityName,
		LevelID:      req.LevelID,
		LevelName:    req.LevelName,
		Difficulty:   req.Difficulty,
		ItemIDs:      itemIDs,
		InternalState: InternalState{
			SessionID:    uuid.NewString(),
			UserID:       req.UserID,
			Theme:        req.Theme,
			AudioEnabled: req.AudioEnabled,
		},
	}, nil
}

// InjectTicket makes t the current ticket and opens its session.
func (b *Bridge) InjectTicket(t Ticket) {
	b.mu.Lock()
	b.ticket = &t
	b.sessions[t.InternalState.SessionID] = struct{}{}
	b.mu.Unlock()

	b.log.WithFields(log.Fields{
		"session_id":  t.InternalState.SessionID,
		"activity_id": t.ActivityID,
		"items":       len(t.ItemIDs),
	}).Info("ticket injected")
}

// Ticket returns the current ticket, if any.
func (b *Bridge) Ticket() (Ticket, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ticket == nil {
		return Ticket{}, false
	}
	return *b.ticket, true
}

// ClearTicket drops the current ticket and closes its session.
func (b *Bridge) ClearTicket() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ticket != nil {
		delete(b.sessions, b.ticket.InternalState.SessionID)
	}
	b.ticket = nil
}

// SubmitEvidence validates ev, closes its session, records every item outcome
// and then publishes ev to subscribers. Invalid evidence changes nothing.
// Recording errors for single items are joined and returned after the rest
// have been applied.
func (b *Bridge) SubmitEvidence(ctx context.Context, ev Evidence) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	ev.ItemMetrics = append([]ItemMetric{}, ev.ItemMetrics...)

	b.mu.Lock()
	delete(b.sessions, ev.SessionID)
	b.mu.Unlock()

	var errs []error
	for _, m := range ev.ItemMetrics {
		if _, err := b.rec.UpdateItemProgress(ctx, m.ItemID, m.ItemType, m.IsCorrect); err != nil {
			errs = append(errs, err)
		}
	}

	b.mu.Lock()
	b.last = &ev
	fns := make([]func(Evidence), 0, len(b.observers))
	for _, fn := range b.observers {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	b.log.WithFields(log.Fields{
		"session_id": ev.SessionID,
		"items":      ev.ItemsProcessed,
		"correct":    ev.CorrectCount,
	}).Info("evidence submitted")

	for _, fn := range fns {
		fn(ev)
	}
	return errors.Join(errs...)
}

// Subscribe registers fn for every accepted evidence. The returned func
// removes it.
func (b *Bridge) Subscribe(fn func(Evidence)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextObs
	b.nextObs++
	b.observers[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.observers, id)
	}
}

// ActiveSessionCount returns the number of open sessions.
func (b *Bridge) ActiveSessionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// IsSessionActive reports whether id is open.
func (b *Bridge) IsSessionActive(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.sessions[id]
	return ok
}

// ActiveSessionIDs returns the open session ids in sorted order.
func (b *Bridge) ActiveSessionIDs() []string {
	b.mu.Lock()
	ids := make([]string, 0, len(b.sessions))
	for id := range b.sessions {
		ids = append(ids, id)
	}
	b.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// LastEvidence returns the most recently accepted evidence, if any.
func (b *Bridge) LastEvidence() (Evidence, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return Evidence{}, false
	}
	return *b.last, true
}
