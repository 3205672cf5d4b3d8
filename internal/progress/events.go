package progress

// EventKind names a change to the progress or settings document.
type EventKind string

// Event kinds
const (
	EventLoaded          EventKind = "loaded"
	EventItemUpdated     EventKind = "item_updated"
	EventLevelUnlocked   EventKind = "level_unlocked"
	EventSettingsUpdated EventKind = "settings_updated"
	EventImported        EventKind = "imported"
	EventCleared         EventKind = "cleared"
)

// Event is delivered to subscribers after a change has been applied.
type Event struct {
	Kind    EventKind
	ItemID  string // set for EventItemUpdated
	LevelID string // set for EventLevelUnlocked
}

// Subscribe registers fn to be called after every change. Observers run
// synchronously on the mutating goroutine, outside the document lock, so they
// may read from the store. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Store) notify(ev Event) {
	s.obsMu.Lock()
	fns := make([]func(Event), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
