package sidebar

import (
	"fmt"
	"sync"

	"github.com/afcommunity/fieldmap/internal/entity"
	"github.com/afcommunity/fieldmap/internal/errors"
	"github.com/afcommunity/fieldmap/internal/logger"
)

// EventType names a user action that moves the sidebar.
type EventType int

const (
	EventOpenMenu EventType = iota + 1
	EventOpenFilter
	EventSelectType
	EventSubmitSucceeded
	EventSubmitAnother
	EventView
	EventClose
	// EventSetMode replaces the mode with a parsed legacy string.
	EventSetMode
)

func (t EventType) String() string {
	switch t {
	case EventOpenMenu:
		return "open_menu"
	case EventOpenFilter:
		return "open_filter"
	case EventSelectType:
		return "select_type"
	case EventSubmitSucceeded:
		return "submit_succeeded"
	case EventSubmitAnother:
		return "submit_another"
	case EventView:
		return "view"
	case EventClose:
		return "close"
	case EventSetMode:
		return "set_mode"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

// ParseEventType is the inverse of EventType.String.
func ParseEventType(s string) (EventType, bool) {
	for t := EventOpenMenu; t <= EventSetMode; t++ {
		if t.String() == s {
			return t, true
		}
	}
	return 0, false
}

// Event is one user action together with its payload.
type Event struct {
	Type EventType
	Kind entity.Kind
	Ref  entity.Ref
	Raw  string
}

func OpenMenu() Event { return Event{Type: EventOpenMenu} }

func OpenFilter() Event { return Event{Type: EventOpenFilter} }

func SelectType(kind entity.Kind) Event { return Event{Type: EventSelectType, Kind: kind} }

func SubmitSucceeded(kind entity.Kind) Event { return Event{Type: EventSubmitSucceeded, Kind: kind} }

func SubmitAnother() Event { return Event{Type: EventSubmitAnother} }

func View(ref entity.Ref) Event { return Event{Type: EventView, Ref: ref} }

func Close() Event { return Event{Type: EventClose} }

func SetMode(raw string) Event { return Event{Type: EventSetMode, Raw: raw} }

// Transition computes the mode that follows from under ev. It returns a
// CategoryState error when the event is not allowed from the current mode.
//
// Page-level controls (menu, filter, type selection, marker clicks, close)
// work from every mode. A submission result only lands on the form that
// issued it, and "submit another" only follows an acknowledgement.
func Transition(from Mode, ev Event) (Mode, error) {
	switch ev.Type {
	case EventOpenMenu:
		return Menu(), nil
	case EventOpenFilter:
		return Filter(), nil
	case EventClose:
		return Idle(), nil
	case EventSetMode:
		return ParseMode(ev.Raw), nil
	case EventSelectType:
		if !ev.Kind.Valid() {
			return from, transitionError(from, ev, "unknown record kind")
		}
		return Creating(ev.Kind), nil
	case EventView:
		if !ev.Ref.Kind.Valid() {
			return from, transitionError(from, ev, "unknown record kind")
		}
		return Viewing(ev.Ref), nil
	case EventSubmitSucceeded:
		if from.state != StateCreating || from.kind != ev.Kind {
			return from, transitionError(from, ev, "form is no longer open")
		}
		return Success(ev.Kind), nil
	case EventSubmitAnother:
		if from.state != StateSuccess {
			return from, transitionError(from, ev, "nothing was submitted")
		}
		return Creating(from.kind), nil
	default:
		return from, transitionError(from, ev, "unknown event")
	}
}

func transitionError(from Mode, ev Event, reason string) error {
	return errors.Newf("sidebar: %s not allowed from %s: %s", ev.Type, from.state, reason).
		Category(errors.CategoryState).
		Component("sidebar").
		Context("event", ev.Type.String()).
		Context("from_mode", from.String()).
		Build()
}

// Listener observes every mode change.
type Listener func(from, to Mode)

// Machine owns the current mode of one sidebar. It is safe for concurrent
// use; listeners run after the lock is released, in subscription order.
type Machine struct {
	mu        sync.Mutex
	mode      Mode
	listeners map[int]Listener
	order     []int
	nextID    int
	log       logger.Logger
}

// NewMachine returns an idle machine.
func NewMachine(log logger.Logger) *Machine {
	if log == nil {
		log = logger.Global().Module("sidebar")
	}
	return &Machine{
		listeners: make(map[int]Listener),
		log:       log,
	}
}

// Mode returns the current mode.
func (m *Machine) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Fire applies ev. A rejected event leaves the mode unchanged.
func (m *Machine) Fire(ev Event) (Mode, error) {
	m.mu.Lock()
	from := m.mode
	to, err := Transition(from, ev)
	if err != nil {
		m.mu.Unlock()
		m.log.Debug("sidebar event rejected",
			logger.String("event", ev.Type.String()),
			logger.String("mode", from.String()),
			logger.Error(err))
		return from, err
	}
	m.mode = to
	listeners := m.snapshotLocked()
	m.mu.Unlock()

	if to != from {
		m.log.Debug("sidebar mode changed",
			logger.String("event", ev.Type.String()),
			logger.String("from", from.String()),
			logger.String("to", to.String()))
		for _, l := range listeners {
			l(from, to)
		}
	}
	return to, nil
}

func (m *Machine) snapshotLocked() []Listener {
	out := make([]Listener, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.listeners[id])
	}
	return out
}

// Subscribe registers l and returns a function that removes it.
func (m *Machine) Subscribe(l Listener) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	m.order = append(m.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.listeners, id)
			for i, v := range m.order {
				if v == id {
					m.order = append(m.order[:i], m.order[i+1:]...)
					break
				}
			}
		})
	}
}
