// Package sidebar implements the sidebar router: a mode value that selects
// what the sidebar shows, the transitions between modes, and the render
// directive derived from a mode and the page's records.
package sidebar

import (
	"strings"

	"github.com/afcommunity/fieldmap/internal/entity"
)

// State enumerates the variants of Mode.
type State int

const (
	StateIdle State = iota
	StateMenu
	StateCreating
	StateSuccess
	StateFilter
	StateViewing
	StateUnrecognized
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMenu:
		return "menu"
	case StateCreating:
		return "creating"
	case StateSuccess:
		return "success"
	case StateFilter:
		return "filter"
	case StateViewing:
		return "viewing"
	default:
		return "unrecognized"
	}
}

// Mode is the sidebar state. Creating and Success carry an entity kind,
// Viewing carries a record reference, Unrecognized keeps the raw string it
// was parsed from. The zero value is Idle.
type Mode struct {
	state State
	kind  entity.Kind
	ref   entity.Ref
	raw   string
}

func Idle() Mode { return Mode{state: StateIdle} }
func Menu() Mode { return Mode{state: StateMenu} }
func Filter() Mode { return Mode{state: StateFilter} }

func Creating(kind entity.Kind) Mode { return Mode{state: StateCreating, kind: kind} }
func Success(kind entity.Kind) Mode { return Mode{state: StateSuccess, kind: kind} }
func Viewing(ref entity.Ref) Mode { return Mode{state: StateViewing, kind: ref.Kind, ref: ref} }

// Unrecognized wraps a mode string no other variant accepts.
func Unrecognized(raw string) Mode { return Mode{state: StateUnrecognized, raw: raw} }

func (m Mode) State() State { return m.state }

// Kind returns the entity kind of Creating, Success and Viewing modes.
func (m Mode) Kind() (entity.Kind, bool) {
	switch m.state {
	case StateCreating, StateSuccess, StateViewing:
		return m.kind, true
	default:
		return 0, false
	}
}

// Ref returns the record a Viewing mode points at.
func (m Mode) Ref() (entity.Ref, bool) {
	if m.state != StateViewing {
		return entity.Ref{}, false
	}
	return m.ref, true
}

// Is reports whether m is in state s.
func (m Mode) Is(s State) bool { return m.state == s }

const (
	menuString    = "Menu"
	filterString  = "Filter"
	successPrefix = "Success-"
	modeSeparator = "-"
)

// String encodes the mode in the legacy string form shared with the
// browser front end. Idle encodes as "".
func (m Mode) String() string {
	switch m.state {
	case StateIdle:
		return ""
	case StateMenu:
		return menuString
	case StateFilter:
		return filterString
	case StateCreating:
		return m.kind.Label()
	case StateSuccess:
		return successPrefix + m.kind.Slug()
	case StateViewing:
		return m.ref.String()
	default:
		return m.raw
	}
}

// ParseMode decodes a legacy mode string. Strings that match no variant
// become Unrecognized; parsing never fails.
func ParseMode(s string) Mode {
	switch s {
	case "":
		return Idle()
	case menuString:
		return Menu()
	case filterString:
		return Filter()
	}

	if kind, ok := entity.KindFromLabel(s); ok {
		return Creating(kind)
	}

	if rest, ok := strings.CutPrefix(s, successPrefix); ok {
		if kind, ok := entity.KindFromSlug(rest); ok {
			return Success(kind)
		}
		return Unrecognized(s)
	}

	// A bare prefix views an empty key, which renders as not found.
	prefix, key, _ := strings.Cut(s, modeSeparator)
	if kind, ok := entity.KindFromPrefix(prefix); ok {
		return Viewing(entity.Ref{Kind: kind, Key: key})
	}
	return Unrecognized(s)
}
