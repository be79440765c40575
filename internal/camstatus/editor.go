package camstatus

import (
	"context"
	"sync"

	"github.com/afcommunity/fieldmap/internal/errors"
	"github.com/afcommunity/fieldmap/internal/logger"
)

// EditPolicy decides what happens to local state when persisting an edit fails.
type EditPolicy int

const (
	// OptimisticNonReverting applies every edit locally before the persist
	// call and keeps it when the call fails. The failure is logged and
	// returned, and the displayed status may disagree with the server until
	// the next bulk load.
	OptimisticNonReverting EditPolicy = iota

	// OptimisticReverting applies edits locally and restores the previous
	// status when the persist call fails, unless a newer edit has been made
	// in the meantime.
	OptimisticReverting
)

func (p EditPolicy) String() string {
	switch p {
	case OptimisticNonReverting:
		return "optimistic-non-reverting"
	case OptimisticReverting:
		return "optimistic-reverting"
	default:
		return "unknown"
	}
}

// Persister sends an encoded status to the collaborator API.
type Persister interface {
	UpdateCameraStatus(ctx context.Context, cameraKey, status string) error
}

// Patcher rewrites the status of a camera held in memory.
type Patcher interface {
	PatchCameraStatus(cameraKey, status string) bool
}

// Editor is the status-editing control for one camera. Each setter updates
// the edit state and the in-memory record, then makes one persist call.
// Calls are independent; the mutex is never held across the network call.
type Editor struct {
	mu      sync.Mutex
	key     string
	status  Status
	version uint64

	persist Persister
	patch   Patcher
	policy  EditPolicy
	log     logger.Logger
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithPolicy selects the failure policy. OptimisticNonReverting is the default.
func WithPolicy(p EditPolicy) EditorOption {
	return func(e *Editor) { e.policy = p }
}

// WithLogger sets the logger used for persist failures.
func WithLogger(l logger.Logger) EditorOption {
	return func(e *Editor) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEditor creates an editor for the camera identified by cameraKey whose
// stored status is raw. patch may be nil when there is no in-memory record.
func NewEditor(cameraKey, raw string, persist Persister, patch Patcher, opts ...EditorOption) *Editor {
	e := &Editor{
		key:     cameraKey,
		status:  Decode(raw),
		persist: persist,
		patch:   patch,
		policy:  OptimisticNonReverting,
		log:     logger.Global().Module("camstatus"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With(logger.String("camera", cameraKey))
	return e
}

// Status returns the current edit state.
func (e *Editor) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Policy returns the failure policy in effect.
func (e *Editor) Policy() EditPolicy {
	return e.policy
}

// SetKind switches the status kind. Days are kept only for set and pull,
// text only for other.
func (e *Editor) SetKind(ctx context.Context, kind Kind) error {
	if _, ok := ParseKind(string(kind)); !ok {
		return errors.Newf("unknown status kind %q", kind).
			Category(errors.CategoryValidation).
			Component("camstatus").
			Build()
	}

	return e.apply(ctx, func(s Status) Status {
		s.Kind = kind
		if kind != KindSet && kind != KindPull {
			s.DaysAhead = 0
		}
		if kind != KindOther {
			s.Text = ""
		}
		return s
	})
}

// SetDays sets the day count of a set or pull status. Negative values are clamped to 0.
func (e *Editor) SetDays(ctx context.Context, days int) error {
	if k := e.Status().Kind; k != KindSet && k != KindPull {
		return errors.Newf("day count only applies to set and pull, status is %s", k).
			Category(errors.CategoryState).
			Component("camstatus").
			Build()
	}
	days = max(days, 0)

	return e.apply(ctx, func(s Status) Status {
		s.DaysAhead = days
		s.Text = ""
		return s
	})
}

// SetText selects a free-text status and switches the kind to other.
func (e *Editor) SetText(ctx context.Context, text string) error {
	return e.apply(ctx, func(s Status) Status {
		return Status{Kind: KindOther, Text: text}
	})
}

func (e *Editor) apply(ctx context.Context, edit func(Status) Status) error {
	e.mu.Lock()
	previous := e.status
	e.status = edit(previous)
	e.version++
	version, next := e.version, e.status
	e.mu.Unlock()

	encoded := Encode(next)
	if e.patch != nil && !e.patch.PatchCameraStatus(e.key, encoded) {
		e.log.Debug("camera not held in memory, only the edit state was updated")
	}

	if e.persist == nil {
		return nil
	}

	err := e.persist.UpdateCameraStatus(ctx, e.key, encoded)
	if err == nil {
		e.log.Debug("status persisted", logger.String("status", encoded))
		return nil
	}

	e.log.Error("failed to persist camera status",
		logger.Error(err),
		logger.String("status", encoded),
		logger.String("policy", e.policy.String()))

	if e.policy == OptimisticReverting {
		e.revert(version, previous)
	}
	return err
}

func (e *Editor) revert(version uint64, previous Status) {
	e.mu.Lock()
	if e.version != version {
		e.mu.Unlock()
		return
	}
	e.status = previous
	e.mu.Unlock()

	if e.patch != nil {
		e.patch.PatchCameraStatus(e.key, Encode(previous))
	}
}
