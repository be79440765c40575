// Package store holds the in-memory record collections of one page.
package store

import (
	"fmt"
	"sync"

	"github.com/afcommunity/fieldmap/internal/entity"
	"github.com/afcommunity/fieldmap/internal/logger"
)

// Page selects which collections a store carries.
type Page int

const (
	// PageMap carries cameras, sightings and areas.
	PageMap Page = iota
	// PageCommunity carries communities.
	PageCommunity
)

func (p Page) String() string {
	switch p {
	case PageMap:
		return "map"
	case PageCommunity:
		return "community"
	default:
		return fmt.Sprintf("page(%d)", int(p))
	}
}

// Carries reports whether records of kind live on page p.
func (p Page) Carries(kind entity.Kind) bool {
	switch p {
	case PageMap:
		return kind.OnMap()
	case PageCommunity:
		return kind == entity.KindCommunity
	default:
		return false
	}
}

// Reader is the read side of a store, handed to renderers.
type Reader interface {
	Page() Page
	Carries(kind entity.Kind) bool
	Lookup(ref entity.Ref) (entity.Record, bool)
	Cameras() []entity.Camera
	Sightings() []entity.Sighting
	Areas() []entity.GeoArea
	Communities() []entity.Community
	Counts() map[entity.Kind]int
}

// Writer is the write side of a store, held by the page container.
type Writer interface {
	LoadMarkers(m entity.Markers)
	LoadCommunities(communities []entity.Community)
	Append(rec entity.Record) error
	PatchCameraStatus(cameraKey, status string) bool
}

// ReadWriter combines both capabilities.
type ReadWriter interface {
	Reader
	Writer
}

// Store holds the collections of one page. Kinds the page does not carry
// stay empty and refuse appends. It is safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	page        Page
	cameras     *Collection[entity.Camera]
	sightings   *Collection[entity.Sighting]
	areas       *Collection[entity.GeoArea]
	communities *Collection[entity.Community]
	log         logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for duplicate-key warnings.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New returns an empty store for page.
func New(page Page, opts ...Option) *Store {
	s := &Store{
		page:        page,
		cameras:     NewCollection[entity.Camera](),
		sightings:   NewCollection[entity.Sighting](),
		areas:       NewCollection[entity.GeoArea](),
		communities: NewCollection[entity.Community](),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Global().Module("store")
	}
	return s
}

func (s *Store) Page() Page { return s.page }

func (s *Store) Carries(kind entity.Kind) bool { return s.page.Carries(kind) }

// LoadMarkers replaces the map collections with a bulk response. Lists
// the response omits become empty.
func (s *Store) LoadMarkers(m entity.Markers) {
	if s.page != PageMap {
		s.log.Warn("ignoring marker load on non-map page", logger.String("page", s.page.String()))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reportDuplicates(entity.KindCamera, s.cameras.Replace(m.Cameras))
	s.reportDuplicates(entity.KindSighting, s.sightings.Replace(m.Sightings))
	s.reportDuplicates(entity.KindArea, s.areas.Replace(m.Areas))
	s.log.Debug("markers loaded",
		logger.Int("cameras", s.cameras.Len()),
		logger.Int("sightings", s.sightings.Len()),
		logger.Int("areas", s.areas.Len()))
}

// LoadCommunities replaces the community collection.
func (s *Store) LoadCommunities(communities []entity.Community) {
	if s.page != PageCommunity {
		s.log.Warn("ignoring community load on non-community page", logger.String("page", s.page.String()))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reportDuplicates(entity.KindCommunity, s.communities.Replace(communities))
	s.log.Debug("communities loaded", logger.Int("communities", s.communities.Len()))
}

func (s *Store) reportDuplicates(kind entity.Kind, n int) {
	if n > 0 {
		s.log.Warn("duplicate keys in bulk load, first record wins",
			logger.String("kind", kind.String()),
			logger.Int("duplicates", n))
	}
}

// Append adds one record to the collection of its kind.
func (s *Store) Append(rec entity.Record) error {
	if rec == nil || !s.page.Carries(rec.Kind()) {
		return fmt.Errorf("page %s does not carry %v", s.page, recordKind(rec))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var fresh bool
	switch r := rec.(type) {
	case entity.Camera:
		fresh = s.cameras.Append(r)
	case entity.Sighting:
		fresh = s.sightings.Append(r)
	case entity.GeoArea:
		fresh = s.areas.Append(r)
	case entity.Community:
		fresh = s.communities.Append(r)
	default:
		return fmt.Errorf("unsupported record type %T", rec)
	}
	if !fresh {
		s.log.Warn("appended record shares its key with an existing one",
			logger.String("kind", rec.Kind().String()),
			logger.String("key", rec.Key()))
	}
	return nil
}

func recordKind(rec entity.Record) string {
	if rec == nil {
		return "nil record"
	}
	return rec.Kind().String()
}

// PatchCameraStatus rewrites the encoded status of one camera. It reports
// false when no camera has the key.
func (s *Store) PatchCameraStatus(cameraKey, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cameras.Update(cameraKey, func(c *entity.Camera) {
		c.Status = status
	})
}

// Lookup resolves ref against the collection of its kind.
func (s *Store) Lookup(ref entity.Ref) (entity.Record, bool) {
	if !s.page.Carries(ref.Kind) {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		rec entity.Record
		ok  bool
	)
	switch ref.Kind {
	case entity.KindCamera:
		rec, ok = s.cameras.Get(ref.Key)
	case entity.KindSighting:
		rec, ok = s.sightings.Get(ref.Key)
	case entity.KindArea:
		rec, ok = s.areas.Get(ref.Key)
	case entity.KindCommunity:
		rec, ok = s.communities.Get(ref.Key)
	}
	if !ok {
		return nil, false
	}
	return rec, true
}

func (s *Store) Cameras() []entity.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cameras.All()
}

func (s *Store) Sightings() []entity.Sighting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sightings.All()
}

func (s *Store) Areas() []entity.GeoArea {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.areas.All()
}

func (s *Store) Communities() []entity.Community {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.communities.All()
}

// Counts returns the collection sizes of the kinds the page carries.
func (s *Store) Counts() map[entity.Kind]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[entity.Kind]int)
	for _, k := range entity.Kinds() {
		if !s.page.Carries(k) {
			continue
		}
		switch k {
		case entity.KindCamera:
			counts[k] = s.cameras.Len()
		case entity.KindSighting:
			counts[k] = s.sightings.Len()
		case entity.KindArea:
			counts[k] = s.areas.Len()
		case entity.KindCommunity:
			counts[k] = s.communities.Len()
		}
	}
	return counts
}

var _ ReadWriter = (*Store)(nil)
