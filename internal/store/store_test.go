package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afcommunity/fieldmap/internal/entity"
	"github.com/afcommunity/fieldmap/internal/logger"
)

func newTestStore(page Page) *Store {
	return New(page, WithLogger(logger.NewNopLogger()))
}

func camera(id, date, site string) entity.Camera {
	return entity.Camera{CameraID: id, Date: date, Site: site}
}

func TestCollectionIndexMatchesResolve(t *testing.T) {
	t.Parallel()

	items := []entity.Camera{
		camera("A1", "2024-01-01T00:00:00Z", "North Ridge"),
		camera("A2", "2024-01-01T00:00:00Z", "South Fork"),
		camera("A1", "2024-01-01T00:00:00Z", "Duplicate"),
	}
	c := NewCollection(items...)
	assert.Equal(t, 3, c.Len())

	for _, key := range []string{"A1-2024-01-01T00:00:00Z", "A2-2024-01-01T00:00:00Z", "A3-x"} {
		want, wantOK := entity.Resolve(key, items)
		got, ok := c.Get(key)
		assert.Equal(t, wantOK, ok, key)
		assert.Equal(t, want, got, key)
	}

	assert.False(t, c.Append(camera("A2", "2024-01-01T00:00:00Z", "again")))
	assert.True(t, c.Append(camera("A3", "2024-01-01T00:00:00Z", "East")))
	assert.Equal(t, 5, c.Len())
	got, ok := c.Get("A3-2024-01-01T00:00:00Z")
	require.True(t, ok)
	assert.Equal(t, "East", got.Site)
}

func TestCollectionAllIsACopy(t *testing.T) {
	t.Parallel()

	c := NewCollection(camera("A1", "d", "North"))
	all := c.All()
	all[0].Site = "changed"
	got, _ := c.Get("A1-d")
	assert.Equal(t, "North", got.Site)

	var zero Collection[entity.Community]
	assert.True(t, zero.Append(entity.Community{Code: "x"}))
}

func TestMapPageScenario(t *testing.T) {
	t.Parallel()

	s := newTestStore(PageMap)
	s.LoadMarkers(entity.Markers{
		Cameras: []entity.Camera{camera("A1", "2024-01-01T00:00:00Z", "North Ridge")},
	})

	rec, ok := s.Lookup(entity.Ref{Kind: entity.KindCamera, Key: "A1-2024-01-01T00:00:00Z"})
	require.True(t, ok)
	assert.Equal(t, "North Ridge", rec.(entity.Camera).Site)

	_, ok = s.Lookup(entity.Ref{Kind: entity.KindCamera, Key: "A1-2024-01-02T00:00:00Z"})
	assert.False(t, ok)

	assert.Empty(t, s.Sightings(), "absent list is empty")
	assert.Empty(t, s.Areas())
	assert.Equal(t, map[entity.Kind]int{
		entity.KindCamera: 1, entity.KindSighting: 0, entity.KindArea: 0,
	}, s.Counts())
}

func TestAppendRespectsPage(t *testing.T) {
	t.Parallel()

	s := newTestStore(PageMap)
	require.NoError(t, s.Append(entity.GeoArea{Name: "Eaton Canyon"}))
	require.Error(t, s.Append(entity.Community{Code: "abc"}))
	require.Error(t, s.Append(nil))
	assert.Len(t, s.Areas(), 1)

	_, ok := s.Lookup(entity.Ref{Kind: entity.KindCommunity, Key: "abc"})
	assert.False(t, ok)

	cs := newTestStore(PageCommunity)
	require.NoError(t, cs.Append(entity.Community{Code: "abc", Name: "Altadena"}))
	cs.LoadMarkers(entity.Markers{Cameras: []entity.Camera{camera("A1", "d", "x")}})
	assert.Empty(t, cs.Cameras())
	assert.True(t, cs.Carries(entity.KindCommunity))
	assert.False(t, cs.Carries(entity.KindCamera))
}

func TestLoadThenAppendKeepsBoth(t *testing.T) {
	t.Parallel()

	s := newTestStore(PageCommunity)
	s.LoadCommunities([]entity.Community{{Code: "abc", Name: "from load"}})
	require.NoError(t, s.Append(entity.Community{Code: "abc", Name: "from create"}))

	assert.Len(t, s.Communities(), 2)
	rec, ok := s.Lookup(entity.Ref{Kind: entity.KindCommunity, Key: "abc"})
	require.True(t, ok)
	assert.Equal(t, "from load", rec.(entity.Community).Name)
}

func TestPatchCameraStatus(t *testing.T) {
	t.Parallel()

	s := newTestStore(PageMap)
	s.LoadMarkers(entity.Markers{Cameras: []entity.Camera{camera("A1", "d", "North")}})

	assert.True(t, s.PatchCameraStatus("A1-d", "pull,2"))
	assert.False(t, s.PatchCameraStatus("A9-d", "pull,2"))
	assert.Equal(t, "pull,2", s.Cameras()[0].Status)
}

func TestConcurrentAppendAndRead(t *testing.T) {
	t.Parallel()

	s := newTestStore(PageMap)
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Append(entity.Sighting{Observer: "Me", Species: "Bobcat", Date: string(rune('a' + i))})
		}()
		go func() {
			defer wg.Done()
			_ = s.Sightings()
			_, _ = s.Lookup(entity.Ref{Kind: entity.KindSighting, Key: "Me-Bobcat-a"})
		}()
	}
	wg.Wait()
	assert.Len(t, s.Sightings(), 20)
}

func TestPageString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "map", PageMap.String())
	assert.Equal(t, "community", PageCommunity.String())
	assert.Equal(t, "page(7)", Page(7).String())
}
