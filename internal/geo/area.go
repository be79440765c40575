package geo

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/afcommunity/fieldmap/internal/errors"
)

// Area is the decoded geometry of a geographic area upload.
type Area struct {
	Collection *geojson.FeatureCollection
}

// ParseArea accepts a GeoJSON FeatureCollection, a single Feature or a bare
// geometry and normalizes it to a FeatureCollection.
func ParseArea(data []byte) (*Area, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, geometryError(err, "probe")
	}

	fc := geojson.NewFeatureCollection()
	switch probe.Type {
	case "FeatureCollection":
		parsed, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, geometryError(err, "feature_collection")
		}
		fc = parsed
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, geometryError(err, "feature")
		}
		fc.Append(f)
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, geometryError(err, "geometry")
		}
		fc.Append(geojson.NewFeature(g.Geometry()))
	}

	if len(fc.Features) == 0 {
		return nil, errors.Newf("area geometry has no features").
			Category(errors.CategoryGeometry).
			Build()
	}

	return &Area{Collection: fc}, nil
}

func geometryError(err error, stage string) error {
	return errors.New(err).
		Category(errors.CategoryGeometry).
		Context("stage", stage).
		Build()
}

// Bound returns the bounding box over every feature.
func (a *Area) Bound() orb.Bound {
	var bound orb.Bound
	seen := false
	for _, f := range a.Collection.Features {
		if f.Geometry == nil {
			continue
		}
		if !seen {
			bound, seen = f.Geometry.Bound(), true
			continue
		}
		bound = bound.Union(f.Geometry.Bound())
	}
	return bound
}

// Center returns the center of the bounding box as (lat, lon); the map pans
// here when an area is selected.
func (a *Area) Center() (lat, lon float64) {
	c := a.Bound().Center()
	return c.Lat(), c.Lon()
}

// AreaCenter parses raw area geometry and returns its center.
func AreaCenter(data []byte) (lat, lon float64, err error) {
	area, err := ParseArea(data)
	if err != nil {
		return 0, 0, err
	}
	lat, lon = area.Center()
	return lat, lon, nil
}

// MarshalJSON renders the normalized FeatureCollection.
func (a *Area) MarshalJSON() ([]byte, error) {
	return a.Collection.MarshalJSON()
}
