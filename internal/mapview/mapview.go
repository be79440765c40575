// Package mapview derives what the map layer draws from the map page store:
// point markers for cameras and sightings and outlines for areas.
package mapview

import (
	"bytes"
	"encoding/json"

	"github.com/afcommunity/fieldmap/internal/entity"
	"github.com/afcommunity/fieldmap/internal/geo"
	"github.com/afcommunity/fieldmap/internal/logger"
	"github.com/afcommunity/fieldmap/internal/sidebar"
	"github.com/afcommunity/fieldmap/internal/store"
)

// Marker colors.
const (
	ColorCamera   = "blue"
	ColorSighting = "green"
)

// Marker is one clickable point on the map.
type Marker struct {
	Kind  string  `json:"kind"`
	Key   string  `json:"key"`
	Title string  `json:"title"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Color string  `json:"color"`
	// Mode is the sidebar mode a click on the marker selects.
	Mode string `json:"mode"`
}

// Ref returns the record the marker stands for.
func (m Marker) Ref() entity.Ref {
	kind, _ := entity.ParseKind(m.Kind)
	return entity.Ref{Kind: kind, Key: m.Key}
}

// Outline is a drawn area.
type Outline struct {
	Name string `json:"name"`
	Mode string `json:"mode"`
	// Center is [lat, lon]; the map pans here when the area is selected.
	Center [2]float64 `json:"center"`
	// Bounds is [[minLon, minLat], [maxLon, maxLat]].
	Bounds   [2][2]float64   `json:"bounds"`
	Geometry json.RawMessage `json:"geometry"`
}

// View is the full map layer.
type View struct {
	Markers []Marker  `json:"markers"`
	Areas   []Outline `json:"areas"`
	// Skipped counts records without a usable position or geometry.
	Skipped int `json:"skipped"`
}

// Build derives the map layer from r. Records that cannot be placed are
// skipped and logged at debug level.
func Build(r store.Reader, log logger.Logger) View {
	if log == nil {
		log = logger.Global().Module("mapview")
	}
	v := View{Markers: []Marker{}, Areas: []Outline{}}

	for _, c := range r.Cameras() {
		if m, ok := pointMarker(c, c.Coords, c.Site, ColorCamera); ok {
			v.Markers = append(v.Markers, m)
			continue
		}
		v.Skipped++
		log.Debug("camera has no usable coordinates",
			logger.String("key", c.Key()),
			logger.String("crds", c.Coords))
	}

	for _, s := range r.Sightings() {
		if m, ok := pointMarker(s, s.Coords, s.Title, ColorSighting); ok {
			v.Markers = append(v.Markers, m)
			continue
		}
		v.Skipped++
		log.Debug("sighting has no usable coordinates",
			logger.String("key", s.Key()),
			logger.String("crds", s.Coords))
	}

	for _, a := range r.Areas() {
		o, err := outline(a)
		if err != nil {
			v.Skipped++
			log.Debug("area geometry could not be drawn",
				logger.String("name", a.Name),
				logger.Error(err))
			continue
		}
		v.Areas = append(v.Areas, o)
	}
	return v
}

func pointMarker(rec entity.Record, crds, title, color string) (Marker, bool) {
	lat, lon := geo.ParseCoordinates(crds)
	if !geo.Placeable(lat, lon) {
		return Marker{}, false
	}
	return Marker{
		Kind:  rec.Kind().String(),
		Key:   rec.Key(),
		Title: title,
		Lat:   lat,
		Lon:   lon,
		Color: color,
		Mode:  sidebar.Viewing(entity.RefOf(rec)).String(),
	}, true
}

func outline(a entity.GeoArea) (Outline, error) {
	area, err := geo.ParseArea(geometryJSON(a.Geom))
	if err != nil {
		return Outline{}, err
	}
	geometry, err := area.MarshalJSON()
	if err != nil {
		return Outline{}, err
	}
	b := area.Bound()
	lat, lon := area.Center()
	return Outline{
		Name:     a.Name,
		Mode:     sidebar.Viewing(entity.RefOf(a)).String(),
		Center:   [2]float64{lat, lon},
		Bounds:   [2][2]float64{{b.Min.Lon(), b.Min.Lat()}, {b.Max.Lon(), b.Max.Lat()}},
		Geometry: geometry,
	}, nil
}

// geometryJSON unwraps geometry stored as a JSON string, the form in which
// it is uploaded.
func geometryJSON(raw json.RawMessage) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return trimmed
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return trimmed
	}
	return []byte(s)
}

// Select returns the sidebar event a click on the marker fires.
func Select(m Marker) sidebar.Event {
	return sidebar.View(m.Ref())
}
