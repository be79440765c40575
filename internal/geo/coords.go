// Package geo parses the two coordinate encodings used by camera and
// sighting records and derives map positions from uploaded area geometry.
package geo

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseCoordinates decodes a record's coordinate string.
//
// A string starting with '{' is a JSON object with "lat" and "lon" members;
// anything else is "lat,lon" with optional whitespace around each part. No
// range checking is done. A component that cannot be read comes back as NaN,
// so callers decide placement with Placeable rather than an error.
func ParseCoordinates(raw string) (lat, lon float64) {
	if strings.HasPrefix(raw, "{") {
		return parseJSON(raw)
	}
	return parseDelimited(raw)
}

func parseJSON(raw string) (lat, lon float64) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return math.NaN(), math.NaN()
	}
	return jsonFloat(obj["lat"]), jsonFloat(obj["lon"])
}

func jsonFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		return parseFloat(n)
	default:
		return math.NaN()
	}
}

func parseDelimited(raw string) (lat, lon float64) {
	first, rest, found := strings.Cut(raw, ",")
	lat = parseFloat(first)
	if !found {
		return lat, math.NaN()
	}
	// Anything after a second comma is ignored.
	second, _, _ := strings.Cut(rest, ",")
	return lat, parseFloat(second)
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// Placeable reports whether a marker can be drawn at (lat, lon).
func Placeable(lat, lon float64) bool {
	return !math.IsNaN(lat) && !math.IsNaN(lon) && !math.IsInf(lat, 0) && !math.IsInf(lon, 0)
}

// FormatJSON renders the object encoding, as produced by location search.
func FormatJSON(lat, lon float64) string {
	data, _ := json.Marshal(struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}{lat, lon})
	return string(data)
}

// FormatDelimited renders the "lat, lon" encoding stored by the backend.
func FormatDelimited(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + ", " + strconv.FormatFloat(lon, 'f', -1, 64)
}
