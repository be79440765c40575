package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/iancoleman/orderedmap"
)

// FlexString decodes from a JSON string, number or null. The backend sends
// some form values (battery percentage, counts) back as numbers.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flexible string: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

// Int reads the value as a whole number, 0 when it is not one.
func (f FlexString) Int() int {
	n, err := strconv.Atoi(string(f))
	if err == nil {
		return n
	}
	if v, err := strconv.ParseFloat(string(f), 64); err == nil && !math.IsNaN(v) {
		return int(v)
	}
	return 0
}

// HoursPerDay is the number of hour-of-day bins in an area summary.
const HoursPerDay = 24

// HourBins counts sightings per local hour of day.
type HourBins [HoursPerDay]int

// UnmarshalJSON pads a short array with zeros and drops entries past 23.
func (h *HourBins) UnmarshalJSON(data []byte) error {
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("hour bins: %w", err)
	}
	*h = HourBins{}
	for i := 0; i < len(raw) && i < HoursPerDay; i++ {
		h[i] = int(raw[i])
	}
	return nil
}

// Total sums every bin.
func (h HourBins) Total() int {
	total := 0
	for _, n := range h {
		total += n
	}
	return total
}

// Count is one entry of a distribution.
type Count struct {
	Name  string
	Count int
}

// Distribution is a name→count map that keeps the order the server sent.
type Distribution struct {
	m *orderedmap.OrderedMap
}

// NewDistribution builds a distribution from counts in the given order.
func NewDistribution(counts ...Count) Distribution {
	m := orderedmap.New()
	for _, c := range counts {
		m.Set(c.Name, c.Count)
	}
	return Distribution{m: m}
}

func (d *Distribution) UnmarshalJSON(data []byte) error {
	m := orderedmap.New()
	if err := json.Unmarshal(data, m); err != nil {
		return fmt.Errorf("distribution: %w", err)
	}
	d.m = m
	return nil
}

func (d Distribution) MarshalJSON() ([]byte, error) {
	if d.m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d.m)
}

// Len returns the number of names.
func (d Distribution) Len() int {
	if d.m == nil {
		return 0
	}
	return len(d.m.Keys())
}

// Entries returns the counts in wire order.
func (d Distribution) Entries() []Count {
	if d.m == nil {
		return nil
	}
	keys := d.m.Keys()
	out := make([]Count, 0, len(keys))
	for _, k := range keys {
		v, _ := d.m.Get(k)
		out = append(out, Count{Name: k, Count: toInt(v)})
	}
	return out
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	default:
		return 0
	}
}
