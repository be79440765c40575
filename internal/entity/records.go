package entity

import (
	"encoding/json"
	"strings"
)

// Record is implemented by every entity that can be addressed by a
// composite key.
type Record interface {
	Kind() Kind
	Key() string
}

// KeySeparator joins the identifying fields of a composite key.
const KeySeparator = "-"

func joinKey(parts ...string) string {
	return strings.Join(parts, KeySeparator)
}

// Camera is a camera-trap deployment, unique by camera ID and placement date.
type Camera struct {
	Site       string     `json:"site"`
	Coords     string     `json:"crds"`
	Date       string     `json:"date"`
	CameraType string     `json:"type"`
	CameraID   string     `json:"camera_id"`
	Battery    FlexString `json:"perc"`
	MemoryCard string     `json:"mem"`
	Lock       string     `json:"lock"`
	Status     string     `json:"status"`
	Comment    string     `json:"comments"`
	Owner      string     `json:"owner,omitempty"`
}

func (Camera) Kind() Kind { return KindCamera }

// Key returns "camera_id-date".
func (c Camera) Key() string { return joinKey(c.CameraID, c.Date) }

// UnmarshalJSON also accepts the singular "comment" used by the creation form.
func (c *Camera) UnmarshalJSON(data []byte) error {
	type plain Camera
	var aux struct {
		plain
		LegacyComment *string `json:"comment"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = Camera(aux.plain)
	if c.Comment == "" && aux.LegacyComment != nil {
		c.Comment = *aux.LegacyComment
	}
	return nil
}

// Sighting is a single wildlife observation.
type Sighting struct {
	Title           string     `json:"title"`
	Observer        string     `json:"observer"`
	Location        string     `json:"location,omitempty"`
	Date            string     `json:"date"`
	Species         string     `json:"species"`
	Number          FlexString `json:"number"`
	ObservationType string     `json:"type"`
	Image           string     `json:"image,omitempty"`
	Comments        string     `json:"comments"`
	Owner           string     `json:"owner,omitempty"`
	Coords          string     `json:"crds,omitempty"`
	URL             string     `json:"url,omitempty"`
}

func (Sighting) Kind() Kind { return KindSighting }

// Key returns "observer-species-date".
func (s Sighting) Key() string { return joinKey(s.Observer, s.Species, s.Date) }

// GeoArea is a named polygon with statistics the server derives from the
// cameras and sightings inside it.
type GeoArea struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Geom         json.RawMessage `json:"geom,omitempty"`
	NumCameras   int             `json:"numCameras"`
	NumSightings int             `json:"numSightings"`
	NumSpecies   int             `json:"numSpecies"`
	SpeciesDist  Distribution    `json:"speciesDist"`
	ObserverDist Distribution    `json:"observerDist"`
	HourBins     HourBins        `json:"hourBins"`
}

func (GeoArea) Kind() Kind { return KindArea }

// Key returns the area name.
func (a GeoArea) Key() string { return a.Name }

// Community scopes data sharing between members. Code is the join token.
type Community struct {
	Owner       string `json:"owner,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Code        string `json:"code"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

func (Community) Kind() Kind { return KindCommunity }

// Key returns the join code.
func (c Community) Key() string { return c.Code }

// Member is one user in a community member list.
type Member struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// RefOf builds the reference a detail view uses to address r.
func RefOf(r Record) Ref {
	return Ref{Kind: r.Kind(), Key: r.Key()}
}

// Markers is the bulk payload of the map page. Absent lists decode as nil.
type Markers struct {
	Cameras   []Camera   `json:"cameras,omitempty"`
	Sightings []Sighting `json:"sightings,omitempty"`
	Areas     []GeoArea  `json:"areas,omitempty"`
}
