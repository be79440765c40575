package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afcommunity/fieldmap/internal/errors"
)

func TestKindNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind   Kind
		label  string
		prefix string
		slug   string
	}{
		{KindCamera, "Camera Trap", "Camera", "Camera-Trap"},
		{KindSighting, "Wildlife Sighting", "Sighting", "Wildlife-Sighting"},
		{KindArea, "Geographic Area", "Area", "Geographic-Area"},
		{KindCommunity, "Create Community", "Community", "Community"},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.label, tt.kind.Label())
			assert.Equal(t, tt.prefix, tt.kind.Prefix())
			assert.Equal(t, tt.slug, tt.kind.Slug())

			k, ok := KindFromLabel(tt.label)
			require.True(t, ok)
			assert.Equal(t, tt.kind, k)
			k, ok = KindFromPrefix(tt.prefix)
			require.True(t, ok)
			assert.Equal(t, tt.kind, k)
			k, ok = KindFromSlug(tt.slug)
			require.True(t, ok)
			assert.Equal(t, tt.kind, k)
			k, ok = ParseKind(tt.kind.String())
			require.True(t, ok)
			assert.Equal(t, tt.kind, k)
		})
	}

	k, ok := KindFromSlug("Create-Community")
	assert.True(t, ok)
	assert.Equal(t, KindCommunity, k)
	_, ok = KindFromLabel("Bogus")
	assert.False(t, ok)
	assert.False(t, Kind(0).Valid())
	assert.Equal(t, "unknown", Kind(9).String())
}

func TestKeys(t *testing.T) {
	t.Parallel()

	cam := Camera{CameraID: "A1", Date: "2024-01-01T00:00:00Z"}
	assert.Equal(t, "A1-2024-01-01T00:00:00Z", cam.Key())
	assert.Equal(t, "Camera-A1-2024-01-01T00:00:00Z", RefOf(cam).String())

	s := Sighting{Observer: "Me", Species: "Coyote", Date: "2024-03-02T06:10:00"}
	assert.Equal(t, "Me-Coyote-2024-03-02T06:10:00", s.Key())

	assert.Equal(t, "Eaton Canyon", GeoArea{Name: "Eaton Canyon"}.Key())
	assert.Equal(t, "Xy12ab", Community{Code: "Xy12ab"}.Key())
}

func TestResolve(t *testing.T) {
	t.Parallel()

	cameras := []Camera{
		{CameraID: "A1", Date: "2024-01-01T00:00:00Z", Site: "North Ridge"},
		{CameraID: "A2", Date: "2024-01-01T00:00:00Z", Site: "South Fork"},
		{CameraID: "A1", Date: "2024-01-01T00:00:00Z", Site: "Duplicate"},
	}

	got, ok := Resolve("A1-2024-01-01T00:00:00Z", cameras)
	require.True(t, ok)
	assert.Equal(t, "North Ridge", got.Site, "first match wins")

	again, ok := Resolve("A1-2024-01-01T00:00:00Z", cameras)
	require.True(t, ok)
	assert.Equal(t, got, again)

	_, ok = Resolve("A1-2024-01-02T00:00:00Z", cameras)
	assert.False(t, ok)

	_, ok = Resolve[Community]("x", nil)
	assert.False(t, ok)
}

func TestCameraWireFormat(t *testing.T) {
	t.Parallel()

	var c Camera
	require.NoError(t, json.Unmarshal([]byte(`{
		"site": "North Ridge", "crds": "34.1, -118.2", "date": "2024-01-01T00:00:00+00:00",
		"type": "HC500 Reconyx", "camera_id": "A1", "perc": 87, "mem": "SD-4",
		"lock": "399", "status": "pull,3", "comment": "near the creek", "owner": "u1"
	}`), &c))

	assert.Equal(t, FlexString("87"), c.Battery)
	assert.Equal(t, 87, c.Battery.Int())
	assert.Equal(t, "near the creek", c.Comment)
	assert.Equal(t, "HC500 Reconyx", c.CameraType)

	require.NoError(t, json.Unmarshal([]byte(`{"comments": "plural", "comment": "singular", "perc": null}`), &c))
	assert.Equal(t, "plural", c.Comment)
	assert.Empty(t, c.Battery)
}

func TestGeoAreaWireFormat(t *testing.T) {
	t.Parallel()

	var a GeoArea
	require.NoError(t, json.Unmarshal([]byte(`{
		"name": "Eaton Canyon", "description": "wash",
		"geom": {"type": "Point", "coordinates": [-118.1, 34.2]},
		"numCameras": 2, "numSightings": 3, "numSpecies": 2,
		"speciesDist": {"Mule Deer": 2, "Bobcat": 1},
		"observerDist": {"Zed": 1, "Amy": 2},
		"hourBins": [0, 1, 2]
	}`), &a))

	assert.Equal(t, []Count{{"Mule Deer", 2}, {"Bobcat", 1}}, a.SpeciesDist.Entries())
	assert.Equal(t, []Count{{"Zed", 1}, {"Amy", 2}}, a.ObserverDist.Entries(), "wire order kept")
	assert.Equal(t, 2, a.HourBins[2])
	assert.Equal(t, 0, a.HourBins[23])
	assert.Equal(t, 3, a.HourBins.Total())
	assert.JSONEq(t, `{"type": "Point", "coordinates": [-118.1, 34.2]}`, string(a.Geom))

	long := make([]int, 30)
	for i := range long {
		long[i] = 1
	}
	raw, err := json.Marshal(map[string]any{"hourBins": long})
	require.NoError(t, err)
	var b GeoArea
	require.NoError(t, json.Unmarshal(raw, &b))
	assert.Equal(t, HoursPerDay, b.HourBins.Total(), "extra bins dropped")
	assert.Zero(t, b.SpeciesDist.Len())
}

func TestDistributionMarshal(t *testing.T) {
	t.Parallel()

	d := NewDistribution(Count{"b", 2}, Count{"a", 1})
	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `{"b":2,"a":1}`, string(out))

	out, err = json.Marshal(Distribution{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(out))
}

func TestFieldTables(t *testing.T) {
	t.Parallel()

	assert.Len(t, Fields(KindCamera), 10)
	assert.Len(t, Fields(KindSighting), 9)
	assert.Len(t, Fields(KindArea), 3)
	assert.Len(t, Fields(KindCommunity), 3)
	assert.Nil(t, Fields(Kind(0)))

	assert.Equal(t, "USGSBR001", CameraIDs[0])
	assert.Contains(t, CameraIDs, "AFCBR048")
	assert.Contains(t, CameraIDs, "OXYRE04")
	assert.Contains(t, CameraIDs, "CamPark6")
	assert.Equal(t, "Other", CameraIDs[len(CameraIDs)-1])
	assert.Len(t, CameraIDs, 27+21+4+15+6+1+3+1)

	f, ok := Field(KindSighting, "species")
	require.True(t, ok)
	assert.False(t, f.Required)
	_, ok = Field(KindArea, "species")
	assert.False(t, ok)
}

func cameraSubmission() Submission {
	return Submission{Values: map[string]string{
		"site":      "North Ridge",
		"crds":      "34.1, -118.2",
		"datetime":  "2024-01-01T08:30",
		"type":      "HC500 Reconyx",
		"camera_id": "USGSBR001",
		"perc":      "90",
		"mem":       "SD-4",
		"lock":      "399",
		"next":      "pull",
		"daysAhead": "14",
		"comment":   "near the creek",
	}}
}

func TestBuildCamera(t *testing.T) {
	t.Parallel()

	rec, err := Build(KindCamera, cameraSubmission())
	require.NoError(t, err)

	cam, ok := rec.(Camera)
	require.True(t, ok)
	assert.Equal(t, "2024-01-01T08:30", cam.Date)
	assert.Equal(t, "pull,14", cam.Status)
	assert.Equal(t, "near the creek", cam.Comment)
	assert.Equal(t, FlexString("90"), cam.Battery)
	assert.Equal(t, "USGSBR001-2024-01-01T08:30", cam.Key())
}

func TestValidateCamera(t *testing.T) {
	t.Parallel()

	sub := cameraSubmission()
	sub.Values["crds"] = "north, west"
	sub.Values["camera_id"] = "ZZZ"
	sub.Values["next"] = "later"
	delete(sub.Values, "mem")

	err := Validate(KindCamera, sub)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Len(t, fe.Errors, 4)
	assert.Contains(t, fe.Error(), "Name of Memory Card is required")
}

func TestBuildArea(t *testing.T) {
	t.Parallel()

	geom := `{"type":"Polygon","coordinates":[[[-118,34],[-117,34],[-117,35],[-118,34]]]}`
	rec, err := Build(KindArea, Submission{
		Values: map[string]string{"name": "Eaton Canyon", "description": "wash"},
		Files:  []File{{Field: "geom", Name: "area.geojson", Data: []byte(geom)}},
	})
	require.NoError(t, err)
	area := rec.(GeoArea)
	assert.Equal(t, "Eaton Canyon", area.Key())
	assert.JSONEq(t, geom, string(area.Geom))

	_, err = Build(KindArea, Submission{Values: map[string]string{
		"name": "Broken", "description": "x", "geom": `{"type":"FeatureCollection","features":[]}`,
	}})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestBuildSightingAndCommunity(t *testing.T) {
	t.Parallel()

	rec, err := Build(KindSighting, Submission{
		Values: map[string]string{
			"title":       "Coyote at dawn",
			"observer":    "Me",
			"location":    "Arroyo Seco",
			"datetime":    "2024-03-02T06:10",
			"type":        "Saw the animal.",
			"comments":    "crossed the trail",
			"number":      "2",
			"communities": "abc, ,def",
		},
		Files: []File{{Field: "image", Name: "coyote.jpg", Data: []byte{0xff}}},
	})
	require.NoError(t, err)
	s := rec.(Sighting)
	assert.Equal(t, "coyote.jpg", s.Image)
	assert.Equal(t, FlexString("2"), s.Number)
	assert.Equal(t, "Me--2024-03-02T06:10", s.Key(), "species is optional")

	rec, err = Build(KindCommunity, Submission{
		Values: map[string]string{"name": "Altadena", "description": "foothills"},
		Files:  []File{{Field: "image", Name: "cover.png"}},
	})
	require.NoError(t, err)
	c := rec.(Community)
	assert.Equal(t, "Altadena", c.Name)
	assert.Empty(t, c.Code, "join code is issued by the server")
}

func TestSubmissionCommunities(t *testing.T) {
	t.Parallel()

	sub := Submission{Values: map[string]string{"communities": " abc, ,def "}}
	assert.Equal(t, []string{"abc", "def"}, sub.Communities())
	assert.Nil(t, Submission{}.Communities())
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	for _, s := range []string{
		"2024-01-01T00:00:00Z",
		"2024-01-01T00:00:00+00:00",
		"2024-01-01T00:00:00.123456",
		"2024-01-01T08:30",
		"2024-01-01",
	} {
		_, ok := ParseDate(s)
		assert.True(t, ok, s)
	}
	_, ok := ParseDate("yesterday")
	assert.False(t, ok)
}
