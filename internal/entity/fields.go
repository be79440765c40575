package entity

import "fmt"

// FieldType selects the input control a form field is rendered with.
type FieldType string

const (
	FieldText         FieldType = "text"
	FieldDropdown     FieldType = "dropdown"
	FieldDateTime     FieldType = "datetime"
	FieldNextAction   FieldType = "next-action"
	FieldAutocomplete FieldType = "autocomplete"
	FieldFile         FieldType = "file"
)

// FieldSpec describes one input of a creation form. Name is the submitted
// form key, Attr the record attribute it ends up in.
type FieldSpec struct {
	Name     string
	Attr     string
	Label    string
	Type     FieldType
	Options  []string
	Required bool
}

// Form field names that do not map one to one onto record attributes.
const (
	FieldNameDate        = "datetime"
	FieldNameNext        = "next"
	FieldNameDaysAhead   = "daysAhead"
	FieldNameGeom        = "geom"
	FieldNameImage       = "image"
	FieldNameCommunities = "communities"
	FieldNameUID         = "uid"
)

var CameraTypes = []string{
	"BTC-6HD-940 Browning",
	"BTC-6HD-MAX Browning",
	"BTC-7E Browning",
	"BTC-6HDPX Browning",
	"BTC-5HDP Browning",
	"HC500 Reconyx",
	"HC550 Reconyx",
	"HF4K Covert Reconyx",
	"CamPark",
	"WOSPORTS Mini",
}

var LockNumbers = []string{"399", "415", "Other"}

var ObservationTypes = []string{
	"Saw the animal.",
	"Heard the animal.",
	"Saw a remote sensing camera take a photo (e.g. wildlife trail camera, doorbell/security camera).",
	"Saw evidence of the animal's presence (e.g. disturbed property, scat).",
	"Had a negative or dangerous interaction with the animal.",
	"Other",
}

var ObserverOptions = []string{"Me", "Other"}

// NextActions are the status kinds a new camera can be scheduled with.
var NextActions = []string{"set", "pull"}

// CameraIDs lists the deployed camera inventory.
var CameraIDs = buildCameraIDs()

func buildCameraIDs() []string {
	var ids []string
	ids = appendSeries(ids, "USGSBR%03d", 1, 27)
	ids = appendSeries(ids, "AFCBR%03d", 28, 48)
	ids = appendSeries(ids, "OXYRE%02d", 1, 4)
	ids = appendSeries(ids, "OXYBR%03d", 1, 15)
	ids = appendSeries(ids, "CamPark%d", 1, 6)
	ids = append(ids, "WoSports Mini")
	ids = appendSeries(ids, "AFCRE%d", 1, 3)
	return append(ids, "Other")
}

var forms = map[Kind][]FieldSpec{
	KindCamera: {
		{Name: "site", Attr: "site", Label: "Site Name", Type: FieldText, Required: true},
		{Name: "crds", Attr: "crds", Label: "Coordinates (Lat, Lon)", Type: FieldText, Required: true},
		{Name: FieldNameDate, Attr: "date", Label: "Date/Time", Type: FieldDateTime, Required: true},
		{Name: "type", Attr: "type", Label: "Camera Type", Type: FieldDropdown, Options: CameraTypes, Required: true},
		{Name: "camera_id", Attr: "camera_id", Label: "Camera ID", Type: FieldDropdown, Options: CameraIDs, Required: true},
		{Name: "perc", Attr: "perc", Label: "Battery Percentage", Type: FieldText, Required: true},
		{Name: "mem", Attr: "mem", Label: "Name of Memory Card", Type: FieldText, Required: true},
		{Name: "lock", Attr: "lock", Label: "Lock Number", Type: FieldDropdown, Options: LockNumbers, Required: true},
		{Name: FieldNameNext, Attr: "status", Label: "Date of Next Set or Pull", Type: FieldNextAction, Options: NextActions, Required: true},
		{Name: "comment", Attr: "comments", Label: "Comments", Type: FieldText, Required: true},
	},
	KindSighting: {
		{Name: "title", Attr: "title", Label: "Title", Type: FieldText, Required: true},
		{Name: "observer", Attr: "observer", Label: "Who Observed the Animal?", Type: FieldDropdown, Options: ObserverOptions, Required: true},
		{Name: "location", Attr: "location", Label: "Location of Sighting", Type: FieldAutocomplete, Required: true},
		{Name: FieldNameDate, Attr: "date", Label: "Date/Time", Type: FieldDateTime, Required: true},
		{Name: "species", Attr: "species", Label: "Species", Type: FieldText},
		{Name: "number", Attr: "number", Label: "Number of Species Observed", Type: FieldText},
		{Name: "type", Attr: "type", Label: "How was the Animal Observed?", Type: FieldDropdown, Options: ObservationTypes, Required: true},
		{Name: FieldNameImage, Attr: "image", Label: "Image of Sighting", Type: FieldFile, Required: true},
		{Name: "comments", Attr: "comments", Label: "Comments", Type: FieldText, Required: true},
	},
	KindArea: {
		{Name: "name", Attr: "name", Label: "Name of Area", Type: FieldText, Required: true},
		{Name: "description", Attr: "description", Label: "Brief Description of Area", Type: FieldText, Required: true},
		{Name: FieldNameGeom, Attr: "geom", Label: "Upload Area Geometry (GeoJSON)", Type: FieldFile, Required: true},
	},
	KindCommunity: {
		{Name: "name", Attr: "name", Label: "Name of Community", Type: FieldText, Required: true},
		{Name: "description", Attr: "description", Label: "Brief Description of Community", Type: FieldText, Required: true},
		{Name: FieldNameImage, Attr: "imageUrl", Label: "Cover Image", Type: FieldFile, Required: true},
	},
}

// Fields returns the creation form of kind in display order. The slice is
// shared and must not be modified.
func Fields(kind Kind) []FieldSpec {
	return forms[kind]
}

// Field looks up a single form field by its submitted name.
func Field(kind Kind, name string) (FieldSpec, bool) {
	for _, f := range forms[kind] {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

func (f FieldSpec) allows(value string) bool {
	if len(f.Options) == 0 {
		return true
	}
	for _, o := range f.Options {
		if o == value {
			return true
		}
	}
	return false
}

func appendSeries(ids []string, format string, from, to int) []string {
	for i := from; i <= to; i++ {
		ids = append(ids, fmt.Sprintf(format, i))
	}
	return ids
}
