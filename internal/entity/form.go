package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/afcommunity/fieldmap/internal/errors"
	"github.com/afcommunity/fieldmap/internal/geo"
)

// File is an uploaded form file.
type File struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// Submission holds the values of a filled-in creation form, keyed by form
// field name.
type Submission struct {
	Values map[string]string
	Files  []File
}

// Value returns the trimmed value of a form field.
func (s Submission) Value(name string) string {
	return strings.TrimSpace(s.Values[name])
}

// File returns the first upload attached to field.
func (s Submission) File(field string) (File, bool) {
	for _, f := range s.Files {
		if f.Field == field {
			return f, true
		}
	}
	return File{}, false
}

// Communities returns the join codes the new record is shared with.
func (s Submission) Communities() []string {
	var codes []string
	for _, c := range strings.Split(s.Values[FieldNameCommunities], ",") {
		if c = strings.TrimSpace(c); c != "" {
			codes = append(codes, c)
		}
	}
	return codes
}

// geomSource returns the GeoJSON text of an area form. The geometry may be
// sent inline or as the uploaded file.
func (s Submission) geomSource() []byte {
	if v := s.Value(FieldNameGeom); v != "" {
		return []byte(v)
	}
	if f, ok := s.File(FieldNameGeom); ok {
		return f.Data
	}
	return nil
}

func (s Submission) has(f FieldSpec) bool {
	if f.Type == FieldFile {
		if _, ok := s.File(f.Name); ok {
			return true
		}
	}
	return s.Value(f.Name) != ""
}

// FieldErrors lists every problem found in a submission.
type FieldErrors struct {
	Kind   Kind
	Errors []string
}

func (fe FieldErrors) Error() string {
	return fmt.Sprintf("invalid %s form: %s", fe.Kind, strings.Join(fe.Errors, "; "))
}

// Validate checks a submission against the creation form of kind.
func Validate(kind Kind, sub Submission) error {
	fields := Fields(kind)
	if fields == nil {
		return errors.Newf("no creation form for kind %d", kind).
			Category(errors.CategoryValidation).
			Component("entity").
			Build()
	}

	fe := FieldErrors{Kind: kind}
	for _, f := range fields {
		if !sub.has(f) {
			if f.Required {
				fe.Errors = append(fe.Errors, fmt.Sprintf("%s is required", f.Label))
			}
			continue
		}
		if f.Type == FieldDropdown && !f.allows(sub.Value(f.Name)) {
			fe.Errors = append(fe.Errors, fmt.Sprintf("%s: %q is not an option", f.Label, sub.Value(f.Name)))
		}
	}
	fe.Errors = append(fe.Errors, validateValues(kind, sub)...)

	if len(fe.Errors) > 0 {
		return errors.New(fe).
			Category(errors.CategoryValidation).
			Component("entity").
			Context("kind", kind.String()).
			Context("problems", len(fe.Errors)).
			Build()
	}
	return nil
}

func validateValues(kind Kind, sub Submission) []string {
	var problems []string
	if v := sub.Value(FieldNameDate); v != "" {
		if _, ok := ParseDate(v); !ok {
			problems = append(problems, fmt.Sprintf("Date/Time: %q is not a date", v))
		}
	}

	switch kind {
	case KindCamera:
		if v := sub.Value("crds"); v != "" && !geo.Placeable(geo.ParseCoordinates(v)) {
			problems = append(problems, fmt.Sprintf("Coordinates: %q is not a lat, lon pair", v))
		}
		if v := sub.Value("perc"); v != "" {
			if n, err := strconv.Atoi(v); err != nil || n < 0 || n > 100 {
				problems = append(problems, fmt.Sprintf("Battery Percentage: %q is not between 0 and 100", v))
			}
		}
		if next := sub.Value(FieldNameNext); next != "" {
			if next != "set" && next != "pull" {
				problems = append(problems, fmt.Sprintf("next action %q must be set or pull", next))
			}
			if n, err := strconv.Atoi(sub.Value(FieldNameDaysAhead)); err != nil || n < 0 {
				problems = append(problems, "days ahead must be a whole number of days")
			}
		}
	case KindSighting:
		if v := sub.Value("number"); v != "" {
			if n, err := strconv.Atoi(v); err != nil || n < 0 {
				problems = append(problems, fmt.Sprintf("Number of Species Observed: %q is not a count", v))
			}
		}
	case KindArea:
		if src := sub.geomSource(); len(src) > 0 {
			if _, err := geo.ParseArea(src); err != nil {
				problems = append(problems, fmt.Sprintf("geometry: %v", err))
			}
		}
	}
	return problems
}

// Build validates sub and turns it into the record that is shown locally
// once the server has accepted the submission. Server-assigned attributes
// (owner, canonical coordinates, URLs, join codes, area statistics) are
// left empty.
func Build(kind Kind, sub Submission) (Record, error) {
	if err := Validate(kind, sub); err != nil {
		return nil, err
	}

	attrs := make(map[string]any, len(sub.Values))
	for _, f := range Fields(kind) {
		switch {
		case f.Type == FieldFile:
			if file, ok := sub.File(f.Name); ok {
				attrs[f.Attr] = file.Name
			}
		case f.Type == FieldNextAction:
			attrs[f.Attr] = sub.Value(FieldNameNext) + "," + sub.Value(FieldNameDaysAhead)
		default:
			if v := sub.Value(f.Name); v != "" {
				attrs[f.Attr] = v
			}
		}
	}

	var (
		record Record
		err    error
	)
	switch kind {
	case KindCamera:
		var c Camera
		err = decodeAttrs(attrs, &c)
		record = c
	case KindSighting:
		var s Sighting
		err = decodeAttrs(attrs, &s)
		record = s
	case KindArea:
		var a GeoArea
		delete(attrs, "geom")
		err = decodeAttrs(attrs, &a)
		a.Geom = sub.geomSource()
		record = a
	case KindCommunity:
		var c Community
		delete(attrs, "imageUrl")
		err = decodeAttrs(attrs, &c)
		record = c
	}
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryValidation).
			Component("entity").
			Context("kind", kind.String()).
			Context("stage", "decode").
			Build()
	}
	return record, nil
}

func decodeAttrs(attrs map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(attrs)
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate reads the date formats seen on the wire: RFC 3339 from the
// server and the zone-less local form of a datetime input.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
