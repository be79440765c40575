// Package entity defines the four record kinds handled by fieldmap, their
// composite keys, wire formats and creation forms.
package entity

import "strings"

// Kind identifies one of the record kinds.
type Kind int

const (
	KindCamera Kind = iota + 1
	KindSighting
	KindArea
	KindCommunity
)

// Kinds lists every kind in menu order.
func Kinds() []Kind {
	return []Kind{KindCamera, KindSighting, KindArea, KindCommunity}
}

// Label is the form title, which doubles as the legacy creating-mode string.
func (k Kind) Label() string {
	switch k {
	case KindCamera:
		return "Camera Trap"
	case KindSighting:
		return "Wildlife Sighting"
	case KindArea:
		return "Geographic Area"
	case KindCommunity:
		return "Create Community"
	default:
		return ""
	}
}

// Noun names a single record of the kind, e.g. in acknowledgements.
func (k Kind) Noun() string {
	switch k {
	case KindCamera:
		return "Camera Trap"
	case KindSighting:
		return "Wildlife Sighting"
	case KindArea:
		return "Geographic Area"
	case KindCommunity:
		return "Community"
	default:
		return ""
	}
}

// Prefix is the leading segment of the detail-view mode string.
func (k Kind) Prefix() string {
	switch k {
	case KindCamera:
		return "Camera"
	case KindSighting:
		return "Sighting"
	case KindArea:
		return "Area"
	case KindCommunity:
		return "Community"
	default:
		return ""
	}
}

// Slug is the hyphenated noun used after "Success-".
func (k Kind) Slug() string {
	return strings.ReplaceAll(k.Noun(), " ", "-")
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k >= KindCamera && k <= KindCommunity
}

func (k Kind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return strings.ToLower(k.Prefix())
}

// KindFromLabel matches a form title exactly.
func KindFromLabel(label string) (Kind, bool) {
	for _, k := range Kinds() {
		if k.Label() == label {
			return k, true
		}
	}
	return 0, false
}

// KindFromPrefix matches a detail-view prefix exactly.
func KindFromPrefix(prefix string) (Kind, bool) {
	for _, k := range Kinds() {
		if k.Prefix() == prefix {
			return k, true
		}
	}
	return 0, false
}

// KindFromSlug matches the hyphenated noun. The hyphenated form label
// ("Create-Community") is accepted as well.
func KindFromSlug(slug string) (Kind, bool) {
	for _, k := range Kinds() {
		if k.Slug() == slug || strings.ReplaceAll(k.Label(), " ", "-") == slug {
			return k, true
		}
	}
	return 0, false
}

// ParseKind accepts the lower-case names produced by String.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds() {
		if k.String() == strings.ToLower(strings.TrimSpace(s)) {
			return k, true
		}
	}
	return 0, false
}

// OnMap reports whether records of the kind are shown on the map page.
func (k Kind) OnMap() bool {
	return k == KindCamera || k == KindSighting || k == KindArea
}

// Ref points at one record by kind and composite key.
type Ref struct {
	Kind Kind
	Key  string
}

func (r Ref) String() string {
	return r.Kind.Prefix() + "-" + r.Key
}
