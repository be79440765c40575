// Package camstatus encodes and decodes camera deployment status and
// provides the editor behind the camera panel's status controls.
package camstatus

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Kind is the top-level status choice.
type Kind string

const (
	KindSet   Kind = "set"
	KindPull  Kind = "pull"
	KindOther Kind = "other"
)

// Label is the option text shown for the kind.
func (k Kind) Label() string {
	switch k {
	case KindSet:
		return "Set"
	case KindPull:
		return "Pull"
	case KindOther:
		return "Other"
	default:
		return string(k)
	}
}

// ParseKind accepts the wire values "set", "pull" and "other".
func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindSet:
		return KindSet, true
	case KindPull:
		return KindPull, true
	case KindOther:
		return KindOther, true
	}
	return "", false
}

// Kinds lists the status kinds in display order.
func Kinds() []Kind {
	return []Kind{KindSet, KindPull, KindOther}
}

// Canonical free-text statuses. Only these decode as KindOther.
const (
	PhraseRetrieved      = "Camera Retrieved. Awaiting Image Processing."
	PhraseLost           = "Camera Lost or Stolen."
	PhraseProcessingDone = "Image Processing Complete. Awaiting Species Identification."
	PhraseComplete       = "Complete."
)

var phrases = []string{PhraseRetrieved, PhraseLost, PhraseProcessingDone, PhraseComplete}

// Phrases returns the canonical free-text statuses in display order.
func Phrases() []string {
	return slices.Clone(phrases)
}

// IsPhrase reports whether s is one of the canonical phrases.
func IsPhrase(s string) bool {
	return slices.Contains(phrases, s)
}

// Status is a decoded camera status.
type Status struct {
	Kind      Kind
	DaysAhead int    // set and pull only
	Text      string // other only
}

// Default is what an empty or unrecognized status decodes to.
var Default = Status{Kind: KindSet}

var (
	setDaysRe  = regexp.MustCompile(`set,(\d+)`)
	pullDaysRe = regexp.MustCompile(`pull,(\d+)`)
)

// Decode parses a stored status string. It never fails: a "set"/"pull"
// prefix without a readable day count yields 0 days, and any text that is
// not a canonical phrase yields Default.
func Decode(raw string) Status {
	switch {
	case strings.HasPrefix(raw, "set"):
		return Status{Kind: KindSet, DaysAhead: matchDays(setDaysRe, raw)}
	case strings.HasPrefix(raw, "pull"):
		return Status{Kind: KindPull, DaysAhead: matchDays(pullDaysRe, raw)}
	case IsPhrase(raw):
		return Status{Kind: KindOther, Text: raw}
	default:
		return Default
	}
}

func matchDays(re *regexp.Regexp, raw string) int {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// Encode renders s in the stored form: "set,N", "pull,N" or the text verbatim.
// Free text that is not a canonical phrase encodes as given but decodes back
// to Default.
func Encode(s Status) string {
	switch s.Kind {
	case KindSet:
		return fmt.Sprintf("set,%d", s.DaysAhead)
	case KindPull:
		return fmt.Sprintf("pull,%d", s.DaysAhead)
	case KindOther:
		return s.Text
	default:
		return ""
	}
}

// String describes the status for display, e.g. "Pull in 3 days".
func (s Status) String() string {
	switch s.Kind {
	case KindSet, KindPull:
		unit := "days"
		if s.DaysAhead == 1 {
			unit = "day"
		}
		return fmt.Sprintf("%s in %d %s", s.Kind.Label(), s.DaysAhead, unit)
	case KindOther:
		if s.Text == "" {
			return "Other"
		}
		return s.Text
	default:
		return ""
	}
}
