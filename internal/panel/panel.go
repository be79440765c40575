// Package panel renders sidebar directives as plain text for the CLI and
// the JSON API.
package panel

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/afcommunity/fieldmap/internal/camstatus"
	"github.com/afcommunity/fieldmap/internal/entity"
	"github.com/afcommunity/fieldmap/internal/sidebar"
)

// keySpotted selects "was" or "were" by the number observed.
const keySpotted = "At %[2]s, %[1]d %[3]s spotted."

// NoMembersMessage is shown when a member search matches nobody.
const NoMembersMessage = "No members found."

var hourLabels = func() [entity.HoursPerDay]string {
	var labels [entity.HoursPerDay]string
	for h := range labels {
		labels[h] = time.Date(2000, 1, 1, h, 0, 0, 0, time.UTC).Format("3 PM")
	}
	return labels
}()

// HourLabel returns the label of hour bin h, "12 AM" through "11 PM".
func HourLabel(h int) string {
	if h < 0 || h >= entity.HoursPerDay {
		return ""
	}
	return hourLabels[h]
}

// Renderer turns directives into text. Dates are shown in loc.
type Renderer struct {
	loc     *time.Location
	printer *message.Printer
	title   cases.Caser
	lower   cases.Caser
}

// New returns a renderer for the display time zone loc; nil means UTC.
func New(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	tag := language.AmericanEnglish

	b := catalog.NewBuilder(catalog.Fallback(tag))
	// Set only fails on malformed messages; these are constant.
	_ = b.Set(tag, keySpotted, plural.Selectf(1, "%d",
		"=1", "At %[2]s, %[1]d %[3]s was spotted.",
		"other", "At %[2]s, %[1]d %[3]s were spotted."))

	return &Renderer{
		loc:     loc,
		printer: message.NewPrinter(tag, message.Catalog(b)),
		title:   cases.Title(tag),
		lower:   cases.Lower(tag),
	}
}

// Options carry data a directive does not hold.
type Options struct {
	// Members and Query are shown on community details.
	Members []entity.Member
	Query   string
}

// Render returns the text of d.
func (r *Renderer) Render(d sidebar.Directive, opts Options) string {
	var sb strings.Builder
	switch d.Panel {
	case sidebar.PanelNone, sidebar.PanelEmpty:
		return ""
	case sidebar.PanelTypeSelector:
		r.typeSelector(&sb, d)
	case sidebar.PanelForm:
		if d.TypeSelector {
			r.typeSelector(&sb, d)
			sb.WriteString("\n")
		}
		r.form(&sb, d)
	case sidebar.PanelDetail:
		r.detail(&sb, d.Record, opts)
	default:
		sb.WriteString(d.Message)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (r *Renderer) typeSelector(sb *strings.Builder, d sidebar.Directive) {
	sb.WriteString(sidebar.TypeSelectorTitle + "\n")
	for _, k := range d.Choices {
		marker := " "
		if d.Panel == sidebar.PanelForm && k == d.Kind {
			marker = "*"
		}
		fmt.Fprintf(sb, " %s %s\n", marker, k.Label())
	}
}

func (r *Renderer) form(sb *strings.Builder, d sidebar.Directive) {
	sb.WriteString(d.Kind.Label() + "\n")
	for _, f := range d.Fields {
		req := ""
		if f.Required {
			req = " (required)"
		}
		fmt.Fprintf(sb, "  %s%s [%s]\n", f.Label, req, f.Type)
		if len(f.Options) > 0 && len(f.Options) <= 12 {
			fmt.Fprintf(sb, "    options: %s\n", strings.Join(f.Options, ", "))
		}
	}
}

func (r *Renderer) detail(sb *strings.Builder, rec entity.Record, opts Options) {
	switch v := rec.(type) {
	case entity.Camera:
		r.Camera(sb, v)
	case entity.Sighting:
		r.Sighting(sb, v)
	case entity.GeoArea:
		r.Area(sb, v)
	case entity.Community:
		r.Community(sb, v, opts.Members, opts.Query)
	}
}

// Camera writes the camera panel: site, owner, date and time, status and
// the remaining metadata.
func (r *Renderer) Camera(sb *strings.Builder, c entity.Camera) {
	sb.WriteString(c.Site + "\n")
	field(sb, "Owner", c.Owner)
	if t, ok := r.when(c.Date); ok {
		field(sb, "Date", t.Format(time.DateOnly))
		field(sb, "Time", t.Format("03:04 PM MST"))
	} else {
		field(sb, "Date", c.Date)
	}
	field(sb, "Status", StatusText(camstatus.Decode(c.Status)))

	meta := []struct{ key, value string }{
		{"crds", c.Coords},
		{"type", c.CameraType},
		{"camera_id", c.CameraID},
		{"perc", string(c.Battery)},
		{"mem", c.MemoryCard},
		{"lock", c.Lock},
		{"comments", c.Comment},
	}
	for _, m := range meta {
		if m.value != "" {
			field(sb, r.title.String(strings.ReplaceAll(m.key, "_", " ")), m.value)
		}
	}
}

// StatusText describes a decoded status for display.
func StatusText(s camstatus.Status) string {
	switch s.Kind {
	case camstatus.KindSet, camstatus.KindPull:
		unit := "days"
		if s.DaysAhead == 1 {
			unit = "day"
		}
		return fmt.Sprintf("%s in %d %s", s.Kind.Label(), s.DaysAhead, unit)
	default:
		return s.Text
	}
}

// Sighting writes the sighting narrative.
func (r *Renderer) Sighting(sb *strings.Builder, s entity.Sighting) {
	sb.WriteString(s.Title + "\n")
	fmt.Fprintf(sb, "Posted by: %s | Observed by: %s\n", s.Owner, s.Observer)
	if t, ok := r.when(s.Date); ok {
		fmt.Fprintf(sb, "on %s\n", t.Format("Monday, January 2, 2006 at 03:04 PM"))
	} else if s.Date != "" {
		fmt.Fprintf(sb, "on %s\n", s.Date)
	}
	if s.URL != "" {
		field(sb, "Observation Image", s.URL)
	}

	sb.WriteString(r.printer.Sprintf(keySpotted, s.Number.Int(), s.Coords, r.lower.String(s.Species)))
	sb.WriteString("\n")

	who := "they"
	if s.Observer != "Me" {
		who = r.lower.String(s.Observer)
	}
	fmt.Fprintf(sb, "%s reported that %s %s\n", s.Owner, who, r.lower.String(s.ObservationType))

	if s.Comments != "" {
		field(sb, "Comments", s.Comments)
	}
}

// Area writes the area statistics, distributions and the hourly histogram.
func (r *Renderer) Area(sb *strings.Builder, a entity.GeoArea) {
	sb.WriteString(a.Name + "\n")
	if a.Description != "" {
		sb.WriteString(a.Description + "\n")
	}
	r.printer.Fprintf(sb, "%d Camera Traps | %d Wildlife Sightings | %d Recorded Species\n",
		a.NumCameras, a.NumSightings, a.NumSpecies)

	distribution(sb, r.printer, "Species Distribution", a.SpeciesDist)
	distribution(sb, r.printer, "Observer Contributions", a.ObserverDist)

	sb.WriteString("Sightings by Time of Day\n")
	for h, n := range a.HourBins {
		r.printer.Fprintf(sb, "  %-5s %d\n", HourLabel(h), n)
	}
}

func distribution(sb *strings.Builder, p *message.Printer, title string, d entity.Distribution) {
	if d.Len() == 0 {
		return
	}
	sb.WriteString(title + "\n")
	for _, c := range d.Entries() {
		p.Fprintf(sb, "  %s: %d\n", c.Name, c.Count)
	}
}

// Community writes the community panel with its join code and the members
// matching query.
func (r *Renderer) Community(sb *strings.Builder, c entity.Community, members []entity.Member, query string) {
	sb.WriteString(c.Name + "\n")
	fmt.Fprintf(sb, "Join Code: %s\n", c.Code)
	if c.Description != "" {
		sb.WriteString(c.Description + "\n")
	}
	if query != "" {
		fmt.Fprintf(sb, "Search: %s\n", query)
	}
	if len(members) == 0 {
		sb.WriteString(NoMembersMessage + "\n")
		return
	}
	sb.WriteString("Members\n")
	for _, m := range members {
		if m.Email != "" {
			fmt.Fprintf(sb, "  %s <%s>\n", m.Name, m.Email)
			continue
		}
		fmt.Fprintf(sb, "  %s\n", m.Name)
	}
}

// when parses a record date and moves it into the display zone.
func (r *Renderer) when(raw string) (time.Time, bool) {
	t, ok := entity.ParseDate(raw)
	if !ok {
		return time.Time{}, false
	}
	return t.In(r.loc), true
}

func field(sb *strings.Builder, label, value string) {
	fmt.Fprintf(sb, "%s: %s\n", label, value)
}
