package sidebar

import (
	"github.com/afcommunity/fieldmap/internal/entity"
	"github.com/afcommunity/fieldmap/internal/store"
)

// Panel selects the body of the sidebar.
type Panel int

const (
	// PanelNone means no sidebar at all.
	PanelNone Panel = iota
	// PanelEmpty is a visible frame with nothing in it.
	PanelEmpty
	PanelTypeSelector
	PanelForm
	PanelSuccess
	PanelDetail
	PanelNotFound
	PanelSystemError
)

func (p Panel) String() string {
	switch p {
	case PanelNone:
		return "none"
	case PanelEmpty:
		return "empty"
	case PanelTypeSelector:
		return "type_selector"
	case PanelForm:
		return "form"
	case PanelSuccess:
		return "success"
	case PanelDetail:
		return "detail"
	case PanelNotFound:
		return "not_found"
	default:
		return "system_error"
	}
}

// User-facing texts of the fixed panels.
const (
	TypeSelectorTitle  = "Select a Feature to Add"
	NotFoundMessage    = "This record could not be found. It may not have loaded yet."
	SystemErrorMessage = "A system error has occurred. Please contact the system administrator."
)

// SuccessMessage is the acknowledgement shown after a record of kind was
// added.
func SuccessMessage(kind entity.Kind) string {
	return kind.Noun() + " added. Click here to submit another."
}

// Directive tells the front end what to draw for a mode.
type Directive struct {
	Mode    Mode
	Visible bool
	Panel   Panel
	// TypeSelector is set when the type picker is drawn, alone or above a form.
	TypeSelector bool
	// Choices are the kinds offered by the type picker.
	Choices []entity.Kind
	Kind    entity.Kind
	Fields  []entity.FieldSpec
	Record  entity.Record
	Message string
}

// Render derives the directive for mode from the records in r. It only
// reads from r.
func Render(mode Mode, r store.Reader) Directive {
	d := Directive{Mode: mode, Visible: true}

	switch mode.state {
	case StateIdle:
		d.Visible = false
		d.Panel = PanelNone
	case StateFilter:
		d.Panel = PanelEmpty
	case StateMenu:
		d.Panel = PanelTypeSelector
		d.TypeSelector = true
		d.Choices = selectableKinds(r)
		d.Message = TypeSelectorTitle
	case StateCreating:
		if !r.Carries(mode.kind) {
			return systemError(d)
		}
		d.Panel = PanelForm
		d.Kind = mode.kind
		d.Fields = entity.Fields(mode.kind)
		if mode.kind.OnMap() {
			d.TypeSelector = true
			d.Choices = selectableKinds(r)
		}
	case StateSuccess:
		if !r.Carries(mode.kind) {
			return systemError(d)
		}
		d.Panel = PanelSuccess
		d.Kind = mode.kind
		d.Message = SuccessMessage(mode.kind)
	case StateViewing:
		if !r.Carries(mode.ref.Kind) {
			return systemError(d)
		}
		d.Kind = mode.ref.Kind
		rec, ok := r.Lookup(mode.ref)
		if !ok {
			d.Panel = PanelNotFound
			d.Message = NotFoundMessage
			return d
		}
		d.Panel = PanelDetail
		d.Record = rec
	default:
		return systemError(d)
	}
	return d
}

func systemError(d Directive) Directive {
	d.Panel = PanelSystemError
	d.Message = SystemErrorMessage
	return d
}

func selectableKinds(r store.Reader) []entity.Kind {
	var kinds []entity.Kind
	for _, k := range entity.Kinds() {
		if k.OnMap() && r.Carries(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
