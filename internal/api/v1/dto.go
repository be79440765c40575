package v1

import (
	"github.com/afcommunity/fieldmap/internal/camstatus"
	"github.com/afcommunity/fieldmap/internal/entity"
	"github.com/afcommunity/fieldmap/internal/sidebar"
)

// FieldResponse describes one input of a creation form.
type FieldResponse struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
}

// ChoiceResponse is one entry of the type picker.
type ChoiceResponse struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

// DirectiveResponse is the JSON form of a sidebar directive.
type DirectiveResponse struct {
	Page         string           `json:"page"`
	Mode         string           `json:"mode"`
	State        string           `json:"state"`
	Visible      bool             `json:"visible"`
	Panel        string           `json:"panel"`
	TypeSelector bool             `json:"type_selector,omitempty"`
	Choices      []ChoiceResponse `json:"choices,omitempty"`
	Kind         string           `json:"kind,omitempty"`
	Fields       []FieldResponse  `json:"fields,omitempty"`
	Record       entity.Record    `json:"record,omitempty"`
	Message      string           `json:"message,omitempty"`
	// Text is the panel rendered as plain text.
	Text string `json:"text"`
}

func newDirectiveResponse(page string, d sidebar.Directive, text string) DirectiveResponse {
	resp := DirectiveResponse{
		Page:         page,
		Mode:         d.Mode.String(),
		State:        d.Mode.State().String(),
		Visible:      d.Visible,
		Panel:        d.Panel.String(),
		TypeSelector: d.TypeSelector,
		Kind:         kindName(d.Kind),
		Record:       d.Record,
		Message:      d.Message,
		Text:         text,
	}
	for _, k := range d.Choices {
		resp.Choices = append(resp.Choices, ChoiceResponse{Kind: k.String(), Label: k.Label()})
	}
	for _, f := range d.Fields {
		resp.Fields = append(resp.Fields, FieldResponse{
			Name:     f.Name,
			Label:    f.Label,
			Type:     string(f.Type),
			Options:  f.Options,
			Required: f.Required,
		})
	}
	return resp
}

func kindName(k entity.Kind) string {
	if !k.Valid() {
		return ""
	}
	return k.String()
}

// EventRequest is the body of POST /:page/events.
type EventRequest struct {
	Type string `json:"type"`
	Kind string `json:"kind,omitempty"`
	Key  string `json:"key,omitempty"`
	Raw  string `json:"raw,omitempty"`
}

// LoadResponse reports the collection sizes after a page load.
type LoadResponse struct {
	Page   string         `json:"page"`
	Counts map[string]int `json:"counts"`
}

// OutcomeResponse reports an accepted submission.
type OutcomeResponse struct {
	Acknowledged bool              `json:"acknowledged"`
	Message      string            `json:"message,omitempty"`
	Mode         string            `json:"mode"`
	Record       entity.Record     `json:"record"`
	Directive    DirectiveResponse `json:"directive"`
}

// StatusRequest edits a camera's next action. Absent members are left
// alone; kind is applied first.
type StatusRequest struct {
	Kind string  `json:"kind,omitempty"`
	Days *int    `json:"days,omitempty"`
	Text *string `json:"text,omitempty"`
}

// StatusResponse is a camera's status after an edit.
type StatusResponse struct {
	Key       string `json:"key"`
	Status    string `json:"status"`
	Kind      string `json:"kind"`
	DaysAhead int    `json:"days_ahead"`
	Text      string `json:"text,omitempty"`
	Display   string `json:"display"`
}

func newStatusResponse(key string, s camstatus.Status, display string) StatusResponse {
	return StatusResponse{
		Key:       key,
		Status:    camstatus.Encode(s),
		Kind:      string(s.Kind),
		DaysAhead: s.DaysAhead,
		Text:      s.Text,
		Display:   display,
	}
}

// MembersResponse lists the members of a community matching a query.
type MembersResponse struct {
	Code    string          `json:"code"`
	Query   string          `json:"query,omitempty"`
	Members []entity.Member `json:"members"`
	Message string          `json:"message,omitempty"`
}

// JoinResponse reports the outcome of joining a community.
type JoinResponse struct {
	Status    string            `json:"status"`
	Community *entity.Community `json:"community,omitempty"`
}

// PhotosResponse carries the server's reply to a photo upload.
type PhotosResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}
