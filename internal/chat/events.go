package chat

import (
	"floodguard/internal/projects"
	"floodguard/internal/retrieval"
)

// EventType tags an outbound event.
type EventType string

const (
	EventStatus    EventType = "status"
	EventProjects  EventType = "projects"
	EventMapBounds EventType = "map_bounds"
	EventMessage   EventType = "message"
	EventNews      EventType = "news"
	EventError     EventType = "error"
)

// Event is one frame of the outbound protocol. Only the fields belonging to
// Type are set.
type Event struct {
	Type    EventType      `json:"type"`
	Message string         `json:"message,omitempty"`
	Content string         `json:"content,omitempty"`
	Data    any            `json:"data,omitempty"`
	Count   int            `json:"count,omitempty"`
	BBox    *projects.BBox `json:"bbox,omitempty"`
	Done    bool           `json:"done,omitempty"`
}

// EmitFunc delivers one event to the caller. An error means the channel is
// gone and the turn should stop writing.
type EmitFunc func(Event) error

// ProjectSummary is the per-row payload of a projects event.
type ProjectSummary struct {
	ProjectID    string  `json:"project_id"`
	Description  string  `json:"description"`
	Contractor   string  `json:"contractor"`
	ContractCost float64 `json:"contract_cost"`
	Municipality string  `json:"municipality"`
	Province     string  `json:"province"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
}

// Summarize converts records into event rows.
func Summarize(rows []projects.Record) []ProjectSummary {
	out := make([]ProjectSummary, len(rows))
	for i, r := range rows {
		out[i] = ProjectSummary{
			ProjectID:    r.ProjectComponentID,
			Description:  r.Description,
			Contractor:   r.Contractor,
			ContractCost: r.ContractCost,
			Municipality: r.Municipality,
			Province:     r.Province,
			Lat:          r.Latitude,
			Lon:          r.Longitude,
		}
	}
	return out
}

func statusEvent(msg string) Event { return Event{Type: EventStatus, Message: msg} }

func errorEvent(content string) Event { return Event{Type: EventError, Content: content} }

func messageEvent(content string) Event {
	return Event{Type: EventMessage, Content: content, Done: true}
}

func projectsEvent(rows []projects.Record) Event {
	return Event{Type: EventProjects, Data: Summarize(rows), Count: len(rows)}
}

func boundsEvent(b projects.BBox) Event { return Event{Type: EventMapBounds, BBox: &b} }

func newsEvent(articles []retrieval.Article) Event {
	return Event{Type: EventNews, Data: articles}
}
