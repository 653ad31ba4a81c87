package pipeline

import "time"

// EventType names a pipeline progress event.
type EventType string

const (
	EventStarted   EventType = "analysis_started"
	EventFetched   EventType = "articles_fetched"
	EventAnnotated EventType = "articles_annotated"
	EventNarrated  EventType = "narration_complete"
	EventComplete  EventType = "analysis_complete"
	EventFailed    EventType = "analysis_failed"
)

// Stage names.
const (
	StageFetch    = "fetch"
	StageAnnotate = "annotate"
	StageNarrate  = "narrate"
	StageStore    = "store"
	StageDone     = "done"
)

// Event reports progress of one run.
type Event struct {
	Type      EventType `json:"type"`
	Company   string    `json:"company"`
	ReportID  string    `json:"report_id,omitempty"`
	Stage     string    `json:"stage,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Observer receives events synchronously from the running pipeline and must not block.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnEvent implements Observer.
func (f ObserverFunc) OnEvent(e Event) { f(e) }

// Observers fans an event out to several observers.
type Observers []Observer

// OnEvent implements Observer.
func (os Observers) OnEvent(e Event) {
	for _, o := range os {
		if o != nil {
			o.OnEvent(e)
		}
	}
}
