package store

// HomeEvent is a significant event in the home (e.g. motion detected,
// door opened). Append-only; never mutated after creation.
type HomeEvent struct {
	ID        int32
	EventType string
	Source    string
	Data      map[string]any
	CreatedTs int64
}

type FindHomeEvent struct {
	EventType *string
	Source    *string
	Limit     int
}
