// Package notify pushes per-project events to attached listeners.
//
// Delivery is best-effort and at-most-once. Nothing is persisted or replayed,
// except that a new listener is told which slides are generating right now.
package notify

// EventType names an event on the wire.
type EventType string

const (
	EventGenerationStarted   EventType = "generation_started"
	EventGenerationCompleted EventType = "generation_completed"
	EventGenerationFailed    EventType = "generation_failed"
	EventImageDeleted        EventType = "image_deleted"
	EventProjectUpdated      EventType = "project_updated"
	EventSyncGenerating      EventType = "sync_generating_tasks"
	EventPong                EventType = "pong"
	EventHeartbeat           EventType = "heartbeat"
)

// Event is one message for the listeners of a project.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`

	// Slug routes the event and is not part of the payload.
	Slug string `json:"-"`
}

// ImageRef identifies a generated image in completion events.
type ImageRef struct {
	Hash         string `json:"hash"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// TaskData is the payload of generation events.
type TaskData struct {
	TaskID string    `json:"task_id"`
	SID    string    `json:"sid"`
	Image  *ImageRef `json:"image,omitempty"`
	Error  string    `json:"error,omitempty"`
}

// ImageDeletedData is the payload of image_deleted.
type ImageDeletedData struct {
	SID  string `json:"sid"`
	Hash string `json:"hash"`
}

// ProjectUpdatedData is the payload of project_updated.
type ProjectUpdatedData struct {
	Slug    string `json:"slug"`
	Version int64  `json:"version"`
}

// SyncData is the payload of sync_generating_tasks.
type SyncData struct {
	SIDs []string `json:"sids"`
}

// GenerationStarted is sent when an async generation is accepted.
func GenerationStarted(slug, taskID, sid string) Event {
	return Event{Type: EventGenerationStarted, Slug: slug, Data: TaskData{TaskID: taskID, SID: sid}}
}

// GenerationCompleted is sent when an async generation stored its image.
func GenerationCompleted(slug, taskID, sid string, img ImageRef) Event {
	return Event{Type: EventGenerationCompleted, Slug: slug, Data: TaskData{TaskID: taskID, SID: sid, Image: &img}}
}

// GenerationFailed is sent when an async generation gave up.
func GenerationFailed(slug, taskID, sid, errText string) Event {
	return Event{Type: EventGenerationFailed, Slug: slug, Data: TaskData{TaskID: taskID, SID: sid, Error: errText}}
}

// ImageDeleted is sent after an image is removed from a slide.
func ImageDeleted(slug, sid, hash string) Event {
	return Event{Type: EventImageDeleted, Slug: slug, Data: ImageDeletedData{SID: sid, Hash: hash}}
}

// ProjectUpdated is sent when the project document changed outside this process.
func ProjectUpdated(slug string, version int64) Event {
	return Event{Type: EventProjectUpdated, Slug: slug, Data: ProjectUpdatedData{Slug: slug, Version: version}}
}

// SyncGenerating tells a new listener which slides are generating.
func SyncGenerating(slug string, sids []string) Event {
	return Event{Type: EventSyncGenerating, Slug: slug, Data: SyncData{SIDs: sids}}
}

// Pong answers a client ping.
func Pong() Event {
	return Event{Type: EventPong}
}

// Heartbeat keeps idle streams open.
func Heartbeat() Event {
	return Event{Type: EventHeartbeat}
}
