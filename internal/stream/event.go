package stream

// Kind tags a stream Event.
type Kind string

const (
	KindChunk Kind = "chunk"
	KindClose Kind = "close"
	KindError Kind = "error"
)

// Event is one message of a recipe stream. Its JSON form is carried in the
// data field of a server-sent event.
type Event struct {
	Kind    Kind   `json:"action"`
	Chunk   string `json:"chunk,omitempty"`
	Message string `json:"message,omitempty"`
}

func Chunk(line string) Event { return Event{Kind: KindChunk, Chunk: line} }

func Close() Event { return Event{Kind: KindClose} }

func Error(message string) Event { return Event{Kind: KindError, Message: message} }

// Terminal reports whether nothing may follow the event.
func (e Event) Terminal() bool {
	return e.Kind == KindClose || e.Kind == KindError
}
