package player

// EventType names a media element lifecycle event.
type EventType string

const (
	EventLoadedMetadata EventType = "loadedmetadata"
	EventTimeUpdate     EventType = "timeupdate"
	EventPlay           EventType = "play"
	EventPlaying        EventType = "playing"
	EventPause          EventType = "pause"
	EventEnded          EventType = "ended"
	EventError          EventType = "error"
)

// Event is one notification from a media element.
type Event struct {
	Type EventType
	// Src is the source the event concerns. Events carrying a source other
	// than the one currently loaded are stale and get dropped.
	Src         string
	Duration    float64 // loadedmetadata
	CurrentTime float64 // timeupdate
	Err         error   // error
}

// MediaElement is one live audio or video output.
//
// Commands must not deliver events synchronously; implementations queue
// them and emit from their own goroutine, the way a browser dispatches
// media events after the calling task completes.
type MediaElement interface {
	// Load detaches the current source and attaches src.
	Load(src string) error
	// Play starts playback. A returned error means the element refused to
	// start; an element may also refuse later through an EventError.
	Play() error
	Pause() error
	Seek(seconds float64) error
	SetVolume(v float64) error
	// CurrentTime reports the element's own playback position.
	CurrentTime() float64
	// Subscribe registers fn for element events. The returned func
	// releases the subscription.
	Subscribe(fn func(Event)) (unsubscribe func())
}

// Emitter is a listener registry media elements embed to implement
// Subscribe.
type Emitter struct {
	obs observers[Event]
}

// Subscribe implements MediaElement.Subscribe.
func (e *Emitter) Subscribe(fn func(Event)) func() {
	return e.obs.subscribe(fn)
}

// Emit delivers ev to every subscriber.
func (e *Emitter) Emit(ev Event) {
	e.obs.notify(ev)
}

// Listeners returns the number of live subscriptions.
func (e *Emitter) Listeners() int {
	return e.obs.len()
}
