package player

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/zoynulabedin/snowlightv2-sub000/logger"
	"github.com/zoynulabedin/snowlightv2-sub000/model"
)

// DefaultRestartThreshold is how far into a track, in seconds, Previous
// restarts the track instead of moving back in the queue.
const DefaultRestartThreshold = 3.0

// ErrNoSource is reported when play is requested on an element that has
// nothing loaded.
var ErrNoSource = errors.New("no media source loaded")

// TransportState is the controller-owned playback readout. It is never
// written back into the session.
type TransportState struct {
	Phase          model.Phase      `json:"phase"`
	IsPlaying      bool             `json:"isPlaying"`
	CurrentTime    float64          `json:"currentTime"`
	Duration       float64          `json:"duration"`
	Volume         float64          `json:"volume"`
	IsMuted        bool             `json:"isMuted"`
	PreviousVolume float64          `json:"previousVolume"`
	IsShuffled     bool             `json:"isShuffled"`
	RepeatMode     model.RepeatMode `json:"repeatMode"`
	CurrentIndex   int              `json:"currentIndex"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithRandom sets the source used for shuffle picks.
func WithRandom(r *rand.Rand) Option {
	return func(c *Controller) { c.rnd = r }
}

// WithRestartThreshold overrides DefaultRestartThreshold.
func WithRestartThreshold(seconds float64) Option {
	return func(c *Controller) { c.restartThreshold = seconds }
}

// WithRepeatMode sets the starting repeat mode.
func WithRepeatMode(m model.RepeatMode) Option {
	return func(c *Controller) { c.state.RepeatMode = m }
}

// WithInitialVolume sets the starting volume, clamped to [0,1].
func WithInitialVolume(v float64) Option {
	return func(c *Controller) { c.state.Volume = clampVolume(v) }
}

// selection is the part of the session a controller cares about.
type selection struct {
	id      string
	src     string
	seq     uint64
	visible bool
}

// Controller binds one media element to the session's selection for one
// surface and implements the transport controls.
type Controller struct {
	session          *Session
	element          MediaElement
	surface          model.Surface
	rnd              *rand.Rand
	restartThreshold float64

	mu    sync.Mutex
	state TransportState
	queue []model.Track
	sel   selection
	// per source: metadata arrived, element confirmed playback
	hasMetadata bool
	started     bool

	observers    observers[TransportState]
	unsubSession func()
	unsubElement func()
	closeOnce    sync.Once
}

// NewController binds element to session for surface. A selection already
// present in the session is loaded but not played.
func NewController(session *Session, element MediaElement, surface model.Surface, opts ...Option) *Controller {
	if session == nil {
		panic("player: NewController requires a session")
	}
	if element == nil {
		panic("player: NewController requires a media element")
	}

	c := &Controller{
		session:          session,
		element:          element,
		surface:          surface,
		restartThreshold: DefaultRestartThreshold,
		state: TransportState{
			Phase:      model.PhaseIdle,
			Volume:     1,
			RepeatMode: model.RepeatOff,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rnd == nil {
		c.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	c.state.PreviousVolume = c.state.Volume

	if err := element.SetVolume(c.state.Volume); err != nil {
		logger.Warn("failed to apply initial volume",
			logger.String("surface", string(surface)),
			logger.ErrorField(err))
	}

	st := session.State()
	c.sel.seq = c.selectionOf(st).seq
	c.onSession(st)

	c.unsubElement = element.Subscribe(c.onEvent)
	c.unsubSession = session.Subscribe(c.onSession)
	return c
}

// Close releases the session and element subscriptions. It is safe to
// call more than once.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.unsubSession()
		c.unsubElement()
	})
}

// State returns a snapshot of the transport state.
func (c *Controller) State() TransportState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive the transport state after every change.
func (c *Controller) Subscribe(fn func(TransportState)) (unsubscribe func()) {
	return c.observers.subscribe(fn)
}

// changed releases the lock and publishes the new state.
func (c *Controller) changed() {
	snap := c.state
	c.mu.Unlock()
	c.observers.notify(snap)
}

func (c *Controller) selectionOf(st SessionState) selection {
	if c.surface == model.SurfaceVideo {
		sel := selection{seq: st.videoSeq, visible: st.VideoVisible}
		if st.CurrentVideo != nil {
			sel.id = st.CurrentVideo.ID
			sel.src = st.CurrentVideo.VideoURL
		}
		return sel
	}
	sel := selection{seq: st.trackSeq, visible: st.AudioVisible}
	if st.CurrentTrack != nil {
		sel.id = st.CurrentTrack.ID
		sel.src = st.CurrentTrack.AudioURL
	}
	return sel
}

// onSession reacts to a session mutation.
func (c *Controller) onSession(st SessionState) {
	next := c.selectionOf(st)

	c.mu.Lock()
	prev := c.sel
	requested := next.seq != prev.seq

	if c.surface == model.SurfaceAudio {
		c.queue = st.Queue
	}

	switch {
	case next.id == "":
		if prev.id != "" {
			c.pauseLocked()
			c.state.IsPlaying = false
			c.state.CurrentTime = 0
			c.state.Duration = 0
			c.state.Phase = model.PhaseIdle
		}
	case next.id != prev.id:
		c.loadLocked(next.src)
		if requested {
			c.playLocked()
		}
	case requested:
		// The same item was picked again: start it over.
		c.seekLocked(0)
		c.playLocked()
	case !next.visible && prev.visible && c.state.IsPlaying:
		c.pauseLocked()
	}

	c.sel = next
	if c.surface == model.SurfaceAudio && st.CurrentTrack != nil {
		id := st.CurrentTrack.ID
		if _, idx, ok := lo.FindIndexOf(c.queue, func(t model.Track) bool { return t.ID == id }); ok {
			c.state.CurrentIndex = idx
		}
	}
	c.changed()
}

func (c *Controller) loadLocked(src string) {
	c.sel.src = src
	if err := c.element.Load(src); err != nil {
		logger.Warn("failed to load media source",
			logger.String("surface", string(c.surface)),
			logger.String("src", src),
			logger.ErrorField(err))
	}
	c.hasMetadata = false
	c.started = false
	c.state.IsPlaying = false
	c.state.CurrentTime = 0
	c.state.Duration = 0
	c.state.Phase = model.PhaseLoaded
}

// playLocked asks the element to start. IsPlaying only flips when the
// element confirms with a playing event.
func (c *Controller) playLocked() {
	if err := c.element.Play(); err != nil {
		logger.Warn("playback start rejected",
			logger.String("surface", string(c.surface)),
			logger.String("id", c.sel.id),
			logger.ErrorField(err))
	}
}

func (c *Controller) pauseLocked() {
	if err := c.element.Pause(); err != nil {
		logger.Warn("failed to pause media element",
			logger.String("surface", string(c.surface)),
			logger.ErrorField(err))
	}
}

func (c *Controller) seekLocked(t float64) {
	if err := c.element.Seek(t); err != nil {
		logger.Warn("failed to seek media element",
			logger.String("surface", string(c.surface)),
			logger.Float64("time", t),
			logger.ErrorField(err))
	}
	c.state.CurrentTime = t
}

func (c *Controller) applyVolumeLocked(v float64) {
	if err := c.element.SetVolume(v); err != nil {
		logger.Warn("failed to set volume",
			logger.String("surface", string(c.surface)),
			logger.Float64("volume", v),
			logger.ErrorField(err))
	}
	c.state.Volume = v
}

type endAction int

const (
	endStop endAction = iota
	endLoop
	endAdvance
)

// onEvent reacts to a media element event.
func (c *Controller) onEvent(ev Event) {
	c.mu.Lock()
	if ev.Src != "" && ev.Src != c.sel.src {
		c.mu.Unlock()
		return
	}

	switch ev.Type {
	case EventLoadedMetadata:
		c.state.Duration = sanitizeDuration(ev.Duration)
		c.hasMetadata = true
		if c.state.Phase == model.PhaseLoaded {
			c.state.Phase = model.PhaseReady
		}
	case EventTimeUpdate:
		c.state.CurrentTime = ev.CurrentTime
	case EventPlay, EventPlaying:
		if ev.Type == EventPlaying {
			c.started = true
		}
		c.state.IsPlaying = true
		c.state.Phase = model.PhasePlaying
	case EventPause:
		c.state.IsPlaying = false
		if c.state.Phase != model.PhaseEnded {
			c.state.Phase = model.PhasePaused
		}
	case EventError:
		logger.Warn("media element reported an error",
			logger.String("surface", string(c.surface)),
			logger.String("src", ev.Src),
			logger.ErrorField(ev.Err))
		// A play event may precede the failure; the transport falls back
		// to where it was before playback was requested.
		c.state.IsPlaying = false
		switch {
		case c.started:
			c.state.Phase = model.PhasePaused
		case c.hasMetadata:
			c.state.Phase = model.PhaseReady
		default:
			c.state.Phase = model.PhaseLoaded
		}
	case EventEnded:
		action := c.endActionLocked()
		switch action {
		case endLoop:
			c.seekLocked(0)
			c.playLocked()
		case endStop:
			c.state.IsPlaying = false
			c.state.Phase = model.PhaseEnded
		}
		c.changed()
		if action == endAdvance {
			c.Next()
		}
		return
	}
	c.changed()
}

func (c *Controller) endActionLocked() endAction {
	switch c.state.RepeatMode {
	case model.RepeatOne:
		return endLoop
	case model.RepeatAll:
		if c.surface == model.SurfaceAudio && len(c.queue) > 0 {
			return endAdvance
		}
	default:
		if c.surface == model.SurfaceAudio && c.state.CurrentIndex < len(c.queue)-1 {
			return endAdvance
		}
	}
	return endStop
}

// TogglePlay pauses when playing and plays otherwise. It is a no-op when
// nothing is selected.
func (c *Controller) TogglePlay() {
	c.mu.Lock()
	if c.sel.id == "" {
		c.mu.Unlock()
		return
	}
	if c.state.IsPlaying {
		c.pauseLocked()
	} else {
		c.playLocked()
	}
	c.changed()
}

// SeekTo moves the element to t seconds and mirrors the position right
// away. Range checks are the caller's job.
func (c *Controller) SeekTo(t float64) {
	c.mu.Lock()
	c.seekLocked(t)
	c.changed()
}

// SetVolume clamps v to [0,1] and applies it. Any positive volume unmutes.
func (c *Controller) SetVolume(v float64) {
	v = clampVolume(v)
	c.mu.Lock()
	c.applyVolumeLocked(v)
	if v > 0 {
		c.state.IsMuted = false
	}
	c.changed()
}

// ToggleMute silences the element, or restores the volume it had before
// it was muted.
func (c *Controller) ToggleMute() {
	c.mu.Lock()
	if c.state.IsMuted {
		c.applyVolumeLocked(c.state.PreviousVolume)
		c.state.IsMuted = false
	} else {
		c.state.PreviousVolume = c.state.Volume
		c.applyVolumeLocked(0)
		c.state.IsMuted = true
	}
	c.changed()
}

// ToggleShuffle flips the shuffle flag. The queue order never changes.
func (c *Controller) ToggleShuffle() {
	c.mu.Lock()
	c.state.IsShuffled = !c.state.IsShuffled
	c.changed()
}

// ToggleRepeat advances the repeat mode one step: off, one, all, off.
func (c *Controller) ToggleRepeat() {
	c.mu.Lock()
	c.state.RepeatMode = c.state.RepeatMode.Next()
	c.changed()
}

// Next selects the following queue entry, or a random one when shuffled.
// Sequential order wraps from the last entry to the first regardless of
// the repeat mode.
func (c *Controller) Next() {
	c.mu.Lock()
	if c.surface != model.SurfaceAudio || len(c.queue) == 0 {
		c.mu.Unlock()
		return
	}
	var idx int
	if c.state.IsShuffled {
		idx = c.rnd.Intn(len(c.queue))
	} else {
		idx = c.state.CurrentIndex + 1
		if idx >= len(c.queue) {
			idx = 0
		}
	}
	track := c.queue[idx]
	c.mu.Unlock()

	c.session.PlayTrack(track)
}

// Previous restarts the current track when playback is past the restart
// threshold, and otherwise selects the preceding queue entry, wrapping
// from the first entry to the last.
func (c *Controller) Previous() {
	c.mu.Lock()
	if c.element.CurrentTime() > c.restartThreshold {
		c.seekLocked(0)
		c.changed()
		return
	}
	if c.surface != model.SurfaceAudio || len(c.queue) == 0 {
		c.mu.Unlock()
		return
	}
	idx := c.state.CurrentIndex - 1
	if idx < 0 || idx >= len(c.queue) {
		idx = len(c.queue) - 1
	}
	track := c.queue[idx]
	c.mu.Unlock()

	c.session.PlayTrack(track)
}

func clampVolume(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func sanitizeDuration(d float64) float64 {
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0
	}
	return d
}
