//go:build !cgo && !windows && !darwin

package media

import (
	"errors"
	"math"
	"sync"

	"github.com/zoynulabedin/snowlightv2-sub000/player"
)

// AudioAvailable indicates whether audio playback is supported in this build.
// Audio requires CGO for native sound libraries.
const AudioAvailable = false

// ErrAudioUnavailable is returned from Play in builds without audio output.
var ErrAudioUnavailable = errors.New("audio output requires a cgo build")

var _ player.MediaElement = &BeepElement{}

// BeepElement keeps track of the selection without producing sound. The
// transport still works; Play is always rejected.
type BeepElement struct {
	*eventQueue

	mu       sync.Mutex
	src      string
	position float64
	level    float64
}

// NewBeepElement creates an element. Close releases it.
func NewBeepElement() *BeepElement {
	return &BeepElement{eventQueue: newEventQueue(), level: 1}
}

func (e *BeepElement) Load(src string) error {
	e.mu.Lock()
	e.src = src
	e.position = 0
	e.mu.Unlock()

	e.post(player.Event{Type: player.EventLoadedMetadata, Src: src})
	return nil
}

func (e *BeepElement) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.src == "" {
		return player.ErrNoSource
	}
	return ErrAudioUnavailable
}

func (e *BeepElement) Pause() error {
	return nil
}

func (e *BeepElement) Seek(seconds float64) error {
	e.mu.Lock()
	e.position = math.Max(0, seconds)
	src, pos := e.src, e.position
	e.mu.Unlock()

	e.post(player.Event{Type: player.EventTimeUpdate, Src: src, CurrentTime: pos})
	return nil
}

func (e *BeepElement) SetVolume(v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.level = math.Max(0, math.Min(1, v))
	return nil
}

func (e *BeepElement) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// Close stops the event goroutine.
func (e *BeepElement) Close() error {
	e.eventQueue.close()
	return nil
}
