package mock

import (
	"fmt"
	"sync"

	"github.com/zoynulabedin/snowlightv2-sub000/player"
)

var _ player.MediaElement = &MediaElement{}

// MediaElement records the commands it receives. Events are delivered only
// when a test calls Emit, the way a browser queues media events.
type MediaElement struct {
	player.Emitter

	mu       sync.Mutex
	calls    []string
	src      string
	volume   float64
	position float64

	// PlayErr, when set, is returned from every Play call.
	PlayErr error
}

func (e *MediaElement) record(format string, args ...interface{}) {
	e.calls = append(e.calls, fmt.Sprintf(format, args...))
}

func (e *MediaElement) Load(src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("load %s", src)
	e.src = src
	e.position = 0
	return nil
}

func (e *MediaElement) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("play")
	return e.PlayErr
}

func (e *MediaElement) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("pause")
	return nil
}

func (e *MediaElement) Seek(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("seek %g", seconds)
	e.position = seconds
	return nil
}

func (e *MediaElement) SetVolume(v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("volume %g", v)
	e.volume = v
	return nil
}

func (e *MediaElement) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// SetPosition moves the reported playback position without a command.
func (e *MediaElement) SetPosition(seconds float64) {
	e.mu.Lock()
	e.position = seconds
	e.mu.Unlock()
}

// Src returns the last loaded source.
func (e *MediaElement) Src() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src
}

// Volume returns the last applied volume.
func (e *MediaElement) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// Calls returns the recorded commands and resets the log.
func (e *MediaElement) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	calls := e.calls
	e.calls = nil
	return calls
}
