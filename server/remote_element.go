package server

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/zoynulabedin/snowlightv2-sub000/logger"
	"github.com/zoynulabedin/snowlightv2-sub000/model"
	"github.com/zoynulabedin/snowlightv2-sub000/player"
)

// ErrNotAttached is returned when play is requested while no tab is
// connected for the surface.
var ErrNotAttached = errors.New("no media element attached")

var _ player.MediaElement = &RemoteElement{}

// RemoteElement is a media element living in a browser tab. Commands are
// forwarded over the tab's WebSocket; the tab reports DOM media events
// back. Without a connected tab commands only update the desired state,
// which is replayed when a tab attaches.
type RemoteElement struct {
	player.Emitter

	surface model.Surface

	mu       sync.Mutex
	client   *Client
	src      string
	volume   float64
	position float64
}

// NewRemoteElement creates a detached element for surface.
func NewRemoteElement(surface model.Surface) *RemoteElement {
	return &RemoteElement{surface: surface, volume: 1}
}

func (e *RemoteElement) sendLocked(t MessageType, data *CommandData) {
	if e.client == nil {
		return
	}
	msg := &WSMessage{Type: t}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return
		}
		msg.Data = raw
	}
	e.client.trySend(msg)
}

func (e *RemoteElement) Load(src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.src = src
	e.position = 0
	e.sendLocked(MsgTypeLoad, &CommandData{Src: src})
	return nil
}

func (e *RemoteElement) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.src == "" {
		return player.ErrNoSource
	}
	if e.client == nil {
		return ErrNotAttached
	}
	e.sendLocked(MsgTypePlay, &CommandData{Src: e.src})
	return nil
}

func (e *RemoteElement) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sendLocked(MsgTypePause, nil)
	return nil
}

func (e *RemoteElement) Seek(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = seconds
	e.sendLocked(MsgTypeSeek, &CommandData{Time: &seconds})
	return nil
}

func (e *RemoteElement) SetVolume(v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = v
	e.sendLocked(MsgTypeVolume, &CommandData{Volume: &v})
	return nil
}

func (e *RemoteElement) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// Attached reports whether a tab is connected.
func (e *RemoteElement) Attached() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client != nil
}

// Attach makes c the element's tab, closing any previous one, and replays
// the desired source, volume and position.
func (e *RemoteElement) Attach(c *Client) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client != nil && e.client != c {
		e.client.Close()
	}
	e.client = c

	if e.src != "" {
		e.sendLocked(MsgTypeLoad, &CommandData{Src: e.src})
		if e.position > 0 {
			pos := e.position
			e.sendLocked(MsgTypeSeek, &CommandData{Time: &pos})
		}
	}
	vol := e.volume
	e.sendLocked(MsgTypeVolume, &CommandData{Volume: &vol})
}

// Detach forgets c if it is still the element's tab. The tab's element is
// gone, so subscribers see a pause.
func (e *RemoteElement) Detach(c *Client) {
	e.mu.Lock()
	if c == nil || e.client != c {
		e.mu.Unlock()
		return
	}
	e.client = nil
	src := e.src
	e.mu.Unlock()

	c.Close()
	e.Emit(player.Event{Type: player.EventPause, Src: src})
}

// Release disconnects whatever tab is attached.
func (e *RemoteElement) Release() {
	e.mu.Lock()
	c := e.client
	e.mu.Unlock()
	e.Detach(c)
}

// Push sends a non-command message, such as a state update, to the tab.
func (e *RemoteElement) Push(msg *WSMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		e.client.trySend(msg)
	}
}

// HandleMessage turns a message from the tab into an element event.
func (e *RemoteElement) HandleMessage(msg *WSMessage) {
	evType, ok := elementEvents[msg.Type]
	if !ok {
		logger.Debug("ignoring unknown element message",
			logger.String("surface", string(e.surface)),
			logger.String("type", string(msg.Type)))
		return
	}

	var data EventData
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			logger.Warn("invalid element event payload",
				logger.String("type", string(msg.Type)),
				logger.ErrorField(err))
			return
		}
	}

	ev := player.Event{
		Type:        evType,
		Src:         data.Src,
		Duration:    data.Duration,
		CurrentTime: data.CurrentTime,
	}
	if evType == player.EventError {
		ev.Err = errors.New(data.Message)
	}

	if evType == player.EventTimeUpdate {
		e.mu.Lock()
		if data.Src == "" || data.Src == e.src {
			e.position = data.CurrentTime
		}
		e.mu.Unlock()
	}

	e.Emit(ev)
}
