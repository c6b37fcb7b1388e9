package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zoynulabedin/snowlightv2-sub000/logger"
	"github.com/zoynulabedin/snowlightv2-sub000/model"
	"github.com/zoynulabedin/snowlightv2-sub000/player"
)

// ErrSessionNotFound is returned for an unknown session ID.
var ErrSessionNotFound = errors.New("session not found")

const mirrorTimeout = 3 * time.Second

// Mirror persists session snapshots outside the process.
type Mirror interface {
	Save(ctx context.Context, sessionID string, state player.SessionState) error
	// Load returns nil, nil when nothing is stored for sessionID.
	Load(ctx context.Context, sessionID string) (*player.SessionState, error)
	Delete(ctx context.Context, sessionID string) error
}

// PlaybackSession is one listener's session with an audio and a video
// controller, each driving a remote element.
type PlaybackSession struct {
	ID      string
	Session *player.Session

	Audio   *player.Controller
	Video   *player.Controller
	AudioEl *RemoteElement
	VideoEl *RemoteElement

	unsubs []func()
}

// Controller returns the controller for surface.
func (p *PlaybackSession) Controller(surface model.Surface) *player.Controller {
	if surface == model.SurfaceVideo {
		return p.Video
	}
	return p.Audio
}

// Element returns the remote element for surface.
func (p *PlaybackSession) Element(surface model.Surface) *RemoteElement {
	if surface == model.SurfaceVideo {
		return p.VideoEl
	}
	return p.AudioEl
}

// SessionView is the full readout of a playback session.
type SessionView struct {
	ID      string                `json:"id"`
	Session player.SessionState   `json:"session"`
	Audio   player.TransportState `json:"audio"`
	Video   player.TransportState `json:"video"`
}

// View returns a snapshot of the session and both transports.
func (p *PlaybackSession) View() SessionView {
	return SessionView{
		ID:      p.ID,
		Session: p.Session.State(),
		Audio:   p.Audio.State(),
		Video:   p.Video.State(),
	}
}

// pushState sends the current state to the tab of surface.
func (p *PlaybackSession) pushState(surface model.Surface) {
	data, err := json.Marshal(StateData{
		Session:   p.Session.State(),
		Transport: p.Controller(surface).State(),
	})
	if err != nil {
		logger.Warn("failed to marshal state push", logger.ErrorField(err))
		return
	}
	p.Element(surface).Push(&WSMessage{Type: MsgTypeState, Data: data})
}

func (p *PlaybackSession) close() {
	for _, unsub := range p.unsubs {
		unsub()
	}
	p.Audio.Close()
	p.Video.Close()
	p.AudioEl.Release()
	p.VideoEl.Release()
}

// Hub owns the live playback sessions.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*PlaybackSession

	mirror Mirror
	opts   []player.Option
}

// NewHub creates a hub. mirror may be nil; opts are applied to every
// controller the hub creates.
func NewHub(mirror Mirror, opts ...player.Option) *Hub {
	return &Hub{
		sessions: make(map[string]*PlaybackSession),
		mirror:   mirror,
		opts:     opts,
	}
}

// Create starts a new, empty session.
func (h *Hub) Create() *PlaybackSession {
	p := h.build(uuid.New().String(), nil)

	h.mu.Lock()
	h.sessions[p.ID] = p
	h.mu.Unlock()

	logger.Info("playback session created", logger.String("session", p.ID))
	return p
}

// Restore returns the live session with id, or rebuilds it from the
// mirrored snapshot. Restored selections are loaded but not played.
func (h *Hub) Restore(ctx context.Context, id string) (*PlaybackSession, error) {
	if p, err := h.Get(id); err == nil {
		return p, nil
	}
	if h.mirror == nil {
		return nil, ErrSessionNotFound
	}

	state, err := h.mirror.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrSessionNotFound
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if p, ok := h.sessions[id]; ok {
		return p, nil
	}
	p := h.build(id, state)
	h.sessions[id] = p

	logger.Info("playback session restored",
		logger.String("session", id),
		logger.Int("queue", len(state.Queue)))
	return p, nil
}

func (h *Hub) build(id string, restore *player.SessionState) *PlaybackSession {
	session := player.NewSession()
	if restore != nil {
		session.Restore(*restore)
	}

	p := &PlaybackSession{
		ID:      id,
		Session: session,
		AudioEl: NewRemoteElement(model.SurfaceAudio),
		VideoEl: NewRemoteElement(model.SurfaceVideo),
	}
	p.Audio = player.NewController(session, p.AudioEl, model.SurfaceAudio, h.opts...)
	p.Video = player.NewController(session, p.VideoEl, model.SurfaceVideo, h.opts...)

	p.unsubs = append(p.unsubs,
		session.Subscribe(func(st player.SessionState) {
			h.save(id, st)
			p.pushState(model.SurfaceAudio)
			p.pushState(model.SurfaceVideo)
		}),
		p.Audio.Subscribe(func(player.TransportState) { p.pushState(model.SurfaceAudio) }),
		p.Video.Subscribe(func(player.TransportState) { p.pushState(model.SurfaceVideo) }),
	)
	return p
}

func (h *Hub) save(id string, st player.SessionState) {
	if h.mirror == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := h.mirror.Save(ctx, id, st); err != nil {
		logger.Warn("failed to mirror session",
			logger.String("session", id),
			logger.ErrorField(err))
	}
}

// Get returns the live session with id.
func (h *Hub) Get(id string) (*PlaybackSession, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return p, nil
}

// Remove closes the session and drops its mirrored snapshot.
func (h *Hub) Remove(ctx context.Context, id string) error {
	h.mu.Lock()
	p, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	p.close()
	if h.mirror != nil {
		if err := h.mirror.Delete(ctx, id); err != nil {
			return err
		}
	}
	logger.Info("playback session removed", logger.String("session", id))
	return nil
}

// Len returns the number of live sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close closes every live session. Mirrored snapshots are kept so the
// sessions can be restored after a restart.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*PlaybackSession)
	h.mu.Unlock()

	for _, p := range sessions {
		p.close()
	}
}
