package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/zoynulabedin/snowlightv2-sub000/logger"
	"github.com/zoynulabedin/snowlightv2-sub000/model"
	"github.com/zoynulabedin/snowlightv2-sub000/player"
	"github.com/zoynulabedin/snowlightv2-sub000/repository"
)

// MediaResolver turns stored media references into URLs a tab can load.
type MediaResolver interface {
	ResolveTrack(ctx context.Context, t *model.Track) error
	ResolveVideo(ctx context.Context, v *model.Video) error
}

// Transport operations accepted by TransportHandler.
const (
	OpTogglePlay    = "toggle-play"
	OpSeek          = "seek"
	OpVolume        = "volume"
	OpToggleMute    = "toggle-mute"
	OpToggleShuffle = "toggle-shuffle"
	OpToggleRepeat  = "toggle-repeat"
	OpNext          = "next"
	OpPrevious      = "previous"
)

// APIHandler serves the session API.
type APIHandler struct {
	hub      *Hub
	tracks   repository.TrackRepository
	videos   repository.VideoRepository
	resolver MediaResolver
	upgrader websocket.Upgrader
}

// NewAPIHandler creates the handler. resolver may be nil, in which case
// catalog URLs are served as stored.
func NewAPIHandler(hub *Hub, tracks repository.TrackRepository, videos repository.VideoRepository, resolver MediaResolver) *APIHandler {
	return &APIHandler{
		hub:      hub,
		tracks:   tracks,
		videos:   videos,
		resolver: resolver,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response", logger.ErrorField(err))
	}
}

// lookupError maps a lookup failure to a status code and reports it.
func lookupError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		http.Error(w, "Session not found", http.StatusNotFound)
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, what+" not found", http.StatusNotFound)
	default:
		logger.Error("lookup failed", logger.String("what", what), logger.ErrorField(err))
		http.Error(w, "Failed to get "+what, http.StatusInternalServerError)
	}
}

func (h *APIHandler) session(w http.ResponseWriter, r *http.Request) (*PlaybackSession, bool) {
	p, err := h.hub.Get(mux.Vars(r)["id"])
	if err != nil {
		lookupError(w, err, "session")
		return nil, false
	}
	return p, true
}

func surfaceVar(w http.ResponseWriter, r *http.Request) (model.Surface, bool) {
	surface, ok := model.ParseSurface(mux.Vars(r)["surface"])
	if !ok {
		http.Error(w, "Unknown surface", http.StatusBadRequest)
	}
	return surface, ok
}

func (h *APIHandler) resolveTrack(ctx context.Context, t *model.Track) error {
	if h.resolver == nil {
		return nil
	}
	return h.resolver.ResolveTrack(ctx, t)
}

// CreateSessionHandler starts a session, or restores a mirrored one when
// the restore query parameter names it.
func (h *APIHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("restore"); id != "" {
		p, err := h.hub.Restore(r.Context(), id)
		if err != nil {
			lookupError(w, err, "session")
			return
		}
		writeJSON(w, http.StatusOK, p.View())
		return
	}
	writeJSON(w, http.StatusCreated, h.hub.Create().View())
}

// GetSessionHandler returns the session and both transports.
func (h *APIHandler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p.View())
}

// DeleteSessionHandler closes the session and forgets its snapshot.
func (h *APIHandler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.hub.Remove(r.Context(), mux.Vars(r)["id"]); err != nil {
		lookupError(w, err, "session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Session closed",
	})
}

// PlayTrackHandler selects a catalog track, optionally replacing the queue.
func (h *APIHandler) PlayTrackHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		TrackID string   `json:"trackId"`
		Queue   []string `json:"queue"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TrackID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	track, err := h.tracks.GetTrackByID(ctx, req.TrackID)
	if err != nil {
		lookupError(w, err, "track")
		return
	}
	if err := h.resolveTrack(ctx, track); err != nil {
		logger.Error("failed to resolve track media", logger.String("trackId", track.ID), logger.ErrorField(err))
		http.Error(w, "Failed to resolve track media", http.StatusBadGateway)
		return
	}

	if req.Queue == nil {
		p.Session.PlayTrack(*track)
		writeJSON(w, http.StatusOK, p.View())
		return
	}

	queue, err := h.tracks.GetTracksByIDs(ctx, req.Queue)
	if err != nil {
		lookupError(w, err, "queue")
		return
	}
	for i := range queue {
		if queue[i].ID == track.ID {
			queue[i] = *track
			continue
		}
		if err := h.resolveTrack(ctx, &queue[i]); err != nil {
			logger.Error("failed to resolve track media", logger.String("trackId", queue[i].ID), logger.ErrorField(err))
			http.Error(w, "Failed to resolve track media", http.StatusBadGateway)
			return
		}
	}
	p.Session.PlayTrackWithQueue(*track, queue)
	writeJSON(w, http.StatusOK, p.View())
}

// PlayVideoHandler selects a catalog video.
func (h *APIHandler) PlayVideoHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		VideoID string `json:"videoId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VideoID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	video, err := h.videos.GetVideoByID(ctx, req.VideoID)
	if err != nil {
		lookupError(w, err, "video")
		return
	}
	if h.resolver != nil {
		if err := h.resolver.ResolveVideo(ctx, video); err != nil {
			logger.Error("failed to resolve video media", logger.String("videoId", video.ID), logger.ErrorField(err))
			http.Error(w, "Failed to resolve video media", http.StatusBadGateway)
			return
		}
	}

	p.Session.PlayVideo(*video)
	writeJSON(w, http.StatusOK, p.View())
}

// AddToQueueHandler appends a catalog track to the queue.
func (h *APIHandler) AddToQueueHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		TrackID string `json:"trackId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TrackID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	track, err := h.tracks.GetTrackByID(ctx, req.TrackID)
	if err != nil {
		lookupError(w, err, "track")
		return
	}
	if err := h.resolveTrack(ctx, track); err != nil {
		logger.Error("failed to resolve track media", logger.String("trackId", track.ID), logger.ErrorField(err))
		http.Error(w, "Failed to resolve track media", http.StatusBadGateway)
		return
	}

	p.Session.AddToQueue(*track)
	writeJSON(w, http.StatusOK, p.View())
}

// RemoveFromQueueHandler drops a track from the queue.
func (h *APIHandler) RemoveFromQueueHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.session(w, r)
	if !ok {
		return
	}
	p.Session.RemoveFromQueue(mux.Vars(r)["trackId"])
	writeJSON(w, http.StatusOK, p.View())
}

// ClearQueueHandler empties the queue and stops audio.
func (h *APIHandler) ClearQueueHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.session(w, r)
	if !ok {
		return
	}
	p.Session.ClearQueue()
	writeJSON(w, http.StatusOK, p.View())
}

// CloseSurfaceHandler hides the audio or video surface.
func (h *APIHandler) CloseSurfaceHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.session(w, r)
	if !ok {
		return
	}
	surface, ok := surfaceVar(w, r)
	if !ok {
		return
	}
	if surface == model.SurfaceVideo {
		p.Session.CloseVideo()
	} else {
		p.Session.CloseAudio()
	}
	writeJSON(w, http.StatusOK, p.View())
}

// TransportHandler runs one transport control on a surface.
func (h *APIHandler) TransportHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.session(w, r)
	if !ok {
		return
	}
	surface, ok := surfaceVar(w, r)
	if !ok {
		return
	}

	var req struct {
		Op    string   `json:"op"`
		Value *float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	c := p.Controller(surface)
	switch req.Op {
	case OpTogglePlay:
		c.TogglePlay()
	case OpSeek, OpVolume:
		if req.Value == nil {
			http.Error(w, "Value is required for "+req.Op, http.StatusBadRequest)
			return
		}
		if req.Op == OpSeek {
			c.SeekTo(*req.Value)
		} else {
			c.SetVolume(*req.Value)
		}
	case OpToggleMute:
		c.ToggleMute()
	case OpToggleShuffle:
		c.ToggleShuffle()
	case OpToggleRepeat:
		c.ToggleRepeat()
	case OpNext:
		c.Next()
	case OpPrevious:
		c.Previous()
	default:
		http.Error(w, "Unknown transport operation", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Surface   model.Surface         `json:"surface"`
		Transport player.TransportState `json:"transport"`
	}{surface, c.State()})
}

// WebSocketHandler attaches a tab's media element to a surface. A newer
// connection for the same surface replaces the older one.
func (h *APIHandler) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.session(w, r)
	if !ok {
		return
	}
	surface, ok := surfaceVar(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket 升级失败", logger.ErrorField(err))
		return
	}

	client := NewClient(conn, p.ID, surface)
	el := p.Element(surface)
	el.Attach(client)
	p.pushState(surface)

	go client.WritePump()
	go client.ReadPump(el.HandleMessage, func() { el.Detach(client) })

	logger.Info("media element connected",
		logger.String("session", p.ID),
		logger.String("surface", string(surface)))
}
