package player

import (
	"sync"

	"github.com/samber/lo"

	"github.com/zoynulabedin/snowlightv2-sub000/model"
)

// SessionState is the aggregate of what is selected to play.
type SessionState struct {
	CurrentTrack *model.Track  `json:"currentTrack"`
	Queue        []model.Track `json:"queue"`
	AudioVisible bool          `json:"audioVisible"`
	CurrentVideo *model.Video  `json:"currentVideo"`
	VideoVisible bool          `json:"videoVisible"`

	// trackSeq and videoSeq count PlayTrack and PlayVideo calls so a
	// controller can tell a fresh play request from an unrelated mutation.
	trackSeq uint64
	videoSeq uint64
}

func (s SessionState) clone() SessionState {
	out := s
	if s.CurrentTrack != nil {
		t := *s.CurrentTrack
		out.CurrentTrack = &t
	}
	if s.CurrentVideo != nil {
		v := *s.CurrentVideo
		out.CurrentVideo = &v
	}
	out.Queue = append([]model.Track(nil), s.Queue...)
	return out
}

// Session is the playback session store: the single shared source of
// truth for the current selection. It is built with NewSession and handed
// to every controller and UI surface that needs it.
type Session struct {
	mu        sync.Mutex
	state     SessionState
	observers observers[SessionState]
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// State returns a snapshot of the session.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to receive a snapshot after every mutation.
func (s *Session) Subscribe(fn func(SessionState)) (unsubscribe func()) {
	return s.observers.subscribe(fn)
}

// update applies fn under the lock and notifies observers when fn reports
// a change.
func (s *Session) update(fn func(st *SessionState) bool) {
	s.mu.Lock()
	changed := fn(&s.state)
	snap := s.state.clone()
	s.mu.Unlock()

	if changed {
		s.observers.notify(snap)
	}
}

// PlayTrack selects track for audio playback. An empty queue is seeded
// with the track; a non-empty queue is left as it is.
func (s *Session) PlayTrack(track model.Track) {
	s.update(func(st *SessionState) bool {
		st.CurrentTrack = &track
		if len(st.Queue) == 0 {
			st.Queue = []model.Track{track}
		}
		st.AudioVisible = true
		st.VideoVisible = false
		st.trackSeq++
		return true
	})
}

// PlayTrackWithQueue selects track and replaces the queue verbatim. The
// caller is responsible for including track in queue.
func (s *Session) PlayTrackWithQueue(track model.Track, queue []model.Track) {
	q := append([]model.Track{}, queue...)
	s.update(func(st *SessionState) bool {
		st.CurrentTrack = &track
		st.Queue = q
		st.AudioVisible = true
		st.VideoVisible = false
		st.trackSeq++
		return true
	})
}

// PlayVideo selects video and hides the audio surface.
func (s *Session) PlayVideo(video model.Video) {
	s.update(func(st *SessionState) bool {
		st.CurrentVideo = &video
		st.VideoVisible = true
		st.AudioVisible = false
		st.videoSeq++
		return true
	})
}

// AddToQueue appends track unless a track with the same ID is queued.
func (s *Session) AddToQueue(track model.Track) {
	s.update(func(st *SessionState) bool {
		if lo.ContainsBy(st.Queue, func(t model.Track) bool { return t.ID == track.ID }) {
			return false
		}
		st.Queue = append(st.Queue, track)
		return true
	})
}

// RemoveFromQueue drops the track with trackID. The current track is kept
// even when it is the one removed.
func (s *Session) RemoveFromQueue(trackID string) {
	s.update(func(st *SessionState) bool {
		n := len(st.Queue)
		st.Queue = lo.Filter(st.Queue, func(t model.Track, _ int) bool { return t.ID != trackID })
		return len(st.Queue) != n
	})
}

// ClearQueue empties the queue, drops the current track and hides the
// audio surface. Video state is untouched.
func (s *Session) ClearQueue() {
	s.update(func(st *SessionState) bool {
		st.Queue = nil
		st.CurrentTrack = nil
		st.AudioVisible = false
		return true
	})
}

// CloseAudio hides the audio surface without touching the selection.
func (s *Session) CloseAudio() {
	s.update(func(st *SessionState) bool {
		st.AudioVisible = false
		return true
	})
}

// CloseVideo hides the video surface without touching the selection.
func (s *Session) CloseVideo() {
	s.update(func(st *SessionState) bool {
		st.VideoVisible = false
		return true
	})
}

// Restore replaces the whole session, typically with a mirrored snapshot
// of a tab that reconnected. Restoring never counts as a play request.
func (s *Session) Restore(state SessionState) {
	restored := state.clone()
	s.update(func(st *SessionState) bool {
		restored.trackSeq = st.trackSeq
		restored.videoSeq = st.videoSeq
		*st = restored
		return true
	})
}
