package player_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/zoynulabedin/snowlightv2-sub000/mock"
	"github.com/zoynulabedin/snowlightv2-sub000/model"
	"github.com/zoynulabedin/snowlightv2-sub000/player"
)

type rig struct {
	session *player.Session
	element *mock.MediaElement
	ctrl    *player.Controller
}

func newRig(t *testing.T, surface model.Surface, opts ...player.Option) *rig {
	t.Helper()
	r := &rig{session: player.NewSession(), element: &mock.MediaElement{}}
	opts = append([]player.Option{player.WithRandom(rand.New(rand.NewSource(7)))}, opts...)
	r.ctrl = player.NewController(r.session, r.element, surface, opts...)
	t.Cleanup(r.ctrl.Close)
	r.element.Calls()
	return r
}

// playing starts queue at index i and confirms playback from the element.
func (r *rig) playing(t *testing.T, i int, queue ...model.Track) {
	t.Helper()
	r.session.PlayTrackWithQueue(queue[i], queue)
	r.element.Emit(player.Event{Type: player.EventPlaying})
	r.element.Calls()
	if !r.ctrl.State().IsPlaying {
		t.Fatal("expected playing state")
	}
}

func (r *rig) current(t *testing.T) string {
	t.Helper()
	st := r.session.State()
	if st.CurrentTrack == nil {
		return ""
	}
	return st.CurrentTrack.ID
}

func expectCalls(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("calls = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("calls = %q, want %q", got, want)
		}
	}
}

func TestController_NewAppliesInitialVolume(t *testing.T) {
	el := &mock.MediaElement{}
	c := player.NewController(player.NewSession(), el, model.SurfaceAudio, player.WithInitialVolume(0.4))
	defer c.Close()

	expectCalls(t, el.Calls(), "volume 0.4")
	st := c.State()
	if st.Volume != 0.4 || st.PreviousVolume != 0.4 || st.Phase != model.PhaseIdle || st.RepeatMode != model.RepeatOff {
		t.Fatalf("unexpected initial state: %+v", st)
	}
}

func TestController_AdoptsExistingSelectionWithoutPlaying(t *testing.T) {
	s := player.NewSession()
	s.PlayTrackWithQueue(track("b"), []model.Track{track("a"), track("b")})

	el := &mock.MediaElement{}
	c := player.NewController(s, el, model.SurfaceAudio)
	defer c.Close()

	expectCalls(t, el.Calls(), "volume 1", "load https://cdn.example/b.mp3")
	st := c.State()
	if st.Phase != model.PhaseLoaded || st.CurrentIndex != 1 || st.IsPlaying {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestController_SelectionLoadsAndPlays(t *testing.T) {
	r := newRig(t, model.SurfaceAudio)
	r.session.PlayTrackWithQueue(track("a"), []model.Track{track("a"), track("b")})

	expectCalls(t, r.element.Calls(), "load https://cdn.example/a.mp3", "play")
	st := r.ctrl.State()
	if st.IsPlaying {
		t.Fatal("playing flag must wait for the element")
	}
	if st.Phase != model.PhaseLoaded || st.CurrentTime != 0 {
		t.Fatalf("unexpected state: %+v", st)
	}

	r.element.Emit(player.Event{Type: player.EventLoadedMetadata, Duration: 184.5})
	if st := r.ctrl.State(); st.Phase != model.PhaseReady || st.Duration != 184.5 {
		t.Fatalf("unexpected state after metadata: %+v", st)
	}

	r.element.Emit(player.Event{Type: player.EventPlaying})
	if st := r.ctrl.State(); !st.IsPlaying || st.Phase != model.PhasePlaying {
		t.Fatalf("unexpected state after playing: %+v", st)
	}

	r.element.Emit(player.Event{Type: player.EventTimeUpdate, CurrentTime: 12.25})
	if st := r.ctrl.State(); st.CurrentTime != 12.25 {
		t.Fatalf("position not mirrored: %+v", st)
	}

	r.element.Emit(player.Event{Type: player.EventPause})
	if st := r.ctrl.State(); st.IsPlaying || st.Phase != model.PhasePaused {
		t.Fatalf("unexpected state after pause: %+v", st)
	}
}

func TestController_UnknownDurationFallsBackToZero(t *testing.T) {
	for _, d := range []float64{math.NaN(), math.Inf(1), -1} {
		r := newRig(t, model.SurfaceAudio)
		r.session.PlayTrack(track("a"))
		r.element.Emit(player.Event{Type: player.EventLoadedMetadata, Duration: d})
		if got := r.ctrl.State().Duration; got != 0 {
			t.Fatalf("duration %v: got %v, want 0", d, got)
		}
	}
}

func TestController_PlayRejectionLeavesTransportPaused(t *testing.T) {
	r := newRig(t, model.SurfaceAudio)
	r.element.PlayErr = errors.New("NotAllowedError")
	r.session.PlayTrack(track("a"))

	r.element.Emit(player.Event{Type: player.EventError, Src: "https://cdn.example/a.mp3", Err: errors.New("decode")})

	st := r.ctrl.State()
	if st.IsPlaying || st.Phase != model.PhaseLoaded {
		t.Fatalf("unexpected state after rejection: %+v", st)
	}
}

func TestController_ErrorAfterPlayEventLeavesTransportPaused(t *testing.T) {
	const src = "https://cdn.example/a.mp3"
	tests := []struct {
		name   string
		before []player.Event
		phase  model.Phase
	}{
		{name: "before metadata", before: []player.Event{{Type: player.EventPlay, Src: src}}, phase: model.PhaseLoaded},
		{name: "after metadata", before: []player.Event{
			{Type: player.EventLoadedMetadata, Src: src, Duration: 120},
			{Type: player.EventPlay, Src: src},
		}, phase: model.PhaseReady},
		{name: "after playing", before: []player.Event{
			{Type: player.EventLoadedMetadata, Src: src, Duration: 120},
			{Type: player.EventPlay, Src: src},
			{Type: player.EventPlaying, Src: src},
		}, phase: model.PhasePaused},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newRig(t, model.SurfaceAudio)
			r.session.PlayTrack(track("a"))
			for _, ev := range tc.before {
				r.element.Emit(ev)
			}
			if !r.ctrl.State().IsPlaying {
				t.Fatal("play event did not mark the transport playing")
			}

			r.element.Emit(player.Event{Type: player.EventError, Src: src, Err: errors.New("MEDIA_ERR_SRC_NOT_SUPPORTED")})

			st := r.ctrl.State()
			if st.IsPlaying || st.Phase != tc.phase {
				t.Fatalf("state after error = playing %v phase %s, want paused in %s", st.IsPlaying, st.Phase, tc.phase)
			}
		})
	}
}

func TestController_StaleEventsAreIgnored(t *testing.T) {
	r := newRig(t, model.SurfaceAudio)
	r.session.PlayTrackWithQueue(track("a"), []model.Track{track("a"), track("b")})
	r.session.PlayTrack(track("b"))

	r.element.Emit(player.Event{Type: player.EventPlaying, Src: "https://cdn.example/a.mp3"})
	r.element.Emit(player.Event{Type: player.EventLoadedMetadata, Src: "https://cdn.example/a.mp3", Duration: 99})

	st := r.ctrl.State()
	if st.IsPlaying || st.Duration != 0 {
		t.Fatalf("stale events changed state: %+v", st)
	}
}

func TestController_TogglePlay(t *testing.T) {
	r := newRig(t, model.SurfaceAudio)

	r.ctrl.TogglePlay()
	expectCalls(t, r.element.Calls())

	r.playing(t, 0, track("a"))
	r.ctrl.TogglePlay()
	expectCalls(t, r.element.Calls(), "pause")

	r.element.Emit(player.Event{Type: player.EventPause})
	r.ctrl.TogglePlay()
	expectCalls(t, r.element.Calls(), "play")
}

func TestController_SeekMirrorsImmediately(t *testing.T) {
	r := newRig(t, model.SurfaceAudio)
	r.playing(t, 0, track("a"))

	r.ctrl.SeekTo(42)
	expectCalls(t, r.element.Calls(), "seek 42")
	if got := r.ctrl.State().CurrentTime; got != 42 {
		t.Fatalf("CurrentTime = %v, want 42", got)
	}
}

func TestController_NextWrapsToFirst(t *testing.T) {
	r := newRig(t, model.SurfaceAudio)
	r.playing(t, 2, track("a"), track("b"), track("c"))
	if idx := r.ctrl.State().CurrentIndex; idx != 2 {
		t.Fatalf("CurrentIndex = %d, want 2", idx)
	}

	r.ctrl.Next()
	if got := r.current(t); got != "a" {
		t.Fatalf("current = %s, want a", got)
	}
	if idx := r.ctrl.State().CurrentIndex; idx != 0 {
		t.Fatalf("CurrentIndex = %d, want 0", idx)
	}
	expectCalls(t, r.element.Calls(), "load https://cdn.example/a.mp3", "play")
}

func TestController_PreviousWrapsToLast(t *testing.T) {
	r := newRig(t, model.SurfaceAudio)
	r.playing(t, 0, track("a"), track("b"), track("c"))
	r.element.SetPosition(3)

	r.ctrl.Previous()
	if got := r.current(t); got != "c" {
		t.Fatalf("current = %s, want c", got)
	}
	if idx := r.ctrl.State().CurrentIndex; idx != 2 {
		t.Fatalf("CurrentIndex = %d, want 2", idx)
	}
}

// Strictly more than the threshold restarts; see the Previous decision in
// DESIGN.md before changing these positions.
func TestController_PreviousRestartThreshold(t *testing.T) {
	tests := []struct {
		name     string
		position float64
		current  string
		calls    []string
	}{
		{name: "past threshold restarts", position: 3.5, current: "b", calls: []string{"seek 0"}},
		{name: "at threshold navigates", position: 3.0, current: "a", calls: []string{"load https://cdn.example/a.mp3", "play"}},
		{name: "within threshold navigates", position: 2.9, current: "a", calls: []string{"load https://cdn.example/a.mp3", "play"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newRig(t, model.SurfaceAudio)
			r.playing(t, 1, track("a"), track("b"), track("c"))
			r.element.SetPosition(tc.position)

			r.ctrl.Previous()
			if got := r.current(t); got != tc.current {
				t.Fatalf("current = %s, want %s", got, tc.current)
			}
			expectCalls(t, r.element.Calls(), tc.calls...)
		})
	}
}

func TestController_RepeatOneLoops(t *testing.T) {
	r := newRig(t, model.SurfaceAudio)
	r.playing(t, 1, track("a"), track("b"), track("c"))
	r.ctrl.ToggleRepeat()
	r.element.Emit(player.Event{Type: player.EventTimeUpdate, CurrentTime: 200})

	r.element.Emit(player.Event{Type: player.EventEnded})

	if got := r.current(t); got != "b" {
		t.Fatalf("current = %s, want b", got)
	}
	expectCalls(t, r.element.Calls(), "seek 0", "play")
	if st := r.ctrl.State(); st.CurrentTime != 0 || !st.IsPlaying {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestController_RepeatOffStopsAtEnd(t *testing.T) {
	r := newRig(t, model.SurfaceAudio)
	r.playing(t, 2, track("a"), track("b"), track("c"))

	r.element.Emit(player.Event{Type: player.EventEnded})

	if got := r.current(t); got != "c" {
		t.Fatalf("current = %s, want c", got)
	}
	st := r.ctrl.State()
	if st.IsPlaying || st.Phase != model.PhaseEnded {
		t.Fatalf("unexpected state: %+v", st)
	}
	expectCalls(t, r.element.Calls())
}

func TestController_EndedAdvances(t *testing.T) {
	tests := []struct {
		name    string
		repeat  int // ToggleRepeat calls
		start   int
		current string
	}{
		{name: "off mid queue", repeat: 0, start: 0, current: "b"},
		{name: "all mid queue", repeat: 2, start: 1, current: "c"},
		{name: "all at end wraps", repeat: 2, start: 2, current: "a"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newRig(t, model.SurfaceAudio)
			r.playing(t, tc.start, track("a"), track("b"), track("c"))
			for i := 0; i < tc.repeat; i++ {
				r.ctrl.ToggleRepeat()
			}

			r.element.Emit(player.Event{Type: player.EventEnded})
			if got := r.current(t); got != tc.current {
				t.Fatalf("current = %s, want %s", got, tc.current)
			}
		})
	}
}

func TestController_RepeatAllSingleTrackRestarts(t *testing.T) {
	r := newRig(t, model.SurfaceAudio)
	r.playing(t, 0, track("a"))
	r.ctrl.ToggleRepeat()
	r.ctrl.ToggleRepeat()

	r.element.Emit(player.Event{Type: player.EventEnded})
	expectCalls(t, r.element.Calls(), "seek 0", "play")
}

func TestController_MuteRoundTrip(t *testing.T) {
	r := newRig(t, model.SurfaceAudio)
	r.ctrl.SetVolume(0.7)

	r.ctrl.ToggleMute()
	if st := r.ctrl.State(); st.Volume != 0 || !st.IsMuted {
		t.Fatalf("after mute: %+v", st)
	}
	if r.element.Volume() != 0 {
		t.Fatalf("element volume = %v, want 0", r.element.Volume())
	}

	r.ctrl.ToggleMute()
	if st := r.ctrl.State(); st.Volume != 0.7 || st.IsMuted {
		t.Fatalf("after unmute: %+v", st)
	}
	if r.element.Volume() != 0.7 {
		t.Fatalf("element volume = %v, want 0.7", r.element.Volume())
	}
}

func TestController_SetVolume(t *testing.T) {
	r := newRig(t, model.SurfaceAudio)

	r.ctrl.SetVolume(1.8)
	if got := r.ctrl.State().Volume; got != 1 {
		t.Fatalf("volume = %v, want 1", got)
	}
	r.ctrl.SetVolume(-0.3)
	if got := r.ctrl.State().Volume; got != 0 {
		t.Fatalf("volume = %v, want 0", got)
	}

	r.ctrl.SetVolume(0.5)
	r.ctrl.ToggleMute()
	r.ctrl.SetVolume(0.2)
	if st := r.ctrl.State(); st.IsMuted || st.Volume != 0.2 {
		t.Fatalf("positive volume should unmute: %+v", st)
	}

	r.ctrl.ToggleMute()
	r.ctrl.SetVolume(0)
	if !r.ctrl.State().IsMuted {
		t.Fatal("zero volume should keep mute")
	}
}

func TestController_RepeatCycle(t *testing.T) {
	r := newRig(t, model.SurfaceAudio)
	want := []model.RepeatMode{model.RepeatOne, model.RepeatAll, model.RepeatOff, model.RepeatOne}
	for i, mode := range want {
		r.ctrl.ToggleRepeat()
		if got := r.ctrl.State().RepeatMode; got != mode {
			t.Fatalf("step %d: repeat = %s, want %s", i, got, mode)
		}
	}
}

func TestController_WithRepeatMode(t *testing.T) {
	tests := map[string]model.RepeatMode{"one": model.RepeatOne, "all": model.RepeatAll, "off": model.RepeatOff, "loop": model.RepeatOff}
	for name, want := range tests {
		r := newRig(t, model.SurfaceAudio, player.WithRepeatMode(model.ParseRepeatMode(name)))
		if got := r.ctrl.State().RepeatMode; got != want {
			t.Errorf("repeat %q = %s, want %s", name, got, want)
		}
	}
}

func TestController_ShuffleNeverReordersQueue(t *testing.T) {
	r := newRig(t, model.SurfaceAudio)
	queue := []model.Track{track("a"), track("b"), track("c"), track("d")}
	r.playing(t, 0, queue...)
	want := ids(queue)

	r.ctrl.ToggleShuffle()
	if !r.ctrl.State().IsShuffled {
		t.Fatal("shuffle flag not set")
	}
	for i := 0; i < 50; i++ {
		if i == 25 {
			r.ctrl.ToggleShuffle()
		}
		r.ctrl.Next()
		if got := ids(r.session.State().Queue); !equalIDs(got, want) {
			t.Fatalf("queue reordered after %d calls: %v", i+1, got)
		}
		cur := r.current(t)
		if idx := r.ctrl.State().CurrentIndex; want[idx] != cur {
			t.Fatalf("CurrentIndex %d does not match current track %s", idx, cur)
		}
	}
}

func TestController_NextOnEmptyQueueIsNoop(t *testing.T) {
	r := newRig(t, model.SurfaceAudio)
	r.ctrl.Next()
	r.ctrl.Previous()

	expectCalls(t, r.element.Calls())
	if r.session.State().CurrentTrack != nil {
		t.Fatal("nothing should be selected")
	}
}

func TestController_RemovedCurrentTrackKeepsIndex(t *testing.T) {
	r := newRig(t, model.SurfaceAudio)
	r.playing(t, 1, track("a"), track("b"), track("c"), track("d"))

	r.session.RemoveFromQueue("b")
	if idx := r.ctrl.State().CurrentIndex; idx != 1 {
		t.Fatalf("CurrentIndex = %d, want stale 1", idx)
	}
	expectCalls(t, r.element.Calls())

	r.ctrl.Next()
	if got := r.current(t); got != "d" {
		t.Fatalf("current = %s, want d", got)
	}
}

func TestController_ClearQueueStopsAudio(t *testing.T) {
	r := newRig(t, model.SurfaceAudio)
	r.playing(t, 0, track("a"), track("b"))

	r.session.ClearQueue()
	expectCalls(t, r.element.Calls(), "pause")
	st := r.ctrl.State()
	if st.IsPlaying || st.Phase != model.PhaseIdle {
		t.Fatalf("unexpected state: %+v", st)
	}

	r.ctrl.TogglePlay()
	expectCalls(t, r.element.Calls())
}

func TestController_ReselectRestarts(t *testing.T) {
	r := newRig(t, model.SurfaceAudio)
	r.playing(t, 0, track("a"), track("b"))

	r.session.PlayTrack(track("a"))
	expectCalls(t, r.element.Calls(), "seek 0", "play")
}

func TestController_VideoTakesOverFromAudio(t *testing.T) {
	session := player.NewSession()
	audioEl, videoEl := &mock.MediaElement{}, &mock.MediaElement{}
	audio := player.NewController(session, audioEl, model.SurfaceAudio)
	video := player.NewController(session, videoEl, model.SurfaceVideo)
	defer audio.Close()
	defer video.Close()
	audioEl.Calls()
	videoEl.Calls()

	session.PlayTrack(track("a"))
	audioEl.Emit(player.Event{Type: player.EventPlaying})
	expectCalls(t, videoEl.Calls())
	audioEl.Calls()

	session.PlayVideo(model.Video{ID: "mv", VideoURL: "https://cdn.example/mv.mp4"})
	expectCalls(t, audioEl.Calls(), "pause")
	expectCalls(t, videoEl.Calls(), "load https://cdn.example/mv.mp4", "play")

	video.Next()
	expectCalls(t, videoEl.Calls())

	videoEl.Emit(player.Event{Type: player.EventPlaying})
	videoEl.Emit(player.Event{Type: player.EventEnded})
	if st := video.State(); st.IsPlaying || st.Phase != model.PhaseEnded {
		t.Fatalf("video should stop at end: %+v", st)
	}
}

func TestController_CloseReleasesSubscriptions(t *testing.T) {
	session := player.NewSession()
	el := &mock.MediaElement{}
	c := player.NewController(session, el, model.SurfaceAudio)
	if el.Listeners() != 1 {
		t.Fatalf("listeners = %d, want 1", el.Listeners())
	}

	c.Close()
	c.Close()
	el.Calls()

	if el.Listeners() != 0 {
		t.Fatalf("listeners = %d, want 0", el.Listeners())
	}
	session.PlayTrack(track("a"))
	expectCalls(t, el.Calls())
}

func TestController_SubscribePublishesState(t *testing.T) {
	r := newRig(t, model.SurfaceAudio)
	var last player.TransportState
	n := 0
	unsub := r.ctrl.Subscribe(func(st player.TransportState) {
		last = st
		n++
	})
	defer unsub()

	r.ctrl.ToggleShuffle()
	if n != 1 || !last.IsShuffled {
		t.Fatalf("n=%d last=%+v", n, last)
	}
}
