package player_test

import (
	"testing"

	"github.com/zoynulabedin/snowlightv2-sub000/model"
	"github.com/zoynulabedin/snowlightv2-sub000/player"
)

func track(id string) model.Track {
	return model.Track{ID: id, Title: "Title " + id, Artist: "Artist", AudioURL: "https://cdn.example/" + id + ".mp3"}
}

func ids(tracks []model.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSession_PlayTrackSeedsEmptyQueue(t *testing.T) {
	s := player.NewSession()
	s.PlayTrack(track("a"))

	st := s.State()
	if st.CurrentTrack == nil || st.CurrentTrack.ID != "a" {
		t.Fatalf("unexpected current track: %+v", st.CurrentTrack)
	}
	if got := ids(st.Queue); !equalIDs(got, []string{"a"}) {
		t.Fatalf("unexpected queue: %v", got)
	}
	if !st.AudioVisible || st.VideoVisible {
		t.Fatalf("unexpected visibility: audio=%v video=%v", st.AudioVisible, st.VideoVisible)
	}
}

func TestSession_PlayTrackKeepsExistingQueue(t *testing.T) {
	s := player.NewSession()
	s.PlayTrackWithQueue(track("a"), []model.Track{track("a"), track("b")})
	s.PlayTrack(track("z"))

	st := s.State()
	if st.CurrentTrack.ID != "z" {
		t.Fatalf("expected current track z, got %s", st.CurrentTrack.ID)
	}
	if got := ids(st.Queue); !equalIDs(got, []string{"a", "b"}) {
		t.Fatalf("queue changed: %v", got)
	}
}

func TestSession_PlayTrackWithQueueReplacesQueue(t *testing.T) {
	s := player.NewSession()
	s.PlayTrackWithQueue(track("a"), []model.Track{track("a"), track("b")})
	s.PlayTrackWithQueue(track("c"), []model.Track{track("d"), track("c")})

	if got := ids(s.State().Queue); !equalIDs(got, []string{"d", "c"}) {
		t.Fatalf("unexpected queue: %v", got)
	}
}

func TestSession_AddToQueueDedup(t *testing.T) {
	s := player.NewSession()
	s.AddToQueue(track("a"))
	s.AddToQueue(track("b"))

	dup := track("a")
	dup.Title = "different metadata, same id"
	s.AddToQueue(dup)

	st := s.State()
	if got := ids(st.Queue); !equalIDs(got, []string{"a", "b"}) {
		t.Fatalf("unexpected queue: %v", got)
	}
	if st.Queue[0].Title != "Title a" {
		t.Fatalf("existing entry replaced: %+v", st.Queue[0])
	}
}

func TestSession_RemoveFromQueueKeepsCurrentTrack(t *testing.T) {
	s := player.NewSession()
	s.PlayTrackWithQueue(track("b"), []model.Track{track("a"), track("b"), track("c")})
	s.RemoveFromQueue("b")

	st := s.State()
	if got := ids(st.Queue); !equalIDs(got, []string{"a", "c"}) {
		t.Fatalf("unexpected queue: %v", got)
	}
	if st.CurrentTrack == nil || st.CurrentTrack.ID != "b" {
		t.Fatalf("current track should survive removal, got %+v", st.CurrentTrack)
	}
}

func TestSession_ClearQueue(t *testing.T) {
	s := player.NewSession()
	s.PlayVideo(model.Video{ID: "v1", VideoURL: "https://cdn.example/v1.mp4"})
	s.PlayTrackWithQueue(track("a"), []model.Track{track("a"), track("b")})
	s.PlayVideo(model.Video{ID: "v2", VideoURL: "https://cdn.example/v2.mp4"})
	s.ClearQueue()

	st := s.State()
	if st.CurrentTrack != nil {
		t.Fatalf("expected no current track, got %+v", st.CurrentTrack)
	}
	if len(st.Queue) != 0 {
		t.Fatalf("expected empty queue, got %v", ids(st.Queue))
	}
	if st.AudioVisible {
		t.Fatal("audio surface should be hidden")
	}
	if st.CurrentVideo == nil || st.CurrentVideo.ID != "v2" || !st.VideoVisible {
		t.Fatalf("video state should be untouched: %+v visible=%v", st.CurrentVideo, st.VideoVisible)
	}
}

func TestSession_SurfacesAreExclusive(t *testing.T) {
	s := player.NewSession()
	s.PlayTrack(track("a"))
	s.PlayVideo(model.Video{ID: "v"})

	st := s.State()
	if st.AudioVisible || !st.VideoVisible {
		t.Fatalf("after PlayVideo: audio=%v video=%v", st.AudioVisible, st.VideoVisible)
	}
	if st.CurrentTrack == nil {
		t.Fatal("PlayVideo should not drop the audio selection")
	}

	s.PlayTrack(track("a"))
	st = s.State()
	if !st.AudioVisible || st.VideoVisible {
		t.Fatalf("after PlayTrack: audio=%v video=%v", st.AudioVisible, st.VideoVisible)
	}
}

func TestSession_CloseKeepsSelection(t *testing.T) {
	s := player.NewSession()
	s.PlayTrack(track("a"))
	s.CloseAudio()
	s.PlayVideo(model.Video{ID: "v"})
	s.CloseVideo()

	st := s.State()
	if st.AudioVisible || st.VideoVisible {
		t.Fatalf("surfaces should be hidden: audio=%v video=%v", st.AudioVisible, st.VideoVisible)
	}
	if st.CurrentTrack == nil || st.CurrentVideo == nil || len(st.Queue) != 1 {
		t.Fatalf("selection should be kept: %+v", st)
	}
}

func TestSession_StateIsSnapshot(t *testing.T) {
	s := player.NewSession()
	s.PlayTrackWithQueue(track("a"), []model.Track{track("a"), track("b")})

	st := s.State()
	st.Queue[0].ID = "mutated"
	st.CurrentTrack.ID = "mutated"

	again := s.State()
	if again.Queue[0].ID != "a" || again.CurrentTrack.ID != "a" {
		t.Fatalf("snapshot aliases session state: %+v", again)
	}
}

func TestSession_SubscribeAndRelease(t *testing.T) {
	s := player.NewSession()
	var seen []int
	unsub := s.Subscribe(func(st player.SessionState) {
		seen = append(seen, len(st.Queue))
	})

	s.AddToQueue(track("a"))
	s.AddToQueue(track("a")) // no-op, no notification
	s.AddToQueue(track("b"))
	unsub()
	unsub()
	s.AddToQueue(track("c"))

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("unexpected notifications: %v", seen)
	}
}

func TestSession_Restore(t *testing.T) {
	s := player.NewSession()
	a := track("a")
	s.Restore(player.SessionState{
		CurrentTrack: &a,
		Queue:        []model.Track{track("a"), track("b")},
		AudioVisible: true,
	})

	st := s.State()
	if st.CurrentTrack.ID != "a" || !equalIDs(ids(st.Queue), []string{"a", "b"}) || !st.AudioVisible {
		t.Fatalf("unexpected restored state: %+v", st)
	}
}
