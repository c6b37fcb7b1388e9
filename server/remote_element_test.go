package server

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/zoynulabedin/snowlightv2-sub000/model"
	"github.com/zoynulabedin/snowlightv2-sub000/player"
)

// drain returns the types of the messages queued on c.
func drain(t *testing.T, c *Client) []MessageType {
	t.Helper()
	var types []MessageType
	for {
		select {
		case raw, ok := <-c.Send:
			if !ok {
				return types
			}
			var msg WSMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				t.Fatal(err)
			}
			types = append(types, msg.Type)
		default:
			return types
		}
	}
}

func equalTypes(a, b []MessageType) bool {
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

func TestRemoteElement_PlayRequiresSourceAndTab(t *testing.T) {
	e := NewRemoteElement(model.SurfaceAudio)
	if err := e.Play(); !errors.Is(err, player.ErrNoSource) {
		t.Errorf("Play without source = %v, want ErrNoSource", err)
	}
	e.Load("a.mp3")
	if err := e.Play(); !errors.Is(err, ErrNotAttached) {
		t.Errorf("Play without tab = %v, want ErrNotAttached", err)
	}
}

func TestRemoteElement_AttachReplaysDesiredState(t *testing.T) {
	e := NewRemoteElement(model.SurfaceAudio)
	e.Load("a.mp3")
	e.Seek(42)
	e.SetVolume(0.5)

	c := NewClient(nil, "s1", model.SurfaceAudio)
	e.Attach(c)

	want := []MessageType{MsgTypeLoad, MsgTypeSeek, MsgTypeVolume}
	if got := drain(t, c); !equalTypes(got, want) {
		t.Errorf("replayed %v, want %v", got, want)
	}
	if e.CurrentTime() != 42 {
		t.Errorf("CurrentTime = %v, want 42", e.CurrentTime())
	}

	if err := e.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if got := drain(t, c); !equalTypes(got, []MessageType{MsgTypePlay}) {
		t.Errorf("sent %v, want play", got)
	}
}

func TestRemoteElement_NewTabReplacesOld(t *testing.T) {
	e := NewRemoteElement(model.SurfaceVideo)
	old := NewClient(nil, "s1", model.SurfaceVideo)
	e.Attach(old)
	drain(t, old)

	next := NewClient(nil, "s1", model.SurfaceVideo)
	e.Attach(next)
	if _, ok := <-old.Send; ok {
		t.Error("old tab's send channel still open")
	}

	// A late disconnect of the old tab must not detach the new one.
	e.Detach(old)
	if !e.Attached() {
		t.Error("stale detach removed the current tab")
	}
}

func TestRemoteElement_DetachEmitsPause(t *testing.T) {
	e := NewRemoteElement(model.SurfaceAudio)
	e.Load("a.mp3")
	c := NewClient(nil, "s1", model.SurfaceAudio)
	e.Attach(c)

	var got []player.Event
	e.Subscribe(func(ev player.Event) { got = append(got, ev) })

	e.Detach(c)
	if e.Attached() {
		t.Error("element still attached")
	}
	if len(got) != 1 || got[0].Type != player.EventPause || got[0].Src != "a.mp3" {
		t.Errorf("events = %+v, want one pause for a.mp3", got)
	}
}

func TestRemoteElement_HandleMessage(t *testing.T) {
	e := NewRemoteElement(model.SurfaceAudio)
	e.Load("a.mp3")

	var got []player.Event
	e.Subscribe(func(ev player.Event) { got = append(got, ev) })

	data, _ := json.Marshal(EventData{Src: "a.mp3", CurrentTime: 12.5})
	e.HandleMessage(&WSMessage{Type: "timeupdate", Data: data})
	data, _ = json.Marshal(EventData{Src: "a.mp3", Message: "decode failed"})
	e.HandleMessage(&WSMessage{Type: "error", Data: data})
	e.HandleMessage(&WSMessage{Type: "volumechange"})

	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Type != player.EventTimeUpdate || got[0].CurrentTime != 12.5 {
		t.Errorf("first event = %+v", got[0])
	}
	if got[1].Type != player.EventError || got[1].Err == nil || got[1].Err.Error() != "decode failed" {
		t.Errorf("second event = %+v", got[1])
	}
	if e.CurrentTime() != 12.5 {
		t.Errorf("CurrentTime = %v, want 12.5", e.CurrentTime())
	}
}
