//go:build (linux && cgo) || windows || darwin

package media

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/zoynulabedin/snowlightv2-sub000/player"
)

// AudioAvailable indicates whether audio playback is supported in this build.
const AudioAvailable = true

const tickInterval = 250 * time.Millisecond

var _ player.MediaElement = &BeepElement{}

var (
	speakerOnce sync.Once
	speakerErr  error
	speakerRate = beep.SampleRate(44100)
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(speakerRate, speakerRate.N(time.Second/10))
	})
	return speakerErr
}

// BeepElement plays local files on the default audio device.
type BeepElement struct {
	*eventQueue

	mu       sync.Mutex
	src      string
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	vol      *effects.Volume
	level    float64
	ended    bool
	gen      uint64 // bumped per load so callbacks of an old stream are ignored
	stopTick chan struct{}
}

// NewBeepElement creates an element. Close releases it.
func NewBeepElement() *BeepElement {
	return &BeepElement{eventQueue: newEventQueue(), level: 1}
}

func decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		s, format, err = mp3.Decode(f)
	case ".flac":
		s, format, err = flac.Decode(f)
	case ".wav":
		s, format, err = wav.Decode(f)
	case ".ogg":
		s, format, err = vorbis.Decode(f)
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, err
	}
	return s, format, nil
}

func (e *BeepElement) Load(src string) error {
	e.mu.Lock()
	e.releaseLocked()
	e.gen++
	e.src = src
	gen := e.gen

	streamer, format, err := decode(src)
	if err != nil {
		e.mu.Unlock()
		e.post(player.Event{Type: player.EventError, Src: src, Err: err})
		return fmt.Errorf("failed to decode %s: %w", src, err)
	}
	if err := initSpeaker(); err != nil {
		streamer.Close()
		e.mu.Unlock()
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	e.streamer = streamer
	e.format = format
	e.queueLocked(gen)
	duration := format.SampleRate.D(streamer.Len()).Seconds()
	e.mu.Unlock()

	e.post(player.Event{Type: player.EventLoadedMetadata, Src: src, Duration: duration})
	return nil
}

// queueLocked builds a paused chain over the stream and hands it to the
// speaker, followed by the end callback.
func (e *BeepElement) queueLocked(gen uint64) {
	e.ended = false
	e.ctrl = &beep.Ctrl{Streamer: beep.Resample(4, e.format.SampleRate, speakerRate, e.streamer), Paused: true}
	e.vol = &effects.Volume{Streamer: e.ctrl, Base: 2}
	e.applyLevelLocked()
	speaker.Play(beep.Seq(e.vol, beep.Callback(func() {
		// Runs on the speaker goroutine with the speaker lock held.
		go e.finished(gen)
	})))
}

func (e *BeepElement) finished(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || e.streamer == nil {
		e.mu.Unlock()
		return
	}
	e.ended = true
	e.stopTickerLocked()
	src := e.src
	e.mu.Unlock()

	e.post(player.Event{Type: player.EventPause, Src: src})
	e.post(player.Event{Type: player.EventEnded, Src: src})
}

func (e *BeepElement) Play() error {
	e.mu.Lock()
	if e.streamer == nil {
		e.mu.Unlock()
		return player.ErrNoSource
	}
	if e.ended {
		speaker.Lock()
		if e.streamer.Position() >= e.streamer.Len() {
			_ = e.streamer.Seek(0)
		}
		speaker.Unlock()
		e.queueLocked(e.gen)
	}
	speaker.Lock()
	e.ctrl.Paused = false
	speaker.Unlock()
	e.startTickerLocked()
	src := e.src
	e.mu.Unlock()

	e.post(player.Event{Type: player.EventPlay, Src: src})
	e.post(player.Event{Type: player.EventPlaying, Src: src})
	return nil
}

func (e *BeepElement) Pause() error {
	e.mu.Lock()
	if e.ctrl == nil || e.ended {
		e.mu.Unlock()
		return nil
	}
	speaker.Lock()
	wasPlaying := !e.ctrl.Paused
	e.ctrl.Paused = true
	speaker.Unlock()
	e.stopTickerLocked()
	src := e.src
	e.mu.Unlock()

	if wasPlaying {
		e.post(player.Event{Type: player.EventPause, Src: src})
	}
	return nil
}

func (e *BeepElement) Seek(seconds float64) error {
	e.mu.Lock()
	if e.streamer == nil {
		e.mu.Unlock()
		return nil
	}
	n := e.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if n < 0 {
		n = 0
	}
	if last := e.streamer.Len() - 1; n > last && last >= 0 {
		n = last
	}
	speaker.Lock()
	err := e.streamer.Seek(n)
	speaker.Unlock()
	pos := e.positionLocked()
	src := e.src
	e.mu.Unlock()

	if err != nil {
		return err
	}
	e.post(player.Event{Type: player.EventTimeUpdate, Src: src, CurrentTime: pos})
	return nil
}

func (e *BeepElement) SetVolume(v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.level = math.Max(0, math.Min(1, v))
	e.applyLevelLocked()
	return nil
}

// applyLevelLocked maps the linear level onto beep's base-2 gain.
func (e *BeepElement) applyLevelLocked() {
	if e.vol == nil {
		return
	}
	speaker.Lock()
	e.vol.Silent = e.level == 0
	if e.level > 0 {
		e.vol.Volume = math.Log2(e.level)
	}
	speaker.Unlock()
}

func (e *BeepElement) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked()
}

func (e *BeepElement) positionLocked() float64 {
	if e.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := e.streamer.Position()
	speaker.Unlock()
	return e.format.SampleRate.D(pos).Seconds()
}

func (e *BeepElement) startTickerLocked() {
	if e.stopTick != nil {
		return
	}
	stop := make(chan struct{})
	e.stopTick = stop
	go func() {
		t := time.NewTicker(tickInterval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				e.mu.Lock()
				pos := e.positionLocked()
				src := e.src
				e.mu.Unlock()
				e.post(player.Event{Type: player.EventTimeUpdate, Src: src, CurrentTime: pos})
			}
		}
	}()
}

func (e *BeepElement) stopTickerLocked() {
	if e.stopTick != nil {
		close(e.stopTick)
		e.stopTick = nil
	}
}

func (e *BeepElement) releaseLocked() {
	e.stopTickerLocked()
	if e.ctrl != nil {
		speaker.Lock()
		e.ctrl.Paused = true
		e.ctrl.Streamer = nil
		speaker.Unlock()
	}
	if e.streamer != nil {
		e.streamer.Close()
	}
	e.streamer = nil
	e.ctrl = nil
	e.vol = nil
}

// Close stops playback and the event goroutine.
func (e *BeepElement) Close() error {
	e.mu.Lock()
	e.gen++
	e.releaseLocked()
	e.mu.Unlock()
	e.eventQueue.close()
	return nil
}
