package model

// RepeatMode controls what happens when the current track ends.
type RepeatMode string

const (
	RepeatOff RepeatMode = "off"
	RepeatOne RepeatMode = "one" // loop the current track
	RepeatAll RepeatMode = "all" // continue through the queue, wrapping
)

// String returns the wire name of the mode.
func (m RepeatMode) String() string {
	if m == "" {
		return string(RepeatOff)
	}
	return string(m)
}

// Next returns the mode that follows m in the off -> one -> all cycle.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOne:
		return RepeatAll
	case RepeatAll:
		return RepeatOff
	default:
		return RepeatOne
	}
}

// ParseRepeatMode parses a wire name, falling back to RepeatOff.
func ParseRepeatMode(s string) RepeatMode {
	switch s {
	case "one":
		return RepeatOne
	case "all":
		return RepeatAll
	default:
		return RepeatOff
	}
}

// Surface identifies which media element a controller drives.
type Surface string

const (
	SurfaceAudio Surface = "audio"
	SurfaceVideo Surface = "video"
)

// ParseSurface validates a surface name taken from a URL or flag.
func ParseSurface(s string) (Surface, bool) {
	switch Surface(s) {
	case SurfaceAudio, SurfaceVideo:
		return Surface(s), true
	}
	return "", false
}

// Phase is the controller's position in the transport state machine.
type Phase string

const (
	PhaseIdle    Phase = "idle"    // nothing selected
	PhaseLoaded  Phase = "loaded"  // source assigned, metadata pending
	PhaseReady   Phase = "ready"   // duration known
	PhasePlaying Phase = "playing"
	PhasePaused  Phase = "paused"
	PhaseEnded   Phase = "ended"
)
