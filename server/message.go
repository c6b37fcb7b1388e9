package server

import (
	"encoding/json"

	"github.com/zoynulabedin/snowlightv2-sub000/player"
)

// MessageType 消息类型
type MessageType string

const (
	MsgTypePing  MessageType = "ping"
	MsgTypePong  MessageType = "pong"
	MsgTypeError MessageType = "error"

	// Server -> tab: element commands.
	MsgTypeLoad   MessageType = "load"
	MsgTypePlay   MessageType = "play"
	MsgTypePause  MessageType = "pause"
	MsgTypeSeek   MessageType = "seek"
	MsgTypeVolume MessageType = "volume"

	// Server -> tab: state push after every session or transport change.
	MsgTypeState MessageType = "state"
)

// WSMessage WebSocket 消息结构
type WSMessage struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// CommandData is the payload of an element command.
type CommandData struct {
	Src    string   `json:"src,omitempty"`
	Time   *float64 `json:"time,omitempty"`
	Volume *float64 `json:"volume,omitempty"`
}

// EventData is the payload of an element event reported by the tab. The
// message type is the DOM event name.
type EventData struct {
	Src         string  `json:"src,omitempty"`
	Duration    float64 `json:"duration,omitempty"`
	CurrentTime float64 `json:"currentTime,omitempty"`
	Message     string  `json:"message,omitempty"`
}

// StateData is the payload of a state push.
type StateData struct {
	Session   player.SessionState   `json:"session"`
	Transport player.TransportState `json:"transport"`
}

var elementEvents = map[MessageType]player.EventType{
	"loadedmetadata": player.EventLoadedMetadata,
	"timeupdate":     player.EventTimeUpdate,
	"play":           player.EventPlay,
	"playing":        player.EventPlaying,
	"pause":          player.EventPause,
	"ended":          player.EventEnded,
	"error":          player.EventError,
}
