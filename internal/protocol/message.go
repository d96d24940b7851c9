// Package protocol implements the line-delimited JSON wire protocol spoken
// between the sketch server and its clients. A frame is one UTF-8 JSON object
// of the form {"type": <string>, "data": <object>} terminated by '\n'.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cast"
)

// Client-originated message types.
const (
	TypeConnect    = "connect"
	TypeCreateRoom = "create_room"
	TypeListRooms  = "list_rooms"
	TypeJoinRoom   = "join_room"
	TypeLeaveRoom  = "leave_room"
	TypeKickPlayer = "kick_player"
	TypeStartGame  = "start_game"
	TypeNextRound  = "next_round"
	TypeEndGame    = "end_game"
	TypeGetState   = "get_state"
	TypeDraw       = "draw"
	TypeGuess      = "guess"
	TypeChat       = "chat"
)

// Server-originated message types.
const (
	TypeAck        = "ack"
	TypeError      = "error"
	TypeEvent      = "event"
	TypeRoomUpdate = "room_update"
	TypeDrawSync   = "draw_sync"
)

// ErrMalformed reports a frame that is empty or not a valid protocol message.
// Callers drop such frames without terminating the connection.
var ErrMalformed = errors.New("malformed frame")

// Message is one wire frame. For decoded inbound frames Data is always a
// map[string]any (or nil); outbound constructors may place any JSON-encodable
// value in Data.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Encode serializes a message into a single newline-terminated frame.
//
// Postcondition: Returns a frame ending in '\n', or a non-nil error.
func Encode(msg Message) ([]byte, error) {
	if msg.Type == "" {
		return nil, fmt.Errorf("%w: empty type", ErrMalformed)
	}
	buf, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding %s message: %w", msg.Type, err)
	}
	return append(buf, '\n'), nil
}

// Decode parses one frame (with or without its trailing newline) into a
// Message. The payload is schemaless at this layer; field validation is the
// router's job.
//
// Postcondition: Returns a Message with a non-empty Type, or an error
// wrapping ErrMalformed.
func Decode(frame []byte) (Message, error) {
	frame = bytes.TrimRight(frame, "\r\n")
	if len(bytes.TrimSpace(frame)) == 0 {
		return Message{}, fmt.Errorf("%w: empty", ErrMalformed)
	}

	var raw struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(frame, &raw); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw.Type == "" {
		return Message{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	msg := Message{Type: raw.Type}
	if raw.Data != nil {
		msg.Data = raw.Data
	}
	return msg, nil
}

// DataMap returns the payload as a map, or an empty map when the payload is
// absent or not an object.
func (m Message) DataMap() map[string]any {
	if data, ok := m.Data.(map[string]any); ok {
		return data
	}
	return map[string]any{}
}

// Str extracts a string payload field, converting scalar values as needed.
// Missing fields yield the empty string.
func (m Message) Str(key string) string {
	v, ok := m.DataMap()[key]
	if !ok || v == nil {
		return ""
	}
	return cast.ToString(v)
}

// Ack builds a request acknowledgment. The event field names the operation
// being acknowledged; extra carries operation-specific fields and may be nil.
func Ack(event string, extra map[string]any) Message {
	data := map[string]any{"ok": true, "event": event}
	for k, v := range extra {
		data[k] = v
	}
	return Message{Type: TypeAck, Data: data}
}

// Error builds a business-rule violation reply.
func Error(msg string) Message {
	return Message{Type: TypeError, Data: map[string]any{"msg": msg}}
}

// Event builds an asynchronous notification of the given kind; extra may be nil.
func Event(kind string, extra map[string]any) Message {
	data := map[string]any{"type": kind}
	for k, v := range extra {
		data[k] = v
	}
	return Message{Type: TypeEvent, Data: data}
}

// RoomUpdate wraps a room's public view for broadcast to its members.
func RoomUpdate(view any) Message {
	return Message{Type: TypeRoomUpdate, Data: view}
}

// DrawSync wraps a drawing stroke payload for rebroadcast to other members.
func DrawSync(by string, strokes any) Message {
	return Message{Type: TypeDrawSync, Data: map[string]any{"by": by, "data": strokes}}
}

// Chat wraps a chat line for broadcast to all members including the sender.
func Chat(by, byName, text string) Message {
	return Message{Type: TypeChat, Data: map[string]any{
		"by":      by,
		"by_name": byName,
		"text":    text,
	}}
}
