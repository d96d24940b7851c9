package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEncodeTerminatesFrame(t *testing.T) {
	frame, err := Encode(Message{Type: TypeChat, Data: map[string]any{"text": "hi"}})
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), frame[len(frame)-1])

	var obj map[string]any
	require.NoError(t, json.Unmarshal(frame, &obj))
	assert.Equal(t, "chat", obj["type"])
}

func TestEncodeEmptyType(t *testing.T) {
	_, err := Encode(Message{})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeValidFrame(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"join_room","data":{"room_id":"3"}}` + "\n"))
	require.NoError(t, err)
	assert.Equal(t, TypeJoinRoom, msg.Type)
	assert.Equal(t, "3", msg.Str("room_id"))
}

func TestDecodeWithoutNewline(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"list_rooms"}`))
	require.NoError(t, err)
	assert.Equal(t, TypeListRooms, msg.Type)
	assert.Empty(t, msg.DataMap())
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name  string
		frame string
	}{
		{"empty", ""},
		{"whitespace", "   \r\n"},
		{"not json", "hello world"},
		{"truncated", `{"type":"chat","data":`},
		{"missing type", `{"data":{"text":"x"}}`},
		{"array", `[1,2,3]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.frame))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestStrCoercesNumbers(t *testing.T) {
	// Clients are loose about scalar types; room ids arrive as numbers too.
	msg, err := Decode([]byte(`{"type":"join_room","data":{"room_id":1}}`))
	require.NoError(t, err)
	assert.Equal(t, "1", msg.Str("room_id"))
	assert.Equal(t, "", msg.Str("missing"))
}

func TestAckMergesFields(t *testing.T) {
	msg := Ack("create_room", map[string]any{"room_id": "1"})
	data := msg.DataMap()
	assert.Equal(t, TypeAck, msg.Type)
	assert.Equal(t, true, data["ok"])
	assert.Equal(t, "create_room", data["event"])
	assert.Equal(t, "1", data["room_id"])
}

func TestErrorReply(t *testing.T) {
	msg := Error("Room not found")
	assert.Equal(t, TypeError, msg.Type)
	assert.Equal(t, "Room not found", msg.Str("msg"))
}

func TestEventKind(t *testing.T) {
	msg := Event(TypeKickPlayer, map[string]any{"room_id": "2"})
	assert.Equal(t, TypeEvent, msg.Type)
	assert.Equal(t, "kick_player", msg.Str("type"))
	assert.Equal(t, "2", msg.Str("room_id"))
}

func TestChatPayload(t *testing.T) {
	msg := Chat("p1", "Alice", "hello")
	assert.Equal(t, "p1", msg.Str("by"))
	assert.Equal(t, "Alice", msg.Str("by_name"))
	assert.Equal(t, "hello", msg.Str("text"))
}

func TestDrawSyncPayload(t *testing.T) {
	strokes := map[string]any{"kind": "point", "x": 10, "y": 20}
	msg := DrawSync("p1", strokes)
	assert.Equal(t, TypeDrawSync, msg.Type)
	assert.Equal(t, "p1", msg.Str("by"))
}

func TestPropertyEncodeDecodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		typ := rapid.StringMatching(`[a-z_]{1,20}`).Draw(t, "type")
		key := rapid.StringMatching(`[a-z_]{1,10}`).Draw(t, "key")
		val := rapid.String().Draw(t, "val")

		frame, err := Encode(Message{Type: typ, Data: map[string]any{key: val}})
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		decoded, err := Decode(frame)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if decoded.Type != typ {
			t.Fatalf("type %q != %q", decoded.Type, typ)
		}
		if decoded.Str(key) != val {
			t.Fatalf("field %q: %q != %q", key, decoded.Str(key), val)
		}
	})
}
