package domain

import (
	"errors"
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestHeaderRoundTrip(t *testing.T) {
	original := &Header{
		Version:   1,
		SessionID: [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		Seq:       100,
		Length:    256,
		Timestamp: 1234567890,
	}

	encoded := original.Encode()
	if len(encoded) != HeaderSize {
		t.Errorf("encoded size = %d, want %d", len(encoded), HeaderSize)
	}

	decoded, err := ParseHeader(encoded)
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}
	if *decoded != *original {
		t.Errorf("decoded = %+v, want %+v", decoded, original)
	}
}

func TestParseHeader_TooShort(t *testing.T) {
	if _, err := ParseHeader(make([]byte, HeaderSize-1)); !errors.Is(err, ErrInvalidHeaderSize) {
		t.Errorf("expected ErrInvalidHeaderSize, got %v", err)
	}
}

func TestParseFrame_RejectsUnknownVersion(t *testing.T) {
	msg := EncodePingMessage(NewSessionID())
	msg[0] = ProtocolVersion + 1

	if _, err := ParseFrame(msg); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestParseFrame_MissingPayloadHeader(t *testing.T) {
	h := Header{Version: ProtocolVersion}
	if _, err := ParseFrame(h.Encode()); !errors.Is(err, ErrInvalidPayloadSize) {
		t.Errorf("expected ErrInvalidPayloadSize, got %v", err)
	}
}

func TestEncodeMessage_Layout(t *testing.T) {
	sid := NewSessionID()
	payload := []byte{9, 8, 7}

	msg := EncodeMessage(sid, 42, DataTypeZone, uint8(ZoneSubTypeExit), payload)

	frame, err := ParseFrame(msg)
	if err != nil {
		t.Fatalf("ParseFrame failed: %v", err)
	}
	if frame.Header.SessionID != sid.Bytes() {
		t.Errorf("SessionID mismatch")
	}
	if frame.Header.Seq != 42 {
		t.Errorf("Seq = %d, want 42", frame.Header.Seq)
	}
	if int(frame.Header.Length) != PayloadHeaderSize+len(payload) {
		t.Errorf("Length = %d, want %d", frame.Header.Length, PayloadHeaderSize+len(payload))
	}
	if frame.PayloadHeader.DataType != DataTypeZone || frame.PayloadHeader.SubType != uint8(ZoneSubTypeExit) {
		t.Errorf("payload header = %+v", frame.PayloadHeader)
	}
	if string(frame.Payload) != string(payload) {
		t.Errorf("Payload = %v, want %v", frame.Payload, payload)
	}
}

func TestControlMessages(t *testing.T) {
	sid := NewSessionID()
	roomID := NewRoomID()

	tests := []struct {
		name    string
		msg     []byte
		subType ControlSubType
	}{
		{"assign", EncodeAssignMessage(sid), ControlSubTypeAssign},
		{"join", EncodeJoinMessage(sid, roomID), ControlSubTypeJoin},
		{"leave", EncodeLeaveMessage(sid), ControlSubTypeLeave},
		{"ping", EncodePingMessage(sid), ControlSubTypePing},
		{"pong", EncodePongMessage(sid), ControlSubTypePong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := ParseFrame(tt.msg)
			if err != nil {
				t.Fatalf("ParseFrame failed: %v", err)
			}
			if frame.PayloadHeader.DataType != DataTypeControl {
				t.Errorf("DataType = %d, want %d", frame.PayloadHeader.DataType, DataTypeControl)
			}
			if ControlSubType(frame.PayloadHeader.SubType) != tt.subType {
				t.Errorf("SubType = %d, want %d", frame.PayloadHeader.SubType, tt.subType)
			}
		})
	}

	frame, _ := ParseFrame(EncodeJoinMessage(sid, roomID))
	join, err := ParseJoinPayload(frame.Payload)
	if err != nil {
		t.Fatalf("ParseJoinPayload failed: %v", err)
	}
	if join.RoomID != roomID {
		t.Errorf("RoomID = %s, want %s", join.RoomID, roomID)
	}
}

func TestPositionRoundTrip(t *testing.T) {
	original := &Position{
		X: 1.5, Y: 2.5, Z: 3.5,
		QX: 0.1, QY: 0.2, QZ: 0.3, QW: 0.9,
	}

	encoded := original.Encode()
	if len(encoded) != PositionSize {
		t.Errorf("encoded size = %d, want %d", len(encoded), PositionSize)
	}

	decoded, err := ParsePosition(encoded)
	if err != nil {
		t.Fatalf("ParsePosition failed: %v", err)
	}
	if *decoded != *original {
		t.Errorf("decoded = %+v, want %+v", decoded, original)
	}
}

func TestZoneShapePayloadRoundTrip(t *testing.T) {
	original := &ZoneShapePayload{
		ZoneID:   7,
		Kind:     3,
		Gradient: true,
		Center:   [3]float32{1, -2, 3},
		Rotation: [4]float32{0, 0.7071068, 0, 0.7071068},
		Extents:  [3]float32{0.5, 2, 0},
		Rate:     -10,
	}

	encoded := original.Encode()
	if len(encoded) != ZoneShapePayloadSize {
		t.Fatalf("encoded size = %d, want %d", len(encoded), ZoneShapePayloadSize)
	}
	decoded, err := ParseZoneShapePayload(encoded)
	if err != nil {
		t.Fatalf("ParseZoneShapePayload failed: %v", err)
	}
	if *decoded != *original {
		t.Errorf("decoded = %+v, want %+v", decoded, original)
	}
}

func TestPayloadParse_InvalidSizes(t *testing.T) {
	short := []byte{0x01, 0x02, 0x03}

	tests := []struct {
		name  string
		parse func([]byte) error
		want  error
	}{
		{"position", func(b []byte) error { _, err := ParsePosition(b); return err }, ErrInvalidPositionSize},
		{"zone relay", func(b []byte) error { _, err := ParseZoneRelayPayload(b); return err }, ErrInvalidZoneRelaySize},
		{"stability", func(b []byte) error { _, err := ParseStabilityPayload(b); return err }, ErrInvalidStabilitySize},
		{"timeline", func(b []byte) error { _, err := ParseTimelinePayload(b); return err }, ErrInvalidTimelineSize},
		{"zone shape", func(b []byte) error { _, err := ParseZoneShapePayload(b); return err }, ErrInvalidZoneShapeSize},
		{"entity", func(b []byte) error { _, err := ParseEntityPayload(b); return err }, ErrInvalidEntityPayloadSize},
		{"reset", func(b []byte) error { _, err := ParseResetStabilityRequest(b); return err }, ErrInvalidResetStabilitySize},
		{"join", func(b []byte) error { _, err := ParseJoinPayload(b); return err }, ErrInvalidJoinPayloadSize},
		{"resize", func(b []byte) error { _, err := ParseResizeZoneRequest(b); return err }, ErrInvalidResizeZoneSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.parse(short); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// 数値ペイロードは任意の値で往復しても同一になる
func TestNumericPayloads_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var id [16]byte
		copy(id[:], rapid.SliceOfN(rapid.Byte(), 16, 16).Draw(t, "id"))

		stability := StabilityPayload{
			EntityID: id,
			Previous: rapid.Float64().Draw(t, "prev"),
			Next:     rapid.Float64().Draw(t, "next"),
			Max:      rapid.Float64().Draw(t, "max"),
			Critical: rapid.Float64().Draw(t, "critical"),
		}
		gotStability, err := ParseStabilityPayload(stability.Encode())
		if err != nil {
			t.Fatalf("ParseStabilityPayload failed: %v", err)
		}
		if !sameFloat(gotStability.Previous, stability.Previous) ||
			!sameFloat(gotStability.Next, stability.Next) ||
			!sameFloat(gotStability.Max, stability.Max) ||
			!sameFloat(gotStability.Critical, stability.Critical) ||
			gotStability.EntityID != id {
			t.Fatalf("stability = %+v, want %+v", gotStability, stability)
		}

		relay := ZoneRelayPayload{ZoneID: rapid.Uint16().Draw(t, "zone"), EntityID: id}
		gotRelay, err := ParseZoneRelayPayload(relay.Encode())
		if err != nil {
			t.Fatalf("ParseZoneRelayPayload failed: %v", err)
		}
		if *gotRelay != relay {
			t.Fatalf("relay = %+v, want %+v", gotRelay, relay)
		}

		timeline := TimelinePayload{EntityID: id, State: rapid.Uint8Range(0, 2).Draw(t, "state")}
		gotTimeline, err := ParseTimelinePayload(timeline.Encode())
		if err != nil {
			t.Fatalf("ParseTimelinePayload failed: %v", err)
		}
		if *gotTimeline != timeline {
			t.Fatalf("timeline = %+v, want %+v", gotTimeline, timeline)
		}

		reset := ResetStabilityRequest{EntityID: id, Value: rapid.Float64().Draw(t, "value")}
		gotReset, err := ParseResetStabilityRequest(reset.Encode())
		if err != nil {
			t.Fatalf("ParseResetStabilityRequest failed: %v", err)
		}
		if !sameFloat(gotReset.Value, reset.Value) || gotReset.EntityID != id {
			t.Fatalf("reset = %+v, want %+v", gotReset, reset)
		}
	})
}

func sameFloat(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b)
}
