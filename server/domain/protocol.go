package domain

import (
	"encoding/binary"
	"errors"
	"time"
)

// バイトオーダー: リトルエンディアン
var byteOrder = binary.LittleEndian

const (
	ProtocolVersion   = 1
	HeaderSize        = 25
	PayloadHeaderSize = 2
	JoinPayloadSize   = 16
)

// Header はメッセージヘッダー (25バイト)
//
//	version    u8      (1)
//	sessionID  [16]byte (16)
//	seq        u16     (2)
//	length     u16     (2)  - ペイロード長
//	timestamp  u32     (4)
type Header struct {
	Version   uint8
	SessionID [16]byte
	Seq       uint16
	Length    uint16
	Timestamp uint32
}

// DataType はメッセージの種別
type DataType uint8

const (
	DataTypeActor       DataType = 1 // client -> server: エンティティの位置
	DataTypeControl     DataType = 2
	DataTypeZone        DataType = 3 // client -> server: ゾーン侵入/退出のリレー
	DataTypeReplication DataType = 4 // server -> client: 権威側の値の複製
	DataTypeAdmin       DataType = 5 // server 内部のみ
)

// ActorSubType はactorメッセージのサブタイプ
type ActorSubType uint8

const (
	ActorSubTypeSpawn   ActorSubType = 1
	ActorSubTypeUpdate  ActorSubType = 2
	ActorSubTypeDespawn ActorSubType = 3
)

// ControlSubType はcontrolメッセージのサブタイプ
type ControlSubType uint8

const (
	ControlSubTypeJoin   ControlSubType = 1
	ControlSubTypeLeave  ControlSubType = 2
	ControlSubTypeKick   ControlSubType = 3
	ControlSubTypePing   ControlSubType = 4
	ControlSubTypePong   ControlSubType = 5
	ControlSubTypeError  ControlSubType = 6
	ControlSubTypeAssign ControlSubType = 7
)

// ZoneSubType はゾーンリレーのサブタイプ
type ZoneSubType uint8

const (
	ZoneSubTypeEnter ZoneSubType = 1
	ZoneSubTypeExit  ZoneSubType = 2
)

// ReplicationSubType は複製メッセージのサブタイプ
type ReplicationSubType uint8

const (
	ReplicationSubTypeStability ReplicationSubType = 1
	ReplicationSubTypeTimeline  ReplicationSubType = 2
	ReplicationSubTypeZoneShape ReplicationSubType = 3
	ReplicationSubTypeDespawn   ReplicationSubType = 4
)

// AdminSubType は管理コマンドのサブタイプ
type AdminSubType uint8

const (
	AdminSubTypeResetStability AdminSubType = 1
	AdminSubTypeResizeZone     AdminSubType = 2
)

// PayloadHeader はペイロードヘッダー (2バイト)
//
//	datatype  u8 (1)
//	subtype   u8 (1)
type PayloadHeader struct {
	DataType DataType
	SubType  uint8
}

var (
	ErrInvalidHeaderSize  = errors.New("invalid header size")
	ErrInvalidPayloadSize = errors.New("invalid payload size")
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
)

// ParseHeader はバイト列からHeaderをパースする
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, ErrInvalidHeaderSize
	}

	var sessionID [16]byte
	copy(sessionID[:], data[1:17])

	return &Header{
		Version:   data[0],
		SessionID: sessionID,
		Seq:       byteOrder.Uint16(data[17:19]),
		Length:    byteOrder.Uint16(data[19:21]),
		Timestamp: byteOrder.Uint32(data[21:25]),
	}, nil
}

// Encode はHeaderをバイト列にエンコードする
func (h *Header) Encode() []byte {
	data := make([]byte, HeaderSize)
	data[0] = h.Version
	copy(data[1:17], h.SessionID[:])
	byteOrder.PutUint16(data[17:19], h.Seq)
	byteOrder.PutUint16(data[19:21], h.Length)
	byteOrder.PutUint32(data[21:25], h.Timestamp)
	return data
}

// ParsePayloadHeader はバイト列からPayloadHeaderをパースする
func ParsePayloadHeader(data []byte) (*PayloadHeader, error) {
	if len(data) < PayloadHeaderSize {
		return nil, ErrInvalidPayloadSize
	}

	return &PayloadHeader{
		DataType: DataType(data[0]),
		SubType:  data[1],
	}, nil
}

// Encode はPayloadHeaderをバイト列にエンコードする
func (p *PayloadHeader) Encode() []byte {
	data := make([]byte, PayloadHeaderSize)
	data[0] = byte(p.DataType)
	data[1] = p.SubType
	return data
}

// Frame はパース済みの 1 メッセージです。Payload はペイロードヘッダー以降を指します。
type Frame struct {
	Header        *Header
	PayloadHeader *PayloadHeader
	Payload       []byte
}

// ParseFrame はヘッダー・ペイロードヘッダーをまとめてパースする
func ParseFrame(data []byte) (*Frame, error) {
	header, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if header.Version != ProtocolVersion {
		return nil, ErrUnsupportedVersion
	}
	payloadHeader, err := ParsePayloadHeader(data[HeaderSize:])
	if err != nil {
		return nil, err
	}
	return &Frame{
		Header:        header,
		PayloadHeader: payloadHeader,
		Payload:       data[HeaderSize+PayloadHeaderSize:],
	}, nil
}

// EncodeMessage はヘッダー・ペイロードヘッダー・ペイロードを連結した 1 メッセージを作る
func EncodeMessage(sessionID SessionID, seq uint16, dataType DataType, subType uint8, payload []byte) []byte {
	header := Header{
		Version:   ProtocolVersion,
		SessionID: sessionID.Bytes(),
		Seq:       seq,
		Length:    uint16(PayloadHeaderSize + len(payload)),
		Timestamp: uint32(time.Now().UnixMilli() & 0xFFFFFFFF),
	}
	payloadHeader := PayloadHeader{
		DataType: dataType,
		SubType:  subType,
	}

	data := make([]byte, HeaderSize+PayloadHeaderSize+len(payload))
	copy(data[:HeaderSize], header.Encode())
	copy(data[HeaderSize:HeaderSize+PayloadHeaderSize], payloadHeader.Encode())
	copy(data[HeaderSize+PayloadHeaderSize:], payload)
	return data
}

func encodeControlMessage(sessionID SessionID, subType ControlSubType, payload []byte) []byte {
	return EncodeMessage(sessionID, 0, DataTypeControl, uint8(subType), payload)
}

// EncodeAssignMessage はセッションID通知メッセージをエンコードする
// クライアントに自分のセッションID（＝エンティティID）を通知するために使用
func EncodeAssignMessage(sessionID SessionID) []byte {
	return encodeControlMessage(sessionID, ControlSubTypeAssign, nil)
}

// EncodeJoinMessage はルーム参加メッセージをエンコードする
func EncodeJoinMessage(sessionID SessionID, roomID RoomID) []byte {
	payload := JoinPayload{RoomID: roomID}
	return encodeControlMessage(sessionID, ControlSubTypeJoin, payload.Encode())
}

// EncodeLeaveMessage はルーム離脱メッセージをエンコードする
// 異常切断時にclose()からRoom離脱を通知するために使用
func EncodeLeaveMessage(sessionID SessionID) []byte {
	return encodeControlMessage(sessionID, ControlSubTypeLeave, nil)
}

// EncodePingMessage はPingメッセージをエンコードする
func EncodePingMessage(sessionID SessionID) []byte {
	return encodeControlMessage(sessionID, ControlSubTypePing, nil)
}

// EncodePongMessage はPongメッセージをエンコードする
func EncodePongMessage(sessionID SessionID) []byte {
	return encodeControlMessage(sessionID, ControlSubTypePong, nil)
}

// JoinPayload はルーム参加メッセージのペイロード (16バイト)
//
//	roomID  [16]byte  - ルームID (UUID)。ゼロ値ならデフォルトルーム
type JoinPayload struct {
	RoomID RoomID
}

var ErrInvalidJoinPayloadSize = errors.New("invalid join payload size")

// ParseJoinPayload はバイト列からJoinPayloadをパースする
func ParseJoinPayload(data []byte) (*JoinPayload, error) {
	if len(data) < JoinPayloadSize {
		return nil, ErrInvalidJoinPayloadSize
	}

	var roomID RoomID
	copy(roomID[:], data[:JoinPayloadSize])

	return &JoinPayload{
		RoomID: roomID,
	}, nil
}

// Encode はJoinPayloadをバイト列にエンコードする
func (j *JoinPayload) Encode() []byte {
	data := make([]byte, JoinPayloadSize)
	copy(data, j.RoomID[:])
	return data
}
