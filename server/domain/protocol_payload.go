package domain

import (
	"errors"
	"math"
)

// サイズ定数
const (
	PositionSize          = 28 // 7 * 4 bytes (7 float32)
	ZoneRelayPayloadSize  = 18 // 2 (zoneID) + 16 (entityID)
	StabilityPayloadSize  = 48 // 16 (entityID) + 4 * 8 bytes (4 float64)
	TimelinePayloadSize   = 17 // 16 (entityID) + 1 (state)
	ZoneShapePayloadSize  = 49
	EntityPayloadSize     = 16
	ResetStabilityPayload = 24 // 16 (entityID) + 8 (float64)
	ResizeZonePayloadSize = 10 // 2 (zoneID) + 8 (float64)
)

// エラー定義
var (
	ErrInvalidPositionSize       = errors.New("invalid position size")
	ErrInvalidZoneRelaySize      = errors.New("invalid zone relay payload size")
	ErrInvalidStabilitySize      = errors.New("invalid stability payload size")
	ErrInvalidTimelineSize       = errors.New("invalid timeline payload size")
	ErrInvalidZoneShapeSize      = errors.New("invalid zone shape payload size")
	ErrInvalidEntityPayloadSize  = errors.New("invalid entity payload size")
	ErrInvalidResetStabilitySize = errors.New("invalid reset stability payload size")
	ErrInvalidResizeZoneSize     = errors.New("invalid resize zone payload size")
)

// Position は位置・姿勢データ (28バイト)
//
//	x, y, z        float32 (12) - 位置
//	qx, qy, qz, qw float32 (16) - quaternion
type Position struct {
	X, Y, Z        float32 // 位置
	QX, QY, QZ, QW float32 // quaternion
}

// ParsePosition はバイト列からPositionをパースする
func ParsePosition(data []byte) (*Position, error) {
	if len(data) < PositionSize {
		return nil, ErrInvalidPositionSize
	}

	return &Position{
		X:  getFloat32(data[0:4]),
		Y:  getFloat32(data[4:8]),
		Z:  getFloat32(data[8:12]),
		QX: getFloat32(data[12:16]),
		QY: getFloat32(data[16:20]),
		QZ: getFloat32(data[20:24]),
		QW: getFloat32(data[24:28]),
	}, nil
}

// Encode はPositionをバイト列にエンコードする
func (p *Position) Encode() []byte {
	data := make([]byte, PositionSize)
	putFloat32(data[0:4], p.X)
	putFloat32(data[4:8], p.Y)
	putFloat32(data[8:12], p.Z)
	putFloat32(data[12:16], p.QX)
	putFloat32(data[16:20], p.QY)
	putFloat32(data[20:24], p.QZ)
	putFloat32(data[24:28], p.QW)
	return data
}

// ZoneRelayPayload はクライアントが検出したゾーン侵入/退出 (18バイト)
//
//	zoneID    u16      (2)
//	entityID  [16]byte (16)
type ZoneRelayPayload struct {
	ZoneID   uint16
	EntityID [16]byte
}

func ParseZoneRelayPayload(data []byte) (*ZoneRelayPayload, error) {
	if len(data) < ZoneRelayPayloadSize {
		return nil, ErrInvalidZoneRelaySize
	}
	p := &ZoneRelayPayload{ZoneID: byteOrder.Uint16(data[0:2])}
	copy(p.EntityID[:], data[2:18])
	return p, nil
}

func (p *ZoneRelayPayload) Encode() []byte {
	data := make([]byte, ZoneRelayPayloadSize)
	byteOrder.PutUint16(data[0:2], p.ZoneID)
	copy(data[2:18], p.EntityID[:])
	return data
}

// StabilityPayload は安定度の変化通知 (48バイト)
//
//	entityID  [16]byte (16)
//	previous  float64  (8)
//	next      float64  (8)
//	max       float64  (8)
//	critical  float64  (8)
type StabilityPayload struct {
	EntityID [16]byte
	Previous float64
	Next     float64
	Max      float64
	Critical float64
}

func ParseStabilityPayload(data []byte) (*StabilityPayload, error) {
	if len(data) < StabilityPayloadSize {
		return nil, ErrInvalidStabilitySize
	}
	p := &StabilityPayload{
		Previous: getFloat64(data[16:24]),
		Next:     getFloat64(data[24:32]),
		Max:      getFloat64(data[32:40]),
		Critical: getFloat64(data[40:48]),
	}
	copy(p.EntityID[:], data[0:16])
	return p, nil
}

func (p *StabilityPayload) Encode() []byte {
	data := make([]byte, StabilityPayloadSize)
	copy(data[0:16], p.EntityID[:])
	putFloat64(data[16:24], p.Previous)
	putFloat64(data[24:32], p.Next)
	putFloat64(data[32:40], p.Max)
	putFloat64(data[40:48], p.Critical)
	return data
}

// TimelinePayload はタイムライン状態の変化通知 (17バイト)
type TimelinePayload struct {
	EntityID [16]byte
	State    uint8
}

func ParseTimelinePayload(data []byte) (*TimelinePayload, error) {
	if len(data) < TimelinePayloadSize {
		return nil, ErrInvalidTimelineSize
	}
	p := &TimelinePayload{State: data[16]}
	copy(p.EntityID[:], data[0:16])
	return p, nil
}

func (p *TimelinePayload) Encode() []byte {
	data := make([]byte, TimelinePayloadSize)
	copy(data[0:16], p.EntityID[:])
	data[16] = p.State
	return data
}

// ZoneShapePayload はゾーンの形状と配置 (49バイト)
//
//	zoneID     u16        (2)
//	kind       u8         (1)  - 1: sphere, 2: box, 3: capsule
//	gradient   u8         (1)  - 1 なら距離減衰あり
//	center     3*float32  (12)
//	rotation   4*float32  (16) - quaternion
//	extents    3*float32  (12) - sphere: r,0,0 / box: hx,hy,hz / capsule: r,h,0
//	rate       float32    (4)  - 毎秒の変化量
//	reserved   u8         (1)
type ZoneShapePayload struct {
	ZoneID   uint16
	Kind     uint8
	Gradient bool
	Center   [3]float32
	Rotation [4]float32
	Extents  [3]float32
	Rate     float32
}

func ParseZoneShapePayload(data []byte) (*ZoneShapePayload, error) {
	if len(data) < ZoneShapePayloadSize {
		return nil, ErrInvalidZoneShapeSize
	}
	p := &ZoneShapePayload{
		ZoneID:   byteOrder.Uint16(data[0:2]),
		Kind:     data[2],
		Gradient: data[3] == 1,
	}
	offset := 4
	for i := range p.Center {
		p.Center[i] = getFloat32(data[offset : offset+4])
		offset += 4
	}
	for i := range p.Rotation {
		p.Rotation[i] = getFloat32(data[offset : offset+4])
		offset += 4
	}
	for i := range p.Extents {
		p.Extents[i] = getFloat32(data[offset : offset+4])
		offset += 4
	}
	p.Rate = getFloat32(data[offset : offset+4])
	return p, nil
}

func (p *ZoneShapePayload) Encode() []byte {
	data := make([]byte, ZoneShapePayloadSize)
	byteOrder.PutUint16(data[0:2], p.ZoneID)
	data[2] = p.Kind
	if p.Gradient {
		data[3] = 1
	}
	offset := 4
	for _, v := range p.Center {
		putFloat32(data[offset:offset+4], v)
		offset += 4
	}
	for _, v := range p.Rotation {
		putFloat32(data[offset:offset+4], v)
		offset += 4
	}
	for _, v := range p.Extents {
		putFloat32(data[offset:offset+4], v)
		offset += 4
	}
	putFloat32(data[offset:offset+4], p.Rate)
	return data
}

// EntityPayload はエンティティIDのみを運ぶペイロード (16バイト)
// 削除通知 (ReplicationSubTypeDespawn) で使用
type EntityPayload struct {
	EntityID [16]byte
}

func ParseEntityPayload(data []byte) (*EntityPayload, error) {
	if len(data) < EntityPayloadSize {
		return nil, ErrInvalidEntityPayloadSize
	}
	p := &EntityPayload{}
	copy(p.EntityID[:], data[0:16])
	return p, nil
}

func (p *EntityPayload) Encode() []byte {
	data := make([]byte, EntityPayloadSize)
	copy(data, p.EntityID[:])
	return data
}

// ResetStabilityRequest は安定度の管理リセット要求 (24バイト)
type ResetStabilityRequest struct {
	EntityID [16]byte
	Value    float64
}

func ParseResetStabilityRequest(data []byte) (*ResetStabilityRequest, error) {
	if len(data) < ResetStabilityPayload {
		return nil, ErrInvalidResetStabilitySize
	}
	p := &ResetStabilityRequest{Value: getFloat64(data[16:24])}
	copy(p.EntityID[:], data[0:16])
	return p, nil
}

func (p *ResetStabilityRequest) Encode() []byte {
	data := make([]byte, ResetStabilityPayload)
	copy(data[0:16], p.EntityID[:])
	putFloat64(data[16:24], p.Value)
	return data
}

// ResizeZoneRequest はゾーンの代表寸法の変更要求 (10バイト)
type ResizeZoneRequest struct {
	ZoneID uint16
	Extent float64
}

func ParseResizeZoneRequest(data []byte) (*ResizeZoneRequest, error) {
	if len(data) < ResizeZonePayloadSize {
		return nil, ErrInvalidResizeZoneSize
	}
	return &ResizeZoneRequest{
		ZoneID: byteOrder.Uint16(data[0:2]),
		Extent: getFloat64(data[2:10]),
	}, nil
}

func (p *ResizeZoneRequest) Encode() []byte {
	data := make([]byte, ResizeZonePayloadSize)
	byteOrder.PutUint16(data[0:2], p.ZoneID)
	putFloat64(data[2:10], p.Extent)
	return data
}

func getFloat32(b []byte) float32 { return math.Float32frombits(byteOrder.Uint32(b)) }
func getFloat64(b []byte) float64 { return math.Float64frombits(byteOrder.Uint64(b)) }

func putFloat32(b []byte, v float32) { byteOrder.PutUint32(b, math.Float32bits(v)) }
func putFloat64(b []byte, v float64) { byteOrder.PutUint64(b, math.Float64bits(v)) }
