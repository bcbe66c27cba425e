package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

//go:generate go tool mockgen -destination=./mocks/room_manager_mock.go -package=mocks . RoomManager

// RoomID はルームを識別する UUID です。
type RoomID uuid.UUID

func NewRoomID() RoomID { return RoomID(uuid.New()) }

func (id RoomID) String() string { return uuid.UUID(id).String() }
func (id RoomID) IsEmpty() bool  { return uuid.UUID(id) == uuid.Nil }

var ErrNoRoomAvailable = errors.New("no room available")

// RoomManager はセッションの参加先ルームを決定します。
type RoomManager interface {
	GetRoom(ctx context.Context, sessionID SessionID) (RoomID, error)
}

// simpleRoomManager は常にデフォルトルームを返します。
type simpleRoomManager struct {
	defaultRoom RoomID
}

func NewSimpleRoomManager(defaultRoom RoomID) RoomManager {
	return &simpleRoomManager{defaultRoom: defaultRoom}
}

func (m *simpleRoomManager) GetRoom(ctx context.Context, sessionID SessionID) (RoomID, error) {
	if m.defaultRoom.IsEmpty() {
		return RoomID{}, ErrNoRoomAvailable
	}
	return m.defaultRoom, nil
}
