package application

import (
	"bytes"

	"chronoshift/server/domain"

	"github.com/google/uuid"
)

// EntityID はワールド上のエンティティを識別する UUID です。
// プレイヤーのエンティティはセッション ID と同じ値を持ちます。
type EntityID uuid.UUID

func EntityIDFromSession(id domain.SessionID) EntityID { return EntityID(id) }
func EntityIDFromBytes(b [16]byte) EntityID            { return EntityID(b) }

func (id EntityID) Bytes() [16]byte { return id }
func (id EntityID) String() string  { return uuid.UUID(id).String() }

// SessionID はこのエンティティを操作するセッションの ID を返します。
func (id EntityID) SessionID() domain.SessionID { return domain.SessionID(id) }

func (id EntityID) less(other EntityID) bool {
	return bytes.Compare(id[:], other[:]) < 0
}

// ZoneID はゾーンレイアウトで割り当てられるゾーン番号です。0 は未設定を表します。
type ZoneID uint16

// Role はこのプロセスが値を書き込めるかどうかを表します。
type Role uint8

const (
	RoleAuthority Role = iota
	RoleObserver
)

func (r Role) String() string {
	if r == RoleAuthority {
		return "authority"
	}
	return "observer"
}
