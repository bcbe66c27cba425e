package domain

import "sync"

// SessionRegistry は接続中のセッションIDを管理します。
// 1つのセッションに同時に紐付けられる接続は1本だけです。
type SessionRegistry struct {
	mu       sync.Mutex
	attached map[SessionID]struct{}
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{attached: make(map[SessionID]struct{})}
}

// Attach はセッションに接続を紐付けます。既に接続があれば ErrSessionAlreadyAttached を返します。
func (r *SessionRegistry) Attach(id SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.attached[id]; ok {
		return ErrSessionAlreadyAttached
	}
	r.attached[id] = struct{}{}
	return nil
}

// Detach は接続の紐付けを解除します。
func (r *SessionRegistry) Detach(id SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attached, id)
}

func (r *SessionRegistry) Attached(id SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.attached[id]
	return ok
}
