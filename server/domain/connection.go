package domain

import "context"

// CloseCode は WebSocket の終了コードです。
type CloseCode int32

const (
	CloseNormal          CloseCode = 1000
	CloseGoingAway       CloseCode = 1001
	ClosePolicyViolation CloseCode = 1008
)

// Connection は物理的な接続を表します。セッションとは 1:1 で、再接続すると作り直されます。
type Connection struct {
	SessionID SessionID
	transport Transport
}

func NewConnection(sessionID SessionID, transport Transport) *Connection {
	return &Connection{
		SessionID: sessionID,
		transport: transport,
	}
}

func (c *Connection) Write(ctx context.Context, data []byte) error {
	return c.transport.Write(ctx, data)
}

func (c *Connection) Read(ctx context.Context) ([]byte, error) {
	return c.transport.Read(ctx)
}

// Close は終了コードと理由を添えて接続を閉じます。
func (c *Connection) Close(code CloseCode, reason string) {
	_ = c.transport.Close(int32(code), reason)
}
