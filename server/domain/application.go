package domain

import "context"

// Application はルームに注入されるゲームロジックです。
// すべてのメソッドはルームのゴルーチンからのみ呼ばれます。
type Application interface {
	// Join はセッションの参加時に呼ばれ、参加者にだけ送るスナップショットを返します。
	Join(ctx context.Context, sessionID SessionID) [][]byte
	// Leave はセッションの離脱時に呼ばれます。異常切断もここに届きます。
	Leave(ctx context.Context, sessionID SessionID)
	HandleMessage(ctx context.Context, sessionID SessionID, data []byte) error
	// Tick は経過秒数 delta で1ステップ進め、全員にブロードキャストするメッセージを返します。
	Tick(ctx context.Context, delta float64) [][]byte
}
