package domain

type endpointEventKind uint8

const (
	unknown endpointEventKind = iota

	// I/O
	evPong       // pong を受信した
	evReadError  // 読み込み失敗
	evWriteError // 書き込み失敗

	// ctrl
	evClose // 明示的な終了
	evIdle  // 無通信による切断
)

// endpointEvent は ownerLoop だけが処理するセッションの状態変化です。
type endpointEvent struct {
	kind endpointEventKind
	err  error
}

// closeCode はイベントに対応する終了コードと理由を返します。
func (ev endpointEvent) closeCode() (CloseCode, string) {
	switch ev.kind {
	case evIdle:
		reason := "idle"
		if ev.err != nil {
			reason = ev.err.Error()
		}
		return CloseGoingAway, reason
	default:
		return CloseNormal, ""
	}
}
