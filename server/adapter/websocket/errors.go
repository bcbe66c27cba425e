package adapterwebsocket

import "errors"

// ErrTextFrame はバイナリ以外のフレームを受け取った場合に返されるエラーです。
var ErrTextFrame = errors.New("text frame is not supported")
