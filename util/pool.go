package util

import "sync"

// FrameBufSize is the protocol's hard limit for one message, CRLF
// included.
const FrameBufSize = 512

// FramePool recycles per-connection receive buffers so that a busy
// listener does not allocate one for every accepted socket.
var FramePool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, FrameBufSize)
		return &buf
	},
}

// GetBuf retrieves a receive buffer from the pool.  Callers must
// return it with [PutBuf] when the connection is finished.
func GetBuf() *[]byte {
	return FramePool.Get().(*[]byte)
}

// PutBuf returns a buffer to the pool for reuse.
func PutBuf(buf *[]byte) {
	if buf == nil || len(*buf) != FrameBufSize {
		return
	}
	FramePool.Put(buf)
}
