package consts

import "time"

// Expression limits
const (
	// MaxOperandLength is the maximum number of characters (digits and the
	// decimal point) a single operand may have
	MaxOperandLength = 15
	// DefaultMaxInputLength caps the number of runes accepted per expression
	DefaultMaxInputLength = 4096
)

// Cache and history defaults
const (
	// DefaultCacheEntries is the default capacity of the result cache
	DefaultCacheEntries = 256
	// DefaultHistoryLimit is the number of entries listed when no limit is given
	DefaultHistoryLimit = 20
	// MaxHistoryLimit bounds a single history listing
	MaxHistoryLimit = 1000
)

// WebSocket limits
const (
	// WSWriteWait is the time allowed to write a frame to the peer
	WSWriteWait = 10 * time.Second
	// WSPongWait is the time allowed to read the next pong from the peer
	WSPongWait = 60 * time.Second
	// WSPingPeriod must be less than WSPongWait
	WSPingPeriod = (WSPongWait * 9) / 10
	// WSMaxMessageSize is the largest frame accepted from a peer
	WSMaxMessageSize = 8192
	// WSSendBuffer is the per-client outbound queue length
	WSSendBuffer = 64
)

// Timeouts for various operations
const (
	// Timeout5Seconds is a 5 second timeout
	Timeout5Seconds = 5 * time.Second
	// Timeout60Seconds is a 60 second timeout (1 minute)
	Timeout60Seconds = 60 * time.Second
)
