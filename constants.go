package noise

import "math"

// MaxNonce is the maximum value of n that is allowed. ErrMaxNonce is returned
// by Encrypt and Decrypt after this has been reached. 2^64-1 is reserved for rekeys.
const MaxNonce = uint64(math.MaxUint64) - 1

// MaxMsgLen is the maximum number of bytes that can be sent in a single Noise
// message.
const MaxMsgLen = 65535

// A MessagePattern is a single token in a handshake pattern's message list,
// representing a key transmission (S, E) or DH calculation (DHEE, DHES, DHSE,
// DHSS) to perform at that point in the handshake.
type MessagePattern int

// MessagePattern constants define the types of operations in a Noise handshake.
const (
	MessagePatternS MessagePattern = iota
	MessagePatternE
	MessagePatternDHEE
	MessagePatternDHES
	MessagePatternDHSE
	MessagePatternDHSS
	MessagePatternPSK
)
