package noise

import (
	"crypto/subtle"
	"runtime"
)

// secureZero securely zeroes the provided byte slice to prevent sensitive data
// from remaining in memory. This function prevents the compiler from optimizing
// away the zeroing operation.
func secureZero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	// Force compiler to not optimize away the zeroing
	runtime.KeepAlive(b)
}

// constantTimeEqual reports whether a and b hold the same bytes, in time
// independent of their contents. The handshake code does not call it: AEAD
// tags are checked inside each Cipher's Decrypt.
func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// isAllZero reports whether b consists entirely of zero bytes, in constant
// time. Used to reject degenerate DH public keys (e.g. low-order Curve25519
// points that reduce to an all-zero shared secret).
func isAllZero(b []byte) bool {
	var v byte
	for _, c := range b {
		v |= c
	}
	return v == 0
}
