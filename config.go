package noise

import "io"

// A Config provides the details necessary to process a Noise handshake. It is
// never modified by this package, and can be reused.
type Config struct {
	// CipherSuite is the set of cryptographic primitives that will be used.
	CipherSuite CipherSuite

	// Random is the source for cryptographically appropriate random bytes. If
	// zero, it is automatically configured.
	Random io.Reader

	// Pattern is the pattern for the handshake.
	Pattern HandshakePattern

	// Initiator must be true if the first message in the handshake will be sent
	// by this peer.
	Initiator bool

	// Prologue is an optional message that has already be communicated and must
	// be identical on both sides for the handshake to succeed.
	Prologue []byte

	// Psk declares that this protocol carries the psk prefix (the
	// ProtocolName's Psk field), independently of whether the preshared key
	// bytes are supplied yet. When true, every ephemeral public key is
	// additionally mixed into the chaining key for the rest of the
	// handshake, and Start requires a preshared key to have been set via
	// PresharedKey or SetPresharedKey before it will succeed. See
	// ProtocolName for why this package uses a single psk prefix rather than
	// the canonical spec's numbered psk0/psk1/... placement tokens.
	Psk bool

	// PresharedKey is an optional convenience: if non-empty, it is installed
	// via SetPresharedKey during construction, equivalent to calling
	// SetPresharedKey(PresharedKey) immediately after NewHandshakeState
	// returns. Requires Psk to be true.
	PresharedKey []byte

	// StaticKeypair is this peer's static keypair, required if part of the
	// handshake.
	StaticKeypair DHKey

	// EphemeralKeypair is this peer's ephemeral keypair that was provided as
	// a pre-message in the handshake.
	EphemeralKeypair DHKey

	// PeerStatic is the static public key of the remote peer that was provided
	// as a pre-message in the handshake.
	PeerStatic []byte

	// PeerEphemeral is the ephemeral public key of the remote peer that was
	// provided as a pre-message in the handshake.
	PeerEphemeral []byte
}
