// Package noise implements the Noise Protocol Framework.
//
// Noise is a low-level framework for building crypto protocols. Noise protocols
// support mutual and optional authentication, identity hiding, forward secrecy,
// zero round-trip encryption, and other advanced features. For more details,
// visit https://noiseprotocol.org.
package noise

import (
	"crypto/rand"
	"io"
	"sync"
)

// Action describes what a HandshakeState expects next, mirroring noise-c's
// noise_handshakestate_get_action.
type Action int

const (
	// ActionNone means the handshake has not been started yet, or has just
	// been reconfigured by Fallback and must be started again.
	ActionNone Action = iota
	// ActionWriteMessage means the next call should be WriteMessage.
	ActionWriteMessage
	// ActionReadMessage means the next call should be ReadMessage.
	ActionReadMessage
	// ActionFailed means the handshake has failed and must be discarded (or
	// retried via Fallback, if the pattern supports it).
	ActionFailed
	// ActionSplit means the handshake has completed and Split's two
	// CipherStates have already been returned by the completing call.
	ActionSplit
)

// Role identifies which side of a handshake a HandshakeState plays,
// mirroring noise-c's noise_handshakestate_get_role.
type Role int

const (
	// RoleInitiator is the party that sends the first handshake message.
	RoleInitiator Role = iota
	// RoleResponder is the party that receives the first handshake message.
	RoleResponder
)

func (r Role) String() string {
	if r == RoleInitiator {
		return "initiator"
	}
	return "responder"
}

// A HandshakeState tracks the state of a Noise handshake. It may be discarded
// after the handshake is complete. All exported methods are safe for
// concurrent use.
type HandshakeState struct {
	ss             symmetricState
	s              DHKey  // local static keypair
	e              DHKey  // local ephemeral keypair
	rs             []byte // remote party's static public key
	re             []byte // remote party's ephemeral public key
	psk            []byte // preshared key, maybe zero length
	willPsk        bool   // psk prefix is active for this protocol
	pattern        HandshakePattern
	requirements   Requirement
	shouldWrite    bool
	initiator      bool
	started        bool
	msgIdx         int
	failed         bool
	rng            io.Reader
	fixedEphemeral *DHKey // test-only override, see FixedEphemeral
	mu             sync.Mutex
}

// NewHandshakeState builds a handshake using the provided configuration.
// The returned HandshakeState's Action is ActionNone: the caller may still
// call SetPrologue and SetPresharedKey (in addition to whatever Config
// already supplied) before calling Start, which validates the
// configuration and mixes premessages. WriteMessage/ReadMessage refuse to
// run until Start has succeeded.
// WARNING: Do not use RandomInc in production - it provides completely predictable
// random numbers and breaks all cryptographic security guarantees.
func NewHandshakeState(c Config) (*HandshakeState, error) {
	return newHandshakeState(c, false)
}

func newHandshakeState(c Config, isFallback bool) (*HandshakeState, error) {
	hs := &HandshakeState{
		s:            c.StaticKeypair,
		e:            c.EphemeralKeypair,
		rs:           c.PeerStatic,
		pattern:      c.Pattern,
		willPsk:      c.Psk,
		shouldWrite:  c.Initiator,
		initiator:    c.Initiator,
		rng:          c.Random,
		requirements: computeRequirements(c.Pattern, c.Initiator, c.Psk, isFallback),
	}
	if hs.rng == nil {
		hs.rng = rand.Reader
	}
	if len(c.PeerEphemeral) > 0 {
		hs.re = make([]byte, len(c.PeerEphemeral))
		copy(hs.re, c.PeerEphemeral)
	}
	hs.ss.cs = c.CipherSuite

	prefix := "Noise_"
	if hs.willPsk {
		prefix = "NoisePSK_"
	}
	hs.ss.InitializeSymmetric([]byte(prefix + c.Pattern.Name + "_" + string(hs.ss.cs.Name())))

	if len(c.Prologue) > 0 {
		if err := hs.setPrologue(c.Prologue); err != nil {
			return nil, err
		}
	}
	if len(c.PresharedKey) > 0 {
		if err := hs.setPresharedKey(c.PresharedKey); err != nil {
			return nil, err
		}
	}
	return hs, nil
}

// SetPrologue mixes data both parties have already exchanged out-of-band
// into the handshake hash, so the handshake fails if the two sides
// disagree about it. It may be called at most once, and only before
// Start.
func (s *HandshakeState) SetPrologue(prologue []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setPrologue(prologue)
}

func (s *HandshakeState) setPrologue(prologue []byte) error {
	if s.started || s.failed {
		return errAlreadyStarted
	}
	if s.requirements&ReqPrologue == 0 {
		return errPrologueAlreadySet
	}
	s.ss.MixHash(prologue)
	s.requirements &^= ReqPrologue
	return nil
}

// Start validates that this handshake's configuration satisfies its
// pattern's requirements (a local static keypair if the pattern needs one,
// a remote static public key if the pattern needs one, a preshared key if
// the protocol carries the psk prefix), defaults an unset prologue to
// empty, mixes the pattern's premessage public keys into the handshake
// hash, and transitions Action from ActionNone to ActionWriteMessage (for
// the initiator) or ActionReadMessage (for the responder). It is an error
// to call Start more than once, or after Fallback until it is called
// again.
func (s *HandshakeState) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.start()
}

func (s *HandshakeState) start() error {
	if s.failed {
		return errHandshakeFailed
	}
	if s.started {
		return errAlreadyStarted
	}
	if s.pattern.Name == "XXfallback" && s.requirements&ReqFallbackPremsg == 0 {
		return errNotFallbackable
	}
	if s.requirements&ReqLocalRequired != 0 && len(s.s.Public) == 0 {
		return errLocalStaticNil
	}
	// ReqRemoteRequired is only ever set from a remote static premessage
	// (§4.2); a pattern that exchanges S mid-handshake instead (e.g. XX,
	// XXfallback) learns the remote key via ReadMessage's S token, not
	// before Start.
	if s.requirements&ReqRemoteRequired != 0 && len(s.rs) == 0 {
		return errRemoteStaticNil
	}
	if s.requirements&ReqPSK != 0 {
		return errPskRequired
	}
	if s.requirements&ReqPrologue != 0 {
		s.ss.MixHash(nil)
		s.requirements &^= ReqPrologue
	}

	for _, m := range s.pattern.InitiatorPreMessages {
		switch {
		case s.initiator && m == MessagePatternS:
			s.ss.MixHash(s.s.Public)
		case s.initiator && m == MessagePatternE:
			s.ss.MixHash(s.e.Public)
		case !s.initiator && m == MessagePatternS:
			s.ss.MixHash(s.rs)
		case !s.initiator && m == MessagePatternE:
			s.ss.MixHash(s.re)
		}
	}
	for _, m := range s.pattern.ResponderPreMessages {
		switch {
		case !s.initiator && m == MessagePatternS:
			s.ss.MixHash(s.s.Public)
		case !s.initiator && m == MessagePatternE:
			s.ss.MixHash(s.e.Public)
		case s.initiator && m == MessagePatternS:
			s.ss.MixHash(s.rs)
		case s.initiator && m == MessagePatternE:
			s.ss.MixHash(s.re)
		}
	}

	s.started = true
	return nil
}

// FixedEphemeral overrides this handshake's ephemeral keypair generation
// with a fixed value, for reproducing seed vectors in tests. It must be
// called before the message that would generate the override ephemeral.
// Mirrors noise-c's lazily-allocated fixed-ephemeral test hook.
func (s *HandshakeState) FixedEphemeral(e DHKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixedEphemeral = &e
}

// Action reports what this handshake expects to happen next.
func (s *HandshakeState) Action() Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.action()
}

func (s *HandshakeState) action() Action {
	if s.failed {
		return ActionFailed
	}
	if !s.started {
		return ActionNone
	}
	if s.msgIdx >= len(s.pattern.Messages) {
		return ActionSplit
	}
	if s.shouldWrite {
		return ActionWriteMessage
	}
	return ActionReadMessage
}

// WriteMessage appends a handshake message to out. The message will include the
// optional payload if provided. If the handshake is completed by the call, two
// CipherStates will be returned, one is used for encryption of messages to the
// remote peer, the other is used for decryption of messages from the remote
// peer. It is an error to call this method out of sync with the handshake
// pattern.
func (s *HandshakeState) WriteMessage(out, payload []byte) ([]byte, *CipherState, *CipherState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failed {
		return nil, nil, nil, errHandshakeFailed
	}
	if !s.shouldWrite {
		return nil, nil, nil, errUnexpectedWrite
	}
	if s.msgIdx > len(s.pattern.Messages)-1 {
		return nil, nil, nil, errHandshakeFinished
	}
	if len(payload) > MaxMsgLen {
		s.failed = true
		return nil, nil, nil, errMessageTooLong
	}
	if !s.started {
		return nil, nil, nil, errNotStarted
	}

	var err error
	for _, msg := range s.pattern.Messages[s.msgIdx] {
		switch msg {
		case MessagePatternE:
			var e DHKey
			if s.fixedEphemeral != nil {
				e = *s.fixedEphemeral
			} else {
				e, err = s.ss.cs.GenerateKeypair(s.rng)
				if err != nil {
					s.failed = true
					return nil, nil, nil, err
				}
			}
			s.e = e
			out = append(out, s.e.Public...)
			s.ss.MixHash(s.e.Public)
			if s.willPsk {
				s.ss.MixKey(s.e.Public)
			}
		case MessagePatternS:
			if len(s.s.Public) == 0 {
				s.failed = true
				return nil, nil, nil, errLocalStaticNil
			}
			out, err = s.ss.EncryptAndHash(out, s.s.Public)
			if err != nil {
				s.failed = true
				return nil, nil, nil, err
			}
		case MessagePatternDHEE:
			dh, err := s.ss.cs.DH(s.e.Private, s.re)
			if err != nil {
				s.failed = true
				return nil, nil, nil, err
			}
			s.ss.MixKey(dh)
			secureZero(dh)
		case MessagePatternDHES:
			var dh []byte
			if s.initiator {
				dh, err = s.ss.cs.DH(s.e.Private, s.rs)
			} else {
				dh, err = s.ss.cs.DH(s.s.Private, s.re)
			}
			if err != nil {
				s.failed = true
				return nil, nil, nil, err
			}
			s.ss.MixKey(dh)
			secureZero(dh)
		case MessagePatternDHSE:
			var dh []byte
			if s.initiator {
				dh, err = s.ss.cs.DH(s.s.Private, s.re)
			} else {
				dh, err = s.ss.cs.DH(s.e.Private, s.rs)
			}
			if err != nil {
				s.failed = true
				return nil, nil, nil, err
			}
			s.ss.MixKey(dh)
			secureZero(dh)
		case MessagePatternDHSS:
			dh, err := s.ss.cs.DH(s.s.Private, s.rs)
			if err != nil {
				s.failed = true
				return nil, nil, nil, err
			}
			s.ss.MixKey(dh)
			secureZero(dh)
		}
	}
	s.shouldWrite = false
	s.msgIdx++
	out, err = s.ss.EncryptAndHash(out, payload)
	if err != nil {
		s.failed = true
		return nil, nil, nil, err
	}

	if s.msgIdx >= len(s.pattern.Messages) {
		send, recv := s.split()
		return out, send, recv, nil
	}

	return out, nil, nil, nil
}

// SetPresharedKey installs the 32-byte preshared key required by a
// psk-prefixed protocol (Config.Psk == true). If a prologue has not been
// set yet, an empty one is applied first. It may be called at most once,
// and only before Start.
func (s *HandshakeState) SetPresharedKey(psk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setPresharedKey(psk)
}

func (s *HandshakeState) setPresharedKey(psk []byte) error {
	if s.started || s.failed {
		return errAlreadyStarted
	}
	if !s.willPsk {
		return errPskNotApplicable
	}
	if s.requirements&ReqPSK == 0 {
		return errPskAlreadySet
	}
	if len(psk) != 32 {
		return errPskLength
	}
	if s.requirements&ReqPrologue != 0 {
		s.ss.MixHash(nil)
		s.requirements &^= ReqPrologue
	}
	if s.psk != nil {
		secureZero(s.psk)
	}
	s.psk = make([]byte, 32)
	copy(s.psk, psk)
	s.ss.mixPresharedKey(s.psk)
	s.requirements &^= ReqPSK
	return nil
}

// ReadMessage processes a received handshake message and appends the payload,
// if any to out. If the handshake is completed by the call, two CipherStates
// will be returned, one is used for encryption of messages to the remote peer,
// the other is used for decryption of messages from the remote peer. It is an
// error to call this method out of sync with the handshake pattern.
func (s *HandshakeState) ReadMessage(out, message []byte) ([]byte, *CipherState, *CipherState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failed {
		return nil, nil, nil, errHandshakeFailed
	}
	if s.shouldWrite {
		return nil, nil, nil, errUnexpectedRead
	}
	if s.msgIdx > len(s.pattern.Messages)-1 {
		return nil, nil, nil, errHandshakeFinished
	}
	if len(message) > MaxMsgLen {
		s.failed = true
		secureZero(message)
		return nil, nil, nil, errMessageExceedsMax
	}
	if !s.started {
		return nil, nil, nil, errNotStarted
	}

	origMessage := message
	rsSet := false
	s.ss.Checkpoint()

	fail := func(err error) ([]byte, *CipherState, *CipherState, error) {
		s.ss.Rollback()
		if rsSet {
			s.rs = nil
		}
		s.failed = true
		secureZero(origMessage)
		return nil, nil, nil, err
	}

	var err error
	for _, msg := range s.pattern.Messages[s.msgIdx] {
		switch msg {
		case MessagePatternE, MessagePatternS:
			expected := s.ss.cs.DHLen()
			if msg == MessagePatternS && s.ss.hasK {
				expected += 16
			}
			if len(message) < expected {
				return fail(ErrShortMessage)
			}
			switch msg {
			case MessagePatternE:
				if cap(s.re) < s.ss.cs.DHLen() {
					s.re = make([]byte, s.ss.cs.DHLen())
				}
				s.re = s.re[:s.ss.cs.DHLen()]
				copy(s.re, message)
				if isAllZero(s.re) {
					return fail(errInvalidPublicKey)
				}
				s.ss.MixHash(s.re)
				if s.willPsk {
					s.ss.MixKey(s.re)
				}
			case MessagePatternS:
				if len(s.rs) > 0 {
					return fail(errRemoteStaticSet)
				}
				s.rs, err = s.ss.DecryptAndHash(s.rs[:0], message[:expected])
				rsSet = true
			}
			if err != nil {
				return fail(err)
			}
			message = message[expected:]
		case MessagePatternDHEE:
			dh, derr := s.ss.cs.DH(s.e.Private, s.re)
			if derr != nil {
				return fail(derr)
			}
			s.ss.MixKey(dh)
			secureZero(dh)
		case MessagePatternDHES:
			var dh []byte
			var derr error
			if s.initiator {
				dh, derr = s.ss.cs.DH(s.e.Private, s.rs)
			} else {
				dh, derr = s.ss.cs.DH(s.s.Private, s.re)
			}
			if derr != nil {
				return fail(derr)
			}
			s.ss.MixKey(dh)
			secureZero(dh)
		case MessagePatternDHSE:
			var dh []byte
			var derr error
			if s.initiator {
				dh, derr = s.ss.cs.DH(s.s.Private, s.re)
			} else {
				dh, derr = s.ss.cs.DH(s.e.Private, s.rs)
			}
			if derr != nil {
				return fail(derr)
			}
			s.ss.MixKey(dh)
			secureZero(dh)
		case MessagePatternDHSS:
			dh, derr := s.ss.cs.DH(s.s.Private, s.rs)
			if derr != nil {
				return fail(derr)
			}
			s.ss.MixKey(dh)
			secureZero(dh)
		}
	}
	out, err = s.ss.DecryptAndHash(out, message)
	if err != nil {
		return fail(err)
	}
	s.shouldWrite = true
	s.msgIdx++

	if s.msgIdx >= len(s.pattern.Messages) {
		send, recv := s.split()
		return out, send, recv, nil
	}

	return out, nil, nil, nil
}

// split completes the handshake, returning (send, recv) from this party's
// point of view. SymmetricState.Split always returns the pair in a fixed
// (cs1, cs2) order derived from the chaining key; the initiator's send
// cipher is cs1 and its recv cipher is cs2, while the responder must swap
// them to get its own send/recv pair.
func (s *HandshakeState) split() (send, recv *CipherState) {
	cs1, cs2 := s.ss.Split()
	if s.initiator {
		return cs1, cs2
	}
	return cs2, cs1
}

// Fallback returns a new HandshakeState that continues a failed IK handshake
// as XXfallback, per the Noise spec's fallback mechanism: the pattern ID
// changes to XXfallback, the role flips (the IK responder becomes the
// XXfallback initiator and vice versa), the symmetric state is initialized
// from the new protocol name, and the IK initiator's ephemeral becomes the
// responder premessage. Only an IK-pattern HandshakeState may fall back.
func (s *HandshakeState) Fallback(c Config) (*HandshakeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pattern.Name != "IK" {
		return nil, errNotFallbackable
	}

	action := s.action()
	if s.initiator {
		if (action != ActionFailed && action != ActionReadMessage) || len(s.e.Public) == 0 {
			return nil, errNotFallbackable
		}
	} else {
		if (action != ActionFailed && action != ActionWriteMessage) || len(s.re) == 0 {
			return nil, errNotFallbackable
		}
	}

	fc := c
	fc.Pattern = HandshakeXXfallback
	fc.Initiator = !s.initiator
	if fc.Initiator {
		// new initiator = old responder: the XXfallback responder-premessage E
		// is the old initiator's ephemeral, already known to the old responder
		// as its remote ephemeral. The new initiator's own local ephemeral is
		// left unset so WriteMessage generates a fresh one.
		fc.PeerEphemeral = s.re
	} else {
		// new responder = old initiator: that same premessage E is the old
		// initiator's own local ephemeral. Its remote ephemeral is cleared.
		fc.EphemeralKeypair = s.e
	}

	return newHandshakeState(fc, true)
}

// Destroy zeroes all key material owned by this handshake and makes it
// unusable, the Go analogue of noise-c's guaranteed-zero-on-free contract
// for a freed NoiseHandshakeState.
func (s *HandshakeState) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	secureZero(s.s.Private)
	secureZero(s.e.Private)
	secureZero(s.rs)
	secureZero(s.re)
	secureZero(s.psk)
	secureZero(s.ss.ck)
	secureZero(s.ss.h)
	secureZero(s.ss.k[:])
	s.failed = true
}

// ChannelBinding provides a value that uniquely identifies the session and can
// be used as a channel binding. It is an error to call this method before the
// handshake is complete.
func (s *HandshakeState) ChannelBinding() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ss.h
}

// PeerStatic returns the static key provided by the remote peer during
// a handshake. It is an error to call this method if a handshake message
// containing a static key has not been read.
func (s *HandshakeState) PeerStatic() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rs
}

// MessageIndex returns the current handshake message id
func (s *HandshakeState) MessageIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msgIdx
}

// PeerEphemeral returns the ephemeral key provided by the remote peer during
// a handshake. It is an error to call this method if a handshake message
// containing an ephemeral key has not been read.
func (s *HandshakeState) PeerEphemeral() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.re
}

// LocalEphemeral returns the local ephemeral key pair generated during
// a handshake.
func (s *HandshakeState) LocalEphemeral() DHKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.e
}

// IsInitiator reports whether this handshake was configured as the initiator.
func (s *HandshakeState) IsInitiator() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initiator
}

// PatternName returns the name of the handshake pattern in use.
func (s *HandshakeState) PatternName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pattern.Name
}

// ProtocolID reconstructs the full ProtocolName this handshake is running,
// mirroring noise-c's noise_handshakestate_get_protocol_id. It is valid to
// call at any point after construction, including before Start.
func (s *HandshakeState) ProtocolID() ProtocolName {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ProtocolName{
		Pattern: s.pattern.Name,
		Psk:     s.willPsk,
		DH:      s.ss.cs.DHName(),
		Cipher:  s.ss.cs.CipherName(),
		Hash:    s.ss.cs.HashName(),
	}
}

// Role reports whether this handshake was configured as the initiator or
// the responder, mirroring noise-c's noise_handshakestate_get_role.
func (s *HandshakeState) Role() Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initiator {
		return RoleInitiator
	}
	return RoleResponder
}
