package noise

// Requirement is a bitset describing what a handshake configuration needs
// before Start may be called, mirroring noise-c's NOISE_REQ_* flags.
type Requirement uint16

const (
	// ReqPrologue is always set: every handshake mixes a prologue, even an
	// empty one.
	ReqPrologue Requirement = 1 << iota
	// ReqLocalRequired means the pattern sends the local static key as a
	// premessage, so it must be supplied before Start.
	ReqLocalRequired
	// ReqRemoteRequired means the pattern sends the remote static key as a
	// premessage, so it must be known before Start.
	ReqRemoteRequired
	// ReqLocalPremsg means the pattern requires the local static or
	// ephemeral key to be known to the remote party before Start.
	ReqLocalPremsg
	// ReqRemotePremsg means the pattern requires the remote static or
	// ephemeral key to be known to the local party before Start.
	ReqRemotePremsg
	// ReqFallbackPremsg marks a handshake configured via Fallback rather
	// than NewHandshakeState.
	ReqFallbackPremsg
	// ReqPSK means the protocol name carries the psk prefix and a
	// preshared key must be set before Start.
	ReqPSK
)

// computeRequirements derives the requirement bitset for a pattern, from the
// perspective of the given role, matching noise-c's
// noise_handshakestate_new's requirement-derivation switch.
func computeRequirements(pattern HandshakePattern, initiator, psk, isFallback bool) Requirement {
	r := ReqPrologue

	var localPre, remotePre []MessagePattern
	if initiator {
		localPre, remotePre = pattern.InitiatorPreMessages, pattern.ResponderPreMessages
	} else {
		localPre, remotePre = pattern.ResponderPreMessages, pattern.InitiatorPreMessages
	}
	if len(localPre) > 0 {
		r |= ReqLocalPremsg
	}
	if len(remotePre) > 0 {
		r |= ReqRemotePremsg
	}
	for _, m := range localPre {
		if m == MessagePatternS {
			r |= ReqLocalRequired
		}
	}
	for _, m := range remotePre {
		if m == MessagePatternS {
			r |= ReqRemoteRequired
		}
	}

	if isFallback {
		r |= ReqFallbackPremsg
	}
	if psk {
		r |= ReqPSK
	}
	return r
}

// NeedsLocalKeypair reports whether this handshake's pattern requires a
// local static keypair that has not yet been supplied.
func (s *HandshakeState) NeedsLocalKeypair() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requirements&ReqLocalRequired != 0 && len(s.s.Public) == 0
}

// HasLocalKeypair reports whether a local static keypair has been set.
func (s *HandshakeState) HasLocalKeypair() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.s.Public) > 0
}

// NeedsRemotePublicKey reports whether this handshake's pattern requires
// learning the remote party's static public key and it is not yet known.
func (s *HandshakeState) NeedsRemotePublicKey() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requirements&ReqRemoteRequired != 0 && len(s.rs) == 0
}

// HasRemotePublicKey reports whether the remote party's static public key
// is already known.
func (s *HandshakeState) HasRemotePublicKey() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rs) > 0
}

// NeedsPresharedKey reports whether this handshake's protocol name carries
// the psk prefix and the preshared key has not been set yet.
func (s *HandshakeState) NeedsPresharedKey() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requirements&ReqPSK != 0
}

// HasPresharedKey reports whether a preshared key has actually been set,
// independent of whether the protocol requires one.
func (s *HandshakeState) HasPresharedKey() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.psk) == 32
}
