package noise

import (
	"strings"
)

// ProtocolName is a parsed Noise protocol identifier, e.g.
// "Noise_XX_25519_ChaChaPoly_BLAKE2s" or, with a preshared key in play,
// "NoisePSK_IK_25519_AESGCM_SHA256".
//
// This package uses a single binary "psk" prefix rather than the canonical
// Noise spec's numbered psk0/psk1/... placement tokens: when Psk is true the
// preshared key is mixed in once, immediately after the prologue, and every
// ephemeral public key is additionally mixed into the chaining key for the
// rest of the handshake (see SetPresharedKey, WriteMessage and ReadMessage
// in handshake.go). This is a deliberate
// simplification of the placement-flexible canonical scheme, matching
// noise-c's single NOISE_PAT_FLAG_LOCAL_REQUIRED-style prefix model rather
// than a per-message placement index.
type ProtocolName struct {
	Pattern string
	Psk     bool
	DH      string
	Cipher  string
	Hash    string
}

// String formats the protocol name back to its canonical textual form.
func (p ProtocolName) String() string {
	prefix := "Noise"
	if p.Psk {
		prefix = "NoisePSK"
	}
	return prefix + "_" + p.Pattern + "_" + p.DH + "_" + p.Cipher + "_" + p.Hash
}

// ParseProtocolName parses a protocol name of the form
// "Noise_<pattern>_<dh>_<cipher>_<hash>" or
// "NoisePSK_<pattern>_<dh>_<cipher>_<hash>".
func ParseProtocolName(name string) (ProtocolName, error) {
	parts := strings.Split(name, "_")
	if len(parts) != 5 {
		return ProtocolName{}, newError(ErrUnknownName, "malformed protocol name: "+name)
	}
	var p ProtocolName
	switch parts[0] {
	case "Noise":
		p.Psk = false
	case "NoisePSK":
		p.Psk = true
	default:
		return ProtocolName{}, newError(ErrUnknownName, "unrecognized protocol prefix: "+parts[0])
	}
	p.Pattern, p.DH, p.Cipher, p.Hash = parts[1], parts[2], parts[3], parts[4]
	if _, ok := patternByName[p.Pattern]; !ok {
		return ProtocolName{}, errUnknownPatternID
	}
	return p, nil
}

// lookupDH resolves a protocol-name DH component to its DHFunc.
func lookupDH(name string) (DHFunc, error) {
	switch name {
	case "25519":
		return DH25519, nil
	default:
		return nil, errUnknownDHID
	}
}

// lookupCipher resolves a protocol-name cipher component to its CipherFunc.
func lookupCipher(name string) (CipherFunc, error) {
	switch name {
	case "AESGCM":
		return CipherAESGCM, nil
	case "ChaChaPoly":
		return CipherChaChaPoly, nil
	default:
		return nil, errUnknownCipherID
	}
}

// lookupHash resolves a protocol-name hash component to its HashFunc.
func lookupHash(name string) (HashFunc, error) {
	switch name {
	case "SHA256":
		return HashSHA256, nil
	case "SHA512":
		return HashSHA512, nil
	case "BLAKE2s":
		return HashBLAKE2s, nil
	case "BLAKE2b":
		return HashBLAKE2b, nil
	default:
		return nil, errUnknownHashID
	}
}

// NewCipherSuiteFromName resolves a cipher suite from its protocol name
// component strings ("25519", "ChaChaPoly", "BLAKE2s", ...).
func NewCipherSuiteFromName(p ProtocolName) (CipherSuite, error) {
	dh, err := lookupDH(p.DH)
	if err != nil {
		return nil, err
	}
	cipher, err := lookupCipher(p.Cipher)
	if err != nil {
		return nil, err
	}
	hash, err := lookupHash(p.Hash)
	if err != nil {
		return nil, err
	}
	return NewCipherSuite(dh, cipher, hash), nil
}
