package noise

import (
	"crypto/rand"
	"io"

	"golang.org/x/crypto/curve25519"
)

// dh25519 implements DHFunc using Curve25519 (RFC 7748).
type dh25519 struct{}

func (dh25519) GenerateKeypair(rng io.Reader) (DHKey, error) {
	if rng == nil {
		rng = rand.Reader
	}
	var pair DHKey
	pair.Private = make([]byte, 32)
	if _, err := io.ReadFull(rng, pair.Private); err != nil {
		return DHKey{}, err
	}
	pub, err := curve25519.X25519(pair.Private, curve25519.Basepoint)
	if err != nil {
		return DHKey{}, err
	}
	pair.Public = pub
	return pair, nil
}

func (dh25519) DH(privkey, pubkey []byte) ([]byte, error) {
	if len(privkey) != 32 || len(pubkey) != 32 {
		return nil, errInvalidPublicKey
	}
	ss, err := curve25519.X25519(privkey, pubkey)
	if err != nil {
		return nil, err
	}
	if isAllZero(ss) {
		return nil, errInvalidPublicKey
	}
	return ss, nil
}

func (dh25519) DHLen() int     { return 32 }
func (dh25519) DHName() string { return "25519" }

// DH25519 is the Curve25519 Diffie-Hellman function.
var DH25519 DHFunc = dh25519{}
