package noise

import (
	"bytes"
	"testing"
)

func mustCipherSuite(t *testing.T, dh DHFunc, cipher CipherFunc, hash HashFunc) CipherSuite {
	t.Helper()
	return NewCipherSuite(dh, cipher, hash)
}

// TestNNFixedEphemeralVector exercises spec scenario 1: fixed ephemerals on
// both sides of an NN handshake must produce identical handshake hashes and
// matching split keys.
func TestNNFixedEphemeralVector(t *testing.T) {
	cs := mustCipherSuite(t, DH25519, CipherChaChaPoly, HashBLAKE2s)

	initEph, err := cs.GenerateKeypair(new(RandomInc))
	if err != nil {
		t.Fatal(err)
	}
	respRand := RandomInc(1)
	respEph, err := cs.GenerateKeypair(&respRand)
	if err != nil {
		t.Fatal(err)
	}

	initiator, err := NewHandshakeState(Config{CipherSuite: cs, Pattern: HandshakeNN, Initiator: true})
	if err != nil {
		t.Fatal(err)
	}
	initiator.FixedEphemeral(initEph)
	if err := initiator.Start(); err != nil {
		t.Fatal(err)
	}

	responder, err := NewHandshakeState(Config{CipherSuite: cs, Pattern: HandshakeNN, Initiator: false})
	if err != nil {
		t.Fatal(err)
	}
	responder.FixedEphemeral(respEph)
	if err := responder.Start(); err != nil {
		t.Fatal(err)
	}

	msg1, _, _, err := initiator.WriteMessage(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := responder.ReadMessage(nil, msg1); err != nil {
		t.Fatal(err)
	}
	msg2, rSend, rRecv, err := responder.WriteMessage(nil, []byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	payload, iSend, iRecv, err := initiator.ReadMessage(nil, msg2)
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != "hello" {
		t.Fatalf("payload mismatch: %q", payload)
	}

	if !bytes.Equal(initiator.ChannelBinding(), responder.ChannelBinding()) {
		t.Fatal("handshake hashes diverge")
	}

	pt, err := iSend.Encrypt(nil, nil, []byte("ping"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := rRecv.Decrypt(nil, nil, pt)
	if err != nil || string(got) != "ping" {
		t.Fatalf("cross-decrypt failed: %v %q", err, got)
	}
	ct2, err := rSend.Encrypt(nil, nil, []byte("pong"))
	if err != nil {
		t.Fatal(err)
	}
	got2, err := iRecv.Decrypt(nil, nil, ct2)
	if err != nil || string(got2) != "pong" {
		t.Fatalf("cross-decrypt failed: %v %q", err, got2)
	}
}

// TestIKHandshake exercises spec scenario 2: a 2-message IK handshake where
// the initiator pre-knows the responder's static key.
func TestIKHandshake(t *testing.T) {
	cs := mustCipherSuite(t, DH25519, CipherAESGCM, HashSHA256)

	respStatic, err := cs.GenerateKeypair(nil)
	if err != nil {
		t.Fatal(err)
	}
	initStatic, err := cs.GenerateKeypair(nil)
	if err != nil {
		t.Fatal(err)
	}

	initiator, err := NewHandshakeState(Config{
		CipherSuite:   cs,
		Pattern:       HandshakeIK,
		Initiator:     true,
		StaticKeypair: initStatic,
		PeerStatic:    respStatic.Public,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := initiator.Start(); err != nil {
		t.Fatal(err)
	}
	responder, err := NewHandshakeState(Config{
		CipherSuite:   cs,
		Pattern:       HandshakeIK,
		Initiator:     false,
		StaticKeypair: respStatic,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := responder.Start(); err != nil {
		t.Fatal(err)
	}

	msg1, _, _, err := initiator.WriteMessage(nil, []byte("client hello"))
	if err != nil {
		t.Fatal(err)
	}
	p1, _, _, err := responder.ReadMessage(nil, msg1)
	if err != nil {
		t.Fatal(err)
	}
	if string(p1) != "client hello" {
		t.Fatalf("payload mismatch: %q", p1)
	}
	if !bytes.Equal(responder.PeerStatic(), initStatic.Public) {
		t.Fatal("responder did not learn initiator static key")
	}

	msg2, rSend, rRecv, err := responder.WriteMessage(nil, []byte("server hello"))
	if err != nil {
		t.Fatal(err)
	}
	p2, iSend, iRecv, err := initiator.ReadMessage(nil, msg2)
	if err != nil {
		t.Fatal(err)
	}
	if string(p2) != "server hello" {
		t.Fatalf("payload mismatch: %q", p2)
	}

	ct, err := iSend.Encrypt(nil, nil, []byte("transport"))
	if err != nil {
		t.Fatal(err)
	}
	pt, err := rRecv.Decrypt(nil, nil, ct)
	if err != nil || string(pt) != "transport" {
		t.Fatalf("post-split round trip failed: %v %q", err, pt)
	}
	_ = rSend
	_ = iRecv
}

// TestPSKConfigOrderEquivalence exercises spec scenario 3: an explicit empty
// prologue followed by a PSK reaches the same handshake hash as never setting
// a prologue at all, since SetPresharedKey applies an empty prologue when
// none has been set.
func TestPSKConfigOrderEquivalence(t *testing.T) {
	cs := mustCipherSuite(t, DH25519, CipherChaChaPoly, HashSHA512)
	psk := bytes.Repeat([]byte{0x42}, 32)

	a, err := NewHandshakeState(Config{CipherSuite: cs, Pattern: HandshakeXX, Initiator: true, Prologue: nil, Psk: true, PresharedKey: psk})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Start(); err != nil {
		t.Fatal(err)
	}
	b, err := NewHandshakeState(Config{CipherSuite: cs, Pattern: HandshakeXX, Initiator: true, Psk: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetPrologue([]byte{}); err != nil {
		t.Fatal(err)
	}
	if err := b.SetPresharedKey(psk); err != nil {
		t.Fatal(err)
	}
	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.ChannelBinding(), b.ChannelBinding()) {
		t.Fatal("equivalent prologue configurations produced different hashes")
	}
}

// TestFallbackRoundTrip exercises spec scenario 4: an IK initiator whose
// first message the responder cannot authenticate falls back to XXfallback
// and both sides still derive matching transport keys.
func TestFallbackRoundTrip(t *testing.T) {
	cs := mustCipherSuite(t, DH25519, CipherAESGCM, HashSHA256)

	staleRespStatic, err := cs.GenerateKeypair(nil)
	if err != nil {
		t.Fatal(err)
	}
	freshRespStatic, err := cs.GenerateKeypair(nil)
	if err != nil {
		t.Fatal(err)
	}
	initStatic, err := cs.GenerateKeypair(nil)
	if err != nil {
		t.Fatal(err)
	}

	initiator, err := NewHandshakeState(Config{
		CipherSuite:   cs,
		Pattern:       HandshakeIK,
		Initiator:     true,
		StaticKeypair: initStatic,
		PeerStatic:    staleRespStatic.Public, // initiator has a stale copy
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := initiator.Start(); err != nil {
		t.Fatal(err)
	}
	responder, err := NewHandshakeState(Config{
		CipherSuite:   cs,
		Pattern:       HandshakeIK,
		Initiator:     false,
		StaticKeypair: freshRespStatic, // responder rotated its key
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := responder.Start(); err != nil {
		t.Fatal(err)
	}

	msg1, _, _, err := initiator.WriteMessage(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, _, _, err = responder.ReadMessage(nil, msg1)
	if err == nil {
		t.Fatal("expected responder to fail to authenticate the stale-key IK message")
	}
	if responder.Action() != ActionFailed {
		t.Fatalf("expected responder action Failed, got %v", responder.Action())
	}

	// Fallback flips roles: the old responder becomes the new XXfallback
	// initiator (it must drive the exchange fresh), and the old initiator
	// becomes the new XXfallback responder (its already-sent ephemeral
	// becomes the pattern's responder premessage).
	fbNewInitiator, err := responder.Fallback(Config{CipherSuite: cs, StaticKeypair: freshRespStatic})
	if err != nil {
		t.Fatal(err)
	}
	if err := fbNewInitiator.Start(); err != nil {
		t.Fatal(err)
	}
	fbNewResponder, err := initiator.Fallback(Config{CipherSuite: cs, StaticKeypair: initStatic})
	if err != nil {
		t.Fatal(err)
	}
	if err := fbNewResponder.Start(); err != nil {
		t.Fatal(err)
	}

	fbMsg1, _, _, err := fbNewInitiator.WriteMessage(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, _, err = fbNewResponder.ReadMessage(nil, fbMsg1); err != nil {
		t.Fatal(err)
	}
	fbMsg2, respSend, respRecv, err := fbNewResponder.WriteMessage(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, initSend, initRecv, err := fbNewInitiator.ReadMessage(nil, fbMsg2)
	if err != nil {
		t.Fatal(err)
	}

	ct, err := initSend.Encrypt(nil, nil, []byte("post-fallback"))
	if err != nil {
		t.Fatal(err)
	}
	pt, err := respRecv.Decrypt(nil, nil, ct)
	if err != nil || string(pt) != "post-fallback" {
		t.Fatalf("post-fallback round trip failed: %v %q", err, pt)
	}
	_ = respSend
	_ = initRecv
}

// TestWriteMessageWrongTurn exercises spec scenario 5.
func TestWriteMessageWrongTurn(t *testing.T) {
	cs := mustCipherSuite(t, DH25519, CipherAESGCM, HashSHA256)
	responder, err := NewHandshakeState(Config{CipherSuite: cs, Pattern: HandshakeNN, Initiator: false})
	if err != nil {
		t.Fatal(err)
	}
	idxBefore := responder.MessageIndex()
	_, _, _, err = responder.WriteMessage(nil, nil)
	if err == nil {
		t.Fatal("expected InvalidState error")
	}
	if kind, ok := KindOf(err); !ok || kind != ErrInvalidState {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if responder.MessageIndex() != idxBefore {
		t.Fatal("MessageIndex should not change on rejected call")
	}
}

// TestNullRemoteEphemeralRejected exercises spec scenario 6.
func TestNullRemoteEphemeralRejected(t *testing.T) {
	cs := mustCipherSuite(t, DH25519, CipherAESGCM, HashSHA256)
	responder, err := NewHandshakeState(Config{CipherSuite: cs, Pattern: HandshakeNN, Initiator: false})
	if err != nil {
		t.Fatal(err)
	}
	if err := responder.Start(); err != nil {
		t.Fatal(err)
	}

	zeroEphemeral := make([]byte, cs.DHLen())
	_, _, _, err = responder.ReadMessage(nil, zeroEphemeral)
	if err == nil {
		t.Fatal("expected InvalidPublicKey error")
	}
	if kind, ok := KindOf(err); !ok || kind != ErrInvalidPublicKey {
		t.Fatalf("expected ErrInvalidPublicKey, got %v", err)
	}
	if responder.Action() != ActionFailed {
		t.Fatalf("expected action Failed, got %v", responder.Action())
	}
}

// TestRequirementsDeterministic exercises invariant 1: the requirement
// bitset is a pure function of (pattern, role, psk, fallback).
func TestRequirementsDeterministic(t *testing.T) {
	r1 := computeRequirements(HandshakeXX, true, false, false)
	r2 := computeRequirements(HandshakeXX, true, false, false)
	if r1 != r2 {
		t.Fatal("computeRequirements is not deterministic")
	}
	if r1&ReqPSK != 0 {
		t.Fatal("non-psk pattern should not set ReqPSK")
	}
	r3 := computeRequirements(HandshakeXX, true, true, false)
	if r3&ReqPSK == 0 {
		t.Fatal("psk=true should set ReqPSK")
	}
}

// TestSetPresharedKeyTwice validates that a second SetPresharedKey call is
// rejected once the requirement has already been cleared, and that a short
// key is rejected regardless.
func TestSetPresharedKeyTwice(t *testing.T) {
	cs := mustCipherSuite(t, DH25519, CipherAESGCM, HashSHA256)
	hs, err := NewHandshakeState(Config{CipherSuite: cs, Pattern: HandshakeNN, Initiator: true, Psk: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := hs.SetPresharedKey(make([]byte, 31)); err == nil {
		t.Fatal("expected InvalidLength error for short psk")
	}
	if err := hs.SetPresharedKey(make([]byte, 32)); err != nil {
		t.Fatal(err)
	}
	if !hs.HasPresharedKey() {
		t.Fatal("expected HasPresharedKey true after SetPresharedKey")
	}
	if hs.NeedsPresharedKey() {
		t.Fatal("expected NeedsPresharedKey false once a psk has been set")
	}
	err = hs.SetPresharedKey(make([]byte, 32))
	if err == nil {
		t.Fatal("expected InvalidState error on second SetPresharedKey call")
	}
	if kind, ok := KindOf(err); !ok || kind != ErrInvalidState {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

// TestSetPresharedKeyRejectsNonPskPrefix validates that SetPresharedKey
// fails NotApplicable on a protocol that never declared the psk prefix.
func TestSetPresharedKeyRejectsNonPskPrefix(t *testing.T) {
	cs := mustCipherSuite(t, DH25519, CipherAESGCM, HashSHA256)
	hs, err := NewHandshakeState(Config{CipherSuite: cs, Pattern: HandshakeNN, Initiator: true})
	if err != nil {
		t.Fatal(err)
	}
	err = hs.SetPresharedKey(make([]byte, 32))
	if err == nil {
		t.Fatal("expected NotApplicable error on a non-psk-prefixed protocol")
	}
	if kind, ok := KindOf(err); !ok || kind != ErrNotApplicable {
		t.Fatalf("expected ErrNotApplicable, got %v", err)
	}
}

// TestRequirementPredicates exercises the needs_*/has_* accessors. XX
// premessages neither static key, so both keys are learned mid-handshake
// and neither predicate should report true before Start: the requirement
// bitset only tracks premessage obligations, matching noise-c's
// noise_handshakestate_requirements.
func TestRequirementPredicates(t *testing.T) {
	cs := mustCipherSuite(t, DH25519, CipherAESGCM, HashSHA256)
	hs, err := NewHandshakeState(Config{CipherSuite: cs, Pattern: HandshakeXX, Initiator: true})
	if err != nil {
		t.Fatal(err)
	}
	if hs.NeedsLocalKeypair() {
		t.Fatal("XX exchanges S mid-handshake, not as a premessage: no local keypair should be required up front")
	}
	if hs.NeedsRemotePublicKey() {
		t.Fatal("XX exchanges S mid-handshake, not as a premessage: no remote public key should be required up front")
	}

	// KN premessages the initiator's static key, so an initiator without
	// one still needs it, and HasLocalKeypair reflects that it hasn't
	// been supplied.
	kn, err := NewHandshakeState(Config{CipherSuite: cs, Pattern: HandshakeKN, Initiator: true})
	if err != nil {
		t.Fatal(err)
	}
	if !kn.NeedsLocalKeypair() {
		t.Fatal("KN initiator should need a local keypair up front")
	}
	if kn.HasLocalKeypair() {
		t.Fatal("no local keypair was supplied to the KN initiator")
	}

	// IK premessages the responder's static key to the initiator, so an
	// initiator constructed without PeerStatic still needs one.
	ik, err := NewHandshakeState(Config{CipherSuite: cs, Pattern: HandshakeIK, Initiator: true})
	if err != nil {
		t.Fatal(err)
	}
	if !ik.NeedsRemotePublicKey() {
		t.Fatal("IK initiator should need a remote public key up front")
	}
	if ik.HasRemotePublicKey() {
		t.Fatal("remote public key was not supplied to the IK initiator")
	}

	// Once PeerStatic is supplied, NeedsRemotePublicKey must report false:
	// the requirement is satisfied, not merely applicable.
	peerStatic := make([]byte, cs.DHLen())
	ikSatisfied, err := NewHandshakeState(Config{CipherSuite: cs, Pattern: HandshakeIK, Initiator: true, PeerStatic: peerStatic})
	if err != nil {
		t.Fatal(err)
	}
	if ikSatisfied.NeedsRemotePublicKey() {
		t.Fatal("IK initiator with PeerStatic already set should not need a remote public key")
	}
	if !ikSatisfied.HasRemotePublicKey() {
		t.Fatal("IK initiator with PeerStatic set should have a remote public key")
	}
}

// TestDestroyZeroesState validates that Destroy zeroes the handshake hash and
// makes further operations fail without panicking.
func TestDestroyZeroesState(t *testing.T) {
	cs := mustCipherSuite(t, DH25519, CipherAESGCM, HashSHA256)
	hs, err := NewHandshakeState(Config{CipherSuite: cs, Pattern: HandshakeNN, Initiator: true})
	if err != nil {
		t.Fatal(err)
	}
	hs.Destroy()
	if !isAllZero(hs.ChannelBinding()) {
		t.Fatal("expected Destroy to zero the handshake hash")
	}
	if hs.Action() != ActionFailed {
		t.Fatal("expected Destroy to leave the handshake in a failed, terminal state")
	}
	if _, _, _, err := hs.WriteMessage(nil, nil); err == nil {
		t.Fatal("expected WriteMessage to fail after Destroy")
	}
}
