package noise

import (
	"hash"
	"io"

	xhkdf "golang.org/x/crypto/hkdf"
)

// validateHKDFInputs validates the input parameters for HKDF function.
func validateHKDFInputs(outputs int, out1, out2, out3 []byte) {
	if len(out1) > 0 {
		panic("len(out1) > 0")
	}
	if len(out2) > 0 {
		panic("len(out2) > 0")
	}
	if len(out3) > 0 {
		panic("len(out3) > 0")
	}
	if outputs < 2 || outputs > 3 {
		panic("outputs must be 2 or 3")
	}
}

// hkdf implements the Noise HKDF construction (chaining key + input key
// material -> two or three outputs). Noise's three-call HMAC chain
// (temp_key = HMAC(ck, ikm); out1 = HMAC(temp_key, 0x01); out2 =
// HMAC(temp_key, out1 || 0x02); ...) is the same computation as RFC 5869
// HKDF-Expand with PRK=temp_key and info=nil, so this builds on
// golang.org/x/crypto/hkdf rather than a hand-rolled HMAC chain.
func hkdf(h func() hash.Hash, outputs int, out1, out2, out3, chainingKey, inputKeyMaterial []byte) ([]byte, []byte, []byte) {
	validateHKDFInputs(outputs, out1, out2, out3)

	r := xhkdf.New(h, inputKeyMaterial, chainingKey, nil)

	size := h().Size()
	buf := make([]byte, size*outputs)
	if _, err := io.ReadFull(r, buf); err != nil {
		panic("noise: hkdf expansion failed: " + err.Error())
	}

	out1 = append(out1, buf[:size]...)
	out2 = append(out2, buf[size:2*size]...)
	if outputs == 2 {
		secureZero(buf)
		return out1, out2, nil
	}
	out3 = append(out3, buf[2*size:3*size]...)
	secureZero(buf)
	return out1, out2, out3
}
