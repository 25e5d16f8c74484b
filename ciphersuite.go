package noise

// cipherSuite bundles a DH function, a cipher function, and a hash function
// into the CipherSuite a HandshakeState is configured with.
type cipherSuite struct {
	DHFunc
	CipherFunc
	HashFunc
}

func (c cipherSuite) Name() []byte {
	return []byte(c.DHName() + "_" + c.CipherName() + "_" + c.HashName())
}

// NewCipherSuite returns a CipherSuite constructed from the given
// asymmetric, cipher, and hash functions.
func NewCipherSuite(dh DHFunc, cipher CipherFunc, hash HashFunc) CipherSuite {
	return cipherSuite{DHFunc: dh, CipherFunc: cipher, HashFunc: hash}
}
