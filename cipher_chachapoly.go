package noise

import (
	"crypto/cipher"
	"encoding/binary"

	"golang.org/x/crypto/chacha20poly1305"
)

type cipherChaChaPoly struct{}

func (cipherChaChaPoly) Cipher(k [32]byte) Cipher {
	c, err := chacha20poly1305.New(k[:])
	if err != nil {
		panic(err)
	}
	return &chachaPolyCipher{c}
}

func (cipherChaChaPoly) CipherName() string { return "ChaChaPoly" }

type chachaPolyCipher struct {
	c cipher.AEAD
}

// Noise's ChaChaPoly nonce is little-endian: four zero bytes followed by a
// little-endian 64-bit counter, per the Noise specification's ChaChaPoly entry.
func (c *chachaPolyCipher) Encrypt(out []byte, n uint64, ad, plaintext []byte) []byte {
	var nonce [12]byte
	binary.LittleEndian.PutUint64(nonce[4:], n)
	return c.c.Seal(out, nonce[:], plaintext, ad)
}

func (c *chachaPolyCipher) Decrypt(out []byte, n uint64, ad, ciphertext []byte) ([]byte, error) {
	var nonce [12]byte
	binary.LittleEndian.PutUint64(nonce[4:], n)
	return c.c.Open(out, nonce[:], ciphertext, ad)
}

// CipherChaChaPoly is the AEAD_CHACHA20_POLY1305 cipher function.
var CipherChaChaPoly CipherFunc = cipherChaChaPoly{}
