package noise

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
)

type cipherAESGCM struct{}

func (cipherAESGCM) Cipher(k [32]byte) Cipher {
	block, err := aes.NewCipher(k[:])
	if err != nil {
		panic(err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		panic(err)
	}
	return &aesGCMCipher{gcm}
}

func (cipherAESGCM) CipherName() string { return "AESGCM" }

type aesGCMCipher struct {
	gcm cipher.AEAD
}

// Noise's AES-GCM nonce is big-endian: four zero bytes followed by a
// big-endian 64-bit counter, per the Noise specification's AESGCM entry.
func (c *aesGCMCipher) Encrypt(out []byte, n uint64, ad, plaintext []byte) []byte {
	var nonce [12]byte
	binary.BigEndian.PutUint64(nonce[4:], n)
	return c.gcm.Seal(out, nonce[:], plaintext, ad)
}

func (c *aesGCMCipher) Decrypt(out []byte, n uint64, ad, ciphertext []byte) ([]byte, error) {
	var nonce [12]byte
	binary.BigEndian.PutUint64(nonce[4:], n)
	return c.gcm.Open(out, nonce[:], ciphertext, ad)
}

// CipherAESGCM is the AES256-GCM cipher function.
var CipherAESGCM CipherFunc = cipherAESGCM{}
