package noise

import (
	"hash"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
)

type hashBLAKE2s struct{}

func (hashBLAKE2s) Hash() hash.Hash {
	h, err := blake2s.New256(nil)
	if err != nil {
		panic(err)
	}
	return h
}
func (hashBLAKE2s) HashName() string { return "BLAKE2s" }

type hashBLAKE2b struct{}

func (hashBLAKE2b) Hash() hash.Hash {
	h, err := blake2b.New512(nil)
	if err != nil {
		panic(err)
	}
	return h
}
func (hashBLAKE2b) HashName() string { return "BLAKE2b" }

// HashBLAKE2s is the BLAKE2s hash function.
var HashBLAKE2s HashFunc = hashBLAKE2s{}

// HashBLAKE2b is the BLAKE2b hash function.
var HashBLAKE2b HashFunc = hashBLAKE2b{}
