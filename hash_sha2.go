package noise

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"
)

type hashSHA256 struct{}

func (hashSHA256) Hash() hash.Hash  { return sha256.New() }
func (hashSHA256) HashName() string { return "SHA256" }

type hashSHA512 struct{}

func (hashSHA512) Hash() hash.Hash  { return sha512.New() }
func (hashSHA512) HashName() string { return "SHA512" }

// HashSHA256 is the SHA-256 hash function.
var HashSHA256 HashFunc = hashSHA256{}

// HashSHA512 is the SHA-512 hash function.
var HashSHA512 HashFunc = hashSHA512{}
