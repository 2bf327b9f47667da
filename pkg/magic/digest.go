package magic

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// HashAlgorithm selects the digest appended after the body.
type HashAlgorithm int

const (
	HashNone HashAlgorithm = iota
	HashMD5
	HashSHA1
	HashSHA256
	HashSHA512
	HashSHA3_256
	HashSHA3_512
	HashBLAKE2b256
	HashBLAKE2b512
)

// hashNoneName is the sentinel accepted in place of an algorithm name.
const hashNoneName = "none"

// Listing order for error messages.
var hashAlgorithms = []HashAlgorithm{
	HashMD5,
	HashSHA1,
	HashSHA256,
	HashSHA512,
	HashSHA3_256,
	HashSHA3_512,
	HashBLAKE2b256,
	HashBLAKE2b512,
}

func (h HashAlgorithm) String() string {
	switch h {
	case HashNone:
		return hashNoneName
	case HashMD5:
		return "md5"
	case HashSHA1:
		return "sha1"
	case HashSHA256:
		return "sha256"
	case HashSHA512:
		return "sha512"
	case HashSHA3_256:
		return "sha3-256"
	case HashSHA3_512:
		return "sha3-512"
	case HashBLAKE2b256:
		return "blake2b-256"
	case HashBLAKE2b512:
		return "blake2b-512"
	default:
		return "unknown"
	}
}

// HashAlgorithmNames lists the accepted names, "none" last.
func HashAlgorithmNames() []string {
	names := make([]string, 0, len(hashAlgorithms)+1)
	for _, h := range hashAlgorithms {
		names = append(names, h.String())
	}
	return append(names, hashNoneName)
}

// ParseHashAlgorithm maps a case-insensitive name to an algorithm. The empty
// string means "none".
func ParseHashAlgorithm(name string) (HashAlgorithm, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" || lower == hashNoneName {
		return HashNone, nil
	}
	for _, h := range hashAlgorithms {
		if h.String() == lower {
			return h, nil
		}
	}
	return HashNone, &UnknownHashAlgorithmError{Value: name, Valid: HashAlgorithmNames()}
}

// New returns a fresh hash.Hash, or nil for HashNone.
func (h HashAlgorithm) New() hash.Hash {
	switch h {
	case HashMD5:
		return md5.New()
	case HashSHA1:
		return sha1.New()
	case HashSHA256:
		return sha256.New()
	case HashSHA512:
		return sha512.New()
	case HashSHA3_256:
		return sha3.New256()
	case HashSHA3_512:
		return sha3.New512()
	case HashBLAKE2b256:
		// Unkeyed construction never fails.
		d, _ := blake2b.New256(nil)
		return d
	case HashBLAKE2b512:
		d, _ := blake2b.New512(nil)
		return d
	default:
		return nil
	}
}

// Size is the digest length in bytes; zero for HashNone.
func (h HashAlgorithm) Size() int {
	if d := h.New(); d != nil {
		return d.Size()
	}
	return 0
}

// Sum returns the raw digest of data, or nil for HashNone.
func (h HashAlgorithm) Sum(data []byte) []byte {
	d := h.New()
	if d == nil {
		return nil
	}
	d.Write(data)
	return d.Sum(nil)
}
