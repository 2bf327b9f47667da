package magic

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// sizeNoneName is the sentinel accepted in place of a kilobyte count.
const sizeNoneName = "none"

// KB is the multiplier applied to the caller's target size.
const KB = 1024

var errSizeOverflow = errors.New("value out of range")

// Request is one validated patch invocation.
type Request struct {
	Path      string
	Signature Signature
	// TargetSize is the minimum output length in bytes. Zero disables padding.
	TargetSize int64
	Hash       HashAlgorithm
	Encoding   Encoding
}

// ParseRequest validates caller-supplied strings in the order type, hash,
// encoding, size. It never touches the file.
func ParseRequest(path, tag, targetSizeKB, hashName, encodingName string) (*Request, error) {
	sig, err := LookupSignature(tag)
	if err != nil {
		return nil, err
	}

	algo, err := ParseHashAlgorithm(hashName)
	if err != nil {
		return nil, err
	}

	enc, err := ParseEncoding(encodingName)
	if err != nil {
		return nil, err
	}

	size, err := ParseTargetSize(targetSizeKB)
	if err != nil {
		return nil, err
	}

	return &Request{
		Path:       path,
		Signature:  sig,
		TargetSize: size,
		Hash:       algo,
		Encoding:   enc,
	}, nil
}

// ParseTargetSize converts a kilobyte count to bytes. "none" (any case) and
// the empty string yield zero.
func ParseTargetSize(s string) (int64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || strings.EqualFold(trimmed, sizeNoneName) {
		return 0, nil
	}

	kb, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, &InvalidSizeError{Value: s, Err: err}
	}
	if kb < 0 {
		return 0, &InvalidSizeError{Value: s}
	}
	if kb > math.MaxInt64/KB {
		return 0, &InvalidSizeError{Value: s, Err: errSizeOverflow}
	}
	return kb * KB, nil
}
