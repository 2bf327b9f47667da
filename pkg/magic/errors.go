package magic

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Validation errors 🔍
	ErrValidation           = errors.New("❌ invalid patch request")
	ErrUnknownType          = errors.New("❌ unknown magic type")
	ErrUnknownHashAlgorithm = errors.New("❌ unknown hash algorithm")
	ErrUnknownEncoding      = errors.New("❌ unknown encoding method")
	ErrInvalidSize          = errors.New("❌ invalid target size")

	// File errors 📂
	ErrIO                = errors.New("❌ file operation failed")
	ErrDestinationExists = errors.New("❌ destination already exists")
	ErrInsufficientSpace = errors.New("❌ insufficient disk space")
)

// UnknownTypeError reports a type tag missing from the signature table.
type UnknownTypeError struct {
	Value string
	Valid []string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("Unknown magic type: %s. Available types: %s", e.Value, strings.Join(e.Valid, ", "))
}

func (e *UnknownTypeError) Is(target error) bool {
	return target == ErrUnknownType || target == ErrValidation
}

// UnknownHashAlgorithmError reports a digest name outside the supported set.
type UnknownHashAlgorithmError struct {
	Value string
	Valid []string
}

func (e *UnknownHashAlgorithmError) Error() string {
	return fmt.Sprintf("Unknown hash algorithm: %s. Available algorithms: %s", e.Value, strings.Join(e.Valid, ", "))
}

func (e *UnknownHashAlgorithmError) Is(target error) bool {
	return target == ErrUnknownHashAlgorithm || target == ErrValidation
}

// UnknownEncodingError reports an encoding name outside the accepted set.
type UnknownEncodingError struct {
	Value string
	Valid []string
}

func (e *UnknownEncodingError) Error() string {
	return fmt.Sprintf("Unknown encoding method: %s. Available methods: %s", e.Value, strings.Join(e.Valid, ", "))
}

func (e *UnknownEncodingError) Is(target error) bool {
	return target == ErrUnknownEncoding || target == ErrValidation
}

// InvalidSizeError reports a target size that is neither "none" nor a
// non-negative kilobyte count.
type InvalidSizeError struct {
	Value string
	Err   error
}

func (e *InvalidSizeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Invalid target size: %q (expected a non-negative number of kilobytes or 'none'): %v", e.Value, e.Err)
	}
	return fmt.Sprintf("Invalid target size: %q (expected a non-negative number of kilobytes or 'none')", e.Value)
}

func (e *InvalidSizeError) Is(target error) bool {
	return target == ErrInvalidSize || target == ErrValidation
}

func (e *InvalidSizeError) Unwrap() error {
	return e.Err
}

// IOError wraps a failed filesystem step.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Mutated reports whether the file may already differ from its original
// bytes. Open, read and pad failures guarantee an untouched file.
func (e *IOError) Mutated() bool {
	return e.Op != OpOpen && e.Op != OpRead && e.Op != OpPad
}

// Filesystem step names carried by IOError.
const (
	OpOpen     = "open"
	OpRead     = "read"
	OpPad      = "pad"
	OpWrite    = "write"
	OpTruncate = "truncate"
	OpSync     = "sync"
	OpClose    = "close"
	OpRename   = "rename"
)
