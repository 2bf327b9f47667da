// Package magic rewrites the leading signature bytes of a file so that it
// identifies as another format, optionally appending a digest of the body and
// padding the result to a minimum size.
package magic

import "bytes"

// Signature is one row of the signature table.
type Signature struct {
	Tag       string
	Extension string
	MIME      string
	magic     []byte
}

// Magic returns a copy of the leading bytes written for this type.
func (s Signature) Magic() []byte {
	return bytes.Clone(s.magic)
}

// Len is the number of original bytes the signature overwrites.
func (s Signature) Len() int {
	return len(s.magic)
}

// Signature table. Order is the order valid tags are listed in messages.
var signatures = []Signature{
	{Tag: "jpeg", Extension: ".jpg", MIME: "image/jpeg", magic: []byte{0xFF, 0xD8, 0xFF}},
	{Tag: "png", Extension: ".png", MIME: "image/png", magic: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	{Tag: "gif", Extension: ".gif", MIME: "image/gif", magic: []byte{0x47, 0x49, 0x46, 0x38}},
	{Tag: "bmp", Extension: ".bmp", MIME: "image/bmp", magic: []byte{0x42, 0x4D}},
	{Tag: "pdf", Extension: ".pdf", MIME: "application/pdf", magic: []byte{0x25, 0x50, 0x44, 0x46}},
}

// Tags returns the supported type tags in table order.
func Tags() []string {
	tags := make([]string, len(signatures))
	for i, s := range signatures {
		tags[i] = s.Tag
	}
	return tags
}

// Signatures returns a copy of the signature table.
func Signatures() []Signature {
	out := make([]Signature, len(signatures))
	copy(out, signatures)
	return out
}

// LookupSignature finds the table row for tag. Tags are case-sensitive.
func LookupSignature(tag string) (Signature, error) {
	for _, s := range signatures {
		if s.Tag == tag {
			return s, nil
		}
	}
	return Signature{}, &UnknownTypeError{Value: tag, Valid: Tags()}
}

// Detect reports the table signature that head already starts with, if any.
// The longest matching signature wins.
func Detect(head []byte) (Signature, bool) {
	var best Signature
	found := false
	for _, s := range signatures {
		if bytes.HasPrefix(head, s.magic) && (!found || len(s.magic) > len(best.magic)) {
			best = s
			found = true
		}
	}
	return best, found
}
