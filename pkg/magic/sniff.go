package magic

import (
	"github.com/gabriel-vasile/mimetype"
)

// sniffLen is how much of a file's head is inspected for content sniffing.
const sniffLen = 512

// SniffMIME reports the content type of head as detected by mimetype.
// It falls back to application/octet-stream for unrecognised data.
func SniffMIME(head []byte) string {
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	return mimetype.Detect(head).String()
}
