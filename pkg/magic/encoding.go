package magic

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncoding is used when the caller names none.
const DefaultEncoding = "utf-8"

// Encoding is an accepted text encoding name. It is validated and carried on
// a Request; the patcher never transcodes bytes with it.
type Encoding struct {
	Name  string
	codec encoding.Encoding
}

// Codec returns the x/text codec registered for the name, nil for the zero
// Encoding.
func (e Encoding) Codec() encoding.Encoding {
	return e.codec
}

// IsZero reports whether no encoding was given.
func (e Encoding) IsZero() bool {
	return e.Name == ""
}

// "ascii" resolves to windows-1252, as WHATWG labels do.
var encodings = []Encoding{
	{Name: "utf-8", codec: unicode.UTF8},
	{Name: "utf-16", codec: unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
	{Name: "ascii", codec: charmap.Windows1252},
	{Name: "latin-1", codec: charmap.ISO8859_1},
	{Name: "windows-1251", codec: charmap.Windows1251},
	{Name: "gbk", codec: simplifiedchinese.GBK},
	{Name: "big5", codec: traditionalchinese.Big5},
	{Name: "koi8-r", codec: charmap.KOI8R},
	{Name: "iso-8859-5", codec: charmap.ISO8859_5},
	{Name: "windows-1254", codec: charmap.Windows1254},
	{Name: "windows-1256", codec: charmap.Windows1256},
	{Name: "euc-kr", codec: korean.EUCKR},
}

// EncodingNames lists accepted encoding names in table order.
func EncodingNames() []string {
	names := make([]string, len(encodings))
	for i, e := range encodings {
		names[i] = e.Name
	}
	return names
}

// ParseEncoding validates name against the accepted set. Names match exactly;
// an empty name is accepted and yields the zero Encoding.
func ParseEncoding(name string) (Encoding, error) {
	if name == "" {
		return Encoding{}, nil
	}
	for _, e := range encodings {
		if e.Name == name {
			return e, nil
		}
	}
	return Encoding{}, &UnknownEncodingError{Value: name, Valid: EncodingNames()}
}
