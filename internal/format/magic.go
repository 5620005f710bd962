package format

import (
	"bytes"
	"io"
)

// SniffLen is the number of leading bytes Sniff looks at.
const SniffLen = 16

var magics = []struct {
	prefix []byte
	typ    Type
}{
	{[]byte("PK\x03\x04"), Zip},
	{[]byte("PK\x05\x06"), Zip},
	{[]byte{0x1F, 0x8B}, Gzip},
	{[]byte{0x42, 0x5A, 0x68}, Bzip2},
	{[]byte{0xFD, '7', 'z', 'X', 'Z', 0x00}, Xz},
	{[]byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07}, Rar},
	{[]byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}, SevenZip},
	{[]byte{0x28, 0xB5, 0x2F, 0xFD}, Zstd},
	{[]byte{0x04, 0x22, 0x4D, 0x18}, TarLz4},
}

// Sniff classifies header by its magic bytes. Only the outer layer is
// recognized: a gzip stream is Gzip whether or not it wraps a tar.
// Brotli, lzma and plain tar have no reliable prefix and are not reported.
func Sniff(header []byte) (Type, bool) {
	for _, m := range magics {
		if bytes.HasPrefix(header, m.prefix) {
			return m.typ, true
		}
	}
	return Unknown, false
}

// ReadHeader reads up to SniffLen bytes from the start of r.
func ReadHeader(r io.ReaderAt) ([]byte, error) {
	buf := make([]byte, SniffLen)
	n, err := r.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

// outer reports the Type Sniff would return for content of type t.
func (t Type) outer() (Type, bool) {
	switch t {
	case Rar, SevenZip, Zip, Gzip, Bzip2, Xz, Zstd:
		return t, true
	case TarGzip:
		return Gzip, true
	case TarBzip2:
		return Bzip2, true
	case TarXz:
		return Xz, true
	case TarZstd:
		return Zstd, true
	case TarLz4:
		return TarLz4, true
	case Tar:
		// tar has no magic in its first bytes, but it is not any of the
		// compressed formats either.
		return Unknown, true
	}
	return Unknown, false
}

// Consistent reports whether sniffed content agrees with the type chosen
// by extension. Brotli and lzma streams have no magic prefix and are
// always consistent.
func (t Type) Consistent(sniffed Type) bool {
	want, ok := t.outer()
	if !ok {
		return true
	}
	return want == sniffed
}
