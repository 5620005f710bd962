// Package format maps archive file names to the decoder that handles them.
package format

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Type identifies a supported archive or compression format.
type Type int

const (
	Unknown Type = iota
	Rar
	SevenZip
	Tar
	TarBzip2
	TarGzip
	TarXz
	TarZstd
	TarLz4
	TarBrotli
	TarLzma
	Zip
	Gzip
	Bzip2
	Xz
	Zstd
)

var (
	// ErrNotUTF8 is returned when the file name is not valid UTF-8.
	ErrNotUTF8 = errors.New("file name is not a valid UTF-8 string")
	// ErrNoExtension is returned for file names without a period.
	ErrNoExtension = errors.New("only files with extensions are supported")
	// ErrUnrecognized is returned when no known extension matches.
	ErrUnrecognized = errors.New("unrecognized file extension")
)

var typeNames = map[Type]string{
	Rar:       "rar",
	SevenZip:  "7z",
	Tar:       "tar",
	TarBzip2:  "tar.bz2",
	TarGzip:   "tar.gz",
	TarXz:     "tar.xz",
	TarZstd:   "tar.zst",
	TarLz4:    "tar.lz4",
	TarBrotli: "tar.br",
	TarLzma:   "tar.lzma",
	Zip:       "zip",
	Gzip:      "gz",
	Bzip2:     "bz2",
	Xz:        "xz",
	Zstd:      "zst",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown"
}

// SupportsPassword reports whether archives of this type can be encrypted.
func (t Type) SupportsPassword() bool {
	switch t {
	case Rar, SevenZip, Zip:
		return true
	}
	return false
}

// IsTar reports whether the type is a tar stream, possibly compressed.
func (t Type) IsTar() bool {
	switch t {
	case Tar, TarBzip2, TarGzip, TarXz, TarZstd, TarLz4, TarBrotli, TarLzma:
		return true
	}
	return false
}

// Format is a detected type together with the extension that selected it.
type Format struct {
	Type      Type
	Extension string
}

// extensions is ordered: a longer extension must come before any shorter
// one that is its suffix.
var extensions = []Format{
	{Rar, ".rar"},
	{SevenZip, ".7z"},
	{TarBzip2, ".tar.bz2"},
	{TarBzip2, ".tbz2"},
	{TarBzip2, ".tbz"},
	{TarGzip, ".tar.gz"},
	{TarGzip, ".tgz"},
	{TarXz, ".tar.xz"},
	{TarXz, ".txz"},
	{TarZstd, ".tar.zst"},
	{TarZstd, ".tzst"},
	{TarLz4, ".tar.lz4"},
	{TarBrotli, ".tar.br"},
	{TarLzma, ".tar.lzma"},
	{TarLzma, ".tlz"},
	{Tar, ".tar"},
	{Zip, ".zip"},
	{Gzip, ".gz"},
	{Bzip2, ".bz2"},
	{Xz, ".xz"},
	{Zstd, ".zst"},
}

// Detect selects a format from the base name of path.
func Detect(path string) (Format, error) {
	base := filepath.Base(path)
	if !utf8.ValidString(base) {
		return Format{}, fmt.Errorf("%q: %w", base, ErrNotUTF8)
	}
	i := strings.IndexByte(base, '.')
	if i < 0 {
		return Format{}, ErrNoExtension
	}
	candidate := asciiLower(base[i:])
	for _, f := range extensions {
		if strings.HasSuffix(candidate, f.Extension) {
			return f, nil
		}
	}
	return Format{}, fmt.Errorf("%q: %w", base, ErrUnrecognized)
}

// Stem returns base with the matched extension removed. ASCII lowering
// keeps byte lengths, so the suffix is cut by length and the original
// case of the name survives.
func (f Format) Stem(base string) (string, error) {
	if len(base) < len(f.Extension) || !strings.EqualFold(base[len(base)-len(f.Extension):], f.Extension) {
		return "", fmt.Errorf("could not remove extension %q from file name %q", f.Extension, base)
	}
	stem := base[:len(base)-len(f.Extension)]
	if stem == "" {
		return "", fmt.Errorf("file name %q has nothing before its extension", base)
	}
	return stem, nil
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
