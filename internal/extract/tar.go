package extract

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	lz4 "github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"

	"tarx/internal/bridge"
	"tarx/internal/format"
	"tarx/internal/log"
)

// decompressor wraps a compressed stream in a reader of its plain content.
type decompressor func(io.Reader) (io.ReadCloser, error)

// newDecompressor returns the decompressor for the outer layer of t.
// bzip2 goes through the in-memory bridge, so it reads all of its input
// before returning.
func newDecompressor(t format.Type, arena *bridge.Arena) (decompressor, error) {
	switch t {
	case format.Tar:
		return func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(r), nil
		}, nil
	case format.TarGzip, format.Gzip:
		return func(r io.Reader) (io.ReadCloser, error) {
			return pgzip.NewReader(r)
		}, nil
	case format.TarBzip2, format.Bzip2:
		return func(r io.Reader) (io.ReadCloser, error) {
			log.Warnf("bzip2 decompression happens entirely in memory and fails if there is not enough free memory for the compressed file plus its decompressed contents")
			data, err := io.ReadAll(r)
			if err != nil {
				return nil, err
			}
			out, err := bridge.DecompressBzip2(arena, data)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(bytes.NewReader(out)), nil
		}, nil
	case format.TarXz, format.Xz:
		return func(r io.Reader) (io.ReadCloser, error) {
			xr, err := xz.NewReader(r)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(xr), nil
		}, nil
	case format.TarLzma:
		return func(r io.Reader) (io.ReadCloser, error) {
			lr, err := lzma.NewReader(r)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(lr), nil
		}, nil
	case format.TarZstd, format.Zstd:
		return func(r io.Reader) (io.ReadCloser, error) {
			zr, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return zr.IOReadCloser(), nil
		}, nil
	case format.TarLz4:
		return func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(lz4.NewReader(r)), nil
		}, nil
	case format.TarBrotli:
		return func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(brotli.NewReader(r)), nil
		}, nil
	}
	return nil, fmt.Errorf("no decompressor for %v", t)
}

// walkTar calls h for every entry of the tar stream in r. Entry types the
// handlers cannot create are passed on as fs.ModeIrregular.
func walkTar(ctx context.Context, r io.Reader, h Handler) error {
	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar header: %w", err)
		}
		if hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		e := Entry{
			Name:     hdr.Name,
			Size:     hdr.Size,
			Mode:     hdr.FileInfo().Mode(),
			ModTime:  hdr.ModTime,
			Linkname: hdr.Linkname,
		}
		switch hdr.Typeflag {
		case tar.TypeDir, tar.TypeReg, tar.TypeSymlink, tar.TypeChar, tar.TypeBlock, tar.TypeFifo:
		case tar.TypeLink:
			e.Hardlink = true
		default:
			e.Mode = e.Mode.Perm() | fs.ModeIrregular
		}
		open := func() (io.ReadCloser, error) {
			return io.NopCloser(tr), nil
		}
		if err := h(ctx, e, open); err != nil {
			return err
		}
	}
}
