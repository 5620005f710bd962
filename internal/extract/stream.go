package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/multierr"

	"tarx/internal/bridge"
	"tarx/internal/log"
)

// walkRar converts the RAR archive in r to a tar stream through the bridge
// and walks that.
func walkRar(ctx context.Context, r io.Reader, password string, arena *bridge.Arena, h Handler) error {
	log.Warnf(".rar extraction happens entirely in memory and fails if there is not enough free memory for the archive plus its decompressed contents")
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading rar archive: %w", err)
	}
	tarball, err := bridge.ConvertRarToTar(arena, data, password)
	if err != nil {
		return err
	}
	return walkTar(ctx, bytes.NewReader(tarball), h)
}

// walkCompressedTar walks a tar stream behind the decompressor d.
func walkCompressedTar(ctx context.Context, r io.Reader, d decompressor, h Handler) (err error) {
	rc, err := d(r)
	if err != nil {
		return fmt.Errorf("opening decompressor: %w", err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(rc))
	return walkTar(ctx, rc, h)
}

// walkSingle presents a bare compressed stream as one regular file called
// name.
func walkSingle(ctx context.Context, r io.Reader, d decompressor, name string, modTime time.Time, h Handler) (err error) {
	rc, err := d(r)
	if err != nil {
		return fmt.Errorf("opening decompressor: %w", err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(rc))

	e := Entry{
		Name:    name,
		Size:    -1,
		Mode:    0o644,
		ModTime: modTime,
	}
	return h(ctx, e, func() (io.ReadCloser, error) {
		return io.NopCloser(rc), nil
	})
}
