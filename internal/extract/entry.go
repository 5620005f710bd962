package extract

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"time"

	"go.uber.org/multierr"
)

// maxLinkTarget bounds how much of a symlink entry's content is read as
// its target.
const maxLinkTarget = 4096

// Entry is one member of an archive, independent of its format.
type Entry struct {
	// Name is the slash-separated path stored in the archive.
	Name     string
	Size     int64 // -1 when the format does not record it
	Mode     fs.FileMode
	ModTime  time.Time
	Linkname string
	// Hardlink marks Linkname as an earlier entry of the same archive
	// rather than a symlink target.
	Hardlink bool
	Comment  string
}

// Opener returns the content of an entry. Walkers only guarantee it works
// until the handler returns.
type Opener func() (io.ReadCloser, error)

// Handler is called once per entry, in archive order.
type Handler func(ctx context.Context, e Entry, open Opener) error

// readLinkTarget fills in Linkname for formats that store a symlink's
// target as the entry's content.
func readLinkTarget(e *Entry, open Opener) (err error) {
	if e.Mode&fs.ModeSymlink == 0 || e.Linkname != "" {
		return nil
	}
	rc, err := open()
	if err != nil {
		return fmt.Errorf("opening symlink %q: %w", e.Name, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(rc))
	b, err := io.ReadAll(io.LimitReader(rc, maxLinkTarget))
	if err != nil {
		return fmt.Errorf("reading symlink %q: %w", e.Name, err)
	}
	e.Linkname = string(b)
	return nil
}
