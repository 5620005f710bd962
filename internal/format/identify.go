package format

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mholt/archives"
)

// Identify picks a format from the content of r rather than a file name.
// The identified extension is run through the same table Detect uses, so
// only formats tarx can extract are returned.
func Identify(ctx context.Context, r io.Reader) (Format, error) {
	f, _, err := archives.Identify(ctx, "", r)
	if errors.Is(err, archives.NoMatch) {
		return Format{}, fmt.Errorf("content not identified: %w", ErrUnrecognized)
	}
	if err != nil {
		return Format{}, fmt.Errorf("identifying content: %w", err)
	}
	ext := f.Extension()
	if ext == "" {
		return Format{}, fmt.Errorf("content identified without an extension: %w", ErrUnrecognized)
	}
	return Detect("archive" + ext)
}
