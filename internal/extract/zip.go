package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeka/zip"

	"tarx/internal/log"
)

// ErrPasswordRequired is returned when an encrypted entry is met and no
// password was given.
var ErrPasswordRequired = errors.New("password required to decrypt file")

func walkZip(ctx context.Context, path, password string, hasPassword bool, h Handler) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("opening zip archive: %w", err)
	}
	defer zr.Close()

	for i, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.Comment != "" {
			log.Infof("File %d comment: %q", i, f.Comment)
		}
		if f.IsEncrypted() {
			if !hasPassword {
				return fmt.Errorf("%q: %w", f.Name, ErrPasswordRequired)
			}
			f.SetPassword(password)
		}

		e := Entry{
			Name:    f.Name,
			Size:    int64(f.UncompressedSize64),
			Mode:    f.Mode(),
			ModTime: f.ModTime(),
			Comment: f.Comment,
		}
		if err := readLinkTarget(&e, f.Open); err != nil {
			return err
		}
		if err := h(ctx, e, f.Open); err != nil {
			return err
		}
	}
	return nil
}
