package extract

import (
	"context"
	"fmt"

	"github.com/bodgit/sevenzip"
)

func walkSevenZip(ctx context.Context, path, password string, hasPassword bool, h Handler) error {
	var (
		r   *sevenzip.ReadCloser
		err error
	)
	if hasPassword {
		r, err = sevenzip.OpenReaderWithPassword(path, password)
	} else {
		r, err = sevenzip.OpenReader(path)
	}
	if err != nil {
		return fmt.Errorf("opening 7z archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		fi := f.FileInfo()
		e := Entry{
			Name:    f.Name,
			Size:    fi.Size(),
			Mode:    fi.Mode(),
			ModTime: fi.ModTime(),
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
