package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	"go.uber.org/multierr"

	"tarx/internal/log"
)

const (
	defaultFilePerm fs.FileMode = 0o644
	defaultDirPerm  fs.FileMode = 0o755
)

// diskWriter writes entries below root.
type diskWriter struct {
	root    string
	written int
	skipped int
}

// localName returns the cleaned, slash-separated form of name, or false if
// it would land outside the extraction root. The root itself is "".
func localName(name string) (string, bool) {
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return "", false
	}
	return path.Clean("/" + filepath.ToSlash(name))[1:], true
}

func (w *diskWriter) handle(_ context.Context, e Entry, open Opener) error {
	name, ok := localName(e.Name)
	if !ok {
		log.WithField("entry", e.Name).Warnf("Skipping entry whose path leaves the destination")
		w.skipped++
		return nil
	}
	if name == "" {
		return nil
	}
	// SecureJoin resolves symlinks already written by earlier entries so
	// that none of them can redirect a write outside root.
	target, err := securejoin.SecureJoin(w.root, name)
	if err != nil {
		return fmt.Errorf("resolving %q: %w", e.Name, err)
	}

	switch {
	case e.Hardlink:
		ok, err := w.link(target, e)
		if err != nil {
			return fmt.Errorf("linking %q: %w", e.Name, err)
		}
		if !ok {
			log.WithField("entry", e.Name).Warnf("Skipping hard link to %q, which is not a file extracted earlier", e.Linkname)
			w.skipped++
			return nil
		}
	case e.Mode.IsDir():
		if err := os.MkdirAll(target, dirPerm(e.Mode)); err != nil {
			return err
		}
	case e.Mode&fs.ModeSymlink != 0:
		// Judge the link from where it lands, which earlier symlinks may
		// have moved away from name.
		rel, err := filepath.Rel(w.root, target)
		if err != nil || !linkStaysInside(filepath.ToSlash(rel), e.Linkname) {
			log.WithField("entry", e.Name).Warnf("Skipping symlink to %q, which leaves the destination", e.Linkname)
			w.skipped++
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(target), defaultDirPerm); err != nil {
			return err
		}
		if err := os.Symlink(e.Linkname, target); err != nil {
			return err
		}
		w.written++
		return nil
	case e.Mode.IsRegular():
		if err := os.MkdirAll(filepath.Dir(target), defaultDirPerm); err != nil {
			return err
		}
		if err := writeFile(target, e, open); err != nil {
			return fmt.Errorf("extracting %q: %w", e.Name, err)
		}
	default:
		log.WithField("entry", e.Name).Warnf("Skipping entry of unsupported type %v", e.Mode.Type())
		w.skipped++
		return nil
	}

	if !e.ModTime.IsZero() {
		if err := os.Chtimes(target, e.ModTime, e.ModTime); err != nil {
			log.WithField("entry", e.Name).Debugf("Could not set modification time: %v", err)
		}
	}
	w.written++
	return nil
}

// link makes target a hard link to the earlier entry e.Linkname, copying
// it where the filesystem refuses. It reports false if there is no regular
// file inside root to link to.
func (w *diskWriter) link(target string, e Entry) (bool, error) {
	old, ok := localName(e.Linkname)
	if !ok || old == "" {
		return false, nil
	}
	src, err := securejoin.SecureJoin(w.root, old)
	if err != nil {
		return false, err
	}
	fi, err := os.Lstat(src)
	if err != nil || !fi.Mode().IsRegular() || src == target {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(target), defaultDirPerm); err != nil {
		return false, err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	err = os.Link(src, target)
	if err == nil {
		return true, nil
	}
	log.WithField("entry", e.Name).Debugf("Copying %q instead: %v", e.Linkname, err)
	return true, writeFile(target, Entry{Mode: fi.Mode()}, func() (io.ReadCloser, error) {
		return os.Open(src)
	})
}

func writeFile(target string, e Entry, open Opener) (err error) {
	rc, err := open()
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(rc))

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm(e.Mode))
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	if _, err := io.Copy(f, rc); err != nil {
		return err
	}
	// OpenFile's mode is filtered by the umask and ignored for existing
	// files; the archive's bits win.
	return f.Chmod(filePerm(e.Mode))
}

// linkStaysInside reports whether a symlink stored at name pointing to
// linkname resolves below the extraction root.
func linkStaysInside(name, linkname string) bool {
	if linkname == "" || path.IsAbs(filepath.ToSlash(linkname)) || filepath.IsAbs(linkname) {
		return false
	}
	resolved := path.Join(path.Dir(name), filepath.ToSlash(linkname))
	return filepath.IsLocal(filepath.FromSlash(resolved))
}

func filePerm(m fs.FileMode) fs.FileMode {
	if p := m.Perm(); p != 0 {
		return p
	}
	return defaultFilePerm
}

// dirPerm keeps the owner able to write into directories it creates.
func dirPerm(m fs.FileMode) fs.FileMode {
	if p := m.Perm(); p != 0 {
		return p | 0o700
	}
	return defaultDirPerm
}
