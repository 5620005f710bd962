// Package extract unpacks or lists a single archive.
package extract

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"tarx/internal/bridge"
	"tarx/internal/format"
	"tarx/internal/log"
	"tarx/internal/password"
)

// ErrIsDirectory is returned when the archive path names a directory.
var ErrIsDirectory = errors.New("path points to a directory, but it needs to point to a file")

// Request describes one invocation.
type Request struct {
	// Path is the archive to extract.
	Path string
	// Password carries the password flags; it is resolved once the format
	// is known.
	Password password.Request
	// List prints entries to Out instead of extracting them.
	List bool
	Out  io.Writer
	// Parent is where the new directory is created. Empty means the
	// working directory.
	Parent string
	// Detect falls back to content identification when the extension is
	// not recognized.
	Detect bool
	// Arena backs the in-memory decoders. Nil means a fresh one.
	Arena *bridge.Arena
}

// Result reports what Run did.
type Result struct {
	Format    format.Format
	Directory string // empty when listing
	Entries   int
	Skipped   int
}

// Run extracts the archive at req.Path into a new directory named after
// the archive without its extension, or lists it.
func Run(ctx context.Context, req Request) (Result, error) {
	var res Result

	path, err := filepath.Abs(req.Path)
	if err != nil {
		return res, err
	}
	path, err = filepath.EvalSymlinks(path)
	if err != nil {
		return res, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return res, err
	}
	if fi.IsDir() {
		return res, fmt.Errorf("%q: %w", req.Path, ErrIsDirectory)
	}

	f, err := os.Open(path)
	if err != nil {
		return res, err
	}
	defer f.Close()

	ft, byContent, err := detect(ctx, path, f, req.Detect)
	if err != nil {
		return res, err
	}
	res.Format = ft
	logger := log.WithField("format", ft.Type.String())

	header, err := format.ReadHeader(f)
	if err != nil {
		return res, fmt.Errorf("reading archive header: %w", err)
	}
	if sniffed, _ := format.Sniff(header); !ft.Type.Consistent(sniffed) {
		logger.Warnf("Content looks like %v, not %v; extraction will probably fail", sniffed, ft.Type)
	}

	pw, hasPW, err := password.Resolve(ft.Type, req.Password)
	if err != nil {
		return res, err
	}

	var stem string
	if byContent {
		// The name carries no usable extension and may equal the stem.
		stem = filepath.Base(path) + ".d"
	} else if stem, err = ft.Stem(filepath.Base(path)); err != nil {
		return res, err
	}

	var h Handler
	var dw *diskWriter
	var ls *lister
	if req.List {
		out := req.Out
		if out == nil {
			out = os.Stdout
		}
		ls = &lister{out: out}
		h = ls.handle
	} else {
		dir, err := makeDirectory(req.Parent, stem)
		if err != nil {
			return res, err
		}
		res.Directory = dir
		dw = &diskWriter{root: dir}
		h = dw.handle
		logger.WithFields(logrus.Fields{"archive": path, "directory": dir}).Debugf("Extracting")
	}

	arena := req.Arena
	if arena == nil {
		arena = bridge.NewArena()
	}
	if err := dispatch(ctx, ft.Type, path, f, stem, fi, pw, hasPW, arena, h); err != nil {
		return res, err
	}

	if ls != nil {
		res.Entries = ls.count
	} else {
		res.Entries, res.Skipped = dw.written, dw.skipped
	}
	return res, nil
}

// detect picks the format by extension, falling back to the content of f
// when fallback is set. The bool reports a content match.
func detect(ctx context.Context, path string, f *os.File, fallback bool) (format.Format, bool, error) {
	ft, err := format.Detect(path)
	if err == nil {
		return ft, false, nil
	}
	if !fallback || !errors.Is(err, format.ErrUnrecognized) && !errors.Is(err, format.ErrNoExtension) {
		return ft, false, err
	}
	log.Debugf("Extension not recognized, identifying %q by content", filepath.Base(path))
	ft, idErr := format.Identify(ctx, io.NewSectionReader(f, 0, 1<<62))
	if idErr != nil {
		return ft, false, fmt.Errorf("%w (%v)", err, idErr)
	}
	return ft, true, nil
}

func dispatch(ctx context.Context, t format.Type, path string, f *os.File, stem string, fi os.FileInfo, pw string, hasPW bool, arena *bridge.Arena, h Handler) error {
	switch t {
	case format.Zip:
		return walkZip(ctx, path, pw, hasPW, h)
	case format.SevenZip:
		return walkSevenZip(ctx, path, pw, hasPW, h)
	case format.Rar:
		return walkRar(ctx, f, pw, arena, h)
	}

	d, err := newDecompressor(t, arena)
	if err != nil {
		return err
	}
	r := bufio.NewReader(f)
	if t.IsTar() {
		return walkCompressedTar(ctx, r, d, h)
	}
	return walkSingle(ctx, r, d, stem, fi.ModTime(), h)
}

// makeDirectory creates parent/stem. It fails if the directory exists.
func makeDirectory(parent, stem string) (string, error) {
	if parent == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		parent = wd
	}
	dir, err := filepath.Abs(filepath.Join(parent, stem))
	if err != nil {
		return "", err
	}
	if err := os.Mkdir(dir, defaultDirPerm); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return dir, nil
}
