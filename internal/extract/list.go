package extract

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
)

const listTimeFormat = "2006-01-02 15:04"

// lister prints one line per entry instead of writing anything to disk.
type lister struct {
	out   io.Writer
	count int
}

func (l *lister) handle(_ context.Context, e Entry, _ Opener) error {
	size := "-"
	if e.Size >= 0 && !e.Mode.IsDir() {
		size = humanize.IBytes(uint64(e.Size))
	}
	modTime := "-"
	if !e.ModTime.IsZero() {
		modTime = e.ModTime.Format(listTimeFormat)
	}
	name := e.Name
	if e.Mode.IsDir() && !strings.HasSuffix(name, "/") {
		name += "/"
	}
	switch {
	case e.Hardlink:
		name += " link to " + e.Linkname
	case e.Linkname != "":
		name += " -> " + e.Linkname
	}
	l.count++
	_, err := fmt.Fprintf(l.out, "%s %10s %s %s\n", e.Mode, size, modTime, name)
	return err
}
