package bridge

import (
	"archive/tar"
	"bytes"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"

	"github.com/nwaples/rardecode"

	"tarx/internal/log"
)

// Status is the outcome code of a decoder call.
type Status uint8

const (
	StatusSuccess Status = 1
	StatusFailure Status = 2
)

// Result is what a decoder call hands back. Both regions are always
// allocated, possibly empty, and the caller owns freeing both.
type Result struct {
	Status       Status
	ErrorMessage Region
	Data         Region
}

var errUnexpectedNil = errors.New("unexpected nil encountered")

// growthFactor is the guess used to preallocate output buffers relative
// to compressed input.
const growthFactor = 4

func (a *Arena) fail(err error) Result {
	return Result{
		Status:       StatusFailure,
		ErrorMessage: a.Box([]byte(err.Error())),
		Data:         a.Box(nil),
	}
}

func (a *Arena) succeed(data []byte) Result {
	if data == nil {
		return a.fail(errUnexpectedNil)
	}
	return Result{
		Status:       StatusSuccess,
		ErrorMessage: a.Box(nil),
		Data:         a.Box(data),
	}
}

// copyIn takes a private copy of a caller region so the caller may free it
// as soon as the call returns.
func (a *Arena) copyIn(r Region) ([]byte, error) {
	v, err := a.view(r)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(v), nil
}

// ConvertRarToTar decodes the RAR archive in data and re-encodes its
// entries as a tar stream. An empty password means none.
func (a *Arena) ConvertRarToTar(data, password Region) Result {
	in, err := a.copyIn(data)
	if err != nil {
		return a.fail(fmt.Errorf("reading input: %w", err))
	}
	pw, err := a.copyIn(password)
	if err != nil {
		return a.fail(fmt.Errorf("reading password: %w", err))
	}
	out, err := rarToTar(in, string(pw))
	if err != nil {
		return a.fail(err)
	}
	return a.succeed(out)
}

// DecompressBzip2 decodes the bzip2 stream in data.
func (a *Arena) DecompressBzip2(data Region) Result {
	in, err := a.copyIn(data)
	if err != nil {
		return a.fail(fmt.Errorf("reading input: %w", err))
	}
	out, err := decompressBzip2(in)
	if err != nil {
		return a.fail(err)
	}
	return a.succeed(out)
}

func rarToTar(data []byte, password string) ([]byte, error) {
	out := bytes.NewBuffer(make([]byte, 0, len(data)*growthFactor))

	rr, err := rardecode.NewReader(bytes.NewReader(data), password)
	if err != nil {
		return nil, err
	}
	tw := tar.NewWriter(out)
	for {
		fh, err := rr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		var typeflag byte
		mode := fh.Mode()
		switch {
		case mode.IsDir():
			typeflag = tar.TypeDir
		case mode.IsRegular():
			typeflag = tar.TypeReg
		default:
			return nil, fmt.Errorf("unexpected file type %v for %q", mode.Type(), fh.Name)
		}

		var content bytes.Buffer
		if typeflag == tar.TypeReg {
			if fh.UnPackedSize > 0 {
				content.Grow(int(min(fh.UnPackedSize, int64(len(data))*growthFactor)))
			}
			n, err := io.Copy(&content, rr)
			if err != nil {
				return nil, fmt.Errorf("decoding %q: %w", fh.Name, err)
			}
			if fh.UnPackedSize >= 0 && n != fh.UnPackedSize {
				log.Warnf("Read %d bytes from %q but its header reports %d", n, fh.Name, fh.UnPackedSize)
			}
		}

		hdr := &tar.Header{
			Typeflag: typeflag,
			Name:     fh.Name,
			Mode:     int64(mode.Perm()),
			ModTime:  fh.ModificationTime,
			Size:     int64(content.Len()),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, err
		}
		if _, err := content.WriteTo(tw); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decompressBzip2(data []byte) ([]byte, error) {
	out := bytes.NewBuffer(make([]byte, 0, len(data)*growthFactor))
	if _, err := io.Copy(out, bzip2.NewReader(bytes.NewReader(data))); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
