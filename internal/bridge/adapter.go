package bridge

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"go.uber.org/multierr"
)

// ConvertRarToTar runs (*Arena).ConvertRarToTar over input and returns the
// tar stream as a slice owned by the caller.
func ConvertRarToTar(a *Arena, input []byte, password string) ([]byte, error) {
	in := a.Box(input)
	pw := a.Box([]byte(password))
	res := a.ConvertRarToTar(in, pw)
	freeErr := multierr.Combine(a.Free(in), a.Free(pw))
	return a.take(res, freeErr)
}

// DecompressBzip2 runs (*Arena).DecompressBzip2 over input and returns the
// decompressed bytes as a slice owned by the caller.
func DecompressBzip2(a *Arena, input []byte) ([]byte, error) {
	in := a.Box(input)
	res := a.DecompressBzip2(in)
	return a.take(res, a.Free(in))
}

// take interprets res. Both of its regions are freed exactly once on every
// path; prior is an error from releasing the inputs.
func (a *Arena) take(res Result, prior error) ([]byte, error) {
	data, dataErr := a.unbox(res.Data)
	msg, msgErr := a.unbox(res.ErrorMessage)
	if err := multierr.Combine(prior, dataErr, msgErr); err != nil {
		return nil, err
	}

	switch res.Status {
	case StatusSuccess:
		return data, nil
	case StatusFailure:
		if !utf8.Valid(msg) {
			return nil, fmt.Errorf("decoder failed with status code %d and a message that is not valid UTF-8", res.Status)
		}
		return nil, fmt.Errorf("decoder failed with status code %d: %q", res.Status, msg)
	default:
		return nil, fmt.Errorf("invalid decoder status code %d encountered", res.Status)
	}
}

// unbox copies r into a new slice and frees r, even if the copy failed.
func (a *Arena) unbox(r Region) (b []byte, err error) {
	defer func() {
		err = multierr.Append(err, a.Free(r))
	}()
	v, err := a.view(r)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(v), nil
}
