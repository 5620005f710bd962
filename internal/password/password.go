// Package password decides which password, if any, an extraction uses.
package password

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"tarx/internal/format"
	"tarx/internal/log"
)

var (
	// ErrConflictingFlags is returned when a password is both passed and typed.
	ErrConflictingFlags = errors.New(`"--password"/"-p" and "--type-password"/"-t" cannot be used at the same time`)
	// ErrNotSupported is returned when a password is given for a format without encryption.
	ErrNotSupported = errors.New(`encryption is only supported for .7z, .rar, and .zip files; remove the "--password"/"-p" option and/or the "--type-password"/"-t" option`)
	// ErrNoNewline is returned when typed input ends before a newline.
	ErrNoNewline = errors.New("typed password input does not end with a newline character")
	// ErrLineBreak is returned when typed input contains a line break.
	ErrLineBreak = errors.New(`typed password input contains a carriage return or newline character; passwords containing these characters are not supported via the typed password input option, try using the "--password"/"-p" option instead`)
)

// Prompt is the text shown before reading a typed password.
const Prompt = "Password (note that the terminal will be cleared after a password is entered):\n"

// clearScreen is the ANSI sequence that erases the display.
const clearScreen = "\x1b[2J"

// Request describes how the user asked for a password.
type Request struct {
	// Value is the --password flag, when Set.
	Value string
	Set   bool
	// Interactive is the --type-password flag.
	Interactive bool
	// In and Out are used to prompt. Nil means os.Stdin and os.Stdout.
	In  io.Reader
	Out io.Writer
}

// Resolve returns the password to use for an archive of type t and whether
// there is one.
func Resolve(t format.Type, req Request) (string, bool, error) {
	if !t.SupportsPassword() {
		if req.Set || req.Interactive {
			return "", false, ErrNotSupported
		}
		return "", false, nil
	}
	switch {
	case req.Set && req.Interactive:
		return "", false, ErrConflictingFlags
	case req.Set:
		return req.Value, true, nil
	case req.Interactive:
		pw, err := prompt(req.In, req.Out)
		if err != nil {
			return "", false, err
		}
		return pw, true, nil
	}
	return "", false, nil
}

func prompt(in io.Reader, out io.Writer) (string, error) {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	if _, err := io.WriteString(out, Prompt); err != nil {
		return "", err
	}

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		if _, err := io.WriteString(out, clearScreen); err != nil {
			return "", err
		}
		pw := string(b)
		if strings.ContainsAny(pw, "\r\n") {
			return "", ErrLineBreak
		}
		return pw, nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading password: %w", err)
	}
	if _, err := io.WriteString(out, clearScreen); err != nil {
		return "", err
	}
	return ParseLine(line)
}

// ParseLine validates one line of typed input and strips its line ending.
func ParseLine(line string) (string, error) {
	pw, ok := strings.CutSuffix(line, "\n")
	if !ok {
		return "", ErrNoNewline
	}
	if trimmed, ok := strings.CutSuffix(pw, "\r"); ok {
		log.Debugf(`Encountered and trimmed a carriage return character at the end of the typed password input. If the password you entered ends with a carriage return character, try using the "--password"/"-p" option instead.`)
		pw = trimmed
	}
	if strings.ContainsAny(pw, "\r\n") {
		return "", ErrLineBreak
	}
	return pw, nil
}
