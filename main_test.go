package main

import (
	"archive/tar"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTar(t *testing.T, dir, name string) string {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "hello.txt", Mode: 0o644, Size: 5, Typeflag: tar.TypeReg}))
	_, err := tw.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
	return p
}

func TestRunExtracts(t *testing.T) {
	archive := writeTar(t, t.TempDir(), "greeting.tar")
	out := t.TempDir()

	code := run(context.Background(), []string{"-o", out, archive}, strings.NewReader(""), &bytes.Buffer{})
	require.Equal(t, 0, code)

	b, err := os.ReadFile(filepath.Join(out, "greeting", "hello.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(b))
}

func TestRunLists(t *testing.T) {
	archive := writeTar(t, t.TempDir(), "greeting.tar")
	var stdout bytes.Buffer

	code := run(context.Background(), []string{"--list", archive}, strings.NewReader(""), &stdout)
	require.Equal(t, 0, code)
	require.Contains(t, stdout.String(), "hello.txt")
}

func TestRunFailures(t *testing.T) {
	archive := writeTar(t, t.TempDir(), "greeting.tar")
	tests := []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"too many arguments", []string{archive, archive}},
		{"password on tar", []string{"-o", t.TempDir(), "-p", "pw", archive}},
		{"type password on tar", []string{"-o", t.TempDir(), "-t", archive}},
		{"unknown extension", []string{filepath.Join(t.TempDir(), "x.unknown")}},
		{"unknown flag", []string{"--nope", archive}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code := run(context.Background(), tc.args, strings.NewReader(""), &bytes.Buffer{})
			require.Equal(t, 1, code)
		})
	}
}

func TestRunConflictingPasswordFlags(t *testing.T) {
	p := filepath.Join(t.TempDir(), "secret.zip")
	// An empty zip: just the end of central directory record.
	require.NoError(t, os.WriteFile(p, append([]byte("PK\x05\x06"), make([]byte, 18)...), 0o644))

	code := run(context.Background(), []string{"-o", t.TempDir(), "-p", "pw", "-t", p}, strings.NewReader("pw\n"), &bytes.Buffer{})
	require.Equal(t, 1, code)

	code = run(context.Background(), []string{"-o", t.TempDir(), "-p", "", p}, strings.NewReader(""), &bytes.Buffer{})
	require.Equal(t, 0, code)
}
