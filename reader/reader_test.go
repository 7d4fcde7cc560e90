package reader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.sql")
	require.NoError(t, os.WriteFile(path, []byte("INSERT INTO t VALUES (1);"), 0o644))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO t VALUES (1);", got)
}

func TestReadUTF16LEWithBOM(t *testing.T) {
	text := "SET ANSI_NULLS ON"
	units := utf16.Encode([]rune(text))
	buf := []byte{0xFF, 0xFE}
	for _, u := range units {
		buf = append(buf, byte(u), byte(u>>8))
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "dump.sql")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, text, got)
}

func TestReadInvalidEncoding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.sql")
	require.NoError(t, os.WriteFile(path, []byte{0xFF, 0x00, 0x80}, 0o644))

	_, err := Read(path)
	require.Error(t, err)
	var encErr *EncodingError
	assert.True(t, errors.As(err, &encErr))
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.sql"))
	require.Error(t, err)
	var ioErr *IoError
	assert.True(t, errors.As(err, &ioErr))
}
