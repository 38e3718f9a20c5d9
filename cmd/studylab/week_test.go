package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "week.ics")

	require.NoError(t, writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "BEGIN:VCALENDAR\r\n")
		return err
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "BEGIN:VCALENDAR\r\n", string(data))

	boom := errors.New("encode failed")
	err = writeFile(path, func(io.Writer) error { return boom })
	assert.ErrorIs(t, err, boom)

	err = writeFile(filepath.Join(t.TempDir(), "missing", "week.ics"), func(io.Writer) error { return nil })
	assert.ErrorContains(t, err, "creating")
}
