package framevk

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withFatalLogPath(t *testing.T, path string) {
	t.Helper()
	old := FatalLogPath
	FatalLogPath = path
	t.Cleanup(func() { FatalLogPath = old })
}

func TestFatalLoggerWritesFileAndStderr(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fatal_log.txt")
	withFatalLogPath(t, path)

	var stderr bytes.Buffer
	l, done := fatalLogger(&stderr)
	l.Printf("%+v", errors.Wrap(ErrZeroExtent, "draw frame"))
	done()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "FATAL: ")
	assert.Contains(t, stderr.String(), "draw frame: framevk: surface has zero area")
	assert.Equal(t, stderr.String(), string(data))
}

func TestFatalLoggerFallsBackToStderr(t *testing.T) {
	withFatalLogPath(t, filepath.Join(t.TempDir(), "missing", "fatal_log.txt"))

	var stderr bytes.Buffer
	l, done := fatalLogger(&stderr)
	l.Printf("%v", ErrNoSuitableDevice)
	done()

	assert.Contains(t, stderr.String(), "no suitable physical device")
}
