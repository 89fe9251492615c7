// Package testutil provides testing utilities for osdrec tests.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/osdrec/internal/osd"
)

// FrameInterval is the delta step between frames written by WriteLog.
const FrameInterval = 10 * time.Millisecond

// SetupConfigEnv isolates a test from the user's configuration: viper is
// reset, XDG_CONFIG_HOME points into a temporary directory and the debug log
// is turned off. Returns a scratch directory for test output.
func SetupConfigEnv(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("OSDREC_LOGGING_ENABLED", "false")
	return dir
}

// EncodeLog returns an OSD log with a header for width x height followed by
// one record per payload, spaced FrameInterval apart starting at zero.
func EncodeLog(t *testing.T, width, height int, payloads ...[]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	enc := osd.NewEncoder(&buf)
	if err := enc.WriteHeader(osd.HeaderFor(width, height)); err != nil {
		t.Fatalf("failed to encode header: %v", err)
	}
	for i, p := range payloads {
		if err := enc.WriteFrame(time.Duration(i)*FrameInterval, p); err != nil {
			t.Fatalf("failed to encode frame %d: %v", i, err)
		}
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("failed to flush log: %v", err)
	}
	return buf.Bytes()
}

// WriteLog writes EncodeLog's output to dir/name and returns the path.
func WriteLog(t *testing.T, dir, name string, width, height int, payloads ...[]byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, EncodeLog(t, width, height, payloads...), 0644); err != nil {
		t.Fatalf("failed to write log: %v", err)
	}
	return path
}

// TruncateFile removes the last n bytes of the file at path, leaving the kind
// of tail a crash mid-write produces.
func TruncateFile(t *testing.T, path string, n int64) {
	t.Helper()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("failed to stat %s: %v", path, err)
	}
	if n > info.Size() {
		t.Fatalf("cannot cut %d bytes from a %d byte file", n, info.Size())
	}
	if err := os.Truncate(path, info.Size()-n); err != nil {
		t.Fatalf("failed to truncate %s: %v", path, err)
	}
}

// Payload returns a width*height payload whose cells count up from start.
func Payload(width, height int, start byte) []byte {
	p := make([]byte, width*height)
	for i := range p {
		p[i] = start + byte(i)
	}
	return p
}

// WaitFor polls cond until it returns true or timeout elapses.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v", timeout)
		}
		time.Sleep(time.Millisecond)
	}
}

// SyncBuffer is a bytes.Buffer safe for a writer goroutine and a reading test.
type SyncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SyncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns a copy of everything written so far.
func (b *SyncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
