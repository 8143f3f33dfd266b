// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// MediumCall is one recorded call on a [FakeMedium].
type MediumCall struct {
	Op  string
	URL string
	Pos time.Duration
	Vol float64
}

// FakeMedium records playback commands instead of producing sound.
type FakeMedium struct {
	mu       sync.Mutex
	Calls    []MediumCall
	Length   time.Duration
	Offset   time.Duration
	LoadErr  error
	OnLoaded func(url string)
}

func (f *FakeMedium) record(c MediumCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, c)
}

func (f *FakeMedium) Load(_ context.Context, url string) error {
	f.record(MediumCall{Op: "load", URL: url})
	if f.LoadErr != nil {
		return f.LoadErr
	}
	f.mu.Lock()
	f.Offset = 0
	f.mu.Unlock()
	if f.OnLoaded != nil {
		f.OnLoaded(url)
	}
	return nil
}

func (f *FakeMedium) Play() error  { f.record(MediumCall{Op: "play"}); return nil }
func (f *FakeMedium) Pause() error { f.record(MediumCall{Op: "pause"}); return nil }

func (f *FakeMedium) Seek(pos time.Duration) error {
	f.record(MediumCall{Op: "seek", Pos: pos})
	f.mu.Lock()
	f.Offset = pos
	f.mu.Unlock()
	return nil
}

func (f *FakeMedium) SetVolume(v float64) error {
	f.record(MediumCall{Op: "volume", Vol: v})
	return nil
}

func (f *FakeMedium) Position() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Offset
}

func (f *FakeMedium) Duration() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Length
}

func (f *FakeMedium) Close() error { return nil }

// Ops returns the recorded operation names in order.
func (f *FakeMedium) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ops := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Last returns the most recent call with op, and whether there was one.
func (f *FakeMedium) Last(op string) (MediumCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.Calls) - 1; i >= 0; i-- {
		if f.Calls[i].Op == op {
			return f.Calls[i], true
		}
	}
	return MediumCall{}, false
}

// Reset forgets recorded calls.
func (f *FakeMedium) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = nil
}

// RecordingOpener stands in for the system browser.
type RecordingOpener struct {
	mu   sync.Mutex
	URLs []string
	Err  error
}

func (o *RecordingOpener) Open(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.URLs = append(o.URLs, url)
	return o.Err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
