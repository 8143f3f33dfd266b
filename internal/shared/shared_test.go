package shared

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestSanitizeFilename(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Artist - Title", want: "Artist - Title"},
		{name: "slashes and quotes", input: `AC/DC - "Back" in Black?`, want: "ACDC - Back in Black"},
		{name: "keeps dots", input: "Mr. Brightside.mp3", want: "Mr. Brightside.mp3"},
		{name: "only unsafe", input: "***", want: ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	if got := ParseLevel("DEBUG"); got != log.DebugLevel {
		t.Errorf("expected debug level, got %v", got)
	}
	if got := ParseLevel("nonsense"); got != log.InfoLevel {
		t.Errorf("expected info fallback, got %v", got)
	}
}

func TestGenerateState(t *testing.T) {
	a, b := GenerateState(), GenerateState()
	if a == b {
		t.Error("expected distinct states")
	}
	if strings.Contains(a, "-") || len(a) != 32 {
		t.Errorf("unexpected state format %q", a)
	}
}

func TestNewFileLogger(t *testing.T) {
	t.Run("writes to rotated file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "app.log")
		logger, closer, err := NewFileLogger(LogConfig{Level: "info", Path: path, MaxSizeMB: 1})
		if err != nil {
			t.Fatalf("NewFileLogger failed: %v", err)
		}

		logger.Info("hello from test")
		if err := closer.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("log file not written: %v", err)
		}
		if !strings.Contains(string(data), "hello from test") {
			t.Errorf("log file missing entry: %s", data)
		}
	})

	t.Run("requires a path", func(t *testing.T) {
		if _, _, err := NewFileLogger(LogConfig{}); err == nil {
			t.Error("expected error for empty path")
		}
	})
}

func TestBrowserCommand(t *testing.T) {
	for _, goos := range []string{"darwin", "linux", "windows"} {
		t.Run(goos, func(t *testing.T) {
			cmd, err := browserCommand(goos, "https://example.com")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Args[len(cmd.Args)-1] != "https://example.com" {
				t.Errorf("url should be last arg, got %v", cmd.Args)
			}
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		if _, err := browserCommand("plan9", "https://example.com"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}
