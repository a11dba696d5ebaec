package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestFormatNumber(t *testing.T) {
	tc := []struct {
		name string
		in   int
		want string
	}{
		{name: "below a thousand", in: 950, want: "950"},
		{name: "thousands", in: 5000, want: "5,000"},
		{name: "tens of thousands", in: 15000, want: "15,000"},
		{name: "millions", in: 1234567, want: "1,234,567"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatNumber(tt.in); got != tt.want {
				t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	if got := FormatMiles(48250); got != "48,250 mi" {
		t.Errorf("FormatMiles() = %q, want %q", got, "48,250 mi")
	}
}

func TestLogger(t *testing.T) {
	t.Run("SetLogLevel", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&buf)
		SetLogLevel(l, "warn")
		l.Info("hidden")
		l.Warn("shown")

		out := buf.String()
		if strings.Contains(out, "hidden") {
			t.Errorf("info line should be filtered at warn level: %s", out)
		}
		if !strings.Contains(out, "shown") {
			t.Errorf("warn line missing: %s", out)
		}
	})

	t.Run("SetLogLevel falls back to info", func(t *testing.T) {
		l := NewLogger(&bytes.Buffer{})
		SetLogLevel(l, "chatty")
		if l.GetLevel() != log.InfoLevel {
			t.Errorf("expected info level, got %v", l.GetLevel())
		}
	})

	t.Run("NewFileLogger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "tekx.log")
		l, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger() error = %v", err)
		}
		l.Info("written")
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(data), "written") {
			t.Errorf("log file missing entry: %s", data)
		}
	})

	t.Run("GenerateID", func(t *testing.T) {
		a, b := GenerateID(), GenerateID()
		if a == b {
			t.Error("expected distinct ids")
		}
		if len(a) != 36 {
			t.Errorf("expected uuid string, got %q", a)
		}
	})
}
