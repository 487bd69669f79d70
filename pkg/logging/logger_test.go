package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want Level
	}{
		{"debug", DEBUG},
		{"DEBUG", DEBUG},
		{"info", INFO},
		{"warn", WARN},
		{"WARNING", WARN},
		{"error", ERROR},
		{"", INFO},
		{"nonsense", INFO},
	}
	for _, c := range cases {
		if got := ParseLevel(c.in); got != c.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WARN)
	l.SetOutput(&buf)

	l.Info("below threshold")
	l.Warn("at threshold")

	out := buf.String()
	if strings.Contains(out, "below threshold") {
		t.Error("INFO line should be filtered at WARN level")
	}
	if !strings.Contains(out, "at threshold") {
		t.Error("WARN line should pass at WARN level")
	}
}

func TestWithFieldAppearsOnEveryEntry(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(INFO)
	l.SetOutput(&buf)

	child := l.WithField("component", "api")
	child.Info("request handled")

	if !strings.Contains(buf.String(), "component:api") {
		t.Errorf("output %q should carry the component field", buf.String())
	}

	buf.Reset()
	l.Info("plain entry")
	if strings.Contains(buf.String(), "component") {
		t.Error("parent logger should not pick up the child's field")
	}
}

func TestNewFileLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	l, err := NewFileLogger("serve", INFO, dir)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	l.Info("listening")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "serve.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "listening") {
		t.Errorf("log file %q should contain the message", data)
	}
}
