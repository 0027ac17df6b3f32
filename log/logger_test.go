package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(os.Stdout)
	defer SetLevel(Notice)

	logger := New("test")

	SetLevel(Warning)
	logger.Info("hidden message")
	logger.Warning("visible message")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Fatalf("expected info message to be filtered at warning level; got %q", out)
	}
	if !strings.Contains(out, "visible message") || !strings.Contains(out, "[test]") {
		t.Fatalf("expected warning message tagged with module name; got %q", out)
	}

	SetLevel(Debug)
	if !Enabled(Debug) {
		t.Fatal("expected debug level to be enabled")
	}
}

func TestParseLevel(t *testing.T) {
	type spec struct {
		in  string
		exp Level
	}
	specs := []spec{
		{"debug", Debug},
		{"INFO", Info},
		{"notice", Notice},
		{"warn", Warning},
		{"error", Error},
	}

	for index, s := range specs {
		got, err := ParseLevel(s.in)
		if err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", index, err)
		}
		if got != s.exp {
			t.Fatalf("[spec %d] expected level %d; got %d", index, s.exp, got)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}
