package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerDisabledByDefault(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := NewLogger(&buf, "test", "")
	logger.Info("hidden")
	logger.Error("hidden", errors.New("boom"))
	if buf.Len() != 0 {
		t.Errorf("expected no output from disabled logger, got %q", buf.String())
	}
}

func TestZerologAdapterFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := NewLogger(&buf, "pollard", "debug")
	logger.Debug("bound escalated",
		Uint64("bound", 2050),
		Hex("n", big.NewInt(255)),
		Bool("accelerated", true),
		String("backend", "sequential"),
		Int("probes", 3),
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	checks := map[string]any{
		"component":   "pollard",
		"message":     "bound escalated",
		"level":       "debug",
		"n":           "0xff",
		"backend":     "sequential",
		"accelerated": true,
		"bound":       float64(2050),
		"probes":      float64(3),
	}
	for key, want := range checks {
		if entry[key] != want {
			t.Errorf("field %q = %v, want %v", key, entry[key], want)
		}
	}
}

func TestZerologAdapterError(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := NewLogger(&buf, "app", "info")
	logger.Error("attempt failed", errors.New("boom"))
	logger.Debug("filtered")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q", buf.String())
	}
	if entry["error"] != "boom" {
		t.Errorf("error field = %v, want boom", entry["error"])
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in    string
		want  zerolog.Level
		valid bool
	}{
		{"", zerolog.Disabled, true},
		{"disabled", zerolog.Disabled, true},
		{"debug", zerolog.DebugLevel, true},
		{"WARN", zerolog.WarnLevel, true},
		{"error", zerolog.ErrorLevel, true},
		{"verbose", zerolog.InfoLevel, false},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if got := ValidLevel(tt.in); got != tt.valid {
			t.Errorf("ValidLevel(%q) = %v, want %v", tt.in, got, tt.valid)
		}
	}
}

func TestHexNil(t *testing.T) {
	t.Parallel()
	if f := Hex("n", nil); f.Value != "<nil>" {
		t.Errorf("Hex(nil) = %v", f.Value)
	}
}
