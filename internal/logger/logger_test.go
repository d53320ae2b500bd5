package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     Level
		wantDebug bool
		wantInfo  bool
	}{
		{"off", LevelOff, false, false},
		{"normal", LevelNormal, false, true},
		{"verbose", LevelVerbose, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(tt.level, &buf)
			log.Debug("debug %d", 1)
			log.Info("info %d", 2)

			out := buf.String()
			if got := strings.Contains(out, "debug 1"); got != tt.wantDebug {
				t.Fatalf("debug output = %v, want %v (%q)", got, tt.wantDebug, out)
			}
			if got := strings.Contains(out, "info 2"); got != tt.wantInfo {
				t.Fatalf("info output = %v, want %v (%q)", got, tt.wantInfo, out)
			}
			if log.GetLevel() != tt.level {
				t.Fatalf("GetLevel = %v, want %v", log.GetLevel(), tt.level)
			}
		})
	}
}

func TestSetLevelAffectsNamedChildren(t *testing.T) {
	var buf bytes.Buffer
	log := New(LevelOff, &buf)
	child := log.Named("catalog")

	child.Error("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output at LevelOff, got %q", buf.String())
	}

	log.SetLevel(LevelNormal)
	child.Warn("visible %s", "now")
	out := buf.String()
	if !strings.Contains(out, "visible now") || !strings.Contains(out, "catalog") {
		t.Fatalf("expected named warn line, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"off":     LevelOff,
		"quiet":   LevelOff,
		"debug":   LevelVerbose,
		"verbose": LevelVerbose,
		"info":    LevelNormal,
		"":        LevelNormal,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
