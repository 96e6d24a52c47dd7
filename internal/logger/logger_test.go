package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew(t *testing.T) {
	cases := []struct {
		level, format string
		wantLevel     logrus.Level
		json          bool
	}{
		{"debug", "json", logrus.DebugLevel, true},
		{"warn", "text", logrus.WarnLevel, false},
		{"info", "", logrus.InfoLevel, true},
	}
	for _, c := range cases {
		log, err := New(c.level, c.format)
		if err != nil {
			t.Fatalf("New(%q, %q): %v", c.level, c.format, err)
		}
		if log.GetLevel() != c.wantLevel {
			t.Fatalf("level = %v, want %v", log.GetLevel(), c.wantLevel)
		}
		if _, ok := log.Formatter.(*logrus.JSONFormatter); ok != c.json {
			t.Fatalf("format %q: json formatter = %v", c.format, ok)
		}
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", "json"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
