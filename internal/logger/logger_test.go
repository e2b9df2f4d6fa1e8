package logger

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_Levels(t *testing.T) {
	testCases := []struct {
		name string
		cfg  Config
		want zerolog.Level
	}{
		{"default", Config{}, zerolog.InfoLevel},
		{"explicit warn", Config{Level: "warn"}, zerolog.WarnLevel},
		{"debug overrides level", Config{Level: "error", Debug: true}, zerolog.DebugLevel},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, err := New(tc.cfg)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if l.GetLevel() != tc.want {
				t.Errorf("level = %v, want %v", l.GetLevel(), tc.want)
			}
		})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New(Config{Level: "chatty"}); err == nil {
		t.Fatal("New with invalid level should fail")
	}
}

func TestNewTestLogger_Disabled(t *testing.T) {
	l := NewTestLogger()
	if l.GetLevel() != zerolog.Disabled {
		t.Errorf("level = %v, want disabled", l.GetLevel())
	}
}
