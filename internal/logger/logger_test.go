package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		debug bool
		level zapcore.Level
	}{
		{debug: false, level: zapcore.InfoLevel},
		{debug: true, level: zapcore.DebugLevel},
	}

	for _, tt := range tests {
		log, err := New(tt.debug)
		if err != nil {
			t.Fatalf("New(%v) failed: %v", tt.debug, err)
		}
		if !log.Core().Enabled(tt.level) {
			t.Errorf("New(%v): expected %s enabled", tt.debug, tt.level)
		}
		if !tt.debug && log.Core().Enabled(zapcore.DebugLevel) {
			t.Error("production logger should not emit debug")
		}
	}
}
