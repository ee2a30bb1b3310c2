package logging

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		level string
		debug bool
		want  zap.AtomicLevel
	}{
		{"", false, zap.NewAtomicLevelAt(zap.InfoLevel)},
		{"warn", false, zap.NewAtomicLevelAt(zap.WarnLevel)},
		{"bogus", false, zap.NewAtomicLevelAt(zap.InfoLevel)},
		{"error", true, zap.NewAtomicLevelAt(zap.DebugLevel)},
	}
	for _, c := range cases {
		l, err := New(c.level, c.debug)
		if err != nil {
			t.Fatalf("New(%q,%v): %v", c.level, c.debug, err)
		}
		if got := l.Core().Enabled(c.want.Level()); !got {
			t.Errorf("New(%q,%v): level %s not enabled", c.level, c.debug, c.want.Level())
		}
		_ = l.Sync()
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("expected nop logger")
	}
	l := zap.NewExample()
	if OrNop(l) != l {
		t.Fatal("expected same logger")
	}
}
