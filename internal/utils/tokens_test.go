package utils_test

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/samarth-cli/internal/utils"
)

func TestCountTokens(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"short", "hi", 1},
		{"ascii", "hello world!", 3},
		{"devanagari", "पंजाब", 1},
		{"long", strings.Repeat("a", 4000), 1000},
	}
	for _, c := range cases {
		if got := utils.CountTokens(c.in); got != c.want {
			t.Errorf("%s: got %d, want %d", c.name, got, c.want)
		}
	}
}

func TestTruncateToTokenLimit(t *testing.T) {
	if got := utils.TruncateToTokenLimit("short", 100); got != "short" {
		t.Fatalf("text within budget changed: %q", got)
	}
	if got := utils.TruncateToTokenLimit("anything", 0); got != "" {
		t.Fatalf("zero limit should yield empty string, got %q", got)
	}

	text := strings.Repeat("abcd ", 1000)
	trunc := utils.TruncateToTokenLimit(text, 300)
	if n := utils.CountTokens(trunc); n > 300 {
		t.Fatalf("tokens=%d exceeds limit", n)
	}
	if !strings.HasSuffix(trunc, utils.TruncationMarker) {
		t.Fatalf("expected truncation marker, got %q", trunc[len(trunc)-20:])
	}
}

func TestTruncateToTokenLimitPrefersLineBreak(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("Punjab,Rice,2010,1234.5\n")
	}
	trunc := utils.TruncateToTokenLimit(b.String(), 40)
	body := strings.TrimSuffix(trunc, utils.TruncationMarker)
	if !strings.HasSuffix(body, "\n") {
		t.Fatalf("expected cut at a row boundary, got %q", body)
	}
	if strings.Count(body, "\n") == 0 {
		t.Fatalf("expected at least one full row")
	}
}
