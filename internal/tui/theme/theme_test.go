package theme

import (
	"strings"
	"testing"
)

func TestCurrentDefaultsToCatppuccinMocha(t *testing.T) {
	SetCurrent(nil)
	th := Current()
	if th == nil || th.Name != "catppuccin-mocha" {
		t.Fatalf("expected catppuccin-mocha default, got %+v", th)
	}
	if !th.IsDark {
		t.Error("mocha is a dark theme")
	}
	if th.Primary != "#cba6f7" || th.Error != "#f38ba8" {
		t.Errorf("unexpected palette: %+v", th)
	}
}

func TestSetCurrent(t *testing.T) {
	custom := &Theme{Name: "custom", Primary: "#ffffff"}
	SetCurrent(custom)
	defer SetCurrent(nil)

	if Current().Name != "custom" {
		t.Errorf("SetCurrent not honored: %s", Current().Name)
	}
}

func TestInterpolateColor(t *testing.T) {
	if got := InterpolateColor("#000000", "#ffffff", 0); got != "#000000" {
		t.Errorf("pos 0 should return first color, got %s", got)
	}
	if got := InterpolateColor("#000000", "#ffffff", 1); got != "#ffffff" {
		t.Errorf("pos 1 should return second color, got %s", got)
	}
	mid := InterpolateColor("#000000", "#ffffff", 0.5)
	r, g, b := ParseHexColor(mid)
	if r != g || g != b || r < 120 || r > 135 {
		t.Errorf("midpoint should be mid gray, got %s", mid)
	}
}

func TestApplyGradient(t *testing.T) {
	out := ApplyGradient("abc", "#ff0000", "#0000ff")
	if !strings.Contains(out, "a") || !strings.Contains(out, "c") {
		t.Error("gradient output should preserve the text")
	}
	if !strings.Contains(out, "\x1b[38;2;255;0;0m") {
		t.Error("first rune should carry the start color")
	}
	if !strings.HasSuffix(out, "\x1b[0m") {
		t.Error("gradient should reset at the end")
	}
	if ApplyGradient("", "#ff0000", "#0000ff") != "" {
		t.Error("empty text should stay empty")
	}
}
