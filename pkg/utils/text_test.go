package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if got := Truncate("ロボット掃除機", 3); got != "ロボッ..." {
		t.Errorf("runes: got %s", got)
	}
}

func TestOneLine(t *testing.T) {
	if got := OneLine("[Source 1: Widget]\nThe  blue\twidget "); got != "[Source 1: Widget] The blue widget" {
		t.Errorf("got %q", got)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := map[string]string{
		"":                    "",
		"short":               "****",
		"sk-or-v1-abcdef1234": "****1234",
	}
	for in, want := range tests {
		if got := MaskSecret(in); got != want {
			t.Errorf("MaskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}
