package cli

import "testing"

func TestWrapLine_ShortLinePassesThrough(t *testing.T) {
	line := "short line"
	if got := wrapLine(line, 40); got != line {
		t.Errorf("wrapLine() = %q, want unchanged %q", got, line)
	}
}

func TestWrapLine_WrapsAtWidth(t *testing.T) {
	got := wrapLine("the quick brown fox jumps over", 10)
	want := "the quick\nbrown fox\njumps over"
	if got != want {
		t.Errorf("wrapLine() = %q, want %q", got, want)
	}
}

func TestWrapLine_EmptyInput(t *testing.T) {
	if got := wrapLine("", 10); got != "" {
		t.Errorf("wrapLine(\"\") = %q, want empty", got)
	}
}

func TestWrap_PreservesExistingNewlines(t *testing.T) {
	got := wrap("first line\nsecond line here", 11)
	want := "first line\nsecond line\nhere"
	if got != want {
		t.Errorf("wrap() = %q, want %q", got, want)
	}
}

func TestWrap_SingleLineUnderWidth(t *testing.T) {
	in := "hello"
	if got := wrap(in, 80); got != in {
		t.Errorf("wrap() = %q, want unchanged %q", got, in)
	}
}
