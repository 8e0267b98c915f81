package discord

import "testing"

func TestLastIndexByte(t *testing.T) {
	cases := []struct {
		s    string
		b    byte
		want int
	}{
		{"a.b.c", '.', 3},
		{"no-dots-here", '.', -1},
		{"", '.', -1},
		{".", '.', 0},
		{"guild.channel.thread", '.', 13},
	}
	for _, c := range cases {
		if got := lastIndexByte(c.s, c.b); got != c.want {
			t.Errorf("lastIndexByte(%q, %q) = %d, want %d", c.s, c.b, got, c.want)
		}
	}
}
