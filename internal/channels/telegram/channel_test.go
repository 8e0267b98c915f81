package telegram

import "testing"

func TestParseChatID(t *testing.T) {
	id, err := parseChatID("123456789")
	if err != nil || id != 123456789 {
		t.Errorf("parseChatID() = (%d, %v), want (123456789, nil)", id, err)
	}

	if _, err := parseChatID("not-a-number"); err == nil {
		t.Error("expected an error for a non-numeric chat id")
	}

	negID, err := parseChatID("-100123456789")
	if err != nil || negID != -100123456789 {
		t.Errorf("parseChatID() = (%d, %v), want (-100123456789, nil)", negID, err)
	}
}

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
	}
	for _, c := range cases {
		if got := lastIndexByte(c.s, c.b); got != c.want {
			t.Errorf("lastIndexByte(%q, %q) = %d, want %d", c.s, c.b, got, c.want)
		}
	}
}
