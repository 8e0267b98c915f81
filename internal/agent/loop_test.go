package agent

import "testing"

func TestSplitOrigin(t *testing.T) {
	cases := []struct {
		chatID      string
		wantChannel string
		wantID      string
		wantOK      bool
	}{
		{"telegram:12345", "telegram", "12345", true},
		{"cli:heartbeat", "cli", "heartbeat", true},
		{"no-colon-here", "", "", false},
		{"", "", "", false},
		{":leading-colon", "", "", false},
	}
	for _, c := range cases {
		channel, id, ok := splitOrigin(c.chatID)
		if channel != c.wantChannel || id != c.wantID || ok != c.wantOK {
			t.Errorf("splitOrigin(%q) = (%q, %q, %v), want (%q, %q, %v)",
				c.chatID, channel, id, ok, c.wantChannel, c.wantID, c.wantOK)
		}
	}
}
