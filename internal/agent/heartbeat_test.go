package agent

import "testing"

func TestIsHeartbeatTrivial_EmptyContent(t *testing.T) {
	if !isHeartbeatTrivial("") {
		t.Error("empty content should be trivial")
	}
}

func TestIsHeartbeatTrivial_HeadingsAndBareChecklistItemsOnly(t *testing.T) {
	content := "# Heartbeat\n\n- [x] \n* [x]\n- [ ] \n* [ ]\n<!-- a comment -->\n"
	if !isHeartbeatTrivial(content) {
		t.Error("headings, blank lines, bare checklist markers and comments should be trivial")
	}
}

func TestIsHeartbeatTrivial_FalseWithActionableText(t *testing.T) {
	content := "# Heartbeat\n\nRemember to follow up with the client tomorrow."
	if isHeartbeatTrivial(content) {
		t.Error("free-form actionable text should not be considered trivial")
	}
}

func TestIsHeartbeatTrivial_FalseWithTaskTextOnChecklistLine(t *testing.T) {
	content := "# Heartbeat\n\n- [ ] Deploy the release\n"
	if isHeartbeatTrivial(content) {
		t.Error("a checklist item carrying real task text should not be considered trivial")
	}
}

func TestIsHeartbeatOK(t *testing.T) {
	cases := []struct {
		reply string
		want  bool
	}{
		{"HEARTBEATOK", true},
		{"heartbeatok", true},
		{"HEARTBEAT_OK", true},
		{"All good. HEARTBEATOK", true},
		{"I found something you should know about.", false},
		{"", false},
	}
	for _, c := range cases {
		if got := isHeartbeatOK(c.reply); got != c.want {
			t.Errorf("isHeartbeatOK(%q) = %v, want %v", c.reply, got, c.want)
		}
	}
}

func TestNewHeartbeat_DefaultsOriginAndInterval(t *testing.T) {
	h := NewHeartbeat(nil, "/workspace", 0, "", "")
	if h.interval != defaultHeartbeatInterval {
		t.Errorf("interval = %v, want default %v", h.interval, defaultHeartbeatInterval)
	}
	if h.originChan != "cli" || h.originChatID != "heartbeat" {
		t.Errorf("origin = %s/%s, want cli/heartbeat", h.originChan, h.originChatID)
	}
}

func TestTruncateForLog(t *testing.T) {
	short := "short string"
	if got := truncateForLog(short); got != short {
		t.Errorf("truncateForLog(short) = %q", got)
	}

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}
	got := truncateForLog(string(long))
	if len(got) != 203 || got[200:] != "..." {
		t.Errorf("truncateForLog(long) length = %d, suffix = %q", len(got), got[len(got)-3:])
	}
}
