// Package cli implements the reserved "cli" channel: an interactive
// stdin/stdout adapter for local use, wired into cmd/chat.go. It has no
// allow-list, since the operator running the process is implicitly trusted;
// its lines still pass through BaseChannel's per-sender rate limiter like
// every other transport's.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"

	"github.com/nanorelay/nanorelay/internal/bus"
	"github.com/nanorelay/nanorelay/internal/channels"
)

const defaultSenderID = "operator"

// Channel reads one message per line from an input stream and writes
// replies to an output stream, wrapped to the terminal width.
type Channel struct {
	*channels.BaseChannel
	in      *bufio.Scanner
	out     io.Writer
	chatID  string
	width   int
	running bool
	mu      sync.Mutex
	done    chan struct{}
}

// New creates a CLI channel reading from in and writing to out. chatID
// scopes the session (e.g. "repl" for an interactive run); width is the
// terminal column count used to wrap replies (0 disables wrapping).
func New(msgBus *bus.MessageBus, in io.Reader, out io.Writer, chatID string, width int) *Channel {
	if chatID == "" {
		chatID = "repl"
	}
	return &Channel{
		BaseChannel: channels.NewBaseChannel("cli", msgBus, nil),
		in:          bufio.NewScanner(in),
		out:         out,
		chatID:      chatID,
		width:       width,
	}
}

func (c *Channel) Start(ctx context.Context) error {
	c.mu.Lock()
	c.running = true
	c.done = make(chan struct{})
	c.mu.Unlock()
	c.SetRunning(true)

	go func() {
		defer close(c.done)
		for c.in.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}
			line := strings.TrimSpace(c.in.Text())
			if line == "" {
				continue
			}
			c.HandleMessage(defaultSenderID, c.chatID, line, nil, nil)
		}
		if err := c.in.Err(); err != nil {
			slog.Warn("cli input read error", "error", err)
		}
	}()
	return nil
}

func (c *Channel) Stop(_ context.Context) error {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
	c.SetRunning(false)
	return nil
}

func (c *Channel) Send(_ context.Context, msg bus.OutboundMessage) error {
	if msg.Content == "" {
		return nil
	}
	text := msg.Content
	if c.width > 0 {
		text = wrap(text, c.width)
	}
	_, err := fmt.Fprintln(c.out, text)
	return err
}

// IsAllowed always admits the local operator: the cli channel has no
// network boundary to police.
func (c *Channel) IsAllowed(string) bool { return true }

// wrap reformats text to fit within width columns, measuring rune display
// width (not byte count) so wide/CJK characters wrap correctly.
func wrap(text string, width int) string {
	var out strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(wrapLine(line, width))
	}
	return out.String()
}

func wrapLine(line string, width int) string {
	if runewidth.StringWidth(line) <= width {
		return line
	}
	var out strings.Builder
	lineWidth := 0
	words := strings.Split(line, " ")
	for i, word := range words {
		wWidth := runewidth.StringWidth(word)
		if lineWidth > 0 && lineWidth+1+wWidth > width {
			out.WriteByte('\n')
			lineWidth = 0
		} else if i > 0 && lineWidth > 0 {
			out.WriteByte(' ')
			lineWidth++
		}
		out.WriteString(word)
		lineWidth += wWidth
	}
	return out.String()
}

// RunREPL drives a blocking read-eval-print loop against stdin/stdout until
// EOF or ctx is cancelled. It is a thin convenience wrapper for cmd/chat.go;
// actual message handling flows through the normal bus subscription.
func RunREPL(ctx context.Context, ch *Channel) error {
	if err := ch.Start(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-ch.done:
	}
	return ch.Stop(context.Background())
}

// StdChannel builds a CLI channel bound to os.Stdin/os.Stdout.
func StdChannel(msgBus *bus.MessageBus, chatID string) *Channel {
	return New(msgBus, os.Stdin, os.Stdout, chatID, 0)
}
