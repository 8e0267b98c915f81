package providers

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHTTPError_Retryable(t *testing.T) {
	cases := []struct {
		status int
		want   bool
	}{
		{429, true},
		{500, true},
		{503, true},
		{400, false},
		{404, false},
		{200, false},
	}
	for _, c := range cases {
		e := &HTTPError{Status: c.status}
		if got := e.Retryable(); got != c.want {
			t.Errorf("HTTPError{Status:%d}.Retryable() = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestHTTPError_Error(t *testing.T) {
	e := &HTTPError{Status: 500, Body: "boom"}
	if got, want := e.Error(), "http 500: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestParseRetryAfter(t *testing.T) {
	cases := map[string]time.Duration{
		"":     0,
		"5":    5 * time.Second,
		"0":    0,
		"-3":   0,
		"abc":  0,
		"30":   30 * time.Second,
	}
	for header, want := range cases {
		if got := ParseRetryAfter(header); got != want {
			t.Errorf("ParseRetryAfter(%q) = %v, want %v", header, got, want)
		}
	}
}

func TestRetryDo_SucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	result, err := RetryDo(context.Background(), DefaultRetryConfig(), func() (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil || result != "ok" {
		t.Fatalf("RetryDo() = (%q, %v), want (ok, nil)", result, err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryDo_RetriesRetryableErrorThenSucceeds(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	calls := 0
	result, err := RetryDo(context.Background(), cfg, func() (string, error) {
		calls++
		if calls < 2 {
			return "", &HTTPError{Status: 500}
		}
		return "recovered", nil
	})
	if err != nil || result != "recovered" {
		t.Fatalf("RetryDo() = (%q, %v), want (recovered, nil)", result, err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRetryDo_StopsImmediatelyOnNonRetryableError(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	calls := 0
	_, err := RetryDo(context.Background(), cfg, func() (string, error) {
		calls++
		return "", &HTTPError{Status: 400}
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (non-retryable error should not retry)", calls)
	}
}

func TestRetryDo_ExhaustsAttempts(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	calls := 0
	_, err := RetryDo(context.Background(), cfg, func() (string, error) {
		calls++
		return "", &HTTPError{Status: 500}
	})
	if err == nil {
		t.Fatal("expected an error after exhausting attempts")
	}
	if calls != cfg.MaxAttempts {
		t.Errorf("calls = %d, want %d", calls, cfg.MaxAttempts)
	}
}

func TestRetryDo_StopsOnContextCancellation(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := RetryDo(ctx, cfg, func() (string, error) {
		calls++
		if calls == 1 {
			cancel()
		}
		return "", &HTTPError{Status: 500}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRetryDo_NonHTTPErrorIsRetried(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	calls := 0
	_, err := RetryDo(context.Background(), cfg, func() (string, error) {
		calls++
		return "", errors.New("network blip")
	})
	if err == nil {
		t.Fatal("expected an error after exhausting attempts")
	}
	if calls != cfg.MaxAttempts {
		t.Errorf("calls = %d, want %d (a plain error should be treated as retryable)", calls, cfg.MaxAttempts)
	}
}
