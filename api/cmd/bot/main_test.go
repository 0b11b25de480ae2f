package main

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRetryDelayFromError(t *testing.T) {
	tests := []struct {
		err  error
		want time.Duration
	}{
		{nil, 0},
		{errors.New("Too Many Requests: retry after 7"), 7 * time.Second},
		{errors.New("too many requests"), 3 * time.Second},
		{errors.New("boom"), time.Second},
	}
	for _, tt := range tests {
		if got := retryDelayFromError(tt.err); got != tt.want {
			t.Errorf("retryDelayFromError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestResolveDSN(t *testing.T) {
	t.Setenv("PGHOST", "")
	t.Setenv("POSTGRES_DB", "")
	if got := resolveDSN(""); got != "" {
		t.Fatalf("no postgres env: %q", got)
	}
	if got := resolveDSN(" postgres://u@h/db "); got != "postgres://u@h/db" {
		t.Fatalf("explicit: %q", got)
	}

	t.Setenv("PGHOST", "pg")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	got := resolveDSN("")
	if !strings.HasPrefix(got, "postgres://smas:secret@pg:5432/smas") {
		t.Fatalf("built dsn: %q", got)
	}
	if sum := safeDSNSummary(got); strings.Contains(sum, "secret") || sum != "host=pg port=5432 db=smas user=smas" {
		t.Fatalf("summary: %q", sum)
	}
}

func TestShortHash(t *testing.T) {
	a, b := shortHash("token-a"), shortHash("token-b")
	if len(a) != 16 || a == b || a != shortHash("token-a") {
		t.Fatalf("hashes: %s %s", a, b)
	}
}

func TestBotPort(t *testing.T) {
	t.Setenv("BOT_PORT", "")
	if got := botPort("8000"); got != "8001" {
		t.Fatalf("got %s", got)
	}
	t.Setenv("BOT_PORT", "9000")
	if got := botPort("8000"); got != "9000" {
		t.Fatalf("got %s", got)
	}
}
