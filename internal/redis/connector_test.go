package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/chatmark/internal/logger"
)

func validOptions() ConnectOptions {
	return ConnectOptions{
		Addr:           "127.0.0.1:1",
		ConnectTimeout: 200 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    20 * time.Millisecond,
		DialTimeout:    20 * time.Millisecond,
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ConnectOptions)
		want   string
	}{
		{"connect timeout", func(o *ConnectOptions) { o.ConnectTimeout = 0 }, "ConnectTimeout"},
		{"retry interval", func(o *ConnectOptions) { o.RetryInterval = 0 }, "RetryInterval"},
		{"max wait", func(o *ConnectOptions) { o.MaxWait = -1 }, "MaxWait"},
		{"ping timeout", func(o *ConnectOptions) { o.PingTimeout = 0 }, "PingTimeout"},
		{"warn threshold", func(o *ConnectOptions) { o.WarnThreshold = -1 }, "WarnThreshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions()
			tt.mutate(&opts)
			_, err := New(context.Background(), opts, logger.Nop())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("New() error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestNewGivesUpAfterTimeout(t *testing.T) {
	start := time.Now()
	client, err := New(context.Background(), validOptions(), logger.Nop())
	if err == nil {
		t.Fatal("expected an error for an unreachable address")
	}
	if client != nil {
		t.Fatal("expected no client on failure")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("took %v to give up", elapsed)
	}
}

func TestNewHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := validOptions()
	opts.ConnectTimeout = time.Minute
	if _, err := New(ctx, opts, logger.Nop()); err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}
