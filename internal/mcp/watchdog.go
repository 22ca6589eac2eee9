package mcp

import (
	"context"
	"os"
	"time"

	"collectsim/internal/logging"
)

// WatchParent monitors for parent process death in a background goroutine.
// When the parent PID changes (the connecting agent died or restarted), it
// calls cancelFn to trigger graceful shutdown so no orphaned server keeps
// running.
//
// This must NOT read from stdin. The SDK's StdioTransport owns stdin
// exclusively; reading here would steal bytes and corrupt the JSON-RPC
// stream.
//
// The goroutine exits when ctx is canceled or parent death is detected.
func WatchParent(ctx context.Context, interval time.Duration, cancelFn context.CancelFunc) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ppid := os.Getppid()
	logger := logging.New("mcp-watchdog")
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
				if os.Getppid() != ppid {
					logger.Warn("parent process died, shutting down", "was_pid", ppid)
					cancelFn()
					return
				}
			}
		}
	}()
}
