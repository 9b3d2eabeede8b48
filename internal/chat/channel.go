package chat

import "context"

// Channel is one connected client's bidirectional, line-oriented message
// stream. The core depends on the transport only through this contract.
//
// Implementations must allow Send and Close from goroutines other than the
// one blocked in Receive, and Close must unblock a pending Receive. That is
// what lets an admin session force-disconnect another session's connection.
type Channel interface {
	Send(ctx context.Context, line string) error
	Receive(ctx context.Context) (string, error)
	Close() error
}
