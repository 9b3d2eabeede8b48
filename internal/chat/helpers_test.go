package chat

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/linechat/linechat-server/internal/auth"
	"github.com/linechat/linechat-server/internal/storage"
)

const (
	testPassword      = "pw"
	testAdminPassword = "adminpw"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func newTestCore(t *testing.T) *Core {
	t.Helper()

	files, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	guard := auth.NewGuard(testPassword, "", testAdminPassword, "", nil)
	return New(guard, files, nil, nopLogger())
}

// pipeChannel is an in-memory Channel. The test plays the client: it feeds
// lines into in and reads the server's output from out.
type pipeChannel struct {
	in   chan string
	out  chan string
	done chan struct{}
	once sync.Once
}

func newPipeChannel() *pipeChannel {
	return &pipeChannel{
		in:   make(chan string, 16),
		out:  make(chan string, 64),
		done: make(chan struct{}),
	}
}

func (p *pipeChannel) Send(ctx context.Context, line string) error {
	select {
	case <-p.done:
		return net.ErrClosed
	default:
	}
	select {
	case p.out <- line:
		return nil
	case <-p.done:
		return net.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pipeChannel) Receive(ctx context.Context) (string, error) {
	select {
	case line := <-p.in:
		return line, nil
	case <-p.done:
		return "", io.EOF
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *pipeChannel) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

// failingChannel rejects every send. Used to exercise dead-entry reaping.
type failingChannel struct{}

func (failingChannel) Send(context.Context, string) error { return errors.New("peer gone") }
func (failingChannel) Receive(ctx context.Context) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}
func (failingChannel) Close() error { return nil }

// testClient runs one session against a Core through a pipeChannel.
type testClient struct {
	t        *testing.T
	pipe     *pipeChannel
	finished chan struct{}
}

func dialCore(t *testing.T, c *Core) *testClient {
	t.Helper()

	tc := &testClient{t: t, pipe: newPipeChannel(), finished: make(chan struct{})}
	go func() {
		c.ServeChannel(context.Background(), tc.pipe)
		close(tc.finished)
	}()
	t.Cleanup(func() {
		_ = tc.pipe.Close()
		<-tc.finished
	})
	return tc
}

func (tc *testClient) send(line string) {
	tc.t.Helper()

	select {
	case tc.pipe.in <- line:
	case <-time.After(2 * time.Second):
		tc.t.Fatalf("timed out sending %q", line)
	}
}

// expect drains server output until a line containing substr arrives.
// Unrelated traffic (rosters, join notices) is skipped.
func (tc *testClient) expect(substr string) string {
	tc.t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case line := <-tc.pipe.out:
			if strings.Contains(line, substr) {
				return line
			}
		case <-deadline:
			tc.t.Fatalf("timed out waiting for line containing %q", substr)
			return ""
		}
	}
}

// expectSilence asserts that no line containing substr arrives within the
// given window.
func (tc *testClient) expectSilence(substr string, window time.Duration) {
	tc.t.Helper()

	deadline := time.After(window)
	for {
		select {
		case line := <-tc.pipe.out:
			if strings.Contains(line, substr) {
				tc.t.Fatalf("unexpected line %q", line)
			}
		case <-deadline:
			return
		}
	}
}

// expectFinished waits for the session goroutine to exit.
func (tc *testClient) expectFinished() {
	tc.t.Helper()

	select {
	case <-tc.finished:
	case <-time.After(2 * time.Second):
		tc.t.Fatal("session did not terminate")
	}
}

// handshake walks the password and username prompts.
func (tc *testClient) handshake(password, username string) {
	tc.t.Helper()

	tc.expect(promptPassword)
	tc.send(password)
	tc.expect(promptUsername)
	tc.send(username)
}

// join completes a full regular-user handshake and waits for the welcome.
func (tc *testClient) join(username string) {
	tc.t.Helper()

	tc.handshake(testPassword, username)
	tc.expect("Welcome " + username)
}

// joinAdmin completes the admin handshake including the second challenge.
func (tc *testClient) joinAdmin() {
	tc.t.Helper()

	tc.handshake(testPassword, adminUsername)
	tc.expect(promptAdminPassword)
	tc.send(testAdminPassword)
	tc.expect("Welcome " + adminUsername)
}
