package client

import (
	"errors"
	"testing"
	"time"

	"github.com/gong-cli/gong/internal/ngtest"
	"github.com/gong-cli/gong/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var log *zap.Logger

func init() {
	l, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	log = l
}

func chunk(kind protocol.Kind, payload string) protocol.Chunk {
	return protocol.Chunk{Kind: kind, Payload: []byte(payload)}
}

// newTestClient pins the environment collaborators and pushes the
// heartbeat out of the way so request sequences are predictable. Tests
// that care about heartbeats override the interval.
func newTestClient(port int, opts ...Option) *Client {
	base := []Option{
		WithLogger(log),
		WithHeartbeatInterval(time.Hour),
		WithEnviron(func() []string { return []string{"GONG_A=1", "GONG_B=2"} }),
		WithWorkdir(func() (string, error) { return "/tmp/gong-test", nil }),
	}
	return New("127.0.0.1", port, append(base, opts...)...)
}

func TestExecuteHelloWorld(t *testing.T) {
	srv, err := ngtest.Start(
		chunk(protocol.KindStdout, "Hello World\n"),
		chunk(protocol.KindExit, "0"),
	)
	require.NoError(t, err)
	defer srv.Close()

	c := newTestClient(srv.Port())
	defer c.Close()

	res, err := c.Execute("com.example.HelloWorld.Main")
	require.NoError(t, err)
	assert.Equal(t, "Hello World\n", res.Stdout)
	assert.Equal(t, "", res.Stderr)
	assert.Equal(t, 0, res.ExitCode)
}

func TestExecuteStderr(t *testing.T) {
	srv, err := ngtest.Start(
		chunk(protocol.KindStderr, "boom"),
		chunk(protocol.KindExit, "1"),
	)
	require.NoError(t, err)
	defer srv.Close()

	c := newTestClient(srv.Port())
	defer c.Close()

	res, err := c.Execute("com.example.Failing.Main")
	require.NoError(t, err)
	assert.Equal(t, "", res.Stdout)
	assert.Equal(t, "boom", res.Stderr)
	assert.Equal(t, 1, res.ExitCode)
}

func TestExecuteInterleavedStreams(t *testing.T) {
	srv, err := ngtest.Start(
		chunk(protocol.KindStdout, "A"),
		chunk(protocol.KindStderr, "E"),
		chunk(protocol.KindStdout, "B"),
		chunk(protocol.KindExit, "0"),
	)
	require.NoError(t, err)
	defer srv.Close()

	c := newTestClient(srv.Port())
	defer c.Close()

	res, err := c.Execute("com.example.Mixed.Main")
	require.NoError(t, err)
	assert.Equal(t, "AB", res.Stdout)
	assert.Equal(t, "E", res.Stderr)
	assert.Equal(t, 0, res.ExitCode)
}

func TestExecuteRequestSequence(t *testing.T) {
	srv, err := ngtest.Start(chunk(protocol.KindExit, "0"))
	require.NoError(t, err)
	defer srv.Close()

	c := newTestClient(srv.Port())
	defer c.Close()

	_, err = c.Execute("com.example.Echo.Main", "one", "two", "three")
	require.NoError(t, err)

	require.Equal(t, []protocol.Kind{
		protocol.KindArgument,
		protocol.KindArgument,
		protocol.KindArgument,
		protocol.KindEnvironment,
		protocol.KindEnvironment,
		protocol.KindCurrentDir,
		protocol.KindCommand,
	}, srv.ReceivedKinds())

	var payloads []string
	for _, received := range srv.Received() {
		payloads = append(payloads, string(received.Payload))
	}
	assert.Equal(t, []string{
		"one", "two", "three",
		"GONG_A=1", "GONG_B=2",
		"/tmp/gong-test",
		"com.example.Echo.Main",
	}, payloads)
}

func TestExecuteIgnoresSendInput(t *testing.T) {
	srv, err := ngtest.Start(
		chunk(protocol.KindSendInput, "ignored"),
		chunk(protocol.KindStdout, "ok"),
		chunk(protocol.KindExit, "0"),
	)
	require.NoError(t, err)
	defer srv.Close()

	c := newTestClient(srv.Port())
	defer c.Close()

	res, err := c.Execute("com.example.Interactive.Main")
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
}

func TestExecuteRejectsUnknownTag(t *testing.T) {
	srv, err := ngtest.Start(protocol.Chunk{Kind: protocol.Kind('Z')})
	require.NoError(t, err)
	defer srv.Close()

	c := newTestClient(srv.Port())
	defer c.Close()

	_, err = c.Execute("com.example.Bogus.Main")
	require.ErrorIs(t, err, protocol.ErrUnknownKind)
}

func TestExecuteRejectsNonServerKind(t *testing.T) {
	// A known tag, but one the server is never permitted to send.
	srv, err := ngtest.Start(chunk(protocol.KindCommand, "nope"))
	require.NoError(t, err)
	defer srv.Close()

	c := newTestClient(srv.Port())
	defer c.Close()

	_, err = c.Execute("com.example.Bogus.Main")
	require.ErrorIs(t, err, protocol.ErrUnknownKind)
}

func TestExecuteMalformedExitStatus(t *testing.T) {
	srv, err := ngtest.Start(chunk(protocol.KindExit, "not-a-number"))
	require.NoError(t, err)
	defer srv.Close()

	c := newTestClient(srv.Port())
	defer c.Close()

	_, err = c.Execute("com.example.Bogus.Main")
	require.ErrorIs(t, err, protocol.ErrBadPayload)
}

func TestConnectRefused(t *testing.T) {
	port, err := ngtest.FreeTCPPort()
	require.NoError(t, err)

	c := newTestClient(port, WithDialTimeout(time.Second))
	err = c.Connect()
	require.ErrorIs(t, err, ErrConnection)

	// A failed connect leaves the client disconnected and closable.
	require.NoError(t, c.Close())
}

func TestConnectIdempotent(t *testing.T) {
	srv, err := ngtest.Start(chunk(protocol.KindExit, "0"))
	require.NoError(t, err)
	defer srv.Close()

	c := newTestClient(srv.Port())
	defer c.Close()

	require.NoError(t, c.Connect())
	require.NoError(t, c.Connect())

	res, err := c.Execute("com.example.HelloWorld.Main")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
}

func TestCloseIdempotent(t *testing.T) {
	srv, err := ngtest.Start()
	require.NoError(t, err)
	defer srv.Close()

	c := newTestClient(srv.Port())
	require.NoError(t, c.Connect())

	done := make(chan error, 2)
	go func() {
		done <- c.Close()
		done <- c.Close()
	}()
	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("double close hung")
		}
	}
}

func TestCloseWithoutConnect(t *testing.T) {
	c := newTestClient(1)
	require.NoError(t, c.Close())
}

func TestHeartbeatEmitted(t *testing.T) {
	srv, err := ngtest.Start()
	require.NoError(t, err)
	defer srv.Close()

	interval := 50 * time.Millisecond
	c := newTestClient(srv.Port(), WithHeartbeatInterval(interval))
	defer c.Close()

	require.NoError(t, c.Connect())
	require.Eventually(t, func() bool {
		return srv.HeartbeatCount() >= 1
	}, 2*interval+time.Second, 10*time.Millisecond, "no heartbeat within 2x period")
}

func TestCloseUnblocksRead(t *testing.T) {
	// Server that never replies: Execute blocks in the read loop.
	srv, err := ngtest.Start()
	require.NoError(t, err)
	defer srv.Close()

	c := newTestClient(srv.Port())

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Execute("com.example.Hang.Main")
		errCh <- err
	}()

	// Let the execution reach the blocking read before closing.
	require.Eventually(t, func() bool {
		for _, k := range srv.ReceivedKinds() {
			if k == protocol.KindCommand {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Close())

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrTransport)
	case <-time.After(5 * time.Second):
		t.Fatal("read did not unblock after close")
	}
}

func TestReconnectAfterClose(t *testing.T) {
	srv, err := ngtest.Start(chunk(protocol.KindExit, "0"))
	require.NoError(t, err)
	defer srv.Close()

	c := newTestClient(srv.Port())
	require.NoError(t, c.Connect())
	require.NoError(t, c.Close())

	srv2, err := ngtest.Start(chunk(protocol.KindExit, "7"))
	require.NoError(t, err)
	defer srv2.Close()

	c2 := newTestClient(srv2.Port())
	defer c2.Close()
	res, err := c2.Execute("com.example.HelloWorld.Main")
	require.NoError(t, err)
	assert.Equal(t, 7, res.ExitCode)

	// The original client is also reusable after close.
	require.NoError(t, errCheckReconnect(c))
}

func errCheckReconnect(c *Client) error {
	// The first server accepted only one connection, so a fresh connect
	// fails at dial or at first I/O, but never panics or reuses the old
	// socket.
	if err := c.Connect(); err != nil {
		if errors.Is(err, ErrConnection) {
			return nil
		}
		return err
	}
	return c.Close()
}
