package client

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/gong-cli/gong/internal/procenv"
	"github.com/gong-cli/gong/protocol"
	"go.uber.org/zap"
)

const (
	DefaultHost = "localhost"
	DefaultPort = 2113

	DefaultHeartbeatInterval = 500 * time.Millisecond
	DefaultDialTimeout       = 5 * time.Second
)

var (
	// ErrConnection means the TCP session could not be established.
	ErrConnection = errors.New("client: connection failed")
	// ErrTransport means socket I/O failed mid-session; the connection
	// should be considered dead.
	ErrTransport = errors.New("client: transport failure")
)

// Client owns one TCP connection to the server and the heartbeat goroutine
// bound to it.
type Client struct {
	log *zap.SugaredLogger

	host string
	port int

	heartbeatInterval time.Duration
	dialTimeout       time.Duration

	environ func() []string
	workdir func() (string, error)

	// frameMu serializes all socket access, shared by Execute's writes and
	// reads and by the heartbeat goroutine. No two chunks ever interleave
	// on the wire.
	frameMu sync.Mutex

	// stateMu guards connection lifecycle transitions.
	stateMu       sync.Mutex
	conn          net.Conn
	stopHeartbeat chan struct{}
	heartbeatDone chan struct{}
}

type Option func(c *Client)

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.log = l.Named("ngclient").Sugar()
	}
}

func WithHeartbeatInterval(d time.Duration) Option {
	return func(c *Client) {
		c.heartbeatInterval = d
	}
}

func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.dialTimeout = d
	}
}

// WithEnviron overrides the environment table sent with each command.
func WithEnviron(f func() []string) Option {
	return func(c *Client) {
		c.environ = f
	}
}

// WithWorkdir overrides the working directory sent with each command.
func WithWorkdir(f func() (string, error)) Option {
	return func(c *Client) {
		c.workdir = f
	}
}

// New builds a client for the server at host:port. Zero values select the
// default endpoint.
func New(host string, port int, opts ...Option) *Client {
	c := &Client{
		log:               zap.NewNop().Sugar(),
		host:              host,
		port:              port,
		heartbeatInterval: DefaultHeartbeatInterval,
		dialTimeout:       DefaultDialTimeout,
		environ:           procenv.Environ,
		workdir:           procenv.Workdir,
	}
	if c.host == "" {
		c.host = DefaultHost
	}
	if c.port == 0 {
		c.port = DefaultPort
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect establishes the TCP session and starts the heartbeat goroutine.
// It is idempotent: a connected client keeps its socket and heartbeat.
func (c *Client) Connect() error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.conn != nil {
		return nil
	}

	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))
	conn, err := net.DialTimeout("tcp", addr, c.dialTimeout)
	if err != nil {
		return fmt.Errorf("%w: dialing %s: %s", ErrConnection, addr, err)
	}
	c.log.Debugw("connected", "Addr", addr)

	c.conn = conn
	c.stopHeartbeat = make(chan struct{})
	c.heartbeatDone = make(chan struct{})
	go c.heartbeatLoop(c.stopHeartbeat, c.heartbeatDone)
	return nil
}

// Close tears down the session: it signals the heartbeat goroutine, closes
// the socket, and waits for the heartbeat to terminate before returning.
// Closing a disconnected client is a no-op. A later Connect opens a fresh
// socket and a fresh heartbeat.
func (c *Client) Close() error {
	c.stateMu.Lock()
	if c.conn == nil {
		c.stateMu.Unlock()
		return nil
	}
	conn := c.conn
	stop, done := c.stopHeartbeat, c.heartbeatDone
	c.conn = nil
	c.stateMu.Unlock()

	close(stop)
	// The socket is closed without frameMu: an in-flight readChunk holds
	// that mutex while blocked, and net.Conn.Close is what unblocks it.
	// Errors from an already-broken socket are irrelevant here.
	conn.Close()
	<-done

	c.log.Debug("closed")
	return nil
}

func (c *Client) current() net.Conn {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.conn
}

// writeChunk writes one framed chunk under the shared frame mutex.
func (c *Client) writeChunk(kind protocol.Kind, payload []byte) error {
	c.frameMu.Lock()
	defer c.frameMu.Unlock()

	conn := c.current()
	if conn == nil {
		return fmt.Errorf("%w: not connected", ErrTransport)
	}
	if err := protocol.WriteChunk(conn, kind, payload); err != nil {
		return fmt.Errorf("%w: writing %s chunk: %s", ErrTransport, kind, err)
	}
	return nil
}

// readChunk reads one chunk under the shared frame mutex. The kind is
// validated against the server-permitted set before the payload is read;
// anything else is fatal to the execution in progress.
func (c *Client) readChunk() (protocol.Chunk, error) {
	c.frameMu.Lock()
	defer c.frameMu.Unlock()

	conn := c.current()
	if conn == nil {
		return protocol.Chunk{}, fmt.Errorf("%w: not connected", ErrTransport)
	}

	var hdr [protocol.HeaderLen]byte
	if _, err := io.ReadFull(conn, hdr[:]); err != nil {
		return protocol.Chunk{}, fmt.Errorf("%w: reading chunk header: %s", ErrTransport, err)
	}
	h, err := protocol.DecodeHeader(hdr[:])
	if err != nil {
		return protocol.Chunk{}, err
	}
	if !h.Kind.IsServerKind() {
		return protocol.Chunk{}, fmt.Errorf("%w: %s chunk not permitted from server", protocol.ErrUnknownKind, h.Kind)
	}

	payload := make([]byte, h.Length)
	if h.Length > 0 {
		if _, err := io.ReadFull(conn, payload); err != nil {
			return protocol.Chunk{}, fmt.Errorf("%w: reading %s payload: %s", ErrTransport, h.Kind, err)
		}
	}
	return protocol.Chunk{Kind: h.Kind, Payload: payload}, nil
}
