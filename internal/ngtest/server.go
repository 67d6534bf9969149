// Package ngtest runs an in-process scripted server speaking the chunk
// protocol, so client tests exercise real sockets instead of stubbed
// readers.
package ngtest

import (
	"net"
	"sync"

	"github.com/gong-cli/gong/protocol"
)

// Server accepts a single connection, records every chunk the client
// sends, and plays back the scripted reply chunks once the command chunk
// arrives. The connection then stays open (draining heartbeats) until
// either side closes.
type Server struct {
	listener net.Listener
	replies  []protocol.Chunk
	done     chan struct{}

	mu       sync.Mutex
	conn     net.Conn
	received []protocol.Chunk
}

// Start listens on an ephemeral localhost port and serves one connection
// in the background.
func Start(replies ...protocol.Chunk) (*Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &Server{
		listener: listener,
		replies:  replies,
		done:     make(chan struct{}),
	}
	go s.serve()
	return s, nil
}

// Port returns the port the server is listening on.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Received returns a snapshot of the chunks read from the client so far,
// in arrival order.
func (s *Server) Received() []protocol.Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]protocol.Chunk, len(s.received))
	copy(out, s.received)
	return out
}

// ReceivedKinds returns the kinds of Received, with heartbeats filtered
// out. Heartbeat arrival is timing-dependent and never part of a request
// sequence assertion.
func (s *Server) ReceivedKinds() []protocol.Kind {
	kinds := []protocol.Kind{}
	for _, chunk := range s.Received() {
		if chunk.Kind == protocol.KindHeartbeat {
			continue
		}
		kinds = append(kinds, chunk.Kind)
	}
	return kinds
}

// HeartbeatCount returns how many heartbeat chunks have arrived so far.
func (s *Server) HeartbeatCount() int {
	n := 0
	for _, chunk := range s.Received() {
		if chunk.Kind == protocol.KindHeartbeat {
			n++
		}
	}
	return n
}

// Close tears down the listener and any live connection and waits for the
// serve goroutine to finish.
func (s *Server) Close() error {
	s.listener.Close()
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.mu.Unlock()
	<-s.done
	return nil
}

func (s *Server) serve() {
	defer close(s.done)
	conn, err := s.listener.Accept()
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	defer conn.Close()

	for {
		chunk, err := protocol.ReadChunk(conn)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.received = append(s.received, chunk)
		s.mu.Unlock()
		if chunk.Kind == protocol.KindCommand {
			break
		}
	}

	for _, reply := range s.replies {
		if err := protocol.WriteChunk(conn, reply.Kind, reply.Payload); err != nil {
			return
		}
	}

	// Keep the session open and drain heartbeats until the client closes.
	for {
		chunk, err := protocol.ReadChunk(conn)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.received = append(s.received, chunk)
		s.mu.Unlock()
	}
}
