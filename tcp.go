package taskloop

import (
	"context"
	"io"
	"net"
	"sync"
)

// TCPStream is a connected TCP byte stream whose operations run on the
// network bridge and resume the awaiter on the loop.
type TCPStream struct {
	nb *NetBridge

	mu   sync.Mutex
	conn net.Conn
}

// NewTCPStream creates an unconnected stream bound to the bridge.
func NewTCPStream(nb *NetBridge) *TCPStream {
	return &TCPStream{nb: nb}
}

// wrapConn adopts an already-connected socket (accept path).
func wrapConn(nb *NetBridge, conn net.Conn) (*TCPStream, error) {
	if err := nb.track(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &TCPStream{nb: nb, conn: conn}, nil
}

// Connect dials ep. Fails with KindInvalidArgument if the stream is already
// connected.
func (s *TCPStream) Connect(fl *Flow, ep Endpoint, tok Token) error {
	s.mu.Lock()
	open := s.conn != nil
	s.mu.Unlock()
	if open {
		return NewError(KindInvalidArgument, "stream already connected")
	}

	conn, err := awaitOp(fl, s.nb, tok, func() (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(context.Background(), "tcp", ep.String())
	})
	if err != nil {
		return err
	}
	if err := s.nb.track(conn); err != nil {
		_ = conn.Close()
		return err
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	return nil
}

// Read fills p with up to len(p) bytes. An orderly peer shutdown completes
// with (0, nil); other failures pass through.
func (s *TCPStream) Read(fl *Flow, p []byte, tok Token) (int, error) {
	conn, err := s.open()
	if err != nil {
		return 0, err
	}
	return awaitOp(fl, s.nb, tok, func() (int, error) {
		n, err := conn.Read(p)
		if err == io.EOF {
			return n, nil
		}
		return n, err
	})
}

// Write writes all of p or fails.
func (s *TCPStream) Write(fl *Flow, p []byte, tok Token) (int, error) {
	conn, err := s.open()
	if err != nil {
		return 0, err
	}
	return awaitOp(fl, s.nb, tok, func() (int, error) {
		return conn.Write(p)
	})
}

// LocalAddr returns the bound local endpoint, or the zero Endpoint when not
// connected.
func (s *TCPStream) LocalAddr() Endpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return Endpoint{}
	}
	return endpointFromAddr(s.conn.LocalAddr())
}

// RemoteAddr returns the peer endpoint, or the zero Endpoint when not
// connected.
func (s *TCPStream) RemoteAddr() Endpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return Endpoint{}
	}
	return endpointFromAddr(s.conn.RemoteAddr())
}

// Close shuts the stream down. Idempotent; unblocks in-flight operations.
func (s *TCPStream) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn == nil {
		return nil
	}
	s.nb.untrack(conn)
	return conn.Close()
}

// IsOpen reports whether the stream currently owns a socket.
func (s *TCPStream) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *TCPStream) open() (net.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, NewError(KindClosed, "stream not open")
	}
	return s.conn, nil
}

// TCPListener is a stream acceptor whose operations run on the network
// bridge.
type TCPListener struct {
	nb *NetBridge

	mu sync.Mutex
	ln net.Listener
}

// NewTCPListener creates an unbound listener bound to the bridge.
func NewTCPListener(nb *NetBridge) *TCPListener {
	return &TCPListener{nb: nb}
}

// Listen binds and listens on ep. backlog must not be negative; the value
// is validated but the kernel default applies (the platform listener
// exposes no knob). SO_REUSEADDR is set on the socket.
func (l *TCPListener) Listen(fl *Flow, ep Endpoint, backlog int) error {
	if backlog < 0 {
		return NewError(KindInvalidArgument, "negative backlog")
	}
	l.mu.Lock()
	open := l.ln != nil
	l.mu.Unlock()
	if open {
		return NewError(KindInvalidArgument, "listener already bound")
	}

	ln, err := awaitOp(fl, l.nb, Token{}, func() (net.Listener, error) {
		lc := net.ListenConfig{Control: reuseAddrControl}
		return lc.Listen(context.Background(), "tcp", ep.String())
	})
	if err != nil {
		return err
	}
	if err := l.nb.track(ln); err != nil {
		_ = ln.Close()
		return err
	}
	l.mu.Lock()
	l.ln = ln
	l.mu.Unlock()
	return nil
}

// Accept waits for and adopts the next inbound connection.
func (l *TCPListener) Accept(fl *Flow, tok Token) (*TCPStream, error) {
	l.mu.Lock()
	ln := l.ln
	l.mu.Unlock()
	if ln == nil {
		return nil, NewError(KindClosed, "listener not bound")
	}

	conn, err := awaitOp(fl, l.nb, tok, func() (net.Conn, error) {
		return ln.Accept()
	})
	if err != nil {
		return nil, err
	}
	return wrapConn(l.nb, conn)
}

// LocalAddr returns the bound endpoint, or the zero Endpoint when unbound.
// Useful after binding port 0.
func (l *TCPListener) LocalAddr() Endpoint {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return Endpoint{}
	}
	return endpointFromAddr(l.ln.Addr())
}

// Close shuts the listener down. Idempotent; unblocks a pending Accept.
func (l *TCPListener) Close() error {
	l.mu.Lock()
	ln := l.ln
	l.ln = nil
	l.mu.Unlock()
	if ln == nil {
		return nil
	}
	l.nb.untrack(ln)
	return ln.Close()
}

// IsOpen reports whether the listener currently owns a socket.
func (l *TCPListener) IsOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ln != nil
}
