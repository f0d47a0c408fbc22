package taskloop

import (
	"context"
	"net"
	"sync"
)

// UDPSocket is a datagram socket whose operations run on the network bridge.
type UDPSocket struct {
	nb *NetBridge

	mu   sync.Mutex
	conn *net.UDPConn
}

// NewUDPSocket creates an unbound socket bound to the bridge.
func NewUDPSocket(nb *NetBridge) *UDPSocket {
	return &UDPSocket{nb: nb}
}

// Bind binds the socket to ep. SO_REUSEADDR is set on the socket.
func (u *UDPSocket) Bind(fl *Flow, ep Endpoint) error {
	u.mu.Lock()
	open := u.conn != nil
	u.mu.Unlock()
	if open {
		return NewError(KindInvalidArgument, "socket already bound")
	}

	conn, err := awaitOp(fl, u.nb, Token{}, func() (*net.UDPConn, error) {
		lc := net.ListenConfig{Control: reuseAddrControl}
		pc, err := lc.ListenPacket(context.Background(), "udp", ep.String())
		if err != nil {
			return nil, err
		}
		return pc.(*net.UDPConn), nil
	})
	if err != nil {
		return err
	}
	if err := u.nb.track(conn); err != nil {
		_ = conn.Close()
		return err
	}
	u.mu.Lock()
	u.conn = conn
	u.mu.Unlock()
	return nil
}

// SendTo sends p to ep as one datagram.
func (u *UDPSocket) SendTo(fl *Flow, p []byte, ep Endpoint, tok Token) (int, error) {
	conn, err := u.open()
	if err != nil {
		return 0, err
	}
	return awaitOp(fl, u.nb, tok, func() (int, error) {
		addr, err := net.ResolveUDPAddr("udp", ep.String())
		if err != nil {
			return 0, err
		}
		return conn.WriteToUDP(p, addr)
	})
}

// RecvFrom receives one datagram into p.
func (u *UDPSocket) RecvFrom(fl *Flow, p []byte, tok Token) (UDPRecvResult, error) {
	conn, err := u.open()
	if err != nil {
		return UDPRecvResult{}, err
	}
	return awaitOp(fl, u.nb, tok, func() (UDPRecvResult, error) {
		n, addr, err := conn.ReadFromUDP(p)
		if err != nil {
			return UDPRecvResult{N: n}, err
		}
		return UDPRecvResult{
			From: Endpoint{Host: addr.IP.String(), Port: uint16(addr.Port)},
			N:    n,
		}, nil
	})
}

// LocalAddr returns the bound endpoint, or the zero Endpoint when unbound.
func (u *UDPSocket) LocalAddr() Endpoint {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn == nil {
		return Endpoint{}
	}
	return endpointFromAddr(u.conn.LocalAddr())
}

// Close shuts the socket down. Idempotent; unblocks in-flight operations.
func (u *UDPSocket) Close() error {
	u.mu.Lock()
	conn := u.conn
	u.conn = nil
	u.mu.Unlock()
	if conn == nil {
		return nil
	}
	u.nb.untrack(conn)
	return conn.Close()
}

// IsOpen reports whether the socket currently owns a descriptor.
func (u *UDPSocket) IsOpen() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.conn != nil
}

func (u *UDPSocket) open() (*net.UDPConn, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn == nil {
		return nil, NewError(KindClosed, "socket not bound")
	}
	return u.conn, nil
}
