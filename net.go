package taskloop

import (
	"net"
	"strconv"
)

// Endpoint is a host/port pair used to dial, bind and listen.
type Endpoint struct {
	Host string
	Port uint16
}

// String renders the endpoint as a dialable address.
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port)))
}

// endpointFromAddr converts a connected socket address back to an Endpoint.
func endpointFromAddr(addr net.Addr) Endpoint {
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return Endpoint{Host: addr.String()}
	}
	port, _ := strconv.Atoi(portStr)
	return Endpoint{Host: host, Port: uint16(port)}
}

// Resolved is one address produced by a name resolution.
type Resolved struct {
	IP   string
	Port uint16
}

// UDPRecvResult describes one received datagram.
type UDPRecvResult struct {
	From Endpoint
	N    int
}

// Stream is the await contract of a connected byte stream.
type Stream interface {
	Connect(fl *Flow, ep Endpoint, tok Token) error
	Read(fl *Flow, p []byte, tok Token) (int, error)
	Write(fl *Flow, p []byte, tok Token) (int, error)
	Close() error
	IsOpen() bool
}

// Listener is the await contract of a stream acceptor.
type Listener interface {
	Listen(fl *Flow, ep Endpoint, backlog int) error
	Accept(fl *Flow, tok Token) (*TCPStream, error)
	Close() error
	IsOpen() bool
}

// PacketSocket is the await contract of a datagram socket.
type PacketSocket interface {
	Bind(fl *Flow, ep Endpoint) error
	SendTo(fl *Flow, p []byte, ep Endpoint, tok Token) (int, error)
	RecvFrom(fl *Flow, p []byte, tok Token) (UDPRecvResult, error)
	Close() error
	IsOpen() bool
}

// HostResolver is the await contract of a name resolver.
type HostResolver interface {
	Resolve(fl *Flow, host string, port uint16, tok Token) ([]Resolved, error)
}

var (
	_ Stream       = (*TCPStream)(nil)
	_ Listener     = (*TCPListener)(nil)
	_ PacketSocket = (*UDPSocket)(nil)
	_ HostResolver = (*Resolver)(nil)
)
