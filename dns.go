package taskloop

import (
	"context"
	"net"
)

// Resolver performs name resolution on the network bridge.
type Resolver struct {
	nb *NetBridge
	r  net.Resolver
}

// NewResolver creates a resolver bound to the bridge.
func NewResolver(nb *NetBridge) *Resolver {
	return &Resolver{nb: nb}
}

// Resolve looks host up and pairs every resolved address with port.
func (r *Resolver) Resolve(fl *Flow, host string, port uint16, tok Token) ([]Resolved, error) {
	if host == "" {
		return nil, NewError(KindInvalidArgument, "empty host")
	}
	return awaitOp(fl, r.nb, tok, func() ([]Resolved, error) {
		addrs, err := r.r.LookupIPAddr(context.Background(), host)
		if err != nil {
			return nil, err
		}
		out := make([]Resolved, 0, len(addrs))
		for _, a := range addrs {
			out = append(out, Resolved{IP: a.IP.String(), Port: port})
		}
		return out, nil
	})
}
