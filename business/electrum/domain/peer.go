// Package domain contains the core domain types for the electrum context.
package domain

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Transport selects how a peer is dialed.
type Transport string

const (
	TransportTCP Transport = "tcp"
	TransportTLS Transport = "tls"
	TransportWS  Transport = "ws"
	TransportWSS Transport = "wss"
)

// Peer identifies one candidate server. It is immutable once selected.
type Peer struct {
	Host      string
	Port      uint16
	Transport Transport
}

// ParsePeer parses "scheme://host:port". The "ssl" scheme is accepted as tls.
func ParsePeer(s string) (Peer, error) {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return Peer{}, fmt.Errorf("invalid peer %q", s)
	}

	t := Transport(strings.ToLower(u.Scheme))
	switch t {
	case "ssl":
		t = TransportTLS
	case TransportTCP, TransportTLS, TransportWS, TransportWSS:
	default:
		return Peer{}, fmt.Errorf("invalid peer %q: unknown transport %q", s, u.Scheme)
	}

	port, err := strconv.ParseUint(u.Port(), 10, 16)
	if err != nil || port == 0 {
		return Peer{}, fmt.Errorf("invalid peer %q: bad port", s)
	}

	return Peer{Host: u.Hostname(), Port: uint16(port), Transport: t}, nil
}

// IsOnion reports whether the host is an anonymized-network address.
func (p Peer) IsOnion() bool {
	return strings.HasSuffix(strings.ToLower(p.Host), ".onion")
}

// Address returns host:port.
func (p Peer) Address() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(int(p.Port)))
}

// URL returns the peer in "scheme://host:port" form.
func (p Peer) URL() string {
	return string(p.Transport) + "://" + p.Address()
}

func (p Peer) String() string {
	return p.URL()
}

// IsZero reports whether p is unset.
func (p Peer) IsZero() bool {
	return p.Host == ""
}
