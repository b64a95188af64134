// Package domain holds the support-server types.
package domain

import (
	"errors"
	"net"
	"strconv"
	"strings"
)

// ErrInvalidServer is returned for server strings that are not host[:port].
var ErrInvalidServer = errors.New("invalid support server")

// Difficulty is one support tier offered by a server: paying Amount to
// Address gets the transaction supported in roughly Time seconds.
type Difficulty struct {
	Amount  float64 `json:"amount"`
	Time    int64   `json:"time"`
	Address string  `json:"address"`
}

// Server is a support server endpoint.
type Server struct {
	Host         string       `json:"host"`
	Port         uint16       `json:"port,omitempty"`
	IsDefault    bool         `json:"isDefault,omitempty"`
	Difficulties []Difficulty `json:"difficulties,omitempty"`
}

// ParseServer parses "host" or "host:port". A leading "*" marks the default.
func ParseServer(s string) (Server, error) {
	s = strings.TrimSpace(s)
	var srv Server
	if strings.HasPrefix(s, "*") {
		srv.IsDefault = true
		s = s[1:]
	}
	if s == "" {
		return Server{}, ErrInvalidServer
	}

	host, port, err := net.SplitHostPort(s)
	if err != nil {
		if strings.Contains(s, ":") {
			return Server{}, ErrInvalidServer
		}
		srv.Host = s
		return srv, nil
	}
	p, err := strconv.ParseUint(port, 10, 16)
	if err != nil || host == "" || p == 0 {
		return Server{}, ErrInvalidServer
	}
	srv.Host = host
	srv.Port = uint16(p)
	return srv, nil
}

// Addr returns host[:port].
func (s Server) Addr() string {
	if s.Port == 0 {
		return s.Host
	}
	return net.JoinHostPort(s.Host, strconv.Itoa(int(s.Port)))
}

// BaseURL is the plain-http root the server API is served under.
func (s Server) BaseURL() string {
	return "http://" + s.Addr()
}

// SupportRequest asks a server to support a transaction.
type SupportRequest struct {
	Tx      string  `json:"tx"`
	Address string  `json:"address"`
	Reward  float64 `json:"reward"`
}

// RequestResult is the server reply to a support request.
type RequestResult struct {
	Status  bool   `json:"status"`
	Hash    string `json:"hash,omitempty"`
	Message string `json:"message,omitempty"`
}

// Ticket is a support ticket reported for a request. Servers attach
// arbitrary fields, so only the common ones are typed.
type Ticket struct {
	TxID      string `json:"txid,omitempty"`
	Height    int64  `json:"height,omitempty"`
	Confirmed bool   `json:"confirmed,omitempty"`
}

// RequestStatus is the state of a previously created support request.
type RequestStatus struct {
	Status  bool     `json:"status"`
	Tickets []Ticket `json:"tickets"`
}
