package electrumx

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/electrum-core/business/electrum/domain"
	"github.com/fd1az/electrum-core/internal/circuitbreaker"
	"github.com/fd1az/electrum-core/internal/logger"
)

const (
	probeTimeout       = 5 * time.Second
	probeClientVersion = "2.7.11"
)

// Prober checks whether an arbitrary host speaks the Electrum protocol.
type Prober struct {
	dialer *Dialer
	cb     *circuitbreaker.CircuitBreaker[struct{}]
	logger logger.LoggerInterface
}

// NewProber creates a new Prober.
func NewProber(tlsVerify bool, log logger.LoggerInterface) *Prober {
	cfg := circuitbreaker.DefaultConfig("electrum-probe")
	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}

	return &Prober{
		dialer: &Dialer{Timeout: probeTimeout, TLSVerify: tlsVerify},
		cb:     circuitbreaker.New[struct{}](cfg),
		logger: log,
	}
}

// TestConnection dials host on the TLS port if given, else the TCP port,
// and reports whether it answers a version handshake and a ping. The
// connection is always closed.
func (p *Prober) TestConnection(ctx context.Context, host string, tcpPort, sslPort uint16) bool {
	peer := domain.Peer{Host: host, Port: tcpPort, Transport: domain.TransportTCP}
	if sslPort != 0 {
		peer = domain.Peer{Host: host, Port: sslPort, Transport: domain.TransportTLS}
	}

	_, err := p.cb.Execute(func() (struct{}, error) {
		return struct{}{}, p.probe(ctx, peer)
	})
	if err != nil {
		p.logger.Info(ctx, "electrum probe failed", "peer", peer.String(), "error", err)
		return false
	}
	return true
}

func (p *Prober) probe(ctx context.Context, peer domain.Peer) error {
	conn, err := p.dialer.Dial(ctx, peer)
	if err != nil {
		return err
	}

	client, err := rpc.DialIO(ctx, conn, conn)
	if err != nil {
		conn.Close()
		return err
	}
	defer func() {
		conn.Close()
		client.Close()
	}()

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var version []string
	if err := client.CallContext(ctx, &version, domain.MethodServerVersion, probeClientVersion, "1.4"); err != nil {
		return err
	}
	var pong any
	return client.CallContext(ctx, &pong, domain.MethodServerPing)
}
