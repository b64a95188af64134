// Package app contains the support-server service.
package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fd1az/electrum-core/business/support/domain"
	"github.com/fd1az/electrum-core/internal/apperror"
	"github.com/fd1az/electrum-core/internal/cache"
	"github.com/fd1az/electrum-core/internal/logger"
)

// DifficultiesTTL is how long a server's difficulty list is reused.
const DifficultiesTTL = 5 * time.Minute

// Client is the transport to a support server.
type Client interface {
	CreateRequest(ctx context.Context, srv domain.Server, req domain.SupportRequest) (domain.RequestResult, error)
	RequestStatus(ctx context.Context, srv domain.Server, hash string) (domain.RequestStatus, error)
	Difficulties(ctx context.Context, srv domain.Server) ([]domain.Difficulty, error)
}

// Service resolves configured support servers and calls them.
type Service struct {
	client  Client
	servers []domain.Server
	diffs   *cache.Cache[string, []domain.Difficulty]
	log     logger.LoggerInterface
}

// NewService creates a Service over the configured servers.
func NewService(client Client, servers []domain.Server, log logger.LoggerInterface) *Service {
	return &Service{
		client:  client,
		servers: servers,
		diffs:   cache.New[string, []domain.Difficulty](DifficultiesTTL),
		log:     log,
	}
}

// Close stops the difficulty cache janitor.
func (s *Service) Close() {
	s.diffs.Close()
}

// Servers returns the configured servers.
func (s *Service) Servers() []domain.Server {
	out := make([]domain.Server, len(s.servers))
	copy(out, s.servers)
	return out
}

// Resolve finds a configured server by host or host:port. An empty name
// selects the default server, or the first one when none is marked.
func (s *Service) Resolve(name string) (domain.Server, error) {
	if len(s.servers) == 0 {
		return domain.Server{}, apperror.New(apperror.CodeSupportNoServer,
			apperror.WithContext("no support servers configured"))
	}

	name = strings.TrimSpace(name)
	if name == "" {
		for _, srv := range s.servers {
			if srv.IsDefault {
				return srv, nil
			}
		}
		return s.servers[0], nil
	}

	for _, srv := range s.servers {
		if strings.EqualFold(srv.Addr(), name) || strings.EqualFold(srv.Host, name) {
			return srv, nil
		}
	}
	return domain.Server{}, apperror.New(apperror.CodeSupportNoServer, apperror.WithContext(name))
}

// Difficulties returns the tiers offered by server, cached per server.
func (s *Service) Difficulties(ctx context.Context, server string) (domain.Server, error) {
	srv, err := s.Resolve(server)
	if err != nil {
		return domain.Server{}, err
	}

	if diffs, ok := s.diffs.Get(ctx, srv.Addr()); ok {
		srv.Difficulties = diffs
		return srv, nil
	}

	diffs, err := s.client.Difficulties(ctx, srv)
	if err != nil {
		s.log.Warn(ctx, "support difficulties unavailable", "server", srv.Addr(), "error", err)
		return domain.Server{}, s.wrap(err, srv, "difficulties")
	}

	s.diffs.Set(ctx, srv.Addr(), diffs, DifficultiesTTL)
	srv.Difficulties = diffs
	return srv, nil
}

// RequestSupport asks server to support the raw transaction txHex, paying
// reward to address.
func (s *Service) RequestSupport(ctx context.Context, server, txHex, address string, reward float64) (domain.RequestResult, error) {
	if txHex == "" || address == "" {
		return domain.RequestResult{}, apperror.Validation(apperror.CodeRequiredField, "tx and address are required")
	}
	srv, err := s.Resolve(server)
	if err != nil {
		return domain.RequestResult{}, err
	}

	res, err := s.client.CreateRequest(ctx, srv, domain.SupportRequest{Tx: txHex, Address: address, Reward: reward})
	if err != nil {
		s.log.Warn(ctx, "support request failed", "server", srv.Addr(), "error", err)
		return domain.RequestResult{}, s.wrap(err, srv, "request")
	}

	s.log.Info(ctx, "support requested", "server", srv.Addr(), "hash", res.Hash, "reward", reward)
	return res, nil
}

// RequestStatus returns the tickets for a request.
func (s *Service) RequestStatus(ctx context.Context, server, hash string) (domain.RequestStatus, error) {
	if hash == "" {
		return domain.RequestStatus{}, apperror.Validation(apperror.CodeRequiredField, "hash is required")
	}
	srv, err := s.Resolve(server)
	if err != nil {
		return domain.RequestStatus{}, err
	}

	st, err := s.client.RequestStatus(ctx, srv, hash)
	if err != nil {
		s.log.Warn(ctx, "support status failed", "server", srv.Addr(), "hash", hash, "error", err)
		return domain.RequestStatus{}, s.wrap(err, srv, "status")
	}
	if st.Tickets == nil {
		st.Tickets = []domain.Ticket{}
	}
	return st, nil
}

// wrap keeps breaker rejections as they are and reports everything else
// as a failed support request.
func (s *Service) wrap(err error, srv domain.Server, op string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.New(apperror.CodeSupportRequestFailed,
		apperror.WithContext(op+" "+srv.Addr()),
		apperror.WithKind(apperror.KindConnectivity),
		apperror.WithCause(err))
}
