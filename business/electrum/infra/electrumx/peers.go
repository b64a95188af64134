package electrumx

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/fd1az/electrum-core/business/electrum/app"
	"github.com/fd1az/electrum-core/business/electrum/domain"
	"github.com/fd1az/electrum-core/internal/logger"
)

// PeerSelector picks the next server to dial.
type PeerSelector struct {
	peers []domain.Peer
	prefs app.PreferenceStore
	log   logger.LoggerInterface

	mu   sync.Mutex
	next int
}

// NewPeerSelector creates a selector that rotates over peers from a random
// starting point.
func NewPeerSelector(peers []domain.Peer, prefs app.PreferenceStore, log logger.LoggerInterface) *PeerSelector {
	s := &PeerSelector{peers: peers, prefs: prefs, log: log}
	if len(peers) > 0 {
		s.next = rand.IntN(len(peers))
	}
	return s
}

// Next returns the saved override if any, else the next rotation peer. The
// rotation advances either way. Onion hosts are never returned: a saved onion
// override is replaced by the rotation candidate.
func (s *PeerSelector) Next(ctx context.Context) (domain.Peer, bool) {
	rotation, ok := s.rotate()

	if s.prefs != nil {
		saved, found, err := s.prefs.SavedPeer(ctx)
		if err != nil {
			s.log.Warn(ctx, "failed to read saved peer", "error", err)
		}
		switch {
		case found && saved.IsOnion():
			s.log.Info(ctx, "saved peer is an onion host, using rotation peer",
				"saved", saved.String(), "peer", rotation.String())
		case found:
			return saved, true
		}
	}
	return rotation, ok
}

// rotate returns the next clearnet peer in the rotation.
func (s *PeerSelector) rotate() (domain.Peer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for range s.peers {
		p := s.peers[s.next%len(s.peers)]
		s.next = (s.next + 1) % len(s.peers)
		if !p.IsOnion() {
			return p, true
		}
	}
	return domain.Peer{}, false
}
