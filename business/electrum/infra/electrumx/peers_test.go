package electrumx

import (
	"context"
	"testing"
	"time"

	"github.com/fd1az/electrum-core/business/electrum/domain"
)

func TestPeerSelector_Next(t *testing.T) {
	clear1 := domain.Peer{Host: "electrum1.example.com", Port: 50002, Transport: domain.TransportTLS}
	clear2 := domain.Peer{Host: "electrum2.example.com", Port: 50001, Transport: domain.TransportTCP}
	onion := domain.Peer{Host: "abcdefgh.onion", Port: 50001, Transport: domain.TransportTCP}
	savedClear := domain.Peer{Host: "mine.example.com", Port: 50002, Transport: domain.TransportTLS}
	savedOnion := domain.Peer{Host: "xyz.onion", Port: 50002, Transport: domain.TransportTLS}

	tests := []struct {
		name   string
		peers  []domain.Peer
		saved  *domain.Peer
		want   domain.Peer
		wantOK bool
	}{
		{"rotation only", []domain.Peer{clear1}, nil, clear1, true},
		{"saved clearnet peer wins", []domain.Peer{clear1}, &savedClear, savedClear, true},
		{"saved onion peer replaced by rotation", []domain.Peer{clear1}, &savedOnion, clear1, true},
		{"uppercase onion suffix", []domain.Peer{clear1}, &domain.Peer{Host: "XYZ.ONION", Port: 50001, Transport: domain.TransportTCP}, clear1, true},
		{"onion rotation entries skipped", []domain.Peer{onion, clear2, onion}, nil, clear2, true},
		{"only onion peers", []domain.Peer{onion}, &savedOnion, domain.Peer{}, false},
		{"no peers", nil, nil, domain.Peer{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewPeerSelector(tt.peers, &stubPrefs{saved: tt.saved}, &mockLogger{})

			for i := 0; i < 4; i++ {
				got, ok := s.Next(context.Background())
				if ok != tt.wantOK {
					t.Fatalf("Next() ok = %v, want %v", ok, tt.wantOK)
				}
				if got.IsOnion() {
					t.Fatalf("Next() returned onion peer %v", got)
				}
				if ok && got != tt.want {
					t.Errorf("Next() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestPeerSelector_RotationWraps(t *testing.T) {
	peers := []domain.Peer{
		{Host: "a.example.com", Port: 1, Transport: domain.TransportTCP},
		{Host: "b.example.com", Port: 2, Transport: domain.TransportTCP},
	}
	s := NewPeerSelector(peers, nil, &mockLogger{})

	first, _ := s.Next(context.Background())
	second, _ := s.Next(context.Background())
	third, _ := s.Next(context.Background())

	if first == second {
		t.Errorf("rotation did not advance: %v, %v", first, second)
	}
	if third != first {
		t.Errorf("rotation did not wrap: got %v, want %v", third, first)
	}
}

func TestConfig_ReconnectDelay(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		host string
		want time.Duration
	}{
		{"electrum.example.com", 500 * time.Millisecond},
		{"abcdefgh.onion", 4 * time.Second},
		{"ABCDEFGH.ONION", 4 * time.Second},
		{"notonion", 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			if got := cfg.reconnectDelay(domain.Peer{Host: tt.host}); got != tt.want {
				t.Errorf("reconnectDelay(%s) = %v, want %v", tt.host, got, tt.want)
			}
		})
	}
}
