package alert

import (
	"errors"
	"strings"
	"testing"

	"github.com/fd1az/electrum-core/business/electrum/domain"
	"github.com/fd1az/electrum-core/internal/i18n"
)

func TestRender(t *testing.T) {
	l, err := i18n.New("en")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		alert domain.ConnectionAlert
		want  string
	}{
		{
			name:  "known peer",
			alert: domain.ConnectionAlert{Peer: domain.Peer{Host: "electrum.example", Port: 50002, Transport: domain.TransportTLS}},
			want:  "electrum.example:50002",
		},
		{
			name:  "no peer",
			alert: domain.ConnectionAlert{Reason: errors.New("wait timeout")},
			want:  "provided Electrum server",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Render(l, tt.alert)
			if n.Title != "Network error" {
				t.Errorf("title = %q", n.Title)
			}
			if !strings.Contains(n.Message, tt.want) {
				t.Errorf("message %q should contain %q", n.Message, tt.want)
			}
			if len(n.Actions) != 3 {
				t.Errorf("actions = %v", n.Actions)
			}
		})
	}
}
