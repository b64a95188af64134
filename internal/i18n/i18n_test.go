package i18n

import "testing"

func TestLocalizer_T(t *testing.T) {
	tests := []struct {
		lang string
		id   string
		data map[string]any
		want string
	}{
		{"en", MsgTryAgain, nil, "Try again"},
		{"es", MsgTryAgain, nil, "Reintentar"},
		{"en", MsgUnableToConnect, map[string]any{"Server": "electrum1.bluewallet.io:443"}, "Unable to connect to electrum1.bluewallet.io:443."},
		{"fr", MsgCancel, nil, "Cancel"},
		{"en", "no.such.message", nil, "no.such.message"},
	}

	for _, tt := range tests {
		t.Run(tt.lang+"/"+tt.id, func(t *testing.T) {
			l, err := New(tt.lang)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			var got string
			if tt.data != nil {
				got = l.T(tt.id, tt.data)
			} else {
				got = l.T(tt.id)
			}
			if got != tt.want {
				t.Errorf("T(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}
