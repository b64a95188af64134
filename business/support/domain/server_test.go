package domain

import (
	"errors"
	"testing"
)

func TestParseServer(t *testing.T) {
	tests := []struct {
		in      string
		want    Server
		wantErr bool
	}{
		{in: "support.example.com:8080", want: Server{Host: "support.example.com", Port: 8080}},
		{in: "*10.0.0.1:80", want: Server{Host: "10.0.0.1", Port: 80, IsDefault: true}},
		{in: "support.example.com", want: Server{Host: "support.example.com"}},
		{in: "[::1]:9000", want: Server{Host: "::1", Port: 9000}},
		{in: "", wantErr: true},
		{in: "host:0", wantErr: true},
		{in: "host:99999", wantErr: true},
		{in: ":80", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseServer(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidServer) {
					t.Errorf("err = %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.Host != tt.want.Host || got.Port != tt.want.Port || got.IsDefault != tt.want.IsDefault {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestServer_BaseURL(t *testing.T) {
	if got := (Server{Host: "h", Port: 81}).BaseURL(); got != "http://h:81" {
		t.Errorf("got %q", got)
	}
	if got := (Server{Host: "::1", Port: 81}).BaseURL(); got != "http://[::1]:81" {
		t.Errorf("got %q", got)
	}
	if got := (Server{Host: "h"}).BaseURL(); got != "http://h" {
		t.Errorf("got %q", got)
	}
}
