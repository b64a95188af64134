package chainparams

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		name    string
		hrp     string
		pkh     byte
		wantErr bool
	}{
		{Kbunet, "kc", 0x2D, false},
		{"", "kc", 0x2D, false},
		{Testnet, "tk", 0x6b, false},
		{Regtest, "kncrt", 0x6b, false},
		{"mainnet", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Lookup(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if p.Bech32HRPSegwit != tt.hrp {
				t.Errorf("hrp = %s, want %s", p.Bech32HRPSegwit, tt.hrp)
			}
			if p.PubKeyHashAddrID != tt.pkh {
				t.Errorf("pkh id = %#x, want %#x", p.PubKeyHashAddrID, tt.pkh)
			}
		})
	}
}

func TestLookup_Idempotent(t *testing.T) {
	for i := 0; i < 2; i++ {
		if _, err := Lookup(Kbunet); err != nil {
			t.Fatal(err)
		}
	}
}
