package domain

import "testing"

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty", nil, 0.5, 0},
		{"p at zero", []float64{1, 2, 3}, 0, 1},
		{"p below zero", []float64{1, 2, 3}, -1, 1},
		{"p at one", []float64{1, 2, 3}, 1, 3},
		{"odd median", []float64{1, 2, 3}, 0.5, 2},
		{"even median interpolates", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"quarter", []float64{10, 20, 30, 40, 50}, 0.25, 20},
		{"single", []float64{7}, 0.5, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentile(tt.sorted, tt.p); got != tt.want {
				t.Errorf("Percentile = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEstimateFeeRate(t *testing.T) {
	tests := []struct {
		name      string
		blocks    int
		histogram []Bucket
		want      int64
	}{
		{
			name:   "empty histogram floors at one",
			blocks: 1,
			want:   1,
		},
		{
			name:      "single bucket",
			blocks:    1,
			histogram: []Bucket{{20, 2_000_000}},
			want:      20,
		},
		{
			// 40 entries at 50 then 0 entries past the block budget
			name:      "clipped at block budget",
			blocks:    1,
			histogram: []Bucket{{50, 1_000_000}, {10, 500_000}},
			want:      50,
		},
		{
			// 20 x 30 then 20 x 10 (second bucket clipped from 800k to 500k)
			name:      "median interpolates across buckets",
			blocks:    1,
			histogram: []Bucket{{30, 500_000}, {10, 800_000}},
			want:      20,
		},
		{
			// 8 x 100, 32 x 5: median falls in the low bucket
			name:      "cheap mempool",
			blocks:    1,
			histogram: []Bucket{{100, 200_000}, {5, 5_000_000}},
			want:      5,
		},
		{
			// two blocks of budget: 40 x 40 and 40 x 4
			name:      "two blocks",
			blocks:    2,
			histogram: []Bucket{{40, 1_000_000}, {4, 3_000_000}},
			want:      22,
		},
		{
			name:      "buckets below granularity vanish",
			blocks:    1,
			histogram: []Bucket{{90, 10_000}},
			want:      1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateFeeRate(tt.blocks, tt.histogram); got != tt.want {
				t.Errorf("EstimateFeeRate = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCombine(t *testing.T) {
	server := FeeRates{Fast: 20, Medium: 10, Slow: 2}

	tests := []struct {
		name      string
		histogram []Bucket
		server    FeeRates
		want      FeeRates
	}{
		{
			name:   "no histogram uses server estimates",
			server: server,
			want:   server,
		},
		{
			name:      "implausible histogram uses server estimates",
			histogram: []Bucket{{1500, 2_000_000}},
			server:    server,
			want:      server,
		},
		{
			name:      "histogram rescales priorities",
			histogram: []Bucket{{40, 2_000_000}},
			server:    server,
			want:      FeeRates{Fast: 40, Medium: 20, Slow: 4},
		},
		{
			name:      "fast never below two",
			histogram: []Bucket{{1, 2_000_000}},
			server:    server,
			want:      FeeRates{Fast: 2, Medium: 1, Slow: 1},
		},
		{
			name:      "zero server fast rate is not scaled",
			histogram: []Bucket{{40, 2_000_000}},
			server:    FeeRates{Fast: 0, Medium: 1, Slow: 1},
			want:      FeeRates{Fast: 0, Medium: 1, Slow: 1},
		},
		{
			name:      "threshold is inclusive",
			histogram: []Bucket{{1000, 2_000_000}},
			server:    FeeRates{Fast: 500, Medium: 250, Slow: 100},
			want:      FeeRates{Fast: 1000, Medium: 500, Slow: 200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Combine(tt.histogram, tt.server); got != tt.want {
				t.Errorf("Combine = %+v, want %+v", got, tt.want)
			}
		})
	}
}
