// Package domain contains the fee estimation rules.
package domain

import (
	"math"
	"slices"
)

const (
	// BlockVSize is the virtual size of one block.
	BlockVSize = 1_000_000

	// bucketGranularity is the vsize represented by one entry of the
	// flattened histogram.
	bucketGranularity = 25_000

	// SanityThreshold is the highest first-bucket fee rate a histogram may
	// report before it is ignored in favour of the server estimates.
	SanityThreshold = 1000
)

// Bucket is one histogram entry: the fee rate in sat/vB and the vsize of
// mempool transactions paying at least that rate.
type Bucket [2]float64

// FeeRate returns the bucket's fee rate.
func (b Bucket) FeeRate() float64 { return b[0] }

// VSize returns the bucket's virtual size.
func (b Bucket) VSize() float64 { return b[1] }

// FeeRates holds sat/vB rates per priority.
type FeeRates struct {
	Fast   int64 `json:"fast"`
	Medium int64 `json:"medium"`
	Slow   int64 `json:"slow"`
}

// Percentile returns the value at p of an ascending slice, interpolating
// linearly between the closest ranks.
func Percentile(sorted []float64, p float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case p <= 0:
		return sorted[0]
	case p >= 1:
		return sorted[len(sorted)-1]
	}

	index := float64(len(sorted)-1) * p
	lower := int(math.Floor(index))
	upper := lower + 1
	weight := index - float64(lower)

	if upper >= len(sorted) {
		return sorted[lower]
	}
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// EstimateFeeRate returns the median fee rate of the transactions that would
// fill the next targetBlocks blocks. Histogram buckets are ordered by
// decreasing fee rate.
func EstimateFeeRate(targetBlocks int, histogram []Bucket) int64 {
	budget := float64(targetBlocks) * BlockVSize

	var flat []float64
	var total float64
	for _, b := range histogram {
		vsize := b.VSize()
		last := total+vsize >= budget
		if last {
			vsize = budget - total
		}

		n := int(math.Round(vsize / bucketGranularity))
		for i := 0; i < n; i++ {
			flat = append(flat, b.FeeRate())
		}

		total += vsize
		if last {
			break
		}
	}

	slices.Sort(flat)
	return max(1, int64(math.Round(Percentile(flat, 0.5))))
}

// Combine derives the final rates. The histogram sets the fast rate and the
// server estimates only set the ratio between priorities. A missing or
// implausible histogram yields the server estimates unchanged.
func Combine(histogram []Bucket, server FeeRates) FeeRates {
	if len(histogram) == 0 || histogram[0].FeeRate() > SanityThreshold || server.Fast <= 0 {
		return server
	}

	fast := max(2, EstimateFeeRate(1, histogram))
	scale := func(rate int64) int64 {
		return max(1, int64(math.Round(float64(fast*rate)/float64(server.Fast))))
	}
	return FeeRates{
		Fast:   fast,
		Medium: scale(server.Medium),
		Slow:   scale(server.Slow),
	}
}
