package domain

import (
	"math"
	"time"
)

// BlockIntervalSeconds is the observed mean time between blocks.
const BlockIntervalSeconds = 9.93 * 60

// Anchors used before any tip has been observed.
const (
	fallbackHeightBase   = 627179
	fallbackHeightBaseMS = 1587570465609

	fallbackTimeHeight = 624083
	fallbackTimeBase   = 1585837504
)

// EstimateHeight extrapolates the current height from the last tip.
func EstimateHeight(tip LatestBlockTip, now time.Time) int64 {
	if !tip.IsZero() {
		elapsed := math.Floor(now.Sub(tip.ObservedAt).Seconds())
		return tip.Height + int64(math.Floor(elapsed/BlockIntervalSeconds))
	}

	elapsedMS := float64(now.UnixMilli() - fallbackHeightBaseMS)
	return int64(math.Floor(fallbackHeightBase + elapsedMS/1000/BlockIntervalSeconds))
}

// BlockTime extrapolates the unix time at which height was mined.
func BlockTime(tip LatestBlockTip, height int64) int64 {
	if !tip.IsZero() {
		return int64(math.Floor(float64(tip.ObservedAt.Unix()) + float64(height-tip.Height)*BlockIntervalSeconds))
	}
	return int64(math.Floor(fallbackTimeBase + float64(height-fallbackTimeHeight)*BlockIntervalSeconds))
}

// Confirmations derives a confirmation count for a transaction mined at
// height. A lagging estimate never yields less than one.
func Confirmations(tip LatestBlockTip, height int64, now time.Time) int64 {
	c := EstimateHeight(tip, now) - height
	if c < 0 {
		return 1
	}
	return c
}
