package domain

import (
	"strconv"
	"strings"
)

// ServerQuirks records capabilities inferred from the server banner.
type ServerQuirks struct {
	Implementation   string
	Version          string
	BatchingDisabled bool
}

// minimum versions at which an implementation regains batching support.
// Implementations that are known but absent here never batch.
var batchingSince = map[string]string{
	"electrs": "0.9.0",
	"Fulcrum": "1.9.0",
}

// ParseQuirks inspects a "server.version" banner such as "Fulcrum 1.9.1".
func ParseQuirks(banner string) ServerQuirks {
	impl, version, _ := strings.Cut(banner, " ")
	q := ServerQuirks{Implementation: impl, Version: version}

	if !strings.HasPrefix(banner, "ElectrumPersonalServer") &&
		!strings.HasPrefix(banner, "electrs") &&
		!strings.HasPrefix(banner, "Fulcrum") {
		return q
	}

	q.BatchingDisabled = true
	if since, ok := batchingSince[impl]; ok && SemVerToInt(version) >= SemVerToInt(since) {
		q.BatchingDisabled = false
	}
	return q
}

// SemVerToInt maps "maj.min.patch" to maj*1e6+min*1e3+patch, or 0 when the
// input is not exactly three numeric parts.
func SemVerToInt(v string) int {
	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return 0
	}

	weights := [3]int{1_000_000, 1_000, 1}
	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0
		}
		total += n * weights[i]
	}
	return total
}
