package domain

// Chunk sizes per bulk operation.
const (
	ChunkBalance      = 200
	ChunkUtxo         = 100
	ChunkHistory      = 100
	ChunkTransactions = 45
)

// MinCacheConfirmations is the depth below which verbose results are not cached.
const MinCacheConfirmations = 7

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var out [][]T
	for i := 0; i < len(items); i += size {
		end := min(i+size, len(items))
		out = append(out, items[i:end])
	}
	return out
}

// UniqueNonEmpty drops empty strings and duplicates, keeping first-seen order.
func UniqueNonEmpty(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
