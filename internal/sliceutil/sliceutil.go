// Package sliceutil provides generic slice manipulation utilities.
package sliceutil

// Deduplicate removes duplicate items from a slice while preserving order.
// The keyFunc extracts a comparison key from each item; only the first
// occurrence of each key is kept.
//
// Example:
//
//	questions := []string{"何が一番困りますか？", "期限は？", "何が一番困りますか？"}
//	unique := sliceutil.Deduplicate(questions, func(q string) string { return q })
//	// Result: ["何が一番困りますか？", "期限は？"]
func Deduplicate[T any, K comparable](items []T, keyFunc func(T) K) []T {
	if len(items) == 0 {
		return items
	}

	seen := make(map[K]bool, len(items))
	result := make([]T, 0, len(items))

	for _, item := range items {
		key := keyFunc(item)
		if !seen[key] {
			seen[key] = true
			result = append(result, item)
		}
	}

	return result
}
