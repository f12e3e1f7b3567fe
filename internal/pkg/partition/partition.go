// Package partition splits id sequences into contiguous fixed-size batches.
package partition

// Batches splits items into contiguous batches of at most size elements,
// preserving order. The last batch holds the remainder. A size below one is
// treated as one. Batches share the backing array of items.
func Batches[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	if len(items) == 0 {
		return nil
	}

	batches := make([][]T, 0, Count(len(items), size))
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end:end])
	}
	return batches
}

// Count returns how many batches of size are needed for n items: ceil(n/size).
func Count(n, size int) int {
	if n <= 0 {
		return 0
	}
	if size < 1 {
		size = 1
	}
	return (n + size - 1) / size
}
