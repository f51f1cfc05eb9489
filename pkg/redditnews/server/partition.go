package server

// Partition splits items into min(n, len(items)) contiguous groups whose
// sizes differ by at most one, larger groups first. Concatenating the
// groups yields items again.
func Partition[T any](items []T, n int) [][]T {
	if n <= 0 || len(items) == 0 {
		return nil
	}
	groups := min(n, len(items))
	q, r := len(items)/groups, len(items)%groups
	out := make([][]T, groups)
	for i := range out {
		out[i] = items[i*q+min(i, r) : (i+1)*q+min(i+1, r)]
	}
	return out
}
