package listing

import "fmt"

// Move returns a copy of items with the element at from relocated to to
// (remove, then insert). Length and element identity are preserved.
func Move[T any](items []T, from, to int) ([]T, error) {
	n := len(items)
	if from < 0 || from >= n {
		return nil, fmt.Errorf("%w: from=%d len=%d", ErrIndexOutOfRange, from, n)
	}
	if to < 0 || to >= n {
		return nil, fmt.Errorf("%w: to=%d len=%d", ErrIndexOutOfRange, to, n)
	}
	out := make([]T, 0, n)
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)
	moved := items[from]
	out = append(out[:to], append([]T{moved}, out[to:]...)...)
	return out, nil
}
