package store

// Pipe applies fns to v left to right and returns the final result.
// Pure value piping; no cells involved.
func Pipe[T any](v T, fns ...func(T) T) T {
	for _, fn := range fns {
		v = fn(v)
	}
	return v
}
