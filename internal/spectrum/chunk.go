package spectrum

import "fmt"

// Chunk splits data into consecutive sub-slices of the given sizes. The
// chunks share memory with data.
func Chunk(
	data []float64,
	sizes []int,
) (
	[][]float64, error,
) {

	chunks := make([][]float64, 0, len(sizes))
	start := 0

	for i, n := range sizes {
		if n < 0 || start+n > len(data) {
			return nil, fmt.Errorf(
				"%w: chunk %d of size %d starts at %d in %d samples", ErrSizeOverflow, i, n, start, len(data),
			)
		}
		chunks = append(chunks, data[start:start+n:start+n])
		start += n
	}

	return chunks, nil
}
