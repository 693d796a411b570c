package batch

import "fmt"

// Chunk is an inclusive range of batch indices.
type Chunk struct {
	From int
	To   int
}

// Len returns the number of indices in the chunk.
func (c Chunk) Len() int { return c.To - c.From + 1 }

// SplitChunks splits [0, total) into chunks of at most size items.
func SplitChunks(total, size int) ([]Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be greater than zero")
	}
	if total < 0 {
		return nil, fmt.Errorf("total must be >= 0")
	}

	chunks := make([]Chunk, 0, (total+size-1)/size)
	for start := 0; start < total; start += size {
		end := start + size - 1
		if end >= total {
			end = total - 1
		}
		chunks = append(chunks, Chunk{From: start, To: end})
	}
	return chunks, nil
}
