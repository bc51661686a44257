package replay

import "fmt"

// Batch represents an inclusive range of operation indices.
type Batch struct {
	From int
	To   int
}

// SplitBatches splits total operations into batches of size batchSize.
func SplitBatches(total, batchSize int) ([]Batch, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if total < 0 {
		return nil, fmt.Errorf("total must be >= 0")
	}

	batches := make([]Batch, 0)
	start := 0
	for start < total {
		end := start + batchSize - 1
		if end >= total {
			end = total - 1
		}
		batches = append(batches, Batch{From: start, To: end})
		start = end + 1
	}

	return batches, nil
}
