package storage

import "liquidityCore/internal/model"

// Storage defines a sink for pool event batches.
type Storage interface {
	PutEventBatch(events []model.Event) error
}
