package catalog

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID returns prefix joined to a UUIDv7. v7 ids are time-ordered and unique
// within the process.
func NewID(prefix string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return fmt.Sprintf("%s-%s", prefix, id), nil
}
