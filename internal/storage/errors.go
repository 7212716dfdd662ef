package storage

import (
	"fmt"

	"github.com/mcoot/pokearena/internal/model"
)

// Wrap marks a backend I/O or encoding failure as a persistence error.
// Callback and domain errors must be returned as-is, not passed through here.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, model.ErrPersistence, err)
}
