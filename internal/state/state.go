// Package state persists the last issued barcode so the next run can continue
// the sequence.
package state

import (
	"context"
	"log/slog"
)

// Store loads and saves the last issued identity. Save replaces the stored
// value.
type Store interface {
	Load(ctx context.Context) (string, bool, error)
	Save(ctx context.Context, id string) error
}

// LoadOrEmpty returns the stored identity, treating read failures as "no
// prior identity".
func LoadOrEmpty(ctx context.Context, s Store, log *slog.Logger) string {
	id, ok, err := s.Load(ctx)
	if err != nil {
		log.Warn("could not read last barcode, starting fresh", "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return id
}
