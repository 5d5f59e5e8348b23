package state

import (
	"fmt"

	"github.com/dgallion1/barcoder/internal/config"
	"github.com/dgallion1/barcoder/internal/pathstore"
)

// Open returns the store selected by cfg.StateBackend and a function that
// releases its resources.
func Open(cfg config.Config) (Store, func(), error) {
	switch cfg.StateBackend {
	case config.BackendFile, "":
		return NewFileStore(cfg.StateFile), func() {}, nil
	case config.BackendPathstore:
		ps := pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		return NewPathstoreStore(ps, cfg.PathstoreStateKey), ps.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown state backend %q", cfg.StateBackend)
	}
}
