package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgallion1/barcoder/internal/pathstore"
)

// DefaultKey is the pathstore key used when none is configured.
const DefaultKey = "barcoder/last_barcode"

// PathstoreStore keeps the last identity in a pathstore node so several
// machines can share one sequence.
type PathstoreStore struct {
	client  *pathstore.Client
	key     string
	backoff func(attempt int) time.Duration
}

func NewPathstoreStore(client *pathstore.Client, key string) *PathstoreStore {
	if key == "" {
		key = DefaultKey
	}
	return &PathstoreStore{client: client, key: key, backoff: pathstore.Backoff}
}

type lastNode struct {
	Last      string `json:"last"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func (s *PathstoreStore) Load(ctx context.Context) (string, bool, error) {
	var node *pathstore.NodeResponse
	err := s.retry(ctx, func() error {
		var err error
		node, err = s.client.GetNode(ctx, s.key)
		return err
	})
	if err != nil {
		return "", false, err
	}
	if node == nil {
		return "", false, nil
	}
	var v lastNode
	if err := json.Unmarshal(node.Value, &v); err != nil {
		return "", false, fmt.Errorf("decode %s: %w", s.key, err)
	}
	if v.Last == "" {
		return "", false, nil
	}
	return v.Last, true, nil
}

func (s *PathstoreStore) Save(ctx context.Context, id string) error {
	req := pathstore.NodeRequest{
		Value: lastNode{
			Last:      id,
			UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		},
		MergeMode: "replace",
		Source:    "barcoder",
	}
	return s.retry(ctx, func() error {
		return s.client.PutNode(ctx, s.key, req)
	})
}

// retry runs op until it succeeds, fails permanently or runs out of attempts.
func (s *PathstoreStore) retry(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := range pathstore.MaxRetries {
		lastErr = op()
		if lastErr == nil || !pathstore.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == pathstore.MaxRetries-1 {
			break
		}
		select {
		case <-time.After(s.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
