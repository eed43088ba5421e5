// Package remote holds the key/blob stores devices sync through.
package remote

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"visitd/internal/structures"
)

// Document keys in the remote store.
const (
	KeyRecords  = "records"
	KeyEvents   = "events"
	KeyBadges   = "badges"
	KeySettings = "settings"
)

var Keys = []string{KeyRecords, KeyEvents, KeyBadges, KeySettings}

type Blob struct {
	Data        []byte
	LastUpdated time.Time
}

// Store is an opaque key/blob store. Fetch returns nil, nil for an absent key.
type Store interface {
	Fetch(ctx context.Context, key string) (*Blob, error)
	Push(ctx context.Context, key string, blob Blob) error
	Close() error
}

// NewStore builds the configured store. An empty store name returns nil,
// meaning sync is disabled.
func NewStore(ctx context.Context, conf structures.SyncConfig) (Store, error) {
	switch conf.Store {
	case "":
		return nil, nil
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(ctx, conf.URL, conf.Namespace)
	case "sqlite":
		return NewSQLiteStore(ctx, conf.URL)
	default:
		return nil, eris.Errorf("remote: unknown store %q", conf.Store)
	}
}
