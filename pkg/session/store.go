package session

import (
	"context"
	"time"
)

// SnapshotStore persists serialized sessions between eviction and resume.
// Implementations must be safe for concurrent use.
type SnapshotStore interface {
	// Save persists data under sessionID, replacing any existing entry.
	Save(ctx context.Context, sessionID string, data []byte, expiresAt time.Time) error

	// Load returns (nil, nil) when the session is missing or expired.
	Load(ctx context.Context, sessionID string) ([]byte, error)

	// Delete removes a session. Missing ids are not an error.
	Delete(ctx context.Context, sessionID string) error

	// Close releases any resources held by the store.
	Close() error
}
