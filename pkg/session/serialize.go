package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vango-dev/chrono/pkg/uistore"
)

// CurrentSnapshotVersion is the snapshot format version.
// Increment when making breaking changes to the format.
const CurrentSnapshotVersion = 1

// Snapshot is the JSON form of a session kept for resume.
type Snapshot struct {
	ID         string        `json:"id"`
	CreatedAt  time.Time     `json:"created_at"`
	LastActive time.Time     `json:"last_active"`
	State      uistore.State `json:"state"`
	Version    int           `json:"version"`
}

// Serialize encodes ss with the current version.
func Serialize(ss *Snapshot) ([]byte, error) {
	ss.Version = CurrentSnapshotVersion
	return json.Marshal(ss)
}

// Deserialize decodes a snapshot, rejecting unknown versions.
func Deserialize(data []byte) (*Snapshot, error) {
	var ss Snapshot
	if err := json.Unmarshal(data, &ss); err != nil {
		return nil, err
	}
	if ss.Version != CurrentSnapshotVersion {
		return nil, fmt.Errorf("session: unsupported snapshot version %d", ss.Version)
	}
	return &ss, nil
}
