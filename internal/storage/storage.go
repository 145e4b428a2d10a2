package storage

// SnapshotEntry is one exported store value: the latest value of one key
// in one named store, with the ordinal it was written at.
type SnapshotEntry struct {
	Store   string `json:"store"`
	Key     string `json:"key"`
	Ordinal uint64 `json:"ordinal"`
	Value   string `json:"value"`
}

// Storage defines a sink for store snapshots.
type Storage interface {
	PutSnapshot(entries []SnapshotEntry) error
}
