package model

import (
	"time"
)

// SchemaVersion is stamped on migrated local data sets.
const SchemaVersion = 2

// SnapshotVersion is the version written into exported files.
const SnapshotVersion = "1.0"

// DataSet is the working-set shape serialized under the primary and legacy
// local storage keys.
type DataSet struct {
	Records       []GlucoseRecord `json:"records"`
	Alerts        []Alert         `json:"alerts"`
	Payments      []Payment       `json:"payments"`
	SchemaVersion int             `json:"schemaVersion,omitempty"`
}

// Snapshot is the downloadable export document.
type Snapshot struct {
	User       *User           `json:"user"`
	Records    []GlucoseRecord `json:"records"`
	Alerts     []Alert         `json:"alerts"`
	ExportedAt time.Time       `json:"exportedAt"`
	Version    string          `json:"version"`
}
