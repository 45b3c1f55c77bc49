package backup

import "time"

// Options configures backup creation.
type Options struct {
	// OutputPath overrides the generated file name inside the backup directory.
	OutputPath string
	// CreatedBy is recorded in the manifest.
	CreatedBy string
}

// RestoreOptions configures restoration. A restore always replaces the
// stored books, loans and preferences.
type RestoreOptions struct {
	DryRun bool // Validate without writing
}

// Result contains the outcome of a backup operation.
type Result struct {
	ID       string        `json:"id"`
	Path     string        `json:"path"`
	Size     int64         `json:"size"`
	Counts   EntityCounts  `json:"counts"`
	Duration time.Duration `json:"duration"`
	Checksum string        `json:"checksum"`
}

// Info describes an existing backup.
type Info struct {
	ID        string       `json:"id"`
	Path      string       `json:"path"`
	Size      int64        `json:"size"`
	CreatedAt time.Time    `json:"created_at"`
	Counts    EntityCounts `json:"counts,omitempty"`
}

// RestoreResult contains the outcome of a restore operation.
type RestoreResult struct {
	Manifest Manifest      `json:"manifest"`
	DryRun   bool          `json:"dry_run"`
	Duration time.Duration `json:"duration"`
}
