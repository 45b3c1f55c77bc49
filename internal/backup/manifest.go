package backup

import "time"

// FormatVersion is the backup format version. Increment major on breaking changes.
const FormatVersion = "1.0"

// Archive entry names.
const (
	manifestFile    = "manifest.json"
	booksFile       = "entities/books.jsonl"
	loansFile       = "entities/loans.jsonl"
	preferencesFile = "entities/preferences.jsonl"
)

// Manifest describes backup contents. It is written last so its counts are final.
type Manifest struct {
	Version   string       `json:"version"`
	CreatedAt time.Time    `json:"created_at"`
	CreatedBy string       `json:"created_by,omitempty"`
	Counts    EntityCounts `json:"counts"`
}

// EntityCounts tracks entity counts for validation.
type EntityCounts struct {
	Books       int `json:"books"`
	Loans       int `json:"loans"`
	Preferences int `json:"preferences"`
}
