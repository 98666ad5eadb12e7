// Package model holds the bridge domain types and error taxonomy.
package model

import "time"

// StagedFile is one file held in the local staging directory between two
// external API calls.
type StagedFile struct {
	// ID is unique among concurrently staged files.
	ID string `json:"id"`
	// LocalPath is owned exclusively by the staging store, always a
	// descendant of the staging root.
	LocalPath string `json:"-"`

	OriginalName string `json:"original_name"`
	MimeType     string `json:"mime_type"`
	SizeBytes    int64  `json:"size_bytes"`

	CreatedAt time.Time     `json:"created_at"`
	Retention time.Duration `json:"-"`
}

// ExpiresAt returns the moment the file becomes eligible for sweeping.
func (f *StagedFile) ExpiresAt() time.Time {
	return f.CreatedAt.Add(f.Retention)
}

// Expired reports whether the file is past retention at now.
// A file expiring exactly at now counts as expired.
func (f *StagedFile) Expired(now time.Time) bool {
	return !f.ExpiresAt().After(now)
}
