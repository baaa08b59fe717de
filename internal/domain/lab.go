package domain

import "time"

// LabRecord is one row of the recent-labs registry: a topology file the
// editor has saved, with enough metadata for a listing.
type LabRecord struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	NodeCount int       `json:"nodeCount"`
	LinkCount int       `json:"linkCount"`
	LastSaved time.Time `json:"lastSaved"`
}
