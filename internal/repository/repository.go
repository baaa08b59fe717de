// Package repository defines the data access interface for the lab
// registry: the persistent list of topology files the editor has worked
// with. The registry is bookkeeping only; topology content always lives in
// the YAML documents themselves.
package repository

import (
	"context"

	"github.com/srl-labs/vscode-containerlab-sub006/internal/domain"
)

// Registry defines the interface for lab registry access
type Registry interface {
	// Touch inserts or refreshes the record for one topology file
	Touch(ctx context.Context, rec domain.LabRecord) error

	// Get returns the record for a path, or nil when unknown
	Get(ctx context.Context, path string) (*domain.LabRecord, error)

	// List returns all records, most recently saved first
	List(ctx context.Context) ([]domain.LabRecord, error)

	// Forget removes the record for a path
	Forget(ctx context.Context, path string) error

	// Close releases resources
	Close() error
}
