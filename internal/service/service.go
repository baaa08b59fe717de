package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/srl-labs/vscode-containerlab-sub006/internal/codec"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/doctree"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/domain"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/ident"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/reconcile"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/sidecar"
)

// Registry records save metadata for the recent-labs listing. A nil registry
// disables recording.
type Registry interface {
	Touch(ctx context.Context, rec domain.LabRecord) error
}

// Runner executes one reconciliation pass
type Runner interface {
	Run(snap *domain.Snapshot, mode reconcile.Mode) error
}

// saveRequest is one queued reconciliation request
type saveRequest struct {
	snapshot *domain.Snapshot
	mode     reconcile.Mode
}

// TopologyService orchestrates loading, converting, and saving one topology
// document. Saves run through a gate: while a pass is in flight, the latest
// incoming request waits in a single slot and replaces any earlier waiter,
// so a burst of canvas saves collapses into at most one follow-up pass.
type TopologyService struct {
	docPath     string
	annotations *sidecar.Manager
	reconciler  Runner
	bus         *EventBus
	registry    Registry

	mu     sync.Mutex
	saving bool
	queued *saveRequest
}

// NewTopologyService creates the service for one topology document.
func NewTopologyService(docPath string, annotations *sidecar.Manager, reconciler Runner, bus *EventBus) *TopologyService {
	return &TopologyService{
		docPath:     docPath,
		annotations: annotations,
		reconciler:  reconciler,
		bus:         bus,
	}
}

// WithRegistry attaches a lab registry that records save metadata.
func (s *TopologyService) WithRegistry(reg Registry) *TopologyService {
	s.registry = reg
	return s
}

// DocumentPath returns the path of the managed topology file.
func (s *TopologyService) DocumentPath() string {
	return s.docPath
}

// Elements loads the document and sidecar and converts them into the
// element list the canvas renders.
func (s *TopologyService) Elements(ctx context.Context) ([]domain.Element, error) {
	data, err := os.ReadFile(s.docPath)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", s.docPath, err)
	}

	root, err := doctree.Parse(data)
	if err != nil {
		return nil, err
	}

	return codec.Elements(root, s.annotations.Load(s.docPath))
}

// Save runs a reconciliation pass for the snapshot, honoring the save gate.
// A request arriving while a pass is in flight is queued (replacing any
// earlier waiter) and runs right after; its outcome is logged rather than
// returned because its caller has already been answered.
func (s *TopologyService) Save(ctx context.Context, snap *domain.Snapshot, mode reconcile.Mode) error {
	s.mu.Lock()
	if s.saving {
		s.queued = &saveRequest{snapshot: snap, mode: mode}
		s.mu.Unlock()
		return nil
	}
	s.saving = true
	s.mu.Unlock()

	err := s.runSave(ctx, snap, mode)

	for {
		s.mu.Lock()
		next := s.queued
		s.queued = nil
		if next == nil {
			s.saving = false
			s.mu.Unlock()
			return err
		}
		s.mu.Unlock()

		if qerr := s.runSave(ctx, next.snapshot, next.mode); qerr != nil {
			log.Printf("Queued save failed: %v", qerr)
		}
	}
}

func (s *TopologyService) runSave(ctx context.Context, snap *domain.Snapshot, mode reconcile.Mode) error {
	if err := s.reconciler.Run(snap, mode); err != nil {
		return err
	}

	s.bus.Publish(Event{Type: EventTopologySaved, Payload: map[string]any{
		"path":  s.docPath,
		"nodes": len(snap.Nodes),
		"links": len(snap.Links),
	}})

	if s.registry != nil {
		rec := domain.LabRecord{
			Path:      s.docPath,
			NodeCount: len(snap.Nodes),
			LinkCount: len(snap.Links),
		}
		if err := s.registry.Touch(ctx, rec); err != nil {
			log.Printf("Failed to record save for %s: %v", s.docPath, err)
		}
	}

	return nil
}

// Annotations returns the current sidecar collection.
func (s *TopologyService) Annotations() *domain.AnnotationCollection {
	return s.annotations.Load(s.docPath)
}

// ReplaceCanvasAnnotations replaces the canvas-owned sub-collections (free
// text, free shapes, group styles) wholesale. The node and cloud
// sub-collections belong to the reconciler and pass through untouched.
func (s *TopologyService) ReplaceCanvasAnnotations(text []domain.FreeTextAnnotation, shapes []domain.FreeShapeAnnotation, styles []domain.GroupStyleAnnotation) error {
	coll := s.annotations.Load(s.docPath)
	coll.FreeTextAnnotations = text
	coll.FreeShapeAnnotations = shapes
	coll.GroupStyleAnnotations = styles

	if err := s.annotations.Save(s.docPath, coll); err != nil {
		return err
	}

	s.bus.Publish(Event{Type: EventAnnotationsUpdated})
	return nil
}

// FreeName allocates a fresh identifier of the given class against the
// names the document currently uses.
func (s *TopologyService) FreeName(ctx context.Context, base string, class ident.Class) (string, error) {
	elements, err := s.Elements(ctx)
	if err != nil {
		return "", err
	}
	return ident.Allocate(base, domain.NewSnapshot(elements).UsedNames(), class), nil
}

// NotifyExternalChange is called by the document watcher when the file
// changed outside the editor; clients reload through the event stream.
func (s *TopologyService) NotifyExternalChange() {
	s.bus.Publish(Event{Type: EventTopologyReloaded, Payload: map[string]any{
		"path": s.docPath,
	}})
}
