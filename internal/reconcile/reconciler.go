// Package reconcile updates a persisted topology document to match a graph
// snapshot while preserving everything the user did not touch: comments, key
// order, and block/flow formatting. One pass runs per save and either
// completes fully or aborts with no partial write.
package reconcile

import (
	"fmt"
	"os"
	"time"

	"github.com/srl-labs/vscode-containerlab-sub006/internal/doctree"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/domain"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/sidecar"
)

// Mode selects how much of the document a pass may touch
type Mode int

const (
	// ModeEdit is the full read-modify-write pass: element add/remove/
	// rename, field pruning, annotation replacement.
	ModeEdit Mode = iota
	// ModeView reparses the document independently and overwrites position
	// state only. It never creates, removes, or renames elements.
	ModeView
)

// Guard is the write-intent interface the reconciler leases against before
// self-authored writes, so a paired watcher does not feed them back as
// external changes.
type Guard interface {
	Acquire() string
	Release(token string)
}

// Reconciler runs reconciliation passes for one topology document
type Reconciler struct {
	docPath     string
	annotations *sidecar.Manager
	guard       Guard
	settleDelay time.Duration
}

// New creates a reconciler for the document at docPath. The guard may be nil
// when no watcher is paired with the writer.
func New(docPath string, annotations *sidecar.Manager, guard Guard) *Reconciler {
	return &Reconciler{
		docPath:     docPath,
		annotations: annotations,
		guard:       guard,
		settleDelay: 50 * time.Millisecond,
	}
}

// WithSettleDelay overrides the pause between writing the document and
// releasing the write lease. The delay only exists to outlast the watcher's
// event delivery; it is a heuristic, not a synchronization primitive.
func (r *Reconciler) WithSettleDelay(d time.Duration) *Reconciler {
	r.settleDelay = d
	return r
}

// Run executes one reconciliation pass against the snapshot.
func (r *Reconciler) Run(snap *domain.Snapshot, mode Mode) error {
	data, err := os.ReadFile(r.docPath)
	if err != nil {
		return fmt.Errorf("read document %s: %w", r.docPath, err)
	}

	root, err := doctree.Parse(data)
	if err != nil {
		return err
	}

	if mode == ModeView {
		applyPositionLabels(root, snap)
	} else {
		renames, err := reconcileNodes(root, snap)
		if err != nil {
			return err
		}
		if err := reconcileLinks(root, snap, renames); err != nil {
			return err
		}
		applyPositionLabels(root, snap)
	}

	out, err := root.Marshal()
	if err != nil {
		return err
	}

	if err := r.persist(out, mode); err != nil {
		return err
	}

	return r.saveAnnotations(snap)
}

// persist writes the serialized document. In edit mode the write happens
// under a write-intent lease held through the settle delay; view mode has no
// watcher to coordinate with and writes directly.
func (r *Reconciler) persist(data []byte, mode Mode) error {
	if mode == ModeEdit && r.guard != nil {
		token := r.guard.Acquire()
		defer r.guard.Release(token)

		if err := os.WriteFile(r.docPath, data, 0644); err != nil {
			return fmt.Errorf("write document %s: %w", r.docPath, err)
		}
		time.Sleep(r.settleDelay)
		return nil
	}

	if err := os.WriteFile(r.docPath, data, 0644); err != nil {
		return fmt.Errorf("write document %s: %w", r.docPath, err)
	}
	return nil
}

// saveAnnotations rebuilds the node and cloud sub-collections from the
// snapshot and replaces them wholesale. The remaining sub-collections belong
// to other writers and pass through untouched.
func (r *Reconciler) saveAnnotations(snap *domain.Snapshot) error {
	if r.annotations == nil {
		return nil
	}

	coll := r.annotations.Load(r.docPath)
	coll.NodeAnnotations, coll.CloudNodeAnnotations = buildAnnotations(snap)
	return r.annotations.Save(r.docPath, coll)
}
