package reconcile

import (
	"strconv"

	"github.com/srl-labs/vscode-containerlab-sub006/internal/defaults"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/doctree"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/domain"
)

// configField pairs a node entry key with its snapshot value and the value
// the inheritance chain would supply anyway.
type configField struct {
	key       string
	value     string
	inherited string
}

// reconcileNodes brings the document's node map in line with the snapshot's
// regular nodes: create, update with inheritance-aware field pruning, rename
// in place, and finally delete entries the snapshot no longer knows. It
// returns the rename map (oldId -> newId) the link pass rewrites through.
func reconcileNodes(root *doctree.Node, snap *domain.Snapshot) (map[string]string, error) {
	nodesMap, err := nodesContainer(root)
	if err != nil {
		return nil, err
	}

	renames := make(map[string]string)

	for _, node := range snap.Nodes {
		if !node.IsRegular() {
			continue
		}

		renamed := node.Name != "" && node.Name != node.ID
		key := node.ID
		if renamed {
			renames[node.ID] = node.Name
			// A replayed rename finds the entry under its new name already;
			// updating it there instead of creating a fresh old-id entry
			// keeps node names unique.
			if nodesMap.Has(node.Name) {
				key = node.Name
			}
		}

		group, _ := domain.SplitGroupID(node.Parent)
		fields := resolveFields(root, group, node)
		applyFields(nodesMap, key, fields)

		if renamed && key == node.ID {
			nodesMap.RenameKey(node.ID, node.Name)
		}
	}

	// Entries the snapshot neither contains nor renamed into existence are
	// deletions. The full snapshot id set protects bridge and special
	// entries the node pass does not manage.
	keep := snap.NodeIDs()
	for _, node := range snap.Nodes {
		if node.Name != "" {
			keep[node.Name] = struct{}{}
		}
	}
	for _, target := range renames {
		keep[target] = struct{}{}
	}

	for _, key := range nodesMap.Keys() {
		if _, ok := keep[key]; !ok {
			nodesMap.Delete(key)
		}
	}

	return renames, nil
}

// resolveFields decides which of kind/image/type need to be explicit. The
// baseline without node-level fields decides whether kind must be written;
// image and type resolve against the node's effective kind.
func resolveFields(root *doctree.Node, group string, node *domain.Node) []configField {
	base := defaults.Inherited(root, group)
	effective := defaults.Resolve(root, group, defaults.NodeConfig{Kind: node.Kind})

	return []configField{
		{key: "kind", value: node.Kind, inherited: base.Kind},
		{key: "image", value: node.Image, inherited: effective.Image},
		{key: "type", value: node.Type, inherited: effective.Type},
	}
}

// applyFields updates one node entry. Entries that need no explicit fields
// stay (or become) a bare key; values that already match are left untouched
// so their formatting and comments survive.
func applyFields(nodesMap *doctree.Node, id string, fields []configField) {
	explicit := 0
	for _, f := range fields {
		if f.value != "" && f.value != f.inherited {
			explicit++
		}
	}

	entry := nodesMap.Get(id)

	if explicit == 0 {
		switch {
		case entry == nil:
			nodesMap.Set(id, doctree.NewNull())
		case entry.IsMapping():
			for _, f := range fields {
				entry.Delete(f.key)
			}
			if entry.Len() == 0 {
				nodesMap.Set(id, doctree.NewNull())
			}
		}
		return
	}

	if !entry.IsMapping() {
		entry = doctree.NewMapping(doctree.StyleBlock)
		nodesMap.Set(id, entry)
	}

	for _, f := range fields {
		if f.value == "" || f.value == f.inherited {
			entry.Delete(f.key)
			continue
		}
		// In-place value update keeps the scalar's quoting and any comment
		// riding on the pair
		if cur := entry.Get(f.key); cur.IsScalar() && cur.StringValue() == f.value {
			continue
		}
		entry.Set(f.key, doctree.NewString(f.value))
	}
}

// nodesContainer locates topology.nodes, failing structurally when the
// document cannot hold nodes at all.
func nodesContainer(root *doctree.Node) (*doctree.Node, error) {
	topo := root.Get("topology")
	if !topo.IsMapping() {
		return nil, &StructuralError{Container: "topology", Reason: "missing or not a mapping"}
	}
	nodes := topo.Get("nodes")
	if !nodes.IsMapping() {
		return nil, &StructuralError{Container: "nodes", Reason: "missing or not a mapping"}
	}
	return nodes, nil
}

// applyPositionLabels refreshes the legacy position labels on node entries
// that already carry them. Neither mode introduces the labels; position
// state otherwise lives in the annotations sidecar.
func applyPositionLabels(root *doctree.Node, snap *domain.Snapshot) {
	nodesMap := root.Get("topology").Get("nodes")
	if !nodesMap.IsMapping() {
		return
	}

	for _, node := range snap.Nodes {
		if !node.IsRegular() {
			continue
		}
		entry := nodesMap.Get(node.Name)
		if entry == nil {
			entry = nodesMap.Get(node.ID)
		}
		labels := entry.Get("labels")
		if !labels.IsMapping() {
			continue
		}
		pos := domain.RoundPosition(node.Position)
		if cur := labels.Get("graph-posX"); cur.IsScalar() {
			cur.Value = strconv.Itoa(pos.X)
		}
		if cur := labels.Get("graph-posY"); cur.IsScalar() {
			cur.Value = strconv.Itoa(pos.Y)
		}
	}
}
