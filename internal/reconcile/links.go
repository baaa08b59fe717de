package reconcile

import (
	"fmt"
	"log"
	"sort"

	"github.com/srl-labs/vscode-containerlab-sub006/internal/doctree"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/domain"
)

// reconcileLinks brings the document's link sequence in line with the
// snapshot: append links the document lacks, drop entries the snapshot no
// longer contains, and rewrite surviving entries' node references through
// the rename map. Identity is the canonical endpoint string; a lookup map is
// built once per pass so large topologies are not rescanned per link.
func reconcileLinks(root *doctree.Node, snap *domain.Snapshot, renames map[string]string) error {
	topo := root.Get("topology")
	links := topo.Get("links")

	if links == nil {
		if len(snap.Links) == 0 {
			return nil
		}
		links = doctree.NewSequence(doctree.StyleBlock)
		topo.Set("links", links)
	}
	if !links.IsSequence() {
		return &StructuralError{Container: "links", Reason: "not a sequence"}
	}

	// Both sides are compared in renamed space: document entries still hold
	// pre-rename node references at this point, and canvas edges reference
	// element ids that a rename leaves behind
	present := make(map[string]struct{}, links.Len())
	for _, item := range links.Items() {
		canonical, err := entryCanonical(item, renames)
		if err != nil {
			log.Printf("Skipping unresolvable link entry: %v", err)
			continue
		}
		present[canonical] = struct{}{}
	}

	wanted := make(map[string]struct{}, len(snap.Links))
	for _, link := range snap.Links {
		renamed := renamedLink(link, renames)
		canonical := renamed.Canonical()
		wanted[canonical] = struct{}{}

		if _, exists := present[canonical]; exists {
			continue
		}
		if links.Len() == 0 && links.Style == doctree.StyleFlow {
			links.Style = doctree.StyleBlock
		}
		links.Append(linkEntry(renamed))
		present[canonical] = struct{}{}
	}

	// Entries whose canonical identity the snapshot no longer holds are
	// removed; entries we could not resolve are left alone
	links.Filter(func(item *doctree.Node) bool {
		canonical, err := entryCanonical(item, renames)
		if err != nil {
			return true
		}
		_, ok := wanted[canonical]
		return ok
	})

	if len(renames) > 0 {
		for _, item := range links.Items() {
			rewriteEntry(item, renames)
		}
	}

	return nil
}

// entryCanonical computes a document link entry's canonical identity, with
// node renames applied. Both endpoint encodings are understood: the brief
// two-scalar form and the extended mapping form with node/interface keys.
func entryCanonical(item *doctree.Node, renames map[string]string) (string, error) {
	src, dst, err := entryEndpoints(item)
	if err != nil {
		return "", err
	}
	return domain.CanonicalEndpoints(renameEndpoint(src, renames), renameEndpoint(dst, renames)), nil
}

func entryEndpoints(item *doctree.Node) (src, dst string, err error) {
	endpoints := item.Get("endpoints")
	if !endpoints.IsSequence() || endpoints.Len() != 2 {
		return "", "", fmt.Errorf("link entry has no two-element endpoints sequence")
	}

	items := endpoints.Items()
	if src, err = endpointString(items[0]); err != nil {
		return "", "", err
	}
	if dst, err = endpointString(items[1]); err != nil {
		return "", "", err
	}
	return src, dst, nil
}

func endpointString(ep *doctree.Node) (string, error) {
	switch {
	case ep.IsScalar():
		s := ep.StringValue()
		if _, err := domain.ParseEndpoint(s); err != nil {
			return "", err
		}
		return s, nil
	case ep.IsMapping():
		node, iface := ep.GetString("node"), ep.GetString("interface")
		if node == "" || iface == "" {
			return "", fmt.Errorf("endpoint mapping missing node or interface")
		}
		return node + ":" + iface, nil
	default:
		return "", fmt.Errorf("endpoint is neither string nor mapping")
	}
}

// renamedLink returns a copy of the link with node renames applied to both
// endpoints, leaving the original untouched.
func renamedLink(link *domain.Link, renames map[string]string) *domain.Link {
	if len(renames) == 0 {
		return link
	}
	out := *link
	if newNode, ok := renames[out.Source.Node]; ok {
		out.Source.Node = newNode
	}
	if newNode, ok := renames[out.Target.Node]; ok {
		out.Target.Node = newNode
	}
	return &out
}

func renameEndpoint(s string, renames map[string]string) string {
	ep, err := domain.ParseEndpoint(s)
	if err != nil {
		return s
	}
	if newNode, renamed := renames[ep.Node]; renamed {
		ep.Node = newNode
	}
	return ep.String()
}

// rewriteEntry rewrites a surviving entry's node references in place.
func rewriteEntry(item *doctree.Node, renames map[string]string) {
	endpoints := item.Get("endpoints")
	if !endpoints.IsSequence() {
		return
	}

	for _, ep := range endpoints.Items() {
		switch {
		case ep.IsScalar():
			ep.Value = renameEndpoint(ep.Value, renames)
		case ep.IsMapping():
			if newNode, renamed := renames[ep.GetString("node")]; renamed {
				ep.Set("node", doctree.NewString(newNode))
			}
		}
	}
}

// linkEntry builds the document entry for a snapshot link: a block-style
// mapping whose endpoints sequence is flow-style, matching hand-authored
// topology files. A MAC pair forces the extended endpoint form, which is the
// only encoding that can carry per-end MACs. Extended attributes are written
// only for two-ended veth links.
func linkEntry(link *domain.Link) *doctree.Node {
	entry := doctree.NewMapping(doctree.StyleBlock)

	veth := link.IsVeth()

	if veth && (link.SourceMAC != "" || link.TargetMAC != "") {
		endpoints := doctree.NewSequence(doctree.StyleBlock)
		endpoints.Append(endpointMapping(link.Source, link.SourceMAC))
		endpoints.Append(endpointMapping(link.Target, link.TargetMAC))
		entry.Set("endpoints", endpoints)
	} else {
		endpoints := doctree.NewSequence(doctree.StyleFlow)
		endpoints.Append(doctree.NewString(link.Source.String()))
		endpoints.Append(doctree.NewString(link.Target.String()))
		entry.Set("endpoints", endpoints)
	}

	if !veth {
		return entry
	}

	if link.MTU > 0 {
		entry.Set("mtu", doctree.NewInt(link.MTU))
	}
	if len(link.Vars) > 0 {
		entry.Set("vars", mappingFromAny(link.Vars))
	}
	if len(link.Labels) > 0 {
		labels := doctree.NewMapping(doctree.StyleBlock)
		for _, k := range sortedKeys(link.Labels) {
			labels.Set(k, doctree.NewString(link.Labels[k]))
		}
		entry.Set("labels", labels)
	}

	return entry
}

func endpointMapping(ep domain.Endpoint, mac string) *doctree.Node {
	m := doctree.NewMapping(doctree.StyleBlock)
	m.Set("node", doctree.NewString(ep.Node))
	m.Set("interface", doctree.NewString(ep.Interface))
	if mac != "" {
		m.Set("mac", doctree.NewString(mac))
	}
	return m
}

// mappingFromAny converts a free-form vars map into document nodes. Keys are
// sorted so repeated saves serialize identically.
func mappingFromAny(vars map[string]any) *doctree.Node {
	m := doctree.NewMapping(doctree.StyleBlock)
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m.Set(k, nodeFromAny(vars[k]))
	}
	return m
}

func nodeFromAny(v any) *doctree.Node {
	switch val := v.(type) {
	case string:
		return doctree.NewString(val)
	case bool:
		return doctree.NewBool(val)
	case int:
		return doctree.NewInt(val)
	case float64:
		if val == float64(int(val)) {
			return doctree.NewInt(int(val))
		}
		return doctree.NewFloat(val)
	case map[string]any:
		return mappingFromAny(val)
	case []any:
		seq := doctree.NewSequence(doctree.StyleBlock)
		for _, item := range val {
			seq.Append(nodeFromAny(item))
		}
		return seq
	default:
		return doctree.NewString(fmt.Sprintf("%v", val))
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
