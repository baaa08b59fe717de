package domain

import (
	"fmt"
	"log"
	"strings"
)

// ElementGroup tags a snapshot element as a node or an edge
type ElementGroup string

const (
	ElementNodes ElementGroup = "nodes"
	ElementEdges ElementGroup = "edges"
)

// Element is one entry of the flat element list the rendering layer produces
type Element struct {
	Group    ElementGroup `json:"group"`
	Data     ElementData  `json:"data"`
	Position *Position    `json:"position,omitempty"`
}

// ElementData carries the element's payload. Node and edge elements share
// the struct; unused fields stay empty.
type ElementData struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"topoViewerRole,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Image  string `json:"image,omitempty"`
	Type   string `json:"type,omitempty"`
	Parent string `json:"parent,omitempty"`
	Label  string `json:"label,omitempty"`

	// Edge fields
	Source         string `json:"source,omitempty"`
	Target         string `json:"target,omitempty"`
	SourceEndpoint string `json:"sourceEndpoint,omitempty"`
	TargetEndpoint string `json:"targetEndpoint,omitempty"`

	// ExtraData holds fields the canvas passes through untouched, including
	// an optional pre-encoded endpoints array and presentation metadata.
	ExtraData map[string]any `json:"extraData,omitempty"`
}

// Snapshot is the indexed form of a graph snapshot: the transient in-memory
// state of the canvas at save time.
type Snapshot struct {
	Nodes []*Node
	Links []*Link

	nodesByID map[string]*Node
	linkSet   map[string]*Link
}

// NewSnapshot indexes a raw element list. Edge elements whose endpoints
// cannot be resolved are logged and skipped; they never abort the snapshot.
func NewSnapshot(elements []Element) *Snapshot {
	s := &Snapshot{
		nodesByID: make(map[string]*Node),
		linkSet:   make(map[string]*Link),
	}

	for _, el := range elements {
		switch el.Group {
		case ElementNodes:
			s.addNode(el)
		case ElementEdges:
			link, err := linkFromElement(el)
			if err != nil {
				log.Printf("Skipping edge %s: %v", el.Data.ID, err)
				continue
			}
			s.addLink(link)
		}
	}

	return s
}

func (s *Snapshot) addNode(el Element) {
	node := &Node{
		ID:     el.Data.ID,
		Name:   el.Data.Name,
		Role:   NodeRole(el.Data.Role),
		Kind:   el.Data.Kind,
		Image:  el.Data.Image,
		Type:   el.Data.Type,
		Parent: el.Data.Parent,
		Label:  el.Data.Label,
	}
	if node.Name == "" {
		node.Name = node.ID
	}
	if el.Position != nil {
		node.Position = *el.Position
	}
	if extra := el.Data.ExtraData; extra != nil {
		node.Icon = stringField(extra, "icon")
		node.GroupLabelPos = stringField(extra, "groupLabelPos")
		node.Lat = stringField(extra, "lat")
		node.Lng = stringField(extra, "lng")
	}

	s.Nodes = append(s.Nodes, node)
	s.nodesByID[node.ID] = node
}

func (s *Snapshot) addLink(link *Link) {
	canonical := link.Canonical()
	if _, exists := s.linkSet[canonical]; exists {
		return
	}
	s.Links = append(s.Links, link)
	s.linkSet[canonical] = link
}

// linkFromElement resolves an edge element into a link record. A two-element
// extraData endpoints array where both entries contain a colon takes
// precedence over the separately tracked source/target fields, so endpoints
// the canvas already encoded (special attachments in particular) are not
// re-derived.
func linkFromElement(el Element) (*Link, error) {
	link := &Link{}

	if src, dst, ok := encodedEndpoints(el.Data.ExtraData); ok {
		var err error
		if link.Source, err = ParseEndpoint(src); err != nil {
			return nil, err
		}
		if link.Target, err = ParseEndpoint(dst); err != nil {
			return nil, err
		}
	} else {
		if el.Data.Source == "" || el.Data.Target == "" {
			return nil, fmt.Errorf("edge has no resolvable endpoints")
		}
		link.Source = Endpoint{Node: el.Data.Source, Interface: el.Data.SourceEndpoint}
		link.Target = Endpoint{Node: el.Data.Target, Interface: el.Data.TargetEndpoint}
	}

	if extra := el.Data.ExtraData; extra != nil {
		link.SourceMAC = stringField(extra, "extSourceMac")
		link.TargetMAC = stringField(extra, "extTargetMac")
		link.MTU = intField(extra, "extMtu")
		if vars, ok := extra["extVars"].(map[string]any); ok {
			link.Vars = vars
		}
		if labels, ok := extra["extLabels"].(map[string]any); ok {
			link.Labels = make(map[string]string, len(labels))
			for k, v := range labels {
				if sv, ok := v.(string); ok {
					link.Labels[k] = sv
				}
			}
		}
	}

	return link, nil
}

// encodedEndpoints extracts a pre-encoded two-element endpoints array. Both
// entries must contain a colon to be trusted.
func encodedEndpoints(extra map[string]any) (src, dst string, ok bool) {
	if extra == nil {
		return "", "", false
	}
	raw, exists := extra["endpoints"]
	if !exists {
		return "", "", false
	}
	arr, isArr := raw.([]any)
	if !isArr || len(arr) != 2 {
		return "", "", false
	}
	s1, ok1 := arr[0].(string)
	s2, ok2 := arr[1].(string)
	if !ok1 || !ok2 || !strings.Contains(s1, ":") || !strings.Contains(s2, ":") {
		return "", "", false
	}
	return s1, s2, true
}

// Node returns the node with the given id, or nil.
func (s *Snapshot) Node(id string) *Node {
	return s.nodesByID[id]
}

// HasLink reports whether a link with the given canonical identity exists.
func (s *Snapshot) HasLink(canonical string) bool {
	_, ok := s.linkSet[canonical]
	return ok
}

// NodeIDs returns the set of node ids present in the snapshot.
func (s *Snapshot) NodeIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.Nodes))
	for _, n := range s.Nodes {
		ids[n.ID] = struct{}{}
	}
	return ids
}

// UsedNames returns every name in use across nodes, for id allocation.
func (s *Snapshot) UsedNames() map[string]struct{} {
	used := make(map[string]struct{}, len(s.Nodes))
	for _, n := range s.Nodes {
		used[n.ID] = struct{}{}
		if n.Name != "" {
			used[n.Name] = struct{}{}
		}
	}
	return used
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
