package domain

import "strings"

// NodeRole classifies what a canvas node represents
type NodeRole string

const (
	RoleRegular   NodeRole = "regular"   // A lab device defined in the topology
	RoleGroup     NodeRole = "group"     // A visual grouping container
	RoleCloud     NodeRole = "cloud"     // A special single-ended endpoint (host, mgmt-net, ...)
	RoleBridge    NodeRole = "bridge"    // A linux/ovs bridge attachment
	RoleFreeText  NodeRole = "freeText"  // Free-floating text annotation
	RoleFreeShape NodeRole = "freeShape" // Free-floating shape annotation
)

// Special endpoint kinds recognized in link endpoints. These are modeled as
// nodes on the canvas but are not full lab devices in the topology document.
const (
	EndpointHost    = "host"
	EndpointMgmt    = "mgmt-net"
	EndpointMacvlan = "macvlan"
	EndpointVxlan   = "vxlan"
	EndpointDummy   = "dummy"
	EndpointBridge  = "bridge"
	EndpointOvs     = "ovs-bridge"
)

// Node represents a node element taken from a graph snapshot
type Node struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Role     NodeRole `json:"role"`
	Kind     string   `json:"kind,omitempty"`
	Image    string   `json:"image,omitempty"`
	Type     string   `json:"type,omitempty"`
	Parent   string   `json:"parent,omitempty"` // Owning group id ("name:level")
	Position Position `json:"position"`

	// Presentation fields carried through to the annotations sidecar
	Icon          string `json:"icon,omitempty"`
	GroupLabelPos string `json:"groupLabelPos,omitempty"`
	Lat           string `json:"lat,omitempty"`
	Lng           string `json:"lng,omitempty"`

	// Label is the display text for cloud/special nodes
	Label string `json:"label,omitempty"`
}

// Position is a canvas coordinate pair
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IsSpecialEndpoint reports whether an id names a single-ended attachment
// (host interface, management network, macvlan, vxlan, dummy) rather than a
// lab device. Bridge-backed nodes are handled separately because they do
// appear in the document's node map.
func IsSpecialEndpoint(id string) bool {
	if id == EndpointHost || id == EndpointMgmt {
		return true
	}
	for _, prefix := range []string{
		EndpointHost + ":",
		EndpointMgmt + ":",
		EndpointMacvlan + ":",
		EndpointVxlan + ":",
	} {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return strings.HasPrefix(id, EndpointDummy)
}

// IsRegular reports whether the node is a lab device that belongs in the
// document's node map.
func (n *Node) IsRegular() bool {
	return n.Role == RoleRegular
}

// IsAnnotationOnly reports whether the node exists purely for presentation
// and must never be reconciled into the document.
func (n *Node) IsAnnotationOnly() bool {
	return n.Role == RoleFreeText || n.Role == RoleFreeShape
}
