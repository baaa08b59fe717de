package domain

import (
	"fmt"
	"strings"
)

// Endpoint is one end of a link: a node id plus an interface name
type Endpoint struct {
	Node      string `json:"node"`
	Interface string `json:"interface"`
}

// String renders the endpoint in document form, "<node>:<interface>"
func (e Endpoint) String() string {
	if e.Interface == "" {
		return e.Node
	}
	return e.Node + ":" + e.Interface
}

// ParseEndpoint splits a "<node>:<interface>" string. The last colon wins so
// composite node ids like "macvlan:eth1" keep their prefix intact only when
// they carry no further interface part.
func ParseEndpoint(s string) (Endpoint, error) {
	idx := strings.LastIndex(s, ":")
	if idx <= 0 || idx == len(s)-1 {
		return Endpoint{}, fmt.Errorf("malformed endpoint %q: want <node>:<interface>", s)
	}
	return Endpoint{Node: s[:idx], Interface: s[idx+1:]}, nil
}

// Link represents a link element taken from a graph snapshot
type Link struct {
	Source Endpoint `json:"source"`
	Target Endpoint `json:"target"`

	// Extended attributes, meaningful only for two-ended veth links
	SourceMAC string            `json:"sourceMac,omitempty"`
	TargetMAC string            `json:"targetMac,omitempty"`
	MTU       int               `json:"mtu,omitempty"`
	Vars      map[string]any    `json:"vars,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// Canonical returns the link's identity string,
// "<srcNode>:<srcIface>,<dstNode>:<dstIface>". The pair is ordered: source
// first, target second.
func (l *Link) Canonical() string {
	return l.Source.String() + "," + l.Target.String()
}

// CanonicalEndpoints builds a canonical identity from two endpoint strings.
func CanonicalEndpoints(src, dst string) string {
	return src + "," + dst
}

// IsVeth reports whether the link connects two lab devices, which is the
// only link class that carries extended attributes.
func (l *Link) IsVeth() bool {
	return !IsSpecialEndpoint(l.Source.Node) && !IsSpecialEndpoint(l.Target.Node)
}
