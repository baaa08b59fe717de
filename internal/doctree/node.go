// Package doctree provides the mutable document tree the reconciler edits in
// place. A tree is an explicit ordered-key structure with a block-vs-flow
// style tag and comments attached to every node, so the formatting contract
// of a re-serialized topology file is testable independent of the YAML
// library backing Parse and Marshal.
package doctree

import "strconv"

// Kind discriminates the three node shapes
type Kind int

const (
	Mapping Kind = iota
	Sequence
	Scalar
)

// Style controls how a mapping or sequence renders
type Style int

const (
	StyleBlock Style = iota // One entry per line
	StyleFlow               // {a: b} / [a, b]
)

// Node is one node of the document tree. Mappings keep insertion order;
// every node carries a style tag and the comments that surrounded it in the
// source text.
type Node struct {
	Kind  Kind
	Style Style

	// Scalar state
	Value string

	HeadComment string
	LineComment string
	FootComment string

	// tag and scalarStyle preserve the YAML typing and quoting of parsed
	// scalars across a round trip
	tag         string
	scalarStyle uint32

	entries []*entry
	items   []*Node
}

type entry struct {
	Key   string
	Value *Node

	// Comments attached to the key side of the pair
	HeadComment string
	LineComment string
	FootComment string
}

// NewMapping creates an empty mapping with the given style.
func NewMapping(style Style) *Node {
	return &Node{Kind: Mapping, Style: style}
}

// NewSequence creates an empty sequence with the given style.
func NewSequence(style Style) *Node {
	return &Node{Kind: Sequence, Style: style}
}

// NewString creates a string scalar.
func NewString(s string) *Node {
	return &Node{Kind: Scalar, Value: s, tag: "!!str"}
}

// NewInt creates an integer scalar.
func NewInt(n int) *Node {
	return &Node{Kind: Scalar, Value: strconv.Itoa(n), tag: "!!int"}
}

// NewNull creates a null scalar, which renders as a bare key when used as a
// mapping value.
func NewNull() *Node {
	return &Node{Kind: Scalar, tag: "!!null"}
}

// IsNull reports whether the node is a null scalar.
func (n *Node) IsNull() bool {
	return n != nil && n.Kind == Scalar && n.tag == "!!null"
}

// NewFloat creates a floating-point scalar.
func NewFloat(f float64) *Node {
	return &Node{Kind: Scalar, Value: strconv.FormatFloat(f, 'f', -1, 64), tag: "!!float"}
}

// NewBool creates a boolean scalar.
func NewBool(b bool) *Node {
	return &Node{Kind: Scalar, Value: strconv.FormatBool(b), tag: "!!bool"}
}

// IsMapping reports whether the node is a mapping.
func (n *Node) IsMapping() bool { return n != nil && n.Kind == Mapping }

// IsSequence reports whether the node is a sequence.
func (n *Node) IsSequence() bool { return n != nil && n.Kind == Sequence }

// IsScalar reports whether the node is a scalar.
func (n *Node) IsScalar() bool { return n != nil && n.Kind == Scalar }

// Get returns the value stored under key, or nil. Nil receivers and
// non-mapping nodes yield nil so lookups chain safely.
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != Mapping {
		return nil
	}
	for _, e := range n.entries {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

// Has reports whether the mapping contains key.
func (n *Node) Has(key string) bool {
	return n.Get(key) != nil
}

// Set stores value under key. An existing entry keeps its position and key
// comments; a new entry is appended.
func (n *Node) Set(key string, value *Node) {
	if n == nil || n.Kind != Mapping {
		return
	}
	for _, e := range n.entries {
		if e.Key == key {
			e.Value = value
			return
		}
	}
	n.entries = append(n.entries, &entry{Key: key, Value: value})
}

// Delete removes the entry under key and reports whether it existed.
func (n *Node) Delete(key string) bool {
	if n == nil || n.Kind != Mapping {
		return false
	}
	for i, e := range n.entries {
		if e.Key == key {
			n.entries = append(n.entries[:i], n.entries[i+1:]...)
			return true
		}
	}
	return false
}

// RenameKey changes an entry's key in place, preserving its position, value,
// and comments. It reports whether the old key existed.
func (n *Node) RenameKey(oldKey, newKey string) bool {
	if n == nil || n.Kind != Mapping {
		return false
	}
	for _, e := range n.entries {
		if e.Key == oldKey {
			e.Key = newKey
			return true
		}
	}
	return false
}

// Keys returns the mapping's keys in document order.
func (n *Node) Keys() []string {
	if n == nil || n.Kind != Mapping {
		return nil
	}
	keys := make([]string, len(n.entries))
	for i, e := range n.entries {
		keys[i] = e.Key
	}
	return keys
}

// Len returns the number of entries or items.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	switch n.Kind {
	case Mapping:
		return len(n.entries)
	case Sequence:
		return len(n.items)
	}
	return 0
}

// Items returns the sequence's items in order.
func (n *Node) Items() []*Node {
	if n == nil || n.Kind != Sequence {
		return nil
	}
	return n.items
}

// Append adds an item to the end of the sequence.
func (n *Node) Append(item *Node) {
	if n == nil || n.Kind != Sequence {
		return
	}
	n.items = append(n.items, item)
}

// RemoveAt deletes the item at index i.
func (n *Node) RemoveAt(i int) {
	if n == nil || n.Kind != Sequence || i < 0 || i >= len(n.items) {
		return
	}
	n.items = append(n.items[:i], n.items[i+1:]...)
}

// Filter keeps only the items the predicate accepts, preserving order.
func (n *Node) Filter(keep func(*Node) bool) {
	if n == nil || n.Kind != Sequence {
		return
	}
	filtered := n.items[:0]
	for _, item := range n.items {
		if keep(item) {
			filtered = append(filtered, item)
		}
	}
	n.items = filtered
}

// StringValue returns the scalar value, or "" for non-scalars.
func (n *Node) StringValue() string {
	if n == nil || n.Kind != Scalar {
		return ""
	}
	return n.Value
}

// GetString returns the string value stored under key in a mapping.
func (n *Node) GetString(key string) string {
	return n.Get(key).StringValue()
}

// IntValue parses the scalar as an integer, 0 on failure.
func (n *Node) IntValue() int {
	if n == nil || n.Kind != Scalar {
		return 0
	}
	v, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0
	}
	return v
}
