// Package defaults resolves a node's effective configuration from the
// topology document's inheritance chain. A partial node config is filled in
// from its group, then the matching kind section, then the topology-wide
// defaults, mirroring how the lab runtime itself interprets the file. The
// reconciler uses the resolved view to avoid writing fields a node already
// inherits.
package defaults

import "github.com/srl-labs/vscode-containerlab-sub006/internal/doctree"

// NodeConfig is the subset of node configuration subject to inheritance
type NodeConfig struct {
	Kind  string
	Image string
	Type  string
}

// Resolve returns the effective config for a node in the given group. The
// partial config holds the node's own explicit fields; empty fields inherit.
func Resolve(root *doctree.Node, group string, partial NodeConfig) NodeConfig {
	topo := root.Get("topology")
	defaultsSec := topo.Get("defaults")
	groupSec := topo.Get("groups").Get(group)

	out := partial

	if out.Kind == "" {
		out.Kind = groupSec.GetString("kind")
	}
	if out.Kind == "" {
		out.Kind = defaultsSec.GetString("kind")
	}

	kindSec := topo.Get("kinds").Get(out.Kind)

	if out.Image == "" {
		out.Image = groupSec.GetString("image")
	}
	if out.Image == "" {
		out.Image = kindSec.GetString("image")
	}
	if out.Image == "" {
		out.Image = defaultsSec.GetString("image")
	}

	if out.Type == "" {
		out.Type = groupSec.GetString("type")
	}
	if out.Type == "" {
		out.Type = kindSec.GetString("type")
	}
	if out.Type == "" {
		out.Type = defaultsSec.GetString("type")
	}

	return out
}

// Inherited returns the config a node would receive with no explicit fields
// at all, the baseline the reconciler prunes against.
func Inherited(root *doctree.Node, group string) NodeConfig {
	return Resolve(root, group, NodeConfig{})
}
