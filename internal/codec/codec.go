// Package codec converts between the persisted topology representation and
// the flat element list the canvas renders. The encoder reads a parsed
// document plus its annotation sidecar; the decoder turns an incoming
// element list back into an indexed snapshot.
package codec

import (
	"sort"
	"strconv"

	"github.com/srl-labs/vscode-containerlab-sub006/internal/defaults"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/doctree"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/domain"
)

// Elements builds the canvas element list from a topology document and its
// annotation collection. Node elements come first, then synthesized group
// and cloud containers, then edges, so the renderer never sees an edge
// before its endpoints.
func Elements(root *doctree.Node, coll *domain.AnnotationCollection) ([]domain.Element, error) {
	nodesMap := root.Get("topology").Get("nodes")
	if !nodesMap.IsMapping() {
		return nil, &MissingSectionError{Section: "topology.nodes"}
	}

	annByID := make(map[string]*domain.NodeAnnotation, len(coll.NodeAnnotations))
	for i := range coll.NodeAnnotations {
		annByID[coll.NodeAnnotations[i].ID] = &coll.NodeAnnotations[i]
	}
	cloudByID := make(map[string]*domain.CloudAnnotation, len(coll.CloudNodeAnnotations))
	for i := range coll.CloudNodeAnnotations {
		cloudByID[coll.CloudNodeAnnotations[i].ID] = &coll.CloudNodeAnnotations[i]
	}

	var elements []domain.Element
	groups := make(map[string]struct{})
	defined := make(map[string]struct{})

	for _, id := range nodesMap.Keys() {
		defined[id] = struct{}{}
		el := nodeElement(root, nodesMap, id, annByID[id])
		if el.Data.Parent != "" {
			groups[el.Data.Parent] = struct{}{}
		}
		elements = append(elements, el)
	}

	for _, parent := range sortedSet(groups) {
		name, level := domain.SplitGroupID(parent)
		elements = append(elements, domain.Element{
			Group: domain.ElementNodes,
			Data: domain.ElementData{
				ID:   parent,
				Name: name,
				Role: string(domain.RoleGroup),
				ExtraData: map[string]any{
					"level": level,
				},
			},
		})
	}

	edges, clouds := linkElements(root, defined, cloudByID)
	elements = append(elements, clouds...)
	elements = append(elements, edges...)

	elements = append(elements, annotationElements(coll)...)

	return elements, nil
}

// nodeElement builds one regular node element. Config fields resolve
// through the inheritance chain so the canvas always sees effective values;
// position prefers the sidecar and falls back to legacy position labels.
func nodeElement(root, nodesMap *doctree.Node, id string, ann *domain.NodeAnnotation) domain.Element {
	entry := nodesMap.Get(id)

	var group string
	if ann != nil {
		group = ann.Group
	}

	cfg := defaults.Resolve(root, group, defaults.NodeConfig{
		Kind:  entry.GetString("kind"),
		Image: entry.GetString("image"),
		Type:  entry.GetString("type"),
	})

	el := domain.Element{
		Group: domain.ElementNodes,
		Data: domain.ElementData{
			ID:    id,
			Name:  id,
			Role:  string(domain.RoleRegular),
			Kind:  cfg.Kind,
			Image: cfg.Image,
			Type:  cfg.Type,
		},
	}

	if ann != nil {
		el.Position = &domain.Position{
			X: float64(ann.Position.X),
			Y: float64(ann.Position.Y),
		}
		if ann.Group != "" {
			el.Data.Parent = domain.GroupID(ann.Group, ann.Level)
		}
		extra := make(map[string]any)
		if ann.Icon != "" {
			extra["icon"] = ann.Icon
		}
		if ann.GroupLabelPos != "" {
			extra["groupLabelPos"] = ann.GroupLabelPos
		}
		if geo := ann.GeoCoordinates; geo != nil {
			extra["lat"] = strconv.FormatFloat(geo.Lat, 'f', -1, 64)
			extra["lng"] = strconv.FormatFloat(geo.Lng, 'f', -1, 64)
		}
		if len(extra) > 0 {
			el.Data.ExtraData = extra
		}
		return el
	}

	if labels := entry.Get("labels"); labels.IsMapping() {
		if labels.Has("graph-posX") && labels.Has("graph-posY") {
			el.Position = &domain.Position{
				X: float64(labels.Get("graph-posX").IntValue()),
				Y: float64(labels.Get("graph-posY").IntValue()),
			}
		}
	}

	return el
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
