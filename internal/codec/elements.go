package codec

import (
	"fmt"
	"log"
	"strconv"

	"github.com/srl-labs/vscode-containerlab-sub006/internal/doctree"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/domain"
)

// MissingSectionError reports a document that cannot be rendered because a
// required section is absent or has the wrong shape.
type MissingSectionError struct {
	Section string
}

func (e *MissingSectionError) Error() string {
	return fmt.Sprintf("document has no usable %s section", e.Section)
}

// linkElements walks the document's link entries and produces edge elements
// plus cloud node elements for special endpoints that have no entry in the
// node map. Entries whose endpoints cannot be resolved are logged and
// skipped, matching the snapshot's tolerance on the way in.
func linkElements(root *doctree.Node, defined map[string]struct{}, cloudByID map[string]*domain.CloudAnnotation) (edges, clouds []domain.Element) {
	links := root.Get("topology").Get("links")
	if !links.IsSequence() {
		return nil, nil
	}

	seenClouds := make(map[string]struct{})

	for i, item := range links.Items() {
		src, dst, err := entryEndpoints(item)
		if err != nil {
			log.Printf("Skipping link entry %d: %v", i, err)
			continue
		}

		srcID := edgeNodeID(src, defined)
		dstID := edgeNodeID(dst, defined)

		for _, cloud := range []struct {
			id string
			ep domain.Endpoint
		}{{srcID, src}, {dstID, dst}} {
			if _, isDefined := defined[cloud.ep.Node]; isDefined {
				continue
			}
			if _, seen := seenClouds[cloud.id]; seen {
				continue
			}
			seenClouds[cloud.id] = struct{}{}
			clouds = append(clouds, cloudElement(cloud.id, cloud.ep, cloudByID[cloud.id]))
		}

		edge := domain.Element{
			Group: domain.ElementEdges,
			Data: domain.ElementData{
				ID:             fmt.Sprintf("%s:%s--%s:%s", src.Node, src.Interface, dst.Node, dst.Interface),
				Source:         srcID,
				Target:         dstID,
				SourceEndpoint: src.Interface,
				TargetEndpoint: dst.Interface,
			},
		}
		// Cloud attachments carry the original endpoint pair so the edge's
		// identity survives the trip back through a snapshot
		if srcID != src.Node || dstID != dst.Node {
			edge.Data.ExtraData = map[string]any{
				"endpoints": []any{src.String(), dst.String()},
			}
		}
		edges = append(edges, edge)
	}

	return edges, clouds
}

// edgeNodeID maps a link endpoint to the canvas node it attaches to. Lab
// devices attach by node name; special endpoints become their own cloud
// node identified by the full endpoint string.
func edgeNodeID(ep domain.Endpoint, defined map[string]struct{}) string {
	if _, ok := defined[ep.Node]; ok {
		return ep.Node
	}
	return ep.String()
}

func cloudElement(id string, ep domain.Endpoint, ann *domain.CloudAnnotation) domain.Element {
	role := domain.RoleCloud
	if ep.Node == domain.EndpointBridge || ep.Node == domain.EndpointOvs {
		role = domain.RoleBridge
	}

	el := domain.Element{
		Group: domain.ElementNodes,
		Data: domain.ElementData{
			ID:    id,
			Name:  id,
			Role:  string(role),
			Label: ep.Node,
		},
	}

	if ann != nil {
		el.Position = &domain.Position{
			X: float64(ann.Position.X),
			Y: float64(ann.Position.Y),
		}
		if ann.Label != "" {
			el.Data.Label = ann.Label
		}
		if ann.Group != "" {
			el.Data.Parent = domain.GroupID(ann.Group, ann.Level)
		}
	}

	return el
}

// entryEndpoints resolves a document link entry's two endpoints. Both the
// brief scalar form and the extended mapping form are understood.
func entryEndpoints(item *doctree.Node) (src, dst domain.Endpoint, err error) {
	endpoints := item.Get("endpoints")
	if !endpoints.IsSequence() || endpoints.Len() != 2 {
		return src, dst, fmt.Errorf("no two-element endpoints sequence")
	}

	items := endpoints.Items()
	if src, err = parseEndpointNode(items[0]); err != nil {
		return src, dst, err
	}
	if dst, err = parseEndpointNode(items[1]); err != nil {
		return src, dst, err
	}
	return src, dst, nil
}

func parseEndpointNode(ep *doctree.Node) (domain.Endpoint, error) {
	switch {
	case ep.IsScalar():
		return domain.ParseEndpoint(ep.StringValue())
	case ep.IsMapping():
		node, iface := ep.GetString("node"), ep.GetString("interface")
		if node == "" || iface == "" {
			return domain.Endpoint{}, fmt.Errorf("endpoint mapping missing node or interface")
		}
		return domain.Endpoint{Node: node, Interface: iface}, nil
	default:
		return domain.Endpoint{}, fmt.Errorf("endpoint is neither string nor mapping")
	}
}

// annotationElements renders free text and free shape annotations as
// canvas elements. They live only in the sidecar; the reconciler ignores
// them on the way back.
func annotationElements(coll *domain.AnnotationCollection) []domain.Element {
	var elements []domain.Element

	for _, t := range coll.FreeTextAnnotations {
		extra := map[string]any{"text": t.Text}
		if t.FontSize > 0 {
			extra["fontSize"] = t.FontSize
		}
		if t.FontColor != "" {
			extra["fontColor"] = t.FontColor
		}
		if t.Background != "" {
			extra["background"] = t.Background
		}
		elements = append(elements, domain.Element{
			Group: domain.ElementNodes,
			Data: domain.ElementData{
				ID:        t.ID,
				Name:      t.Text,
				Role:      string(domain.RoleFreeText),
				ExtraData: extra,
			},
			Position: &domain.Position{X: float64(t.Position.X), Y: float64(t.Position.Y)},
		})
	}

	for _, s := range coll.FreeShapeAnnotations {
		elements = append(elements, domain.Element{
			Group: domain.ElementNodes,
			Data: domain.ElementData{
				ID:   s.ID,
				Name: s.Shape,
				Role: string(domain.RoleFreeShape),
				ExtraData: map[string]any{
					"shape":  s.Shape,
					"width":  strconv.Itoa(s.Width),
					"height": strconv.Itoa(s.Height),
				},
			},
			Position: &domain.Position{X: float64(s.Position.X), Y: float64(s.Position.Y)},
		})
	}

	return elements
}
