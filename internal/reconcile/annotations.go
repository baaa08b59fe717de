package reconcile

import (
	"math"
	"strconv"
	"strings"

	"github.com/srl-labs/vscode-containerlab-sub006/internal/domain"
)

// buildAnnotations derives the node and cloud annotation sub-collections
// from the snapshot. The document plays no part here: annotations reflect
// what is on the canvas, and these two sub-collections replace their prior
// contents wholesale.
func buildAnnotations(snap *domain.Snapshot) ([]domain.NodeAnnotation, []domain.CloudAnnotation) {
	nodes := []domain.NodeAnnotation{}
	clouds := []domain.CloudAnnotation{}

	for _, node := range snap.Nodes {
		switch node.Role {
		case domain.RoleRegular:
			nodes = append(nodes, nodeAnnotation(node))
		case domain.RoleCloud, domain.RoleBridge:
			clouds = append(clouds, cloudAnnotation(node))
		}
	}

	return nodes, clouds
}

func nodeAnnotation(node *domain.Node) domain.NodeAnnotation {
	ann := domain.NodeAnnotation{
		ID:            effectiveID(node),
		Position:      domain.RoundPosition(node.Position),
		Icon:          node.Icon,
		GroupLabelPos: node.GroupLabelPos,
	}

	if geo, ok := parseGeo(node.Lat, node.Lng); ok {
		ann.GeoCoordinates = &geo
	}

	if node.Parent != "" {
		ann.Group, ann.Level = domain.SplitGroupID(node.Parent)
	}

	return ann
}

func cloudAnnotation(node *domain.Node) domain.CloudAnnotation {
	ann := domain.CloudAnnotation{
		ID:       effectiveID(node),
		Type:     cloudType(node),
		Label:    node.Label,
		Position: domain.RoundPosition(node.Position),
	}

	if node.Parent != "" {
		ann.Group, ann.Level = domain.SplitGroupID(node.Parent)
	}

	return ann
}

// effectiveID prefers the node's current name so annotations key by the
// identity the document now carries after a rename.
func effectiveID(node *domain.Node) string {
	if node.Name != "" {
		return node.Name
	}
	return node.ID
}

// cloudType classifies a special endpoint by its explicit type or, failing
// that, by the shape of its id (host, mgmt-net, macvlan:parent, dummy3...).
func cloudType(node *domain.Node) string {
	if node.Type != "" {
		return node.Type
	}
	if node.Role == domain.RoleBridge {
		if node.Kind != "" {
			return node.Kind
		}
		return domain.EndpointBridge
	}

	id := node.ID
	for _, kind := range []string{
		domain.EndpointHost,
		domain.EndpointMgmt,
		domain.EndpointMacvlan,
		domain.EndpointVxlan,
		domain.EndpointDummy,
	} {
		if id == kind || strings.HasPrefix(id, kind+":") {
			return kind
		}
	}
	// Dummy endpoints are numbered without a separator (dummy1, dummy2, ...)
	if strings.HasPrefix(id, domain.EndpointDummy) {
		return domain.EndpointDummy
	}
	return "host"
}

// parseGeo accepts coordinates only when both parts parse as finite numbers.
func parseGeo(lat, lng string) (domain.GeoCoordinates, bool) {
	if lat == "" || lng == "" {
		return domain.GeoCoordinates{}, false
	}
	latF, err1 := strconv.ParseFloat(lat, 64)
	lngF, err2 := strconv.ParseFloat(lng, 64)
	if err1 != nil || err2 != nil {
		return domain.GeoCoordinates{}, false
	}
	if math.IsInf(latF, 0) || math.IsNaN(latF) || math.IsInf(lngF, 0) || math.IsNaN(lngF) {
		return domain.GeoCoordinates{}, false
	}
	return domain.GeoCoordinates{Lat: latF, Lng: lngF}, true
}
