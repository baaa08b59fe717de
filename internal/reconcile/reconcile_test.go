package reconcile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/srl-labs/vscode-containerlab-sub006/internal/domain"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/sidecar"
)

const baseTopology = `# three node lab
name: demo
topology:
  defaults:
    kind: nokia_srlinux
  kinds:
    nokia_srlinux:
      image: ghcr.io/nokia/srlinux
  nodes:
    srl1:
    srl2:
    client1:
      kind: linux # access host
      image: alpine:latest
  links:
    - endpoints: [srl1:e1-1, srl2:e1-1]
    - endpoints: [srl2:e1-2, client1:eth1]
`

func writeTopology(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.clab.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write topology: %v", err)
	}
	return path
}

func readTopology(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read topology: %v", err)
	}
	return string(data)
}

func regularNode(id, kind, image string) domain.Element {
	return domain.Element{
		Group:    domain.ElementNodes,
		Data:     domain.ElementData{ID: id, Name: id, Role: "regular", Kind: kind, Image: image},
		Position: &domain.Position{X: 100, Y: 100},
	}
}

func edge(src, srcIf, dst, dstIf string) domain.Element {
	return domain.Element{
		Group: domain.ElementEdges,
		Data: domain.ElementData{
			Source: src, Target: dst,
			SourceEndpoint: srcIf, TargetEndpoint: dstIf,
		},
	}
}

// baseSnapshot mirrors baseTopology's nodes and links unchanged.
func baseSnapshot() *domain.Snapshot {
	return domain.NewSnapshot([]domain.Element{
		regularNode("srl1", "nokia_srlinux", "ghcr.io/nokia/srlinux"),
		regularNode("srl2", "nokia_srlinux", "ghcr.io/nokia/srlinux"),
		regularNode("client1", "linux", "alpine:latest"),
		edge("srl1", "e1-1", "srl2", "e1-1"),
		edge("srl2", "e1-2", "client1", "eth1"),
	})
}

func TestRoundTripStability(t *testing.T) {
	path := writeTopology(t, baseTopology)

	r := New(path, nil, nil)
	if err := r.Run(baseSnapshot(), ModeEdit); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := readTopology(t, path); got != baseTopology {
		t.Errorf("unchanged snapshot altered the document:\n--- want ---\n%s\n--- got ---\n%s", baseTopology, got)
	}
}

func TestMinimalDiffConfig(t *testing.T) {
	path := writeTopology(t, baseTopology)

	// srl1's kind and image both match inherited defaults; client1's do not
	r := New(path, nil, nil)
	if err := r.Run(baseSnapshot(), ModeEdit); err != nil {
		t.Fatalf("run: %v", err)
	}

	text := readTopology(t, path)
	if strings.Contains(text, "srl1:\n      kind:") {
		t.Error("inherited kind written explicitly for srl1")
	}
	if !strings.Contains(text, "kind: linux") {
		t.Error("non-default kind for client1 lost")
	}
	if !strings.Contains(text, "image: alpine:latest") {
		t.Error("non-default image for client1 lost")
	}
}

func TestPruneRedundantField(t *testing.T) {
	src := `name: demo
topology:
  defaults:
    kind: nokia_srlinux
  nodes:
    srl1:
      kind: nokia_srlinux
  links: []
`
	path := writeTopology(t, src)

	snap := domain.NewSnapshot([]domain.Element{
		regularNode("srl1", "nokia_srlinux", ""),
	})

	if err := New(path, nil, nil).Run(snap, ModeEdit); err != nil {
		t.Fatalf("run: %v", err)
	}

	text := readTopology(t, path)
	if strings.Contains(text, "kind: nokia_srlinux\n  nodes") == false {
		// defaults section must survive
		t.Error("defaults section damaged")
	}
	if strings.Contains(text, "srl1:\n      kind:") {
		t.Errorf("redundant explicit kind not pruned:\n%s", text)
	}
}

func TestAddNodeAndLink(t *testing.T) {
	path := writeTopology(t, baseTopology)

	elements := []domain.Element{
		regularNode("srl1", "nokia_srlinux", "ghcr.io/nokia/srlinux"),
		regularNode("srl2", "nokia_srlinux", "ghcr.io/nokia/srlinux"),
		regularNode("client1", "linux", "alpine:latest"),
		regularNode("srl3", "nokia_srlinux", "ghcr.io/nokia/srlinux"),
		edge("srl1", "e1-1", "srl2", "e1-1"),
		edge("srl2", "e1-2", "client1", "eth1"),
		edge("srl1", "e1-2", "srl3", "e1-1"),
	}

	if err := New(path, nil, nil).Run(domain.NewSnapshot(elements), ModeEdit); err != nil {
		t.Fatalf("run: %v", err)
	}

	text := readTopology(t, path)
	if !strings.Contains(text, "srl3:") {
		t.Error("new node entry missing")
	}
	if !strings.Contains(text, "- endpoints: [srl1:e1-2, srl3:e1-1]") {
		t.Errorf("new link not rendered with flow-style endpoints:\n%s", text)
	}
	// Comments survive the edit
	if !strings.Contains(text, "# three node lab") {
		t.Error("document head comment lost")
	}
	if !strings.Contains(text, "# access host") {
		t.Error("inline comment lost")
	}
}

func TestDeleteNodeDropsLinks(t *testing.T) {
	path := writeTopology(t, baseTopology)

	// client1 removed from the canvas, along with its link
	elements := []domain.Element{
		regularNode("srl1", "nokia_srlinux", "ghcr.io/nokia/srlinux"),
		regularNode("srl2", "nokia_srlinux", "ghcr.io/nokia/srlinux"),
		edge("srl1", "e1-1", "srl2", "e1-1"),
	}

	if err := New(path, nil, nil).Run(domain.NewSnapshot(elements), ModeEdit); err != nil {
		t.Fatalf("run: %v", err)
	}

	text := readTopology(t, path)
	if strings.Contains(text, "client1") {
		t.Errorf("deleted node still referenced:\n%s", text)
	}
	if !strings.Contains(text, "- endpoints: [srl1:e1-1, srl2:e1-1]") {
		t.Error("surviving link lost")
	}
}

func TestRenamePropagation(t *testing.T) {
	path := writeTopology(t, baseTopology)

	// srl1 renamed to spine1: element keeps the old id, name carries the new one
	elements := []domain.Element{
		{
			Group:    domain.ElementNodes,
			Data:     domain.ElementData{ID: "srl1", Name: "spine1", Role: "regular", Kind: "nokia_srlinux", Image: "ghcr.io/nokia/srlinux"},
			Position: &domain.Position{X: 100, Y: 100},
		},
		regularNode("srl2", "nokia_srlinux", "ghcr.io/nokia/srlinux"),
		regularNode("client1", "linux", "alpine:latest"),
		edge("srl1", "e1-1", "srl2", "e1-1"),
		edge("srl2", "e1-2", "client1", "eth1"),
	}

	if err := New(path, nil, nil).Run(domain.NewSnapshot(elements), ModeEdit); err != nil {
		t.Fatalf("run: %v", err)
	}

	text := readTopology(t, path)
	if !strings.Contains(text, "spine1:") {
		t.Error("renamed node key missing")
	}
	if strings.Contains(text, "srl1") {
		t.Errorf("old node name still present:\n%s", text)
	}
	if !strings.Contains(text, "- endpoints: [spine1:e1-1, srl2:e1-1]") {
		t.Errorf("link endpoint not rewritten through rename:\n%s", text)
	}
}

func TestRenameReplaySecondSaveIsNoOp(t *testing.T) {
	path := writeTopology(t, baseTopology)

	// The canvas keeps the old id alongside the new name until it re-syncs,
	// so a second save replays the same rename.
	elements := []domain.Element{
		{
			Group:    domain.ElementNodes,
			Data:     domain.ElementData{ID: "srl1", Name: "spine1", Role: "regular", Kind: "nokia_srlinux", Image: "ghcr.io/nokia/srlinux"},
			Position: &domain.Position{X: 100, Y: 100},
		},
		regularNode("srl2", "nokia_srlinux", "ghcr.io/nokia/srlinux"),
		regularNode("client1", "linux", "alpine:latest"),
		edge("srl1", "e1-1", "srl2", "e1-1"),
		edge("srl2", "e1-2", "client1", "eth1"),
	}
	snap := domain.NewSnapshot(elements)

	r := New(path, nil, nil)
	if err := r.Run(snap, ModeEdit); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := readTopology(t, path)

	if err := r.Run(snap, ModeEdit); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second := readTopology(t, path)

	if second != first {
		t.Errorf("replayed save changed the document:\n--- first ---\n%s\n--- second ---\n%s", first, second)
	}
	if got := strings.Count(second, "\n    spine1:"); got != 1 {
		t.Errorf("want exactly one spine1 node entry, got %d:\n%s", got, second)
	}
	if strings.Contains(second, "srl1") {
		t.Errorf("old node name resurfaced:\n%s", second)
	}
}

func TestViewModePositionOnly(t *testing.T) {
	src := `name: demo
topology:
  nodes:
    srl1:
      labels:
        graph-posX: "100"
        graph-posY: "100"
    srl2:
  links:
    - endpoints: [srl1:e1-1, srl2:e1-1]
`
	path := writeTopology(t, src)

	// Snapshot moves srl1 and drops srl2 entirely; view mode must update the
	// position labels and nothing else.
	elements := []domain.Element{
		{
			Group:    domain.ElementNodes,
			Data:     domain.ElementData{ID: "srl1", Name: "srl1", Role: "regular"},
			Position: &domain.Position{X: 250.4, Y: 300.6},
		},
	}

	if err := New(path, nil, nil).Run(domain.NewSnapshot(elements), ModeView); err != nil {
		t.Fatalf("run: %v", err)
	}

	text := readTopology(t, path)
	if !strings.Contains(text, `graph-posX: "250"`) || !strings.Contains(text, `graph-posY: "301"`) {
		t.Errorf("position labels not updated:\n%s", text)
	}
	if !strings.Contains(text, "srl2:") {
		t.Error("view mode removed a node")
	}
	if !strings.Contains(text, "- endpoints: [srl1:e1-1, srl2:e1-1]") {
		t.Error("view mode touched the links")
	}
}

func TestStructuralErrorAbortsWithoutWrite(t *testing.T) {
	src := "name: demo\n# no topology section\n"
	path := writeTopology(t, src)

	err := New(path, nil, nil).Run(baseSnapshot(), ModeEdit)
	if err == nil {
		t.Fatal("expected structural error")
	}
	if !IsStructural(err) {
		t.Errorf("expected StructuralError, got %v", err)
	}
	if got := readTopology(t, path); got != src {
		t.Error("document was written despite fatal error")
	}
}

func TestMalformedLinkEntrySkipped(t *testing.T) {
	src := `name: demo
topology:
  nodes:
    srl1:
    srl2:
  links:
    - endpoints: [broken]
    - endpoints: [srl1:e1-1, srl2:e1-1]
`
	path := writeTopology(t, src)

	if err := New(path, nil, nil).Run(baseSnapshotTwoNodes(), ModeEdit); err != nil {
		t.Fatalf("expected malformed entry to be skipped, got %v", err)
	}

	text := readTopology(t, path)
	if !strings.Contains(text, "- endpoints: [broken]") {
		t.Error("unresolvable entry should be left alone")
	}
	if !strings.Contains(text, "- endpoints: [srl1:e1-1, srl2:e1-1]") {
		t.Error("valid entry lost")
	}
}

func baseSnapshotTwoNodes() *domain.Snapshot {
	return domain.NewSnapshot([]domain.Element{
		regularNode("srl1", "", ""),
		regularNode("srl2", "", ""),
		edge("srl1", "e1-1", "srl2", "e1-1"),
	})
}

func TestLinksSectionCreatedOnDemand(t *testing.T) {
	src := `name: demo
topology:
  nodes:
    srl1:
    srl2:
`
	path := writeTopology(t, src)

	if err := New(path, nil, nil).Run(baseSnapshotTwoNodes(), ModeEdit); err != nil {
		t.Fatalf("run: %v", err)
	}

	if !strings.Contains(readTopology(t, path), "- endpoints: [srl1:e1-1, srl2:e1-1]") {
		t.Error("links section not created for first link")
	}
}

func TestExtendedLinkAttributes(t *testing.T) {
	src := `name: demo
topology:
  nodes:
    srl1:
    srl2:
  links: []
`
	path := writeTopology(t, src)

	elements := []domain.Element{
		regularNode("srl1", "", ""),
		regularNode("srl2", "", ""),
		{
			Group: domain.ElementEdges,
			Data: domain.ElementData{
				Source: "srl1", Target: "srl2",
				SourceEndpoint: "e1-1", TargetEndpoint: "e1-1",
				ExtraData: map[string]any{
					"extMtu": float64(9000),
					"extVars": map[string]any{
						"vni": float64(100),
					},
				},
			},
		},
	}

	if err := New(path, nil, nil).Run(domain.NewSnapshot(elements), ModeEdit); err != nil {
		t.Fatalf("run: %v", err)
	}

	text := readTopology(t, path)
	if !strings.Contains(text, "mtu: 9000") {
		t.Errorf("mtu not written:\n%s", text)
	}
	if !strings.Contains(text, "vni: 100") {
		t.Errorf("vars not written:\n%s", text)
	}
}

func TestAnnotationsSidecarUpdated(t *testing.T) {
	path := writeTopology(t, baseTopology)
	manager := sidecar.NewManager()

	// Pre-existing free text annotations belong to another writer and must
	// survive the reconciler's wholesale replacement of node annotations
	pre := domain.NewAnnotationCollection()
	pre.FreeTextAnnotations = []domain.FreeTextAnnotation{{ID: "t1", Text: "keep me"}}
	pre.NodeAnnotations = []domain.NodeAnnotation{{ID: "stale"}}
	if err := manager.Save(path, pre); err != nil {
		t.Fatalf("seed sidecar: %v", err)
	}

	elements := []domain.Element{
		{
			Group: domain.ElementNodes,
			Data: domain.ElementData{
				ID: "srl1", Name: "srl1", Role: "regular",
				Parent: "spines:1",
				ExtraData: map[string]any{
					"icon": "router",
					"lat":  "51.47",
					"lng":  "-0.45",
				},
			},
			Position: &domain.Position{X: 10.6, Y: 20.4},
		},
		{
			Group:    domain.ElementNodes,
			Data:     domain.ElementData{ID: "host:eth0", Role: "cloud", Label: "host"},
			Position: &domain.Position{X: 50, Y: 60},
		},
	}

	if err := New(path, manager, nil).Run(domain.NewSnapshot(elements), ModeEdit); err != nil {
		t.Fatalf("run: %v", err)
	}

	coll := manager.Load(path)
	if len(coll.NodeAnnotations) != 1 {
		t.Fatalf("expected 1 node annotation, got %d", len(coll.NodeAnnotations))
	}
	ann := coll.NodeAnnotations[0]
	if ann.ID != "srl1" {
		t.Errorf("unexpected annotation id %s", ann.ID)
	}
	if ann.Position.X != 11 || ann.Position.Y != 20 {
		t.Errorf("position not rounded: %+v", ann.Position)
	}
	if ann.Icon != "router" {
		t.Errorf("icon not carried: %q", ann.Icon)
	}
	if ann.GeoCoordinates == nil || ann.GeoCoordinates.Lat != 51.47 {
		t.Errorf("geo coordinates not parsed: %+v", ann.GeoCoordinates)
	}
	if ann.Group != "spines" || ann.Level != "1" {
		t.Errorf("parent id not split: group=%q level=%q", ann.Group, ann.Level)
	}

	if len(coll.CloudNodeAnnotations) != 1 {
		t.Fatalf("expected 1 cloud annotation, got %d", len(coll.CloudNodeAnnotations))
	}
	if coll.CloudNodeAnnotations[0].Type != "host" {
		t.Errorf("unexpected cloud type %s", coll.CloudNodeAnnotations[0].Type)
	}

	if len(coll.FreeTextAnnotations) != 1 || coll.FreeTextAnnotations[0].Text != "keep me" {
		t.Error("free text annotations were not preserved")
	}
}

func TestGeoCoordinatesRequireBothParts(t *testing.T) {
	el := domain.Element{
		Group: domain.ElementNodes,
		Data: domain.ElementData{
			ID: "srl1", Role: "regular",
			ExtraData: map[string]any{"lat": "51.47", "lng": "not-a-number"},
		},
	}

	nodes, _ := buildAnnotations(domain.NewSnapshot([]domain.Element{el}))
	if nodes[0].GeoCoordinates != nil {
		t.Error("expected unparsable lng to drop geo coordinates")
	}
}

type recordingGuard struct {
	acquired int
	released int
}

func (g *recordingGuard) Acquire() string {
	g.acquired++
	return "token"
}

func (g *recordingGuard) Release(string) {
	g.released++
}

func TestEditModeWritesUnderLease(t *testing.T) {
	path := writeTopology(t, baseTopology)
	guard := &recordingGuard{}

	r := New(path, nil, guard).WithSettleDelay(0)
	if err := r.Run(baseSnapshot(), ModeEdit); err != nil {
		t.Fatalf("run: %v", err)
	}

	if guard.acquired != 1 || guard.released != 1 {
		t.Errorf("expected one acquire/release pair, got %d/%d", guard.acquired, guard.released)
	}

	// View mode has no watcher to coordinate with
	if err := r.Run(baseSnapshot(), ModeView); err != nil {
		t.Fatalf("view run: %v", err)
	}
	if guard.acquired != 1 {
		t.Error("view mode should not lease the guard")
	}
}

func TestCloudTypeClassification(t *testing.T) {
	cases := []struct {
		id   string
		want string
	}{
		{"host", "host"},
		{"mgmt-net", "mgmt-net"},
		{"macvlan:enp0s3", "macvlan"},
		{"vxlan:vx1", "vxlan"},
		{"dummy2", "dummy"},
		// A merely similar id is not a special endpoint
		{"hostname1", "host"},
		{"mgmt-net-lab", "host"},
		{"macvlan0", "host"},
	}

	for _, tc := range cases {
		node := &domain.Node{ID: tc.id, Role: domain.RoleCloud}
		if got := cloudType(node); got != tc.want {
			t.Errorf("cloudType(%q) = %q, want %q", tc.id, got, tc.want)
		}
	}
}
