package ident

import (
	"fmt"
	"testing"
)

func used(ids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func TestAllocateRegular(t *testing.T) {
	tests := []struct {
		name string
		base string
		used map[string]struct{}
		want string
	}{
		{"increments trailing number", "srl1", used("srl1"), "srl2"},
		{"skips taken candidates", "srl1", used("srl1", "srl2", "srl3"), "srl4"},
		{"no trailing number starts at 1", "leaf", used(), "leaf1"},
		{"no trailing number skips taken", "leaf", used("leaf1", "leaf2"), "leaf3"},
		{"multi-digit number", "node99", used("node99", "node100"), "node101"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allocate(tt.base, tt.used, ClassRegular); got != tt.want {
				t.Errorf("Allocate(%q) = %q, want %q", tt.base, got, tt.want)
			}
		})
	}
}

func TestAllocateGroup(t *testing.T) {
	tests := []struct {
		name string
		base string
		used map[string]struct{}
		want string
	}{
		{"first group gets :1", "grp", used(), "grp:1"},
		{"increments level", "grp", used("grp:1"), "grp:2"},
		{"existing level suffix stripped", "grp:1", used("grp:1"), "grp:2"},
		{"non-numeric suffix kept", "rack:a", used(), "rack:a:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allocate(tt.base, tt.used, ClassGroup); got != tt.want {
				t.Errorf("Allocate(%q) = %q, want %q", tt.base, got, tt.want)
			}
		})
	}
}

func TestAllocateDummy(t *testing.T) {
	tests := []struct {
		name string
		base string
		used map[string]struct{}
		want string
	}{
		{"first dummy", "dummy", used(), "dummy1"},
		{"fills next free slot", "dummy", used("dummy1", "dummy2"), "dummy3"},
		{"numbered base increments", "dummy1", used("dummy1"), "dummy2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allocate(tt.base, tt.used, ClassDummy); got != tt.want {
				t.Errorf("Allocate(%q) = %q, want %q", tt.base, got, tt.want)
			}
		})
	}
}

func TestAllocateAdapter(t *testing.T) {
	tests := []struct {
		name string
		base string
		used map[string]struct{}
		want string
	}{
		{"increments adapter number", "host:eth0", used("host:eth0"), "host:eth1"},
		{"skips taken adapters", "host:eth0", used("host:eth0", "host:eth1"), "host:eth2"},
		{"macvlan parent interface", "macvlan:enp0s3", used("macvlan:enp0s3"), "macvlan:enp0s31"},
		{"unparsable suffix appends counter", "vxlan:vx-tun", used("vxlan:vx-tun"), "vxlan:vx-tun1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allocate(tt.base, tt.used, ClassAdapter); got != tt.want {
				t.Errorf("Allocate(%q) = %q, want %q", tt.base, got, tt.want)
			}
		})
	}
}

func TestAllocateEndpoint(t *testing.T) {
	if got := Allocate("mgmt-net", used("mgmt-net1"), ClassEndpoint); got != "mgmt-net2" {
		t.Errorf("expected 'mgmt-net2', got %q", got)
	}
}

func TestAllocateNeverCollides(t *testing.T) {
	// Dense used sets across every class: the result must always be free.
	classes := []Class{ClassRegular, ClassGroup, ClassDummy, ClassAdapter, ClassEndpoint}
	bases := []string{"srl1", "grp", "dummy", "host:eth0", "mgmt-net", "x"}

	for _, class := range classes {
		for _, base := range bases {
			taken := used()
			for i := 0; i < 50; i++ {
				taken[fmt.Sprintf("%s%d", base, i)] = struct{}{}
				taken[fmt.Sprintf("%s:%d", base, i)] = struct{}{}
			}
			got := Allocate(base, taken, class)
			if _, collides := taken[got]; collides {
				t.Errorf("class %d base %q: allocated id %q is already in use", class, base, got)
			}
		}
	}
}
