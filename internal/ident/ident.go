// Package ident allocates collision-free identifiers for newly created
// topology elements. Allocation is a pure function over the caller's set of
// ids already in use; numbering rules differ per element class.
package ident

import (
	"strconv"
	"strings"
)

// Class selects the numbering rule applied during allocation
type Class int

const (
	// ClassRegular numbers lab devices: srl1 -> srl2, leaf -> leaf1.
	ClassRegular Class = iota
	// ClassGroup numbers group containers as "<base>:<n>" starting at 1.
	ClassGroup
	// ClassDummy numbers dummy interfaces: dummy -> dummy1 -> dummy2.
	ClassDummy
	// ClassAdapter numbers "type:adapter" endpoints by their adapter
	// suffix: host:eth0 -> host:eth1.
	ClassAdapter
	// ClassEndpoint numbers the remaining special endpoints by a trailing
	// digit on the whole id.
	ClassEndpoint
)

// Allocate returns an id derived from base that is not present in used.
// It is deterministic and always terminates: every rule increments a counter
// until the candidate is free, and used is finite.
func Allocate(base string, used map[string]struct{}, class Class) string {
	switch class {
	case ClassGroup:
		return allocateGroup(base, used)
	case ClassDummy:
		return allocateNumbered(stripDigits(base), trailingNumber(base), used)
	case ClassAdapter:
		return allocateAdapter(base, used)
	case ClassEndpoint:
		return allocateNumbered(stripDigits(base), trailingNumber(base), used)
	default:
		return allocateNumbered(stripDigits(base), trailingNumber(base), used)
	}
}

// allocateNumbered appends prefix+n, starting one past the number already on
// the base, until the candidate is free.
func allocateNumbered(prefix string, start int, used map[string]struct{}) string {
	for n := start + 1; ; n++ {
		candidate := prefix + strconv.Itoa(n)
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}

// allocateGroup always yields "<base>:<n>". A ":<digits>" suffix already on
// the base is stripped so renaming grp:1 yields grp:2, not grp:1:1.
func allocateGroup(base string, used map[string]struct{}) string {
	if idx := strings.LastIndex(base, ":"); idx >= 0 && isDigits(base[idx+1:]) {
		base = base[:idx]
	}
	for n := 1; ; n++ {
		candidate := base + ":" + strconv.Itoa(n)
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}

// allocateAdapter increments the numeric tail of the adapter suffix after
// the colon (host:eth0 -> host:eth1). A suffix that does not parse as
// letters followed by digits falls back to appending a counter to the whole
// base instead.
func allocateAdapter(base string, used map[string]struct{}) string {
	idx := strings.LastIndex(base, ":")
	if idx > 0 && idx < len(base)-1 {
		kind, suffix := base[:idx], base[idx+1:]
		if alpha, num, ok := splitSuffix(suffix); ok {
			for n := num + 1; ; n++ {
				candidate := kind + ":" + alpha + strconv.Itoa(n)
				if _, taken := used[candidate]; !taken {
					return candidate
				}
			}
		}
	}

	for n := 1; ; n++ {
		candidate := base + strconv.Itoa(n)
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}

// splitSuffix splits a letters+digits adapter suffix like "eth0" into its
// alpha part and number. Suffixes with no digits or stray characters do not
// qualify.
func splitSuffix(s string) (alpha string, num int, ok bool) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return "", 0, false
	}
	for j := 0; j < i; j++ {
		c := s[j]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return "", 0, false
		}
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return "", 0, false
	}
	return s[:i], n, true
}

// stripDigits removes a trailing run of digits.
func stripDigits(s string) string {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	return s[:i]
}

// trailingNumber parses the trailing run of digits, 0 when there is none.
func trailingNumber(s string) int {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return 0
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return 0
	}
	return n
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
