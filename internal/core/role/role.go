package role

import (
	"sort"
	"strings"
)

// Role is a capability tag carried by a user profile.
type Role string

const (
	Employee       Role = "EMPLOYEE"
	HR             Role = "HR"
	ProjectManager Role = "PROJECT_MANAGER"
	Boss           Role = "BOSS"
)

// Known lists the tags the portal renders dashboards for. The set stays open:
// unknown tags are kept on the session, they just unlock nothing.
var Known = []Role{Employee, HR, ProjectManager, Boss}

var labels = map[Role]string{
	Employee:       "Employee",
	HR:             "HR",
	ProjectManager: "Project Manager",
	Boss:           "Executive",
}

// Parse normalizes a tag as sent by the backend ("project_manager", " HR ").
func Parse(s string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(s)))
}

func (r Role) String() string {
	return string(r)
}

// Label is the human readable name shown in the layout header.
func (r Role) Label() string {
	if l, ok := labels[r]; ok {
		return l
	}
	return strings.ReplaceAll(string(r), "_", " ")
}

// Set is an unordered collection of roles.
type Set map[Role]struct{}

// NewSet builds a set of normalized tags, dropping empty ones.
func NewSet(roles ...Role) Set {
	s := make(Set, len(roles))
	for _, r := range roles {
		if r = Parse(string(r)); r != "" {
			s[r] = struct{}{}
		}
	}
	return s
}

// FromStrings parses and collects raw tags.
func FromStrings(raw []string) Set {
	roles := make([]Role, len(raw))
	for i, v := range raw {
		roles[i] = Role(v)
	}
	return NewSet(roles...)
}

// Has is the single role predicate. A nil set has no roles.
func (s Set) Has(r Role) bool {
	if s == nil {
		return false
	}
	_, ok := s[Parse(string(r))]
	return ok
}

// HasAny reports whether at least one of roles is in the set.
func (s Set) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Slice returns the roles sorted by tag for stable serialization.
func (s Set) Slice() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the sorted raw tags.
func (s Set) Strings() []string {
	roles := s.Slice()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func (s Set) Clone() Set {
	out := make(Set, len(s))
	for r := range s {
		out[r] = struct{}{}
	}
	return out
}

func (s Set) Len() int {
	return len(s)
}
