package internal

import (
	"fmt"
	"strings"
)

type Access string

const (
	AccessRead  Access = "read"
	AccessWrite Access = "write"
)

// Permission grants one access mode on one record kind, written "steps:read".
type Permission struct {
	Kind   RecordKind
	Access Access
}

func ReadPermission(kind RecordKind) Permission  { return Permission{Kind: kind, Access: AccessRead} }
func WritePermission(kind RecordKind) Permission { return Permission{Kind: kind, Access: AccessWrite} }

func (p Permission) String() string { return string(p.Kind) + ":" + string(p.Access) }

func (p Permission) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Permission) UnmarshalText(b []byte) error {
	parsed, err := ParsePermission(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func ParsePermission(s string) (Permission, error) {
	kind, access, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Permission{}, fmt.Errorf("permission %q: want kind:access", s)
	}
	p := Permission{Kind: RecordKind(kind), Access: Access(access)}
	switch p.Kind {
	case KindSteps, KindHeartRate, KindSleep:
	default:
		return Permission{}, fmt.Errorf("permission %q: unknown record kind", s)
	}
	if p.Access != AccessRead && p.Access != AccessWrite {
		return Permission{}, fmt.Errorf("permission %q: unknown access", s)
	}
	return p, nil
}

// ParsePermissions parses a comma separated list. "all" expands to AllPermissions.
func ParsePermissions(s string) ([]Permission, error) {
	if strings.TrimSpace(s) == "all" {
		return AllPermissions(), nil
	}
	var perms []Permission
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		p, err := ParsePermission(part)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, nil
}

func AllPermissions() []Permission {
	perms := make([]Permission, 0, 2*len(RecordKinds))
	for _, k := range RecordKinds {
		perms = append(perms, ReadPermission(k), WritePermission(k))
	}
	return perms
}

// PermissionSet is a lookup over granted permissions.
type PermissionSet map[Permission]struct{}

func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

func (s PermissionSet) HasAll(perms ...Permission) bool {
	for _, p := range perms {
		if !s.Has(p) {
			return false
		}
	}
	return true
}
