// Package tables is the catalog of inventory and finding tables.
package tables

import "tasnim.dev/aria-idc/internal/store"

const DefaultPrefix = "AriaIdC"

// Logical table names. The physical name is the configured prefix plus the logical name.
const (
	Users                     = "Users"
	Groups                    = "Groups"
	GroupMembership           = "GroupMembership"
	PermissionSets            = "PermissionSets"
	ProvisionedPermissionSets = "ProvisionedPermissionSets"
	Accounts                  = "Accounts"
	UserAccountAssignments    = "UserAccountAssignments"
	GroupAccountAssignments   = "GroupAccountAssignments"
	IAMRoles                  = "IAMRoles"
	InternalAAFindings        = "InternalAAFindings"
	UnusedAAFindings          = "UnusedAAFindings"
	ExternalAAFindings        = "ExternalAAFindings"
)

type keys struct {
	hash, rng string
}

var catalog = []struct {
	name string
	keys keys
}{
	{Users, keys{"UserId", ""}},
	{Groups, keys{"GroupId", ""}},
	{GroupMembership, keys{"GroupId", "UserId"}},
	{PermissionSets, keys{"PermissionSetArn", ""}},
	{ProvisionedPermissionSets, keys{"PermissionSetArn", "AccountId"}},
	{Accounts, keys{"AccountId", ""}},
	{UserAccountAssignments, keys{"AccountId", "UserId"}},
	{GroupAccountAssignments, keys{"GroupId", "AccountId"}},
	{IAMRoles, keys{"IamRoleArn", ""}},
	{InternalAAFindings, keys{"FindingId", ""}},
	{UnusedAAFindings, keys{"FindingId", ""}},
	{ExternalAAFindings, keys{"FindingId", ""}},
}

// Schema returns the schema of a logical table. It panics on an unknown name.
func Schema(prefix, logical string) store.Schema {
	for _, t := range catalog {
		if t.name == logical {
			return store.Schema{Name: prefix + logical, HashKey: t.keys.hash, RangeKey: t.keys.rng}
		}
	}
	panic("tables: unknown table " + logical)
}

// Schemas returns every table in catalog order.
func Schemas(prefix string) []store.Schema {
	out := make([]store.Schema, 0, len(catalog))
	for _, t := range catalog {
		out = append(out, Schema(prefix, t.name))
	}
	return out
}

// Set holds open handles on every table of a store.
type Set struct {
	prefix string
	tables map[string]store.Table
}

func NewSet(s store.Store, prefix string) *Set {
	set := &Set{prefix: prefix, tables: make(map[string]store.Table, len(catalog))}
	for _, t := range catalog {
		set.tables[t.name] = s.Table(Schema(prefix, t.name))
	}
	return set
}

// Get returns the handle of a logical table. It panics on an unknown name.
func (s *Set) Get(logical string) store.Table {
	t, ok := s.tables[logical]
	if !ok {
		panic("tables: unknown table " + logical)
	}
	return t
}

func (s *Set) Prefix() string { return s.prefix }
