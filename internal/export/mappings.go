package export

import "tasnim.dev/aria-idc/internal/tables"

// Special source attributes filled in when an item does not carry them.
const (
	SourceUniqueID = "UniqueId"
	SourceLabel    = "Label"
)

// Column maps an item attribute to a CSV header.
type Column struct {
	Source string
	Header string
}

// Mapping describes one destination file.
type Mapping struct {
	Table        string // logical table name
	Key          string // object key in the bucket
	Columns      []Column
	GenerateID   bool
	Label        string
	DedupFields  []string
	RequireItems bool
}

func node(table, key, label string, cols ...Column) Mapping {
	cols = append(cols, Column{SourceLabel, "~label"})
	return Mapping{Table: table, Key: key, Columns: cols, Label: label}
}

func edge(table, key, label, from, to string, dedup ...string) Mapping {
	return Mapping{
		Table: table,
		Key:   key,
		Columns: []Column{
			{SourceUniqueID, "~id"},
			{from, "~from"},
			{to, "~to"},
			{SourceLabel, "~label"},
		},
		GenerateID:  true,
		Label:       label,
		DedupFields: dedup,
	}
}

func requireItems(m Mapping) Mapping {
	m.RequireItems = true
	return m
}

// DefaultMappings returns the graph files in export order: nodes first, then edges.
func DefaultMappings() []Mapping {
	return []Mapping{
		node(tables.Users, "AriaIdCUsers.csv", "UserName",
			Column{"UserId", "~id"}, Column{"UserName", "username:String"}),
		node(tables.Groups, "AriaIdCGroups.csv", "GroupName",
			Column{"GroupId", "~id"}, Column{"GroupName", "groupname:String"}),
		node(tables.PermissionSets, "AriaIdCPermissionSets.csv", "PermissionSet",
			Column{"PermissionSetArn", "~id"}, Column{"Name", "name:String"},
			Column{"Description", "description:String"}),
		node(tables.Accounts, "AriaIdCAccounts.csv", "AccountName",
			Column{"AccountId", "~id"}, Column{"Name", "name:String"}),
		node(tables.IAMRoles, "AriaIdCIAMRoles.csv", "RoleName",
			Column{"IamRoleArn", "~id"}, Column{"AccountId", "accountid:String"},
			Column{"RoleId", "roleid:String"}, Column{"RoleName", "rolename:String"},
			Column{"AttachedPolicies", "attachedpolicies:String"}),
		requireItems(node(tables.InternalAAFindings, "AriaIdCInternalAAFindings.csv", "InternalAccessFinding",
			Column{"FindingId", "~id"},
			Column{"ResourceARN", "resourcearn:String"},
			Column{"FindingType", "findingtype:String"},
			Column{"AccessType", "accesstype:String"},
			Column{"Principal", "principal:String"},
			Column{"PrincipalName", "principalname:String"},
			Column{"PrincipalOwnerAccount", "principalowneraccount:String"},
			Column{"ResourceType", "resourcetype:String"},
			Column{"Action", "action:String"},
			Column{"ResourceControlPolicyRestrictionType", "resourcecontrolpolicyrestrictiontype:String"},
			Column{"ServiceControlPolicyRestrictionType", "servicecontrolpolicyrestrictiontype:String"},
			Column{"Status", "status:String"},
			Column{"NumberOfUnusedActions", "numberofunusedactions:String"},
			Column{"NumberOfUnusedServices", "numberofunusedservices:String"})),
		requireItems(node(tables.InternalAAFindings, "AriaIdCCriticalResources.csv", "CriticalResources",
			Column{"ResourceARN", "~id"}, Column{"ResourceType", "resourcetype:String"})),
		requireItems(node(tables.UnusedAAFindings, "AriaIdCUnusedAAFindings.csv", "UnusedAccessFinding",
			Column{"FindingId", "~id"},
			Column{"ResourceARN", "resourcearn:String"},
			Column{"FindingType", "findingtype:String"},
			Column{"AccessType", "accesstype:String"},
			Column{"ResourceType", "resourcetype:String"},
			Column{"Status", "status:String"},
			Column{"NumberOfUnusedActions", "numberofunusedactions:String"},
			Column{"NumberOfUnusedServices", "numberofunusedservices:String"})),

		edge(tables.GroupMembership, "AriaIdCGroupMembership_Edge.csv", "HAS_MEMBERS", "GroupId", "UserId"),
		edge(tables.UserAccountAssignments, "AriaIdCUserAssignments_Edge.csv", "ASSIGNED_PERMISSIONSET",
			"UserId", "PermissionSetArn", "UserId", "PermissionSetArn"),
		edge(tables.GroupAccountAssignments, "AriaIdCGroupAssignments_Edge.csv", "ASSIGNED_PERMISSIONSET",
			"GroupId", "PermissionSetArn", "GroupId", "PermissionSetArn"),
		edge(tables.UserAccountAssignments, "AriaIdCUserAccount_Edge.csv", "ASSIGNED_ACCOUNT", "UserId", "AccountId"),
		edge(tables.GroupAccountAssignments, "AriaIdCGroupAccount_Edge.csv", "ASSIGNED_ACCOUNT", "GroupId", "AccountId"),
		edge(tables.ProvisionedPermissionSets, "AriaIdCProvisionedPermissionSets_Edge.csv", "PROVISIONED_INTO",
			"PermissionSetArn", "AccountId"),
		edge(tables.IAMRoles, "AriaIdCIAMRoles_Account_Edge.csv", "CREATED_IN", "IamRoleArn", "AccountId"),
		edge(tables.IAMRoles, "AriaIdCRole_PS_Edge.csv", "CREATED_AS", "PermissionSetArn", "IamRoleArn"),
		requireItems(edge(tables.InternalAAFindings, "AriaIdCInternalAAFindingsRole_Edge.csv", "LINKED_TO",
			"FindingId", "Principal")),
		requireItems(edge(tables.InternalAAFindings, "AriaIdCInternalAAFindingsResource_Edge.csv", "LINKED_TO",
			"FindingId", "ResourceARN")),
		requireItems(edge(tables.InternalAAFindings, "AriaIdCInternalAAF_Principal_Resource_Edge.csv", "GRANTS_ACCESS_TO",
			"Principal", "ResourceARN", "Principal", "ResourceARN")),
		requireItems(edge(tables.InternalAAFindings, "AriaIdCInternalAAFindingsResource_Account_Edge.csv", "BELONGS_TO",
			"ResourceARN", "ResourceAccount", "ResourceARN", "ResourceAccount")),
		requireItems(edge(tables.UnusedAAFindings, "AriaUnusedAAFindings_Edge.csv", "HAS_UNUSED_ACCESS",
			"ResourceARN", "FindingId")),
	}
}
