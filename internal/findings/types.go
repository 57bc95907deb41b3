// Package findings applies IAM Access Analyzer finding events to the finding tables.
package findings

import (
	"fmt"
	"sort"
)

// FindingType is the closed set of Access Analyzer finding types that are stored.
type FindingType int

const (
	UnknownType FindingType = iota
	InternalAccess
	UnusedPermission
	UnusedIAMRole
)

var findingTypeNames = map[string]FindingType{
	"InternalAccess":   InternalAccess,
	"UnusedPermission": UnusedPermission,
	"UnusedIAMRole":    UnusedIAMRole,
}

// ParseFindingType maps an event's findingType to a known type.
func ParseFindingType(s string) (FindingType, bool) {
	t, ok := findingTypeNames[s]
	return t, ok
}

func (t FindingType) String() string {
	for name, v := range findingTypeNames {
		if v == t {
			return name
		}
	}
	return "Unknown"
}

// Kind groups finding types that share a record layout and table.
type Kind int

const (
	KindNone Kind = iota
	KindInternal
	KindUnused
)

func (t FindingType) Kind() Kind {
	switch t {
	case InternalAccess:
		return KindInternal
	case UnusedPermission, UnusedIAMRole:
		return KindUnused
	default:
		return KindNone
	}
}

// TerminalStatuses names, per finding type, the statuses that close a finding.
type TerminalStatuses map[FindingType]map[string]bool

// DefaultTerminalStatuses treats RESOLVED and ARCHIVED as terminal for every type.
func DefaultTerminalStatuses() TerminalStatuses {
	ts := TerminalStatuses{}
	for _, t := range findingTypeNames {
		ts[t] = map[string]bool{"RESOLVED": true, "ARCHIVED": true}
	}
	return ts
}

// NewTerminalStatuses builds the set from configuration keyed by finding type name.
// Types missing from cfg keep the default; unknown type names are an error.
func NewTerminalStatuses(cfg map[string][]string) (TerminalStatuses, error) {
	ts := DefaultTerminalStatuses()
	names := make([]string, 0, len(cfg))
	for name := range cfg {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t, ok := ParseFindingType(name)
		if !ok {
			return nil, fmt.Errorf("terminal statuses: unknown finding type %q", name)
		}
		set := make(map[string]bool, len(cfg[name]))
		for _, status := range cfg[name] {
			set[status] = true
		}
		ts[t] = set
	}
	return ts, nil
}

func (ts TerminalStatuses) IsTerminal(t FindingType, status string) bool {
	return ts[t][status]
}

// Outcome reports what Ingest did with an event.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeUpserted
	OutcomeDeleted
	OutcomeAlreadyAbsent
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpserted:
		return "upserted"
	case OutcomeDeleted:
		return "deleted"
	case OutcomeAlreadyAbsent:
		return "already absent"
	default:
		return "ignored"
	}
}

// Event is the EventBridge envelope of an Access Analyzer finding.
type Event struct {
	DetailType string `json:"detail-type"`
	Source     string `json:"source"`
	Detail     Detail `json:"detail"`
}

type Principal struct {
	AWS string `json:"AWS"`
}

// Detail holds the finding fields. Internal access findings carry id and principal;
// unused access findings carry findingId and resource.
type Detail struct {
	ID                                   string     `json:"id"`
	FindingID                            string     `json:"findingId"`
	FindingType                          string     `json:"findingType"`
	Status                               string     `json:"status"`
	Principal                            *Principal `json:"principal"`
	PrincipalType                        string     `json:"principalType"`
	PrincipalOwnerAccount                string     `json:"principalOwnerAccount"`
	Resource                             string     `json:"resource"`
	ResourceType                         string     `json:"resourceType"`
	AccountID                            string     `json:"accountId"`
	ResourceControlPolicyRestrictionType string     `json:"resourceControlPolicyRestrictionType"`
	ServiceControlPolicyRestrictionType  string     `json:"serviceControlPolicyRestrictionType"`
	AccessType                           string     `json:"accessType"`
	Action                               []string   `json:"action"`
	CreatedAt                            string     `json:"createdAt"`
	UpdatedAt                            string     `json:"updatedAt"`
	AnalyzedAt                           string     `json:"analyzedAt"`
	NumberOfUnusedServices               *int       `json:"numberOfUnusedServices"`
	NumberOfUnusedActions                *int       `json:"numberOfUnusedActions"`
}
