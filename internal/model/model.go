// Package model holds the typed rows written to the inventory and finding tables.
//
// Attribute names are the table attribute names; records are converted to and from
// store items with ToItem and FromItem.
package model

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"tasnim.dev/aria-idc/internal/store"
)

const (
	PrincipalTypeUser  = "USER"
	PrincipalTypeGroup = "GROUP"

	AccountStatusActive = "ACTIVE"

	// NotAvailable fills optional finding attributes absent from the event.
	NotAvailable = "N/A"
)

type User struct {
	UserID    string `mapstructure:"UserId"`
	UserName  string `mapstructure:"UserName"`
	Email     string `mapstructure:"Email"`
	UpdatedAt string `mapstructure:"UpdatedAt"`
}

type Group struct {
	GroupID   string `mapstructure:"GroupId"`
	GroupName string `mapstructure:"GroupName"`
	UpdatedAt string `mapstructure:"UpdatedAt"`
}

type GroupMembership struct {
	GroupID   string `mapstructure:"GroupId"`
	UserID    string `mapstructure:"UserId"`
	UpdatedAt string `mapstructure:"UpdatedAt"`
}

type PermissionSet struct {
	PermissionSetArn string `mapstructure:"PermissionSetArn"`
	Name             string `mapstructure:"Name"`
	Description      string `mapstructure:"Description"`
	UpdatedAt        string `mapstructure:"UpdatedAt"`
}

type ProvisionedPermissionSet struct {
	PermissionSetArn  string `mapstructure:"PermissionSetArn"`
	PermissionSetName string `mapstructure:"PermissionSetName"`
	AccountID         string `mapstructure:"AccountId"`
	AccountName       string `mapstructure:"AccountName"`
	UpdatedAt         string `mapstructure:"UpdatedAt"`
}

type Account struct {
	AccountID string `mapstructure:"AccountId"`
	Name      string `mapstructure:"Name"`
	Status    string `mapstructure:"Status"`
	UpdatedAt string `mapstructure:"UpdatedAt"`
}

// UserAccountAssignment is keyed by (AccountId, UserId).
type UserAccountAssignment struct {
	AccountID         string `mapstructure:"AccountId"`
	UserID            string `mapstructure:"UserId"`
	PrincipalType     string `mapstructure:"PrincipalType"`
	PrincipalName     string `mapstructure:"PrincipalName"`
	AccountName       string `mapstructure:"AccountName"`
	PermissionSetArn  string `mapstructure:"PermissionSetArn"`
	PermissionSetName string `mapstructure:"Name"`
	UpdatedAt         string `mapstructure:"UpdatedAt"`
}

// GroupAccountAssignment is keyed by (GroupId, AccountId).
type GroupAccountAssignment struct {
	GroupID           string `mapstructure:"GroupId"`
	AccountID         string `mapstructure:"AccountId"`
	PrincipalType     string `mapstructure:"PrincipalType"`
	PrincipalName     string `mapstructure:"PrincipalName"`
	AccountName       string `mapstructure:"AccountName"`
	PermissionSetArn  string `mapstructure:"PermissionSetArn"`
	PermissionSetName string `mapstructure:"Name"`
	UpdatedAt         string `mapstructure:"UpdatedAt"`
}

type IamRole struct {
	IamRoleArn        string   `mapstructure:"IamRoleArn"`
	RoleName          string   `mapstructure:"RoleName"`
	AccountID         string   `mapstructure:"AccountId"`
	RoleID            string   `mapstructure:"RoleId"`
	AttachedPolicies  []string `mapstructure:"AttachedPolicies"`
	PermissionSetName string   `mapstructure:"PermissionSetName"`
	PermissionSetArn  string   `mapstructure:"PermissionSetArn"`
	CreateDate        string   `mapstructure:"CreateDate"`
}

type InternalAccessFinding struct {
	FindingID                            string `mapstructure:"FindingId" validate:"required"`
	FindingType                          string `mapstructure:"FindingType" validate:"required"`
	Principal                            string `mapstructure:"Principal" validate:"required"`
	PrincipalName                        string `mapstructure:"PrincipalName"`
	PrincipalOwnerAccount                string `mapstructure:"PrincipalOwnerAccount"`
	PrincipalType                        string `mapstructure:"PrincipalType"`
	ResourceType                         string `mapstructure:"ResourceType"`
	ResourceARN                          string `mapstructure:"ResourceARN"`
	ResourceAccount                      string `mapstructure:"ResourceAccount"`
	ResourceControlPolicyRestrictionType string `mapstructure:"ResourceControlPolicyRestrictionType"`
	ServiceControlPolicyRestrictionType  string `mapstructure:"ServiceControlPolicyRestrictionType"`
	AccessType                           string `mapstructure:"AccessType"`
	Action                               string `mapstructure:"Action"`
	Status                               string `mapstructure:"Status" validate:"required"`
	CreatedAt                            string `mapstructure:"CreatedAt" validate:"required"`
	UpdatedAt                            string `mapstructure:"UpdatedAt" validate:"required"`
	ProcessedAt                          string `mapstructure:"ProcessedAt"`
}

type UnusedAccessFinding struct {
	FindingID              string `mapstructure:"FindingId" validate:"required"`
	AccessType             string `mapstructure:"AccessType"`
	FindingType            string `mapstructure:"FindingType" validate:"required"`
	Principal              string `mapstructure:"Principal" validate:"required"`
	PrincipalName          string `mapstructure:"PrincipalName"`
	PrincipalType          string `mapstructure:"PrincipalType"`
	PrincipalOwnerAccount  string `mapstructure:"PrincipalOwnerAccount"`
	ResourceARN            string `mapstructure:"ResourceARN"`
	ResourceType           string `mapstructure:"ResourceType"`
	ResourceAccount        string `mapstructure:"ResourceAccount"`
	Status                 string `mapstructure:"Status" validate:"required"`
	NumberOfUnusedServices int    `mapstructure:"NumberOfUnusedServices"`
	NumberOfUnusedActions  int    `mapstructure:"NumberOfUnusedActions"`
	CreatedAt              string `mapstructure:"CreatedAt" validate:"required"`
	UpdatedAt              string `mapstructure:"UpdatedAt" validate:"required"`
	AnalyzedAt             string `mapstructure:"AnalyzedAt" validate:"required"`
	ProcessedAt            string `mapstructure:"ProcessedAt"`
}

// ToItem converts a record into a store item keyed by attribute name.
func ToItem(record any) (store.Item, error) {
	item := store.Item{}
	if err := mapstructure.Decode(record, &item); err != nil {
		return nil, fmt.Errorf("encoding %T: %w", record, err)
	}
	return item, nil
}

// FromItem fills out, a pointer to a record, from a store item.
// Numbers decoded as float64 by the backends are narrowed to the record's field type.
func FromItem(item store.Item, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(item)); err != nil {
		return fmt.Errorf("decoding %T: %w", out, err)
	}
	return nil
}

// FromItems decodes every item into a new slice of T.
func FromItems[T any](items []store.Item) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		var rec T
		if err := FromItem(item, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
