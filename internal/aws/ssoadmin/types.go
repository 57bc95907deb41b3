package ssoadmin

import "time"

type PrincipalType string

const (
	PrincipalUser  PrincipalType = "USER"
	PrincipalGroup PrincipalType = "GROUP"
)

type Instance struct {
	InstanceArn     string
	IdentityStoreID string
	Name            string
}

type PermissionSet struct {
	Arn         string
	Name        string
	Description string
	CreatedAt   time.Time
}

type Assignment struct {
	AccountID        string
	PermissionSetArn string
	PrincipalID      string
	PrincipalType    PrincipalType
}
