package iam

import "time"

type IAMRole struct {
	Name      string
	RoleID    string
	ARN       string
	Path      string
	CreatedAt time.Time
}

type IAMAttachedPolicy struct {
	Name string
	ARN  string
}
