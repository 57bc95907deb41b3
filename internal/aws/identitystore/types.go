package identitystore

type User struct {
	UserID   string
	UserName string
	Email    string
}

type Group struct {
	GroupID     string
	DisplayName string
}

type Membership struct {
	GroupID      string
	UserID       string
	MembershipID string
}
