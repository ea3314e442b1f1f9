package domain

import "strings"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// adminMarker is the substring that grants the admin role at first login.
// There is no other authentication; anyone can pick such an email.
const adminMarker = "admin"

// User models an identity recognised by the portal. Users are unique by email
// and never change after creation.
type User struct {
	ID    string `json:"id"    bson:"_id"`
	Name  string `json:"name"  bson:"name"`
	Email string `json:"email" bson:"email"`
	Role  string `json:"role"  bson:"role"`
}

// IsAdmin reports whether u holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// RoleForEmail derives the role assigned to a first-time login.
func RoleForEmail(email string) string {
	if strings.Contains(email, adminMarker) {
		return RoleAdmin
	}
	return RoleUser
}

// NameFromEmail returns the local part of email, or the whole string when it
// has no "@".
func NameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
