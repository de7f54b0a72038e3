// internal/domain/models/user.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles.
const (
	RoleMember     = "MEMBER"
	RoleEditor     = "EDITOR"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// Member statuses (council standing, independent of the account role).
const (
	StatusVisitor       = "VISITOR"
	StatusMember        = "MEMBER"
	StatusVotingMember  = "VOTING_MEMBER"
	StatusPresident     = "PRESIDENT"
	StatusVicePresident = "VICE_PRESIDENT"
	StatusTreasurer     = "TREASURER"
	StatusSecretary     = "SECRETARY"
)

// Roles lists every account role in ascending privilege order.
var Roles = []string{RoleMember, RoleEditor, RoleAdmin, RoleSuperAdmin}

// MemberStatuses lists every member status.
var MemberStatuses = []string{
	StatusVisitor, StatusMember, StatusVotingMember, StatusPresident,
	StatusVicePresident, StatusTreasurer, StatusSecretary,
}

// User is a council account.
//
// The lifecycle bucket (legacy, unverified, pending approval, active) is never
// stored. It is derived from EmailVerified, EmailVerificationToken and Approved.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	Name         string             `bson:"name" json:"name"`
	NameCI       string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role         string             `bson:"role" json:"role"`
	MemberStatus string             `bson:"member_status" json:"member_status"`
	Active       bool               `bson:"active" json:"active"`

	EmailVerified          bool    `bson:"email_verified" json:"email_verified"`
	EmailVerificationToken *string `bson:"email_verification_token" json:"-"`

	Approved   bool                `bson:"approved" json:"approved"`
	ApprovedAt *time.Time          `bson:"approved_at,omitempty" json:"approved_at,omitempty"`
	ApprovedBy *primitive.ObjectID `bson:"approved_by,omitempty" json:"approved_by,omitempty"`

	LastLogin *time.Time `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// HasVerificationToken reports whether a non-empty verification token is stored.
func (u User) HasVerificationToken() bool {
	return u.EmailVerificationToken != nil && *u.EmailVerificationToken != ""
}

// IsAdminRole reports whether the role grants admin privileges.
func IsAdminRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

// IsEditorRole reports whether the role may manage events, tasks and the directory.
func IsEditorRole(role string) bool {
	return role == RoleEditor || IsAdminRole(role)
}

// ValidRole reports whether role is a known account role.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleRank returns role's position in Roles, or -1 for an unknown role.
// Comparison is case-insensitive.
func RoleRank(role string) int {
	role = strings.ToUpper(strings.TrimSpace(role))
	for i, r := range Roles {
		if r == role {
			return i
		}
	}
	return -1
}

// ValidMemberStatus reports whether s is a known member status.
func ValidMemberStatus(s string) bool {
	for _, v := range MemberStatuses {
		if v == s {
			return true
		}
	}
	return false
}
