// internal/domain/models/contact.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contact types.
const (
	ContactTypeContact      = "contact"
	ContactTypeOrganization = "organization"
	ContactTypeVendor       = "vendor"
	ContactTypeSponsor      = "sponsor"
	ContactTypePartner      = "partner"
)

// ContactTypes lists every directory entry type.
var ContactTypes = []string{
	ContactTypeContact, ContactTypeOrganization, ContactTypeVendor,
	ContactTypeSponsor, ContactTypePartner,
}

// Contact is a directory entry. AddedBy is a weak reference to the user who
// created it and may point at a deleted account.
type Contact struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ContactName   string              `bson:"contact_name" json:"contact_name"`
	ContactNameCI string              `bson:"contact_name_ci" json:"-"`
	Organization  string              `bson:"organization,omitempty" json:"organization,omitempty"`
	Title         string              `bson:"title,omitempty" json:"title,omitempty"`
	Email         string              `bson:"email,omitempty" json:"email,omitempty"`
	Phone         string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Address       string              `bson:"address,omitempty" json:"address,omitempty"`
	City          string              `bson:"city,omitempty" json:"city,omitempty"`
	State         string              `bson:"state,omitempty" json:"state,omitempty"`
	Zip           string              `bson:"zip,omitempty" json:"zip,omitempty"`
	Website       string              `bson:"website,omitempty" json:"website,omitempty"`
	Notes         string              `bson:"notes,omitempty" json:"notes,omitempty"`
	ContactType   string              `bson:"contact_type" json:"contact_type"`
	AddedBy       *primitive.ObjectID `bson:"added_by,omitempty" json:"added_by,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ValidContactType reports whether t is a known contact type.
func ValidContactType(t string) bool {
	for _, v := range ContactTypes {
		if v == t {
			return true
		}
	}
	return false
}
