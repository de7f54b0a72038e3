// Package lifecycle classifies user accounts into lifecycle buckets, decides
// which admin actions each bucket permits, and executes those actions.
package lifecycle

import (
	"strings"

	"github.com/dalemusser/councilhub/internal/domain/models"
)

// Bucket is the derived lifecycle state of an account. It is never stored.
type Bucket string

const (
	Legacy          Bucket = "LEGACY"
	Unverified      Bucket = "UNVERIFIED"
	PendingApproval Bucket = "PENDING_APPROVAL"
	Active          Bucket = "ACTIVE"
)

// Buckets lists every bucket in admin display order.
var Buckets = []Bucket{PendingApproval, Unverified, Legacy, Active}

// Classify maps the three lifecycle flags to a bucket.
// Approved always wins; a verified address outranks any leftover token.
func Classify(emailVerified, hasToken, approved bool) Bucket {
	switch {
	case approved:
		return Active
	case emailVerified:
		return PendingApproval
	case hasToken:
		return Unverified
	default:
		return Legacy
	}
}

// ClassifyUser returns the bucket for u.
func ClassifyUser(u models.User) Bucket {
	return Classify(u.EmailVerified, u.HasVerificationToken(), u.Approved)
}

// ParseBucket accepts a bucket name in any case.
func ParseBucket(s string) (Bucket, bool) {
	for _, b := range Buckets {
		if strings.EqualFold(string(b), strings.TrimSpace(s)) {
			return b, true
		}
	}
	return "", false
}
