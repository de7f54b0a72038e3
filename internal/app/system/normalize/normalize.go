// Package normalize trims and canonicalizes user-supplied strings before
// they are validated or stored.
package normalize

import (
	"strings"

	"github.com/dalemusser/councilhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name; case is preserved.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// NameCI returns the folded form of a name used for case-insensitive
// sorting and search (the *_ci fields).
func NameCI(s string) string {
	return text.Fold(strings.TrimSpace(s))
}

// Role trims and uppercases a role name (MEMBER, EDITOR, ...).
func Role(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// MemberStatus trims and uppercases a member status.
func MemberStatus(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Status trims and uppercases an event status, task status or priority.
func Status(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ContactType lowercases a contact type; unknown or empty values become
// "contact".
func ContactType(s string) string {
	t := strings.ToLower(strings.TrimSpace(s))
	if models.ValidContactType(t) {
		return t
	}
	return models.ContactTypeContact
}

// QueryParam trims a query-string value; case is preserved.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Filter trims a filter value and maps "all" to empty, meaning no filter.
func Filter(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}

// Slug lowercases s and collapses every run of non-alphanumerics into a
// single hyphen.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
