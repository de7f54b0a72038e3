// Package authz answers role questions about the signed-in user.
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Route guard role sets.
var (
	AdminRoles  = []string{models.RoleAdmin, models.RoleSuperAdmin}
	EditorRoles = []string{models.RoleEditor, models.RoleAdmin, models.RoleSuperAdmin}
)

// UserCtx returns the user's role (uppercased), name, ObjectID and a found
// flag. A missing user or a malformed ID yields ok=false, so ok=true always
// comes with a usable ID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return "", "", primitive.NilObjectID, false
	}
	return strings.ToUpper(user.Role), user.Name, userID, true
}

// HasAnyRole reports whether the signed-in user holds one of roles.
func HasAnyRole(r *http.Request, roles ...string) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if strings.EqualFold(role, strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

// IsSuperAdmin reports whether the user is SUPER_ADMIN.
func IsSuperAdmin(r *http.Request) bool { return HasAnyRole(r, models.RoleSuperAdmin) }

// IsAdmin is true for ADMIN and SUPER_ADMIN.
func IsAdmin(r *http.Request) bool { return HasAnyRole(r, AdminRoles...) }

// IsEditor is true for EDITOR and above.
func IsEditor(r *http.Request) bool { return HasAnyRole(r, EditorRoles...) }

// CanAssignRole reports whether the user may grant role. Only a
// SUPER_ADMIN can create another SUPER_ADMIN.
func CanAssignRole(r *http.Request, role string) bool {
	if strings.EqualFold(role, models.RoleSuperAdmin) {
		return IsSuperAdmin(r)
	}
	return IsAdmin(r)
}
