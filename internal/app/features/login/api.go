package login

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/auth"
	"github.com/dalemusser/councilhub/internal/app/system/jsonresp"
	"github.com/dalemusser/councilhub/internal/app/system/lifecycle"
	"github.com/dalemusser/councilhub/internal/app/system/timeouts"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// meResponse is the signed-in user's own profile.
type meResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	Phone        string           `json:"phone,omitempty"`
	Role         string           `json:"role"`
	MemberStatus string           `json:"member_status"`
	Bucket       lifecycle.Bucket `json:"bucket"`
	LastLogin    *time.Time       `json:"last_login,omitempty"`
}

func toMe(u *models.User) meResponse {
	return meResponse{
		ID:           u.ID.Hex(),
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         u.Role,
		MemberStatus: u.MemberStatus,
		Bucket:       lifecycle.ClassifyUser(*u),
		LastLogin:    u.LastLogin,
	}
}

// APILogin handles POST /api/auth/login.
func (h *Handler) APILogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := jsonresp.Decode(w, r, &req); err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.authenticate(ctx, r, req.Email, req.Password)
	var d *denial
	if errors.As(err, &d) {
		jsonresp.Fail(w, r, d.Status, d.Code, d.Message)
		return
	}
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	if err := h.establish(w, r, u); err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, toMe(u))
}

// APILogout handles POST /api/auth/logout. Signing out without a session
// still succeeds.
func (h *Handler) APILogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.Logout(r.Context(), r, u.ID)
	}
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, map[string]bool{"signed_out": true})
}

// APIMe handles GET /api/auth/me.
func (h *Handler) APIMe(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	id, err := primitive.ObjectIDFromHex(su.ID)
	if err != nil {
		jsonresp.Fail(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Please sign in.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonresp.FromError(w, r, h.Log, apperr.NotFound("Your account no longer exists."))
		return
	}
	if err != nil {
		jsonresp.FromError(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, toMe(u))
}
