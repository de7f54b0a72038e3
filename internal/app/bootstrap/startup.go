// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	userstore "github.com/dalemusser/councilhub/internal/app/store/users"
	"github.com/dalemusser/councilhub/internal/app/resources"
	"github.com/dalemusser/councilhub/internal/app/system/authutil"
	"github.com/dalemusser/councilhub/internal/app/system/lifecycle"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It loads
// the shared templates and makes sure the configured super admin exists.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	if appCfg.SuperAdminEmail != "" {
		if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, appCfg.SuperAdminPassword, logger); err != nil {
			return fmt.Errorf("ensure super admin: %w", err)
		}
	}
	return nil
}

// ensureSuperAdmin promotes the account with email to SUPER_ADMIN, or
// creates it when missing. A created account is verified, approved and
// active so it can sign in straight away. The password is only used on
// creation; an existing password is never replaced.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email, password string, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)
	now := time.Now().UTC()

	u, err := users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		if password == "" {
			return errors.New("superadmin_password is required to create the super admin")
		}
		if err := authutil.ValidatePassword(password); err != nil {
			return fmt.Errorf("superadmin_password: %w", err)
		}
		hash, err := authutil.HashPassword(password)
		if err != nil {
			return err
		}
		created, err := users.Create(ctx, models.User{
			Email:         email,
			Name:          "Super Admin",
			PasswordHash:  hash,
			Role:          models.RoleSuperAdmin,
			MemberStatus:  models.StatusMember,
			Active:        true,
			EmailVerified: true,
			Approved:      true,
			ApprovedAt:    &now,
			CreatedAt:     now,
		})
		if err != nil {
			return err
		}
		logger.Info("created super admin", zap.String("email", created.Email))
		return nil

	case err != nil:
		return err
	}

	if u.Role == models.RoleSuperAdmin {
		return nil
	}

	role := models.RoleSuperAdmin
	if err := users.UpdateProfile(ctx, u.ID, lifecycle.ProfileEdit{Role: &role}, now); err != nil {
		return err
	}
	logger.Info("promoted user to super admin",
		zap.String("email", u.Email),
		zap.String("previous_role", u.Role))
	return nil
}
