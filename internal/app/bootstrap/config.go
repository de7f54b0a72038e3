// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/councilhub/internal/app/system/credcrypt"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minSessionKeyLen is the shortest session_key accepted outside dev.
const minSessionKeyLen = 32

const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for CouncilHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: COUNCILHUB_MONGO_URI, COUNCILHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "councilhub", Desc: "MongoDB database name"},
	{Name: "mongo_timeout", Default: "10s", Desc: "MongoDB connect timeout"},
	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "councilhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@councilhub.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "CouncilHub", Desc: "From display name"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for email links and OAuth redirects"},

	// Integrations
	{Name: "integrations_key", Default: "", Desc: "Base64 AES-256 key sealing integration credentials (councilctl keygen)"},
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID for Gmail"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret for Gmail"},

	{Name: "cors_allowed_origins", Default: "", Desc: "Comma-separated origins allowed to call /api"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// SuperAdmin bootstrap
	{Name: "superadmin_email", Default: "", Desc: "Email of the super admin (promoted or created on startup)"},
	{Name: "superadmin_password", Default: "", Desc: "Initial password when the super admin is created"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// COUNCILHUB_* environment variables and flags, in that order of
// increasing precedence.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "COUNCILHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),
		MongoTimeout:  appValues.Duration("mongo_timeout", 10*time.Second),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		BaseURL: strings.TrimRight(appValues.String("base_url"), "/"),

		IntegrationsKey:    appValues.String("integrations_key"),
		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		SuperAdminEmail:    appValues.String("superadmin_email"),
		SuperAdminPassword: appValues.String("superadmin_password"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// It checks the MongoDB URI, the session key, the integrations key and
// the audit modes before anything connects.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if len(appCfg.SessionKey) < minSessionKeyLen {
		return fmt.Errorf("session_key must be at least %d bytes", minSessionKeyLen)
	}
	if appCfg.SessionKey == devSessionKey {
		if coreCfg != nil && coreCfg.Env == "prod" {
			return fmt.Errorf("session_key must be changed from the development default in prod")
		}
		logger.Warn("using the development session_key")
	}

	if appCfg.IntegrationsKey != "" {
		if _, err := credcrypt.New(appCfg.IntegrationsKey); err != nil {
			return fmt.Errorf("integrations_key: %w", err)
		}
	} else {
		logger.Warn("integrations_key is not set; integrations cannot be configured")
	}

	for name, v := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_admin": appCfg.AuditLogAdmin} {
		switch v {
		case "all", "db", "log", "off":
		default:
			return fmt.Errorf("%s must be all, db, log or off (got %q)", name, v)
		}
	}

	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
