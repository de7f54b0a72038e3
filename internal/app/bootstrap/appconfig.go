// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (COUNCILHUB_*), config
// files or command-line flags, loaded in LoadConfig. WAFFLE's CoreConfig
// covers ports, TLS, log level and request limits; everything specific to
// the council lives here. Organization-facing settings (name, time zone,
// registration) are runtime settings in the settings collection instead.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI      string
	MongoDatabase string
	MongoTimeout  time.Duration

	// Session management configuration
	SessionKey    string        // signs session cookies; at least 32 bytes
	SessionName   string        // cookie name (default: councilhub-session)
	SessionDomain string        // blank means current host
	SessionMaxAge time.Duration // cookie lifetime

	// Email/SMTP configuration; Gmail takes over when connected
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// Base URL for email links and the Gmail OAuth redirect
	BaseURL string

	// IntegrationsKey is the base64 AES-256 key that seals integration
	// credentials. Blank disables configuring integrations.
	IntegrationsKey string

	// Google OAuth client used by the Gmail integration
	GoogleClientID     string
	GoogleClientSecret string

	// Origins allowed to call /api with credentials
	CORSAllowedOrigins []string

	// Audit logging: all, db, log or off
	AuditLogAuth  string
	AuditLogAdmin string

	// SuperAdmin bootstrap
	SuperAdminEmail    string
	SuperAdminPassword string
}
