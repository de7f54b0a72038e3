// internal/app/bootstrap/services.go
package bootstrap

import (
	"fmt"
	"time"

	auditstore "github.com/dalemusser/councilhub/internal/app/store/audit"
	integrationstore "github.com/dalemusser/councilhub/internal/app/store/integrations"
	"github.com/dalemusser/councilhub/internal/app/store/oauthstate"
	settingsstore "github.com/dalemusser/councilhub/internal/app/store/settings"
	userstore "github.com/dalemusser/councilhub/internal/app/store/users"
	"github.com/dalemusser/councilhub/internal/app/system/auditlog"
	"github.com/dalemusser/councilhub/internal/app/system/clock"
	"github.com/dalemusser/councilhub/internal/app/system/credcrypt"
	"github.com/dalemusser/councilhub/internal/app/system/integrations"
	"github.com/dalemusser/councilhub/internal/app/system/lifecycle"
	"github.com/dalemusser/councilhub/internal/app/system/mailer"
	"github.com/dalemusser/councilhub/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// stateCleanupInterval is how often abandoned consent states are purged.
const stateCleanupInterval = 15 * time.Minute

// Services bundles the app-wide collaborators shared by feature handlers
// and the councilctl commands.
type Services struct {
	Audit        *auditlog.Logger
	Mail         mailer.Sender
	Lifecycle    *lifecycle.Executor
	Integrations *integrations.Manager
	Gmail        *integrations.Gmail
	Recaptcha    *integrations.Recaptcha
	GCS          *integrations.GCS
	States       *oauthstate.Store
}

// NewServices builds the shared services on top of db. A blank
// integrations key leaves the vault sealed: providers report
// not-configured and mail goes through SMTP.
func NewServices(appCfg AppConfig, db *mongo.Database, logger *zap.Logger) (*Services, error) {
	var sealer *credcrypt.Sealer
	if appCfg.IntegrationsKey != "" {
		s, err := credcrypt.New(appCfg.IntegrationsKey)
		if err != nil {
			return nil, fmt.Errorf("integrations_key: %w", err)
		}
		sealer = s
	}

	clk := clock.System{}
	site := settingsstore.New(db, logger)
	states := oauthstate.New(db)
	vault := integrations.NewVault(integrationstore.New(db), sealer, clk)

	gmail := integrations.NewGmail(vault, states, site, integrations.GmailConfig{
		ClientID:     appCfg.GoogleClientID,
		ClientSecret: appCfg.GoogleClientSecret,
		BaseURL:      appCfg.BaseURL,
		StateKey:     []byte(appCfg.SessionKey),
		FromName:     appCfg.MailFromName,
	}, logger)
	gcs := integrations.NewGCS(vault)
	recaptcha := integrations.NewRecaptcha(vault, logger)

	smtp := mailer.NewSMTP(mailer.SMTPConfig{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)
	mail := &mailer.Routing{Preferred: gmail, Fallback: smtp, Log: logger}

	audit := auditlog.New(auditstore.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	exec := lifecycle.NewExecutor(userstore.New(db), mail, clk, audit, site, appCfg.BaseURL, logger)

	return &Services{
		Audit:        audit,
		Mail:         mail,
		Lifecycle:    exec,
		Integrations: integrations.NewManager(gmail, gcs, recaptcha),
		Gmail:        gmail,
		Recaptcha:    recaptcha,
		GCS:          gcs,
		States:       states,
	}, nil
}

// StartWorkers launches background jobs. Call the returned func on shutdown.
func (s *Services) StartWorkers(logger *zap.Logger) (stop func()) {
	w := workers.NewCleanup("oauth_states", s.States, logger, stateCleanupInterval)
	w.Start()
	return w.Stop
}
