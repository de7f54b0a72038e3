package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dalemusser/councilhub/internal/app/bootstrap"
	userstore "github.com/dalemusser/councilhub/internal/app/store/users"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// globalOptions are shared by every subcommand. Defaults come from the
// same COUNCILHUB_* variables the server reads.
type globalOptions struct {
	mongoURI string
	database string
	timeout  time.Duration
	verbose  bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "councilctl",
		Short:         "CouncilHub maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.mongoURI, "mongo-uri", envOr("COUNCILHUB_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	root.PersistentFlags().StringVar(&opts.database, "database", envOr("COUNCILHUB_MONGO_DATABASE", "councilhub"), "MongoDB database name")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Overall timeout for the command")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	root.AddCommand(
		newImportContactsCmd(opts),
		newMigrateLegacyCmd(opts),
		newKeygenCmd(),
	)
	return root
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (o *globalOptions) logger() *zap.Logger {
	if o.verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			return l
		}
	}
	l, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// appConfig fills the parts of the server config the commands need.
func (o *globalOptions) appConfig() bootstrap.AppConfig {
	return bootstrap.AppConfig{
		MongoURI:        o.mongoURI,
		MongoDatabase:   o.database,
		MongoTimeout:    30 * time.Second,
		SessionKey:      envOr("COUNCILHUB_SESSION_KEY", ""),
		BaseURL:         strings.TrimRight(envOr("COUNCILHUB_BASE_URL", "http://localhost:3000"), "/"),
		IntegrationsKey: envOr("COUNCILHUB_INTEGRATIONS_KEY", ""),
		AuditLogAuth:    "all",
		AuditLogAdmin:   "all",
	}
}

// connect opens the database and returns it with a close func.
func (o *globalOptions) connect(ctx context.Context, logger *zap.Logger) (bootstrap.DBDeps, func(), error) {
	deps, err := bootstrap.ConnectDB(ctx, nil, o.appConfig(), logger)
	if err != nil {
		return bootstrap.DBDeps{}, nil, err
	}
	return deps, func() { _ = deps.MongoClient.Disconnect(context.Background()) }, nil
}

// resolveActor looks up the account a command acts on behalf of.
func resolveActor(ctx context.Context, users *userstore.Store, email string) (primitive.ObjectID, error) {
	u, err := users.GetByEmail(ctx, email)
	if err != nil {
		return primitive.NilObjectID, withCode(exitUsage, fmt.Errorf("no account with email %q: %w", email, err))
	}
	return u.ID, nil
}
