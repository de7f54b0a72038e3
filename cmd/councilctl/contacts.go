package main

import (
	"context"
	"fmt"
	"os"

	contactstore "github.com/dalemusser/councilhub/internal/app/store/contacts"
	userstore "github.com/dalemusser/councilhub/internal/app/store/users"
	"github.com/dalemusser/councilhub/internal/app/system/clock"
	"github.com/dalemusser/councilhub/internal/app/system/csvutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type importContactsOptions struct {
	file    string
	addedBy string
}

func newImportContactsCmd(g *globalOptions) *cobra.Command {
	var opts importContactsOptions

	cmd := &cobra.Command{
		Use:   "import-contacts",
		Short: "Import directory contacts from a CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
			defer cancel()
			return runImportContacts(ctx, g, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "CSV file to import (required)")
	cmd.Flags().StringVar(&opts.addedBy, "added-by", "", "Email of the account recorded as adding the contacts (required)")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("added-by")
	return cmd
}

func runImportContacts(ctx context.Context, g *globalOptions, opts importContactsOptions, cmd *cobra.Command) error {
	logger := g.logger()
	defer func() { _ = logger.Sync() }()

	f, err := os.Open(opts.file)
	if err != nil {
		return withCode(exitUsage, err)
	}
	defer f.Close()

	deps, closeDB, err := g.connect(ctx, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	actor, err := resolveActor(ctx, userstore.New(deps.MongoDatabase), opts.addedBy)
	if err != nil {
		return err
	}

	im := csvutil.NewImporter(contactstore.New(deps.MongoDatabase), clock.System{}, logger)
	res, err := im.Import(ctx, f, actor)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "imported %d of %d rows\n", res.ImportedCount, res.TotalRows)
	for _, e := range res.Errors {
		fmt.Fprintln(out, "  "+e)
	}
	logger.Info("contacts imported",
		zap.String("file", opts.file),
		zap.Int("imported", res.ImportedCount),
		zap.Int("total", res.TotalRows))

	if !res.Success && res.TotalRows > 0 {
		return fmt.Errorf("no rows were imported")
	}
	return nil
}
