package csvutil

import (
	"context"
	"errors"
	"io"

	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/app/system/clock"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ContactInserter stores one directory entry.
type ContactInserter interface {
	Insert(ctx context.Context, c models.Contact) (models.Contact, error)
}

// ImportResult reports a batch. Success is true when at least one row was
// stored, even if others failed.
type ImportResult struct {
	ImportedCount int      `json:"imported_count"`
	TotalRows     int      `json:"total_rows"`
	Errors        []string `json:"errors"`
	Success       bool     `json:"success"`
}

// Importer parses a CSV and inserts each valid row on its own. A failing
// row is recorded and the batch continues.
type Importer struct {
	Contacts ContactInserter
	Clock    clock.Clock
	Opts     ParseOptions
	Log      *zap.Logger
}

// NewImporter returns an Importer with upload limits.
func NewImporter(contacts ContactInserter, clk clock.Clock, logger *zap.Logger) *Importer {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{Contacts: contacts, Clock: clk, Opts: DefaultParseOptions(), Log: logger}
}

// Import reads r and inserts every valid row in file order. File-level
// problems (empty file, no name column, too many rows) return a validation
// error and nothing is stored. If ctx ends mid-batch the partial result is
// returned with ctx's error.
func (im *Importer) Import(ctx context.Context, r io.Reader, addedBy primitive.ObjectID) (ImportResult, error) {
	res := ImportResult{Errors: []string{}}

	parsed, err := ParseContactsCSV(r, im.Opts)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmpty):
			return res, apperr.Validation("The CSV file is empty.", nil)
		case errors.Is(err, ErrMissingNameColumn):
			return res, apperr.Validation("The CSV header must include a contact_name column.", nil)
		case errors.Is(err, ErrTooManyRows):
			return res, apperr.Validation("The CSV file has too many rows.", nil)
		default:
			return res, apperr.Validation("The CSV file could not be read.", nil)
		}
	}
	res.TotalRows = parsed.TotalRows()

	var by *primitive.ObjectID
	if !addedBy.IsZero() {
		by = &addedBy
	}

	for _, row := range parsed.Rows {
		if err := ctx.Err(); err != nil {
			res.Success = res.ImportedCount > 0
			return res, err
		}
		if !row.Valid() {
			res.Errors = append(res.Errors, RowError{Line: row.Line, Reason: row.Reason}.String())
			continue
		}

		c := row.Contact
		now := im.Clock.Now()
		c.AddedBy = by
		c.CreatedAt = now
		c.UpdatedAt = now
		if _, err := im.Contacts.Insert(ctx, c); err != nil {
			im.Log.Warn("contact import row failed", zap.Int("row", row.Line), zap.Error(err))
			res.Errors = append(res.Errors, RowError{Line: row.Line, Reason: "could not save: " + err.Error()}.String())
			continue
		}
		res.ImportedCount++
	}

	res.Success = res.ImportedCount > 0
	im.Log.Info("contact import finished",
		zap.Int("imported", res.ImportedCount),
		zap.Int("total", res.TotalRows),
		zap.Int("failed", len(res.Errors)))
	return res, nil
}
