// Package csvutil parses directory CSV uploads and imports the rows.
package csvutil

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dalemusser/councilhub/internal/app/system/inputval"
	"github.com/dalemusser/councilhub/internal/app/system/normalize"
	"github.com/dalemusser/councilhub/internal/domain/models"
)

// Row failure reasons.
const (
	ReasonNameRequired = "contact name is required"
	ReasonInvalidEmail = "invalid email"
	ReasonInvalidURL   = "invalid website URL"
	ReasonMalformed    = "malformed row"
)

// RowError is a failed data row. Line is the 1-based data row number;
// the header and blank lines are not counted.
type RowError struct {
	Line   int
	Reason string
}

func (e RowError) String() string {
	return fmt.Sprintf("row %d: %s", e.Line, e.Reason)
}

// ContactRow is one parsed data row. Reason is set when the row failed
// validation; Contact is then partially filled and must not be stored.
type ContactRow struct {
	Line    int
	Contact models.Contact
	Reason  string
}

// Valid reports whether the row passed validation.
func (r ContactRow) Valid() bool { return r.Reason == "" }

// ContactParseResult holds every non-blank data row in file order.
type ContactParseResult struct {
	Rows []ContactRow
}

// TotalRows counts data rows, valid or not.
func (r ContactParseResult) TotalRows() int { return len(r.Rows) }

// Errors returns the failed rows in file order.
func (r ContactParseResult) Errors() []RowError {
	var out []RowError
	for _, row := range r.Rows {
		if !row.Valid() {
			out = append(out, RowError{Line: row.Line, Reason: row.Reason})
		}
	}
	return out
}

// HasErrors reports whether any row failed.
func (r ContactParseResult) HasErrors() bool {
	for _, row := range r.Rows {
		if !row.Valid() {
			return true
		}
	}
	return false
}

// column keys
const (
	colName    = "contact_name"
	colOrg     = "organization"
	colTitle   = "title"
	colEmail   = "email"
	colPhone   = "phone"
	colAddress = "address"
	colCity    = "city"
	colState   = "state"
	colZip     = "zip"
	colWebsite = "website"
	colNotes   = "notes"
	colType    = "contact_type"
)

var headerAliases = map[string]string{
	"contact_name": colName, "name": colName, "contact": colName, "full_name": colName,
	"organization": colOrg, "organisation": colOrg, "org": colOrg, "company": colOrg,
	"title": colTitle, "job_title": colTitle, "position": colTitle,
	"email": colEmail, "email_address": colEmail, "e_mail": colEmail,
	"phone": colPhone, "phone_number": colPhone, "telephone": colPhone,
	"address": colAddress, "street": colAddress, "street_address": colAddress,
	"city": colCity,
	"state": colState, "province": colState,
	"zip": colZip, "zip_code": colZip, "zipcode": colZip, "postal_code": colZip,
	"website": colWebsite, "url": colWebsite, "web": colWebsite,
	"notes": colNotes, "note": colNotes, "comments": colNotes,
	"contact_type": colType, "type": colType, "category": colType,
}

// headerKey folds a header cell: lowercased, with spaces and hyphens as
// underscores.
func headerKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return headerAliases[s]
}

// ParseContactsCSV reads a directory CSV. The first non-blank row is the
// header and must name a contact_name column (or an alias). Unknown columns
// are ignored. Every later non-blank row is validated independently.
func ParseContactsCSV(r io.Reader, opts ParseOptions) (ContactParseResult, error) {
	var res ContactParseResult

	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && string(b) == "\xef\xbb\xbf" {
		_, _ = br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var cols map[string]int
	for cols == nil {
		header, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return res, ErrEmpty
		}
		if err != nil {
			return res, fmt.Errorf("read header: %w", err)
		}
		if blank(header) {
			continue
		}
		cols = map[string]int{}
		for i, h := range header {
			if k := headerKey(h); k != "" {
				if _, dup := cols[k]; !dup {
					cols[k] = i
				}
			}
		}
	}
	if _, ok := cols[colName]; !ok {
		return res, ErrMissingNameColumn
	}

	line := 0
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			line++
			res.Rows = append(res.Rows, ContactRow{Line: line, Reason: ReasonMalformed})
		} else if err != nil {
			return res, fmt.Errorf("read row %d: %w", line+1, err)
		} else if blank(rec) {
			continue
		} else {
			line++
			res.Rows = append(res.Rows, contactFromRecord(line, rec, cols))
		}
		if opts.MaxRows > 0 && line > opts.MaxRows {
			return ContactParseResult{}, ErrTooManyRows
		}
	}
	return res, nil
}

func contactFromRecord(line int, rec []string, cols map[string]int) ContactRow {
	get := func(key string) string {
		i, ok := cols[key]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	c := models.Contact{
		ContactName:  normalize.Name(get(colName)),
		Organization: get(colOrg),
		Title:        get(colTitle),
		Email:        normalize.Email(get(colEmail)),
		Phone:        get(colPhone),
		Address:      get(colAddress),
		City:         get(colCity),
		State:        get(colState),
		Zip:          get(colZip),
		Website:      NormalizeWebsite(get(colWebsite)),
		Notes:        get(colNotes),
		ContactType:  normalize.ContactType(get(colType)),
	}
	c.ContactNameCI = normalize.NameCI(c.ContactName)

	row := ContactRow{Line: line, Contact: c}
	switch {
	case c.ContactName == "":
		row.Reason = ReasonNameRequired
	case c.Email != "" && !inputval.IsValidEmail(c.Email):
		row.Reason = ReasonInvalidEmail
	case c.Website != "" && !inputval.IsValidHTTPURL(c.Website):
		row.Reason = ReasonInvalidURL
	}
	return row
}

// NormalizeWebsite assumes https for bare hosts such as "www.example.org".
func NormalizeWebsite(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(s, "://") {
		return s
	}
	return "https://" + s
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
