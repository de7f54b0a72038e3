package csvutil

import "errors"

// Upload size and row limits for CSV processing.
const (
	MaxUploadSize = 5 << 20 // 5 MB
	MaxRows       = 20000
)

// File-level failures. Row-level problems never surface as errors; they are
// reported per row.
var (
	ErrTooManyRows       = errors.New("csv has too many rows")
	ErrEmpty             = errors.New("csv file is empty")
	ErrMissingNameColumn = errors.New("csv header must include a contact_name column")
)

// ParseOptions bounds a parse.
type ParseOptions struct {
	MaxRows int // data rows; 0 means no limit
}

// DefaultParseOptions returns the limits used for uploads.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{MaxRows: MaxRows}
}
