// internal/app/system/csvutil/workers.go
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dalemusser/cityfix/internal/app/system/inputval"
)

// ErrTooManyRows is returned when the file exceeds ParseOptions.MaxRows.
var ErrTooManyRows = errors.New("csv has too many rows")

// WorkerCSVRow is one normalized worker row.
type WorkerCSVRow struct {
	Line     int
	UID      string
	FullName string
	Email    string
	Rating   float64
}

// RowError describes why one line was rejected.
type RowError struct {
	Line   int    `json:"line"`
	UID    string `json:"uid,omitempty"`
	Reason string `json:"reason"`
}

// ParseResult holds the rows and every row error found.
type ParseResult struct {
	Rows   []WorkerCSVRow
	Errors []RowError
}

// HasErrors reports whether any row was rejected.
func (p *ParseResult) HasErrors() bool { return len(p.Errors) > 0 }

// ParseOptions bounds a parse.
type ParseOptions struct {
	MaxRows int
}

// DefaultParseOptions uses MaxRows.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{MaxRows: MaxRows}
}

// ParseWorkersCSV reads "uid, full name, email, rating" rows. A header row is
// skipped when its first cell is "uid". Email and rating may be blank; a
// blank rating is 0. It never writes to a DB, so callers can reject a whole
// file before any mutation.
func ParseWorkersCSV(r io.Reader, opts ParseOptions) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	res := &ParseResult{}
	seen := map[string]int{}
	line := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if line == 1 && len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
			if strings.EqualFold(strings.TrimSpace(rec[0]), "uid") {
				continue
			}
		}

		row := WorkerCSVRow{Line: line}
		if len(rec) > 0 {
			row.UID = strings.TrimSpace(rec[0])
		}
		if len(rec) > 1 {
			row.FullName = strings.TrimSpace(rec[1])
		}
		if len(rec) > 2 {
			row.Email = strings.TrimSpace(rec[2])
		}
		var ratingCell string
		if len(rec) > 3 {
			ratingCell = strings.TrimSpace(rec[3])
		}
		if row.UID == "" && row.FullName == "" && row.Email == "" && ratingCell == "" {
			continue
		}

		if opts.MaxRows > 0 && len(res.Rows)+len(res.Errors) >= opts.MaxRows {
			return nil, ErrTooManyRows
		}

		if reason := validateRow(&row, ratingCell); reason != "" {
			res.Errors = append(res.Errors, RowError{Line: line, UID: row.UID, Reason: reason})
			continue
		}
		if first, dup := seen[row.UID]; dup {
			res.Errors = append(res.Errors, RowError{Line: line, UID: row.UID, Reason: "uid repeats line " + strconv.Itoa(first)})
			continue
		}
		seen[row.UID] = line
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func validateRow(row *WorkerCSVRow, ratingCell string) string {
	switch {
	case row.UID == "":
		return "missing uid"
	case row.FullName == "":
		return "missing full name"
	case row.Email != "" && !inputval.IsValidEmail(row.Email):
		return "invalid email"
	}
	if ratingCell != "" {
		v, err := strconv.ParseFloat(ratingCell, 64)
		if err != nil || v < 0 || v > 5 {
			return "rating must be a number from 0 to 5"
		}
		row.Rating = v
	}
	return ""
}
