package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// ShortRowPolicy decides what happens to a logical row with fewer than
// ExpectedFields fields.
type ShortRowPolicy string

const (
	ShortRowsDrop  ShortRowPolicy = "drop"
	ShortRowsError ShortRowPolicy = "error"
)

func (p ShortRowPolicy) Valid() bool {
	return p == ShortRowsDrop || p == ShortRowsError
}

// ParseError is a structural error: a row that does not decode to the
// expected number of fields. Line is the physical line in the export, set
// while reconstructing; Row is the logical row (1 is the header), set while
// decoding.
type ParseError struct {
	Line     int
	Row      int
	Expected int
	Found    int
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("error parsing line %d: expected %d fields, found %d", e.Line, e.Expected, e.Found)
	}
	return fmt.Sprintf("error parsing row %d: expected %d fields, found %d", e.Row, e.Expected, e.Found)
}

// HeaderError reports required columns missing from an export header.
type HeaderError struct {
	File    string
	Missing []string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("%s header is missing columns %s", e.File, strings.Join(e.Missing, ", "))
}

// requiredStatementColumns are read by the summary stages.
var requiredStatementColumns = []string{
	"START_TIME", "APP_USER", "STATEMENT_HASH", "STATEMENT_STRING", "APPLICATION_NAME",
	"CPU_TIME", "DURATION_MICROSEC", "MEMORY_SIZE", "PARAMETERS",
}

// cleanHeader strips a leading byte order mark and checks that every
// required column is present.
func cleanHeader(file string, header, required []string) error {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	var missing []string
	for _, c := range required {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &HeaderError{File: file, Missing: missing}
	}
	return nil
}

// Reconstructor turns the raw export into logical rows of exactly
// ExpectedFields semicolon separated fields.
type Reconstructor struct {
	Policy ShortRowPolicy
	Log    *zap.Logger

	// Dropped counts short rows skipped under ShortRowsDrop.
	Dropped int
}

func NewReconstructor(policy ShortRowPolicy, log *zap.Logger) *Reconstructor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconstructor{Policy: policy, Log: log}
}

// Rows reads the export and returns its logical rows, header first.
// A physical line ends a row only when terminated by "\r\n"; lines ending in
// a bare "\n" belong to a multi-line STATEMENT_STRING and are joined with a
// space.
func (r *Reconstructor) Rows(in io.Reader) ([]string, error) {
	br := bufio.NewReaderSize(in, 10*1024*1024)

	var rows []string
	var pending strings.Builder
	buffered := false
	line := 0

	for {
		s, err := br.ReadString('\n')
		if len(s) > 0 {
			line++
			switch {
			case strings.HasSuffix(s, "\r\n"):
				body := s[:len(s)-2]
				if buffered {
					pending.WriteString(body)
					body = pending.String()
					pending.Reset()
					buffered = false
				}
				if aerr := r.accept(body, line, &rows); aerr != nil {
					return nil, aerr
				}
			case strings.HasSuffix(s, "\n"):
				pending.WriteString(s[:len(s)-1])
				pending.WriteByte(' ')
				buffered = true
			default:
				// last line without any terminator
				pending.WriteString(s)
				buffered = true
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read statements: %w", err)
		}
	}

	if buffered {
		body := strings.TrimSuffix(pending.String(), " ")
		if err := r.accept(body, line, &rows); err != nil {
			return nil, err
		}
	}

	if r.Dropped > 0 {
		r.Log.Warn("dropped short rows", zap.Int("rows", r.Dropped), zap.Int("expected_fields", ExpectedFields))
	}
	return rows, nil
}

func (r *Reconstructor) accept(row string, line int, rows *[]string) error {
	if strings.TrimSpace(row) == "" {
		return nil
	}

	n := fieldCount(row)
	switch {
	case n == ExpectedFields:
		*rows = append(*rows, row)
	case n > ExpectedFields:
		*rows = append(*rows, fixStatementFields(row))
	case r.Policy == ShortRowsError:
		return &ParseError{Line: line, Expected: ExpectedFields, Found: n}
	default:
		r.Dropped++
		r.Log.Debug("skip short row", zap.Int("line", line), zap.Int("fields", n))
	}
	return nil
}

func fieldCount(row string) int {
	return strings.Count(row, ";") + 1
}

// fixStatementFields folds the surplus fields of an over-split row back into
// STATEMENT_STRING and quotes it, so a CSV reader sees a single value.
func fixStatementFields(row string) string {
	fields := strings.Split(row, ";")
	extra := len(fields) - ExpectedFields
	if extra <= 0 {
		return row
	}

	end := StatementField + 1 + extra
	parts := make([]string, 0, extra+1)
	for _, f := range fields[StatementField:end] {
		parts = append(parts, strings.ReplaceAll(f, `"`, `""`))
	}

	out := make([]string, 0, ExpectedFields)
	out = append(out, fields[:StatementField]...)
	out = append(out, `"`+strings.Join(parts, ";")+`"`)
	out = append(out, fields[end:]...)
	return strings.Join(out, ";")
}

// decodeRow splits one logical row honouring quoted fields.
func decodeRow(row string) ([]string, error) {
	cr := csv.NewReader(strings.NewReader(row))
	cr.Comma = ';'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	rec, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	return rec, err
}

// DecodeRows decodes reconstructed rows into header keyed rows. Every row
// must decode to ExpectedFields values.
func DecodeRows(rows []string) ([]StatementRow, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	header, err := decodeRow(rows[0])
	if err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if len(header) != ExpectedFields {
		return nil, &ParseError{Row: 1, Expected: ExpectedFields, Found: len(header)}
	}
	if err := cleanHeader("statements", header, requiredStatementColumns); err != nil {
		return nil, err
	}

	out := make([]StatementRow, 0, len(rows)-1)
	for i, raw := range rows[1:] {
		rec, err := decodeRow(raw)
		if err != nil {
			return nil, fmt.Errorf("decode row %d: %w", i+2, err)
		}
		if len(rec) != ExpectedFields {
			return nil, &ParseError{Row: i + 2, Expected: ExpectedFields, Found: len(rec)}
		}
		row := make(StatementRow, ExpectedFields)
		for j, key := range header {
			row[key] = rec[j]
		}
		out = append(out, row)
	}
	return out, nil
}
