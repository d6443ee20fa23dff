package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	// exports carry nanosecond precision of which only microseconds are set
	timestampPadding = "000"
)

// parseTimestamp parses "2006-01-02 15:04:05.<1-6 digits>000".
func parseTimestamp(s string) (time.Time, error) {
	body, ok := strings.CutSuffix(s, timestampPadding)
	if !ok {
		return time.Time{}, fmt.Errorf("parse timestamp %q: missing %q suffix", s, timestampPadding)
	}
	dot := strings.LastIndexByte(body, '.')
	if dot < 0 {
		return time.Time{}, fmt.Errorf("parse timestamp %q: missing fraction", s)
	}
	frac := body[dot+1:]
	if len(frac) == 0 || len(frac) > 6 {
		return time.Time{}, fmt.Errorf("parse timestamp %q: fraction must have 1 to 6 digits", s)
	}
	micros, err := strconv.Atoi(frac + strings.Repeat("0", 6-len(frac)))
	if err != nil || strings.ContainsAny(frac, "+-") {
		return time.Time{}, fmt.Errorf("parse timestamp %q: bad fraction", s)
	}
	t, err := time.Parse(timestampLayout, body[:dot])
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.Add(time.Duration(micros) * time.Microsecond), nil
}

func formatTimestamp(t time.Time) string {
	s := t.Format(timestampLayout)
	if us := t.Nanosecond() / 1000; us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}
	return s
}

// formatFloat renders like the exporting tooling does: shortest form with
// at least one decimal, exponent form outside [1e-4, 1e16).
func formatFloat(f float64) string {
	abs := math.Abs(f)
	if f != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func formatInt(n int) string {
	return strconv.Itoa(n)
}

// round1 rounds to one decimal, half to even on the exact binary value.
func round1(f float64) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(f, 'f', 1, 64), 64)
	return v
}

// outputBase is the input path up to its first ".csv".
func outputBase(input string) string {
	if i := strings.Index(input, ".csv"); i >= 0 {
		return input[:i]
	}
	return input
}

// WriteCSV writes a header and one line per record. Keys missing from a
// record are left blank.
func WriteCSV[R Record](path string, keys []string, rows []R) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := writeCSV(f, keys, rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func writeCSV[R Record](w io.Writer, keys []string, rows []R) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(keys); err != nil {
		return err
	}
	line := make([]string, len(keys))
	for _, r := range rows {
		values := r.Values()
		for i, k := range keys {
			line[i] = values[k]
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadHeader returns the header line of a comma separated file.
func ReadHeader(path string) ([]string, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	return header, nil
}

// ReadCSV reads a comma separated file with a header into string rows.
func ReadCSV(path string) ([]string, []map[string]string, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	var rows []map[string]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		row := make(map[string]string, len(header))
		for i, k := range header {
			if i < len(rec) {
				row[k] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}
