package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrZeroDuration is returned when a statement reports a zero wall time,
// which leaves the parallel factor undefined.
var ErrZeroDuration = errors.New("division by zero: DURATION_MICROSEC is 0")

// Filter restricts which statements enter the summaries. "all" or "" disables a field.
type Filter struct {
	Username string
	StmtType string
}

func (f Filter) match(user, stmtType string) bool {
	if f.Username != "" && f.Username != "all" && f.Username != user {
		return false
	}
	if f.StmtType != "" && f.StmtType != "all" && !strings.EqualFold(f.StmtType, stmtType) {
		return false
	}
	return true
}

// SummaryBuilder turns decoded export rows into summary records.
type SummaryBuilder struct {
	Models ModelMap
	Filter Filter
	Log    *zap.Logger
}

func NewSummaryBuilder(models ModelMap, filter Filter, log *zap.Logger) *SummaryBuilder {
	if log == nil {
		log = zap.NewNop()
	}
	return &SummaryBuilder{Models: models, Filter: filter, Log: log}
}

// Summaries holds the output of the first stage.
type Summaries struct {
	Records []SummaryRecord
	// Statements is keyed by STATEMENT_HASH in first-seen order via Order.
	Statements map[string]*StatementInfo
	Order      []string
}

// Text returns the statement text recorded for hash.
func (s *Summaries) Text(hash string) string {
	if info, ok := s.Statements[hash]; ok {
		return info.Text
	}
	return ""
}

// Build summarizes every row. Any malformed row aborts the run.
func (b *SummaryBuilder) Build(rows []StatementRow) (*Summaries, error) {
	out := &Summaries{Statements: make(map[string]*StatementInfo)}
	skipped := 0

	for i, row := range rows {
		rec, err := b.BuildRecord(row)
		if err != nil {
			return nil, fmt.Errorf("row %d (hash %s): %w", i+2, row["STATEMENT_HASH"], err)
		}

		if !b.Filter.match(rec.User, rec.StatementType) {
			skipped++
			continue
		}

		info, ok := out.Statements[rec.StatementHash]
		if !ok {
			info = &StatementInfo{Hash: rec.StatementHash, Type: rec.StatementType, Text: row["STATEMENT_STRING"]}
			out.Statements[rec.StatementHash] = info
			out.Order = append(out.Order, rec.StatementHash)
		}
		info.Executions++
		out.Records = append(out.Records, rec)
	}

	if skipped > 0 {
		b.Log.Info("filtered statements", zap.Int("skipped", skipped), zap.String("username", b.Filter.Username), zap.String("stmttype", b.Filter.StmtType))
	}
	return out, nil
}

// BuildRecord summarizes a single row.
func (b *SummaryBuilder) BuildRecord(row StatementRow) (SummaryRecord, error) {
	var rec SummaryRecord

	start, err := parseTimestamp(row["START_TIME"])
	if err != nil {
		return rec, err
	}
	cpu, err := parseNumber("CPU_TIME", row["CPU_TIME"])
	if err != nil {
		return rec, err
	}
	duration, err := parseNumber("DURATION_MICROSEC", row["DURATION_MICROSEC"])
	if err != nil {
		return rec, err
	}
	memory, err := parseNumber("MEMORY_SIZE", row["MEMORY_SIZE"])
	if err != nil {
		return rec, err
	}
	factor, err := parallelFactor(cpu, duration)
	if err != nil {
		return rec, err
	}

	rec = SummaryRecord{
		StartTime:       start,
		User:            row["APP_USER"],
		StatementHash:   row["STATEMENT_HASH"],
		StatementType:   getStmtType(row["STATEMENT_STRING"]),
		ApplicationName: row["APPLICATION_NAME"],
		CPUTimeS:        round1(cpu / 1e6),
		DurationS:       round1(duration / 1e6),
		ParallelFactor:  factor,
		MemorySize:      memory,
	}

	rec.ModelID, rec.ModelName, err = b.resolveModel(rec.StatementType, row["PARAMETERS"])
	if err != nil {
		return rec, err
	}
	return rec, nil
}

func (b *SummaryBuilder) resolveModel(stmtType, params string) (string, string, error) {
	switch {
	case strings.Contains(stmtType, "_ACTION"):
		id, err := getModelFromParams(params)
		if err != nil {
			return "", "", err
		}
		return id, b.Models.Name(id, NoMapping), nil
	case stmtType == TypeMDS:
		if strings.Contains(params, "View") {
			return "View", "View", nil
		}
		id, err := getMDSModelFromParams(params)
		if err != nil {
			return "", "", err
		}
		return id, b.Models.Name(id, NoMapping), nil
	default:
		return NotAvailable, NotAvailable, nil
	}
}

// parallelFactor is CPU time over wall time, both in microseconds.
func parallelFactor(cpu, duration float64) (float64, error) {
	if duration == 0 {
		return 0, ErrZeroDuration
	}
	return round1(cpu / duration), nil
}

func parseNumber(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return v, nil
}

// getModelFromParams extracts the model id of an EPM action from its
// parameters: "<cmd>, <tenant>/<namespace>.<package>.<model>, ...".
func getModelFromParams(params string) (string, error) {
	parts := strings.Split(params, ",")
	if len(parts) < 2 {
		return "", fmt.Errorf("action parameters %q: no view field", params)
	}
	view := strings.Split(strings.TrimSpace(parts[1]), "/")
	if len(view) < 2 {
		return "", fmt.Errorf("action parameters %q: view has no namespace", params)
	}
	qualified := strings.Split(view[1], ".")
	if len(qualified) < 3 {
		return "", fmt.Errorf("action parameters %q: namespace %q has no model", params, view[1])
	}
	return qualified[2], nil
}

// getMDSModelFromParams extracts the model id from the fourth parameter of
// an MDS call: "<a>/<b>/<model>_qs...".
func getMDSModelFromParams(params string) (string, error) {
	parts := strings.Split(params, ",")
	if len(parts) < 4 {
		return "", fmt.Errorf("mds parameters %q: expected at least 4 fields", params)
	}
	path := strings.Split(parts[3], "/")
	if len(path) < 3 {
		return "", fmt.Errorf("mds parameters %q: query source %q has no model", params, parts[3])
	}
	id, _, _ := strings.Cut(path[2], "_qs")
	return id, nil
}
