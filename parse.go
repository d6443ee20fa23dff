package main

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ParseOptions configures one parse run.
type ParseOptions struct {
	StatementsPath  string
	ActionsPath     string
	Config          *Config
	Filter          Filter
	WriteStatements bool
	Lang            string
}

// ParseResult reports the files written by a parse run.
type ParseResult struct {
	SummaryPath    string
	MDSPath        string
	DAPath         string
	StatementsPath string

	Summaries  int
	MDS        int
	DataAction int
	Dropped    int
}

// ParseStatements runs the three summarization stages over an expensive
// statements export. Nothing is written unless every stage succeeds.
func ParseStatements(opt ParseOptions, log *zap.Logger) (*ParseResult, error) {
	if opt.StatementsPath == "" {
		return nil, errors.New(i18n.T(opt.Lang, "usage"))
	}
	if opt.Config == nil {
		opt.Config = defaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}

	ts0 := time.Now()
	log.Info(i18n.T(opt.Lang, "parsing_start"), zap.String("file", opt.StatementsPath))

	rows, dropped, err := readStatementRows(opt.StatementsPath, opt.Config.ShortRows, log)
	if err != nil {
		return nil, err
	}
	log.Info(i18n.T(opt.Lang, "rows_reconstructed"), zap.Int("rows", len(rows)), zap.Int("dropped", dropped))

	// Step 1 - statement summary
	builder := NewSummaryBuilder(opt.Config.Models, opt.Filter, log)
	summaries, err := builder.Build(rows)
	if err != nil {
		return nil, err
	}

	// Step 2 - MDS summary
	mds, err := buildMDSSummary(summaries, opt.Config.Models, opt.Lang, log)
	if err != nil {
		return nil, err
	}

	// Step 3 - data action summary
	var das []DARecord
	if opt.ActionsPath != "" {
		actions, err := LoadActions(opt.ActionsPath)
		if err != nil {
			return nil, err
		}
		das, err = NewCorrelator(actions, opt.Config.MatchTolerance, log).Correlate(summaries.Records)
		if err != nil {
			return nil, err
		}
	} else {
		log.Warn(i18n.T(opt.Lang, "actions_missing"))
	}

	base := outputBase(opt.StatementsPath)
	res := &ParseResult{
		SummaryPath: base + "_summary.csv",
		MDSPath:     base + "_mds_summary.csv",
		Summaries:   len(summaries.Records),
		MDS:         len(mds),
		DataAction:  len(das),
		Dropped:     dropped,
	}

	if err := WriteCSV(res.SummaryPath, SummaryKeys, summaries.Records); err != nil {
		return nil, err
	}
	log.Info(i18n.T(opt.Lang, "file_written"), zap.String("file", res.SummaryPath), zap.Int("rows", res.Summaries))

	if err := WriteCSV(res.MDSPath, MDSKeys, mds); err != nil {
		return nil, err
	}
	log.Info(i18n.T(opt.Lang, "file_written"), zap.String("file", res.MDSPath), zap.Int("rows", res.MDS))

	if opt.ActionsPath != "" {
		res.DAPath = base + "_da_summary.csv"
		if err := WriteCSV(res.DAPath, DAKeys, das); err != nil {
			return nil, err
		}
		log.Info(i18n.T(opt.Lang, "file_written"), zap.String("file", res.DAPath), zap.Int("rows", res.DataAction))
	}

	if opt.WriteStatements {
		res.StatementsPath = base + "_statements.csv"
		catalog := StatementCatalog(summaries)
		if err := WriteCSV(res.StatementsPath, StatementKeys, catalog); err != nil {
			return nil, err
		}
		log.Info(i18n.T(opt.Lang, "file_written"), zap.String("file", res.StatementsPath), zap.Int("rows", len(catalog)))
	}

	log.Info(i18n.T(opt.Lang, "parsing_complete"), zap.Duration("elapsed", time.Since(ts0)))
	return res, nil
}

func readStatementRows(path string, policy ShortRowPolicy, log *zap.Logger) ([]StatementRow, int, error) {
	in, err := openInput(path)
	if err != nil {
		return nil, 0, err
	}
	defer in.Close()

	rc := NewReconstructor(policy, log)
	lines, err := rc.Rows(in)
	if err != nil {
		return nil, 0, err
	}
	rows, err := DecodeRows(lines)
	if err != nil {
		return nil, 0, err
	}
	return rows, rc.Dropped, nil
}

func buildMDSSummary(s *Summaries, models ModelMap, lang string, log *zap.Logger) ([]MDSRecord, error) {
	var out []MDSRecord
	for _, rec := range s.Records {
		if rec.StatementType != TypeMDS {
			continue
		}
		md, err := GetMDSMetadata(s.Text(rec.StatementHash), models)
		if err != nil {
			return nil, fmt.Errorf("statement %s: %w", rec.StatementHash, err)
		}
		if md.Empty() {
			log.Warn(i18n.T(lang, "mds_no_metadata"), zap.String("statement_hash", rec.StatementHash))
		}
		out = append(out, MDSRecord{Summary: rec, Metadata: md})
	}
	return out, nil
}
