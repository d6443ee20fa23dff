package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fastjson"
	"go.uber.org/zap"
)

const (
	actionSequence    = "action_sequence"
	planningExecution = "PLANNINGSEQUENCE_EXECUTION"
)

// epmInternalActions are action names that carry no data action description.
var epmInternalActions = map[string]bool{
	"publish":                 true,
	"query_based_copy":        true,
	"populate_single_version": true,
	"close":                   true,
	"init":                    true,
}

var requiredActionColumns = []string{
	"USER", "START_TIME", "END_TIME", "INTERACTION_TYPE", "INTERACTION_NAME", "DESCRIPTION",
	"VERSION_UUID", "ROWS_CHANGED_SEMANTIC", "ROWS_CHANGED_TECHNICAL", "VERSION_SIZE",
}

// LoadActions reads the semicolon separated user actions export.
func LoadActions(path string) ([]Action, error) {
	in, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	actions, err := readActions(in)
	if err != nil {
		return nil, fmt.Errorf("actions %s: %w", path, err)
	}
	return actions, nil
}

func readActions(r io.Reader) ([]Action, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := cleanHeader("actions", header, requiredActionColumns); err != nil {
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, k := range header {
		col[k] = i
	}
	get := func(rec []string, key string) string {
		if i, ok := col[key]; ok && i < len(rec) {
			return rec[i]
		}
		return ""
	}

	var actions []Action
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		start, err := parseTimestamp(get(rec, "START_TIME"))
		if err != nil {
			return nil, fmt.Errorf("line %d: START_TIME: %w", line, err)
		}
		end, err := parseTimestamp(get(rec, "END_TIME"))
		if err != nil {
			return nil, fmt.Errorf("line %d: END_TIME: %w", line, err)
		}
		actions = append(actions, Action{
			User:                 get(rec, "USER"),
			StartTime:            start,
			EndTime:              end,
			InteractionType:      get(rec, "INTERACTION_TYPE"),
			InteractionName:      get(rec, "INTERACTION_NAME"),
			Description:          get(rec, "DESCRIPTION"),
			VersionUUID:          get(rec, "VERSION_UUID"),
			RowsChangedSemantic:  get(rec, "ROWS_CHANGED_SEMANTIC"),
			RowsChangedTechnical: get(rec, "ROWS_CHANGED_TECHNICAL"),
			VersionSize:          get(rec, "VERSION_SIZE"),
		})
	}
	return actions, nil
}

// MatchResult tells how a statement was resolved against the actions log.
type MatchResult int

const (
	MatchFound MatchResult = iota
	MatchNone
	// MatchNoActions means the statement's user has no actions at all.
	MatchNoActions
)

func (m MatchResult) String() string {
	switch m {
	case MatchFound:
		return "found"
	case MatchNone:
		return "none"
	case MatchNoActions:
		return "no_actions"
	}
	return "unknown"
}

// Correlator attributes data action statements to the user action started
// closest in time.
type Correlator struct {
	Tolerance time.Duration
	Log       *zap.Logger

	byUser map[string][]Action
}

func NewCorrelator(actions []Action, tolerance time.Duration, log *zap.Logger) *Correlator {
	if log == nil {
		log = zap.NewNop()
	}
	sorted := make([]Action, len(actions))
	copy(sorted, actions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	byUser := make(map[string][]Action)
	for _, a := range sorted {
		byUser[a.User] = append(byUser[a.User], a)
	}
	return &Correlator{Tolerance: tolerance, Log: log, byUser: byUser}
}

// Match finds the first action of the statement's user starting within the
// tolerance. Actions are scanned in start order, so the scan stops at the
// first action starting after the statement.
func (c *Correlator) Match(s SummaryRecord) (Action, MatchResult) {
	actions, ok := c.byUser[s.User]
	if !ok || len(actions) == 0 {
		return Action{}, MatchNoActions
	}
	for _, a := range actions {
		if a.InteractionType == actionSequence {
			continue
		}
		delta := s.StartTime.Sub(a.StartTime)
		if delta < 0 {
			delta = -delta
		}
		if delta < c.Tolerance {
			return a, MatchFound
		}
		if a.StartTime.After(s.StartTime) {
			break
		}
	}
	return Action{}, MatchNone
}

// Correlate builds a data action record for every data action statement.
func (c *Correlator) Correlate(summaries []SummaryRecord) ([]DARecord, error) {
	var out []DARecord
	found, noActions := 0, 0
	for _, s := range summaries {
		if !isDataActionType(s.StatementType) {
			continue
		}
		action, res := c.Match(s)
		c.Log.Debug("match data action", zap.String("statement_hash", s.StatementHash), zap.Stringer("result", res))
		switch res {
		case MatchFound:
			rec, err := enrichDA(s, action)
			if err != nil {
				return nil, fmt.Errorf("statement %s at %s: %w", s.StatementHash, formatTimestamp(s.StartTime), err)
			}
			out = append(out, rec)
			found++
			continue
		case MatchNoActions:
			noActions++
			c.Log.Warn("no actions for user", zap.String("user", s.User), zap.String("statement_hash", s.StatementHash))
		}
		out = append(out, unmatchedDA(s))
	}
	c.Log.Info("correlated data actions",
		zap.Int("statements", len(out)), zap.Int("matched", found), zap.Int("users_without_actions", noActions))
	return out, nil
}

func unmatchedDA(s SummaryRecord) DARecord {
	return DARecord{
		Summary:              s,
		ActionFound:          false,
		VersionUUID:          NotAvailable,
		ActionType:           NotAvailable,
		ActionName:           NotAvailable,
		ActionStep:           NotAvailable,
		RowsChangedSemantic:  NotAvailable,
		RowsChangedTechnical: NotAvailable,
		VersionSize:          NotAvailable,
	}
}

func enrichDA(s SummaryRecord, a Action) (DARecord, error) {
	rec := DARecord{
		Summary:     s,
		ActionFound: true,
		VersionUUID: a.VersionUUID,
		ActionType:  a.InteractionType,
		ActionName:  NotAvailable,
		ActionStep:  NotAvailable,
	}

	var err error
	if rec.RowsChangedSemantic, err = countOrZero("ROWS_CHANGED_SEMANTIC", a.RowsChangedSemantic); err != nil {
		return rec, err
	}
	if rec.RowsChangedTechnical, err = countOrZero("ROWS_CHANGED_TECHNICAL", a.RowsChangedTechnical); err != nil {
		return rec, err
	}
	if rec.VersionSize, err = countOrZero("VERSION_SIZE", a.VersionSize); err != nil {
		return rec, err
	}

	switch {
	case epmInternalActions[a.InteractionName]:
		rec.ActionName = a.InteractionName
	case strings.Contains(a.Description, planningExecution):
		var p fastjson.Parser
		v, err := p.Parse(a.Description)
		if err != nil {
			return rec, fmt.Errorf("parse action description: %w", err)
		}
		rec.ActionName = jsonString(v.Get("dataAction"))
		rec.ActionStep = jsonString(v.Get("step"))
	}
	return rec, nil
}

// countOrZero normalizes an integer column, blank meaning zero.
func countOrZero(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "0", nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return "", fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return strconv.Itoa(n), nil
}
