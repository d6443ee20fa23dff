package main

import "time"

const (
	// ExpectedFields is the column count of an expensive statements export.
	ExpectedFields = 41
	// StatementField is the 0-based position of STATEMENT_STRING.
	StatementField = 17

	NotAvailable = "N/A"
	NoMapping    = "NO_MAPPING"
)

var SummaryKeys = []string{"START_TIME", "USER", "STATEMENT_HASH", "STATEMENT_TYPE", "APPLICATION_NAME", "DURATION_S", "CPU_TIME_S", "PARALLEL_FACTOR", "MEMORY_SIZE", "MODEL_ID", "MODEL_NAME"}

var MDSKeys = []string{"START_TIME", "USER", "STATEMENT_HASH", "APPLICATION_NAME", "DURATION_S", "CPU_TIME_S", "PARALLEL_FACTOR", "MEMORY_SIZE", "MODEL_ID", "MODEL_NAME", "STORY_ID", "STORY_NAME", "WIDGET_ID", "MDS_TYPE", "DIMENSIONS", "READ_MODE", "MEASURES", "MEASURE_TYPE", "INPUT_RECORDS"}

var DAKeys = []string{"START_TIME", "USER", "STATEMENT_HASH", "APPLICATION_NAME", "CPU_TIME_S", "DURATION_S", "PARALLEL_FACTOR", "MEMORY_SIZE", "STATEMENT_TYPE", "MODEL_ID", "MODEL_NAME", "ACTION_FOUND", "VERSION_UUID", "ACTION_TYPE", "ACTION_NAME", "ACTION_STEP", "ROWS_CHANGED_SEMANTIC", "ROWS_CHANGED_TECHNICAL", "VERSION_SIZE"}

var StatementKeys = []string{"STATEMENT_HASH", "STATEMENT_TYPE", "SQL_DIGEST", "EXECUTIONS", "STATEMENT_STRING"}

// Record is anything that can be written as one CSV line keyed by column name.
type Record interface {
	Values() map[string]string
}

// StatementRow is one reconstructed row of the statements export, keyed by header.
type StatementRow map[string]string

// SummaryRecord is the flat summary of one statement execution.
type SummaryRecord struct {
	StartTime       time.Time
	User            string
	StatementHash   string
	StatementType   string
	ApplicationName string
	DurationS       float64
	CPUTimeS        float64
	ParallelFactor  float64
	MemorySize      float64
	ModelID         string
	ModelName       string
}

func (r SummaryRecord) Values() map[string]string {
	return map[string]string{
		"START_TIME":       formatTimestamp(r.StartTime),
		"USER":             r.User,
		"STATEMENT_HASH":   r.StatementHash,
		"STATEMENT_TYPE":   r.StatementType,
		"APPLICATION_NAME": r.ApplicationName,
		"DURATION_S":       formatFloat(r.DurationS),
		"CPU_TIME_S":       formatFloat(r.CPUTimeS),
		"PARALLEL_FACTOR":  formatFloat(r.ParallelFactor),
		"MEMORY_SIZE":      formatFloat(r.MemorySize),
		"MODEL_ID":         r.ModelID,
		"MODEL_NAME":       r.ModelName,
	}
}

// MDSMetadata holds what could be derived from an MDS request payload.
// Empty fields are left blank in the report.
type MDSMetadata struct {
	ModelID      string
	ModelName    string
	StoryID      string
	StoryName    string
	WidgetID     string
	MDSType      string
	Dimensions   string
	ReadMode     string
	Measures     string
	MeasureType  string
	InputRecords string
}

// Empty reports whether nothing at all was derived.
func (m MDSMetadata) Empty() bool {
	return m == MDSMetadata{}
}

// MDSRecord is a summary record of an MDS statement plus its payload metadata.
type MDSRecord struct {
	Summary  SummaryRecord
	Metadata MDSMetadata
}

func (r MDSRecord) Values() map[string]string {
	v := r.Summary.Values()
	delete(v, "STATEMENT_TYPE")
	m := r.Metadata
	if m.ModelID != "" {
		v["MODEL_ID"] = m.ModelID
		v["MODEL_NAME"] = m.ModelName
	}
	v["STORY_ID"] = m.StoryID
	v["STORY_NAME"] = m.StoryName
	v["WIDGET_ID"] = m.WidgetID
	v["MDS_TYPE"] = m.MDSType
	v["DIMENSIONS"] = m.Dimensions
	v["READ_MODE"] = m.ReadMode
	v["MEASURES"] = m.Measures
	v["MEASURE_TYPE"] = m.MeasureType
	v["INPUT_RECORDS"] = m.InputRecords
	return v
}

// Action is one row of the user actions export.
type Action struct {
	User                 string
	StartTime            time.Time
	EndTime              time.Time
	InteractionType      string
	InteractionName      string
	Description          string
	VersionUUID          string
	RowsChangedSemantic  string
	RowsChangedTechnical string
	VersionSize          string
}

// DARecord is a data-action summary, enriched with the matching user action.
type DARecord struct {
	Summary              SummaryRecord
	ActionFound          bool
	VersionUUID          string
	ActionType           string
	ActionName           string
	ActionStep           string
	RowsChangedSemantic  string
	RowsChangedTechnical string
	VersionSize          string
}

func (r DARecord) Values() map[string]string {
	v := r.Summary.Values()
	v["ACTION_FOUND"] = formatBool(r.ActionFound)
	v["VERSION_UUID"] = r.VersionUUID
	v["ACTION_TYPE"] = r.ActionType
	v["ACTION_NAME"] = r.ActionName
	v["ACTION_STEP"] = r.ActionStep
	v["ROWS_CHANGED_SEMANTIC"] = r.RowsChangedSemantic
	v["ROWS_CHANGED_TECHNICAL"] = r.RowsChangedTechnical
	v["VERSION_SIZE"] = r.VersionSize
	return v
}

// StatementInfo is one entry of the statement catalog, keyed by hash.
type StatementInfo struct {
	Hash       string
	Type       string
	Digest     string
	Executions int
	Text       string
}

func (s StatementInfo) Values() map[string]string {
	return map[string]string{
		"STATEMENT_HASH":   s.Hash,
		"STATEMENT_TYPE":   s.Type,
		"SQL_DIGEST":       s.Digest,
		"EXECUTIONS":       formatInt(s.Executions),
		"STATEMENT_STRING": s.Text,
	}
}
