package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelFactor(t *testing.T) {
	f, err := parallelFactor(2000000, 1000000)
	require.NoError(t, err)
	assert.Equal(t, 2.0, f)

	f, err = parallelFactor(1234567, 1000000)
	require.NoError(t, err)
	assert.Equal(t, 1.2, f)

	_, err = parallelFactor(2000000, 0)
	assert.True(t, errors.Is(err, ErrZeroDuration))
}

func TestRound1HalfEven(t *testing.T) {
	assert.Equal(t, 0.2, round1(0.25))
	assert.Equal(t, 1.2, round1(1.25))
	assert.Equal(t, 0.4, round1(0.35000001))
	assert.Equal(t, 0.0, round1(0.04))
}

func TestBuildRecord(t *testing.T) {
	b := NewSummaryBuilder(ModelMap{"MODEL123": "Finance Plan"}, Filter{}, nil)
	row := StatementRow(stmtValues("2024-04-26 10:00:00.123456000", "ALICE", "h1",
		"CALL EPM_MODEL_COMMAND('action', ?)", "EXEC, TENANT/sap.epm.MODEL123, 42"))
	row["CPU_TIME"] = "2500000"
	row["DURATION_MICROSEC"] = "1050000"

	rec, err := b.BuildRecord(row)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 4, 26, 10, 0, 0, 123456000, time.UTC), rec.StartTime)
	assert.Equal(t, "ALICE", rec.User)
	assert.Equal(t, "h1", rec.StatementHash)
	assert.Equal(t, TypeEPMAction, rec.StatementType)
	assert.Equal(t, "sap.fpa.ui", rec.ApplicationName)
	assert.Equal(t, 2.5, rec.CPUTimeS)
	assert.Equal(t, 1.1, rec.DurationS)
	assert.Equal(t, 2.4, rec.ParallelFactor)
	assert.Equal(t, 1048576.0, rec.MemorySize)
	assert.Equal(t, "MODEL123", rec.ModelID)
	assert.Equal(t, "Finance Plan", rec.ModelName)
}

func TestBuildRecordZeroDuration(t *testing.T) {
	b := NewSummaryBuilder(nil, Filter{}, nil)
	row := StatementRow(stmtValues("2024-04-26 10:00:00.100000000", "ALICE", "h1", "SELECT 1", ""))
	row["DURATION_MICROSEC"] = "0"

	_, err := b.BuildRecord(row)
	assert.True(t, errors.Is(err, ErrZeroDuration))
}

func TestResolveModel(t *testing.T) {
	b := NewSummaryBuilder(ModelMap{"MODELX": "Sales"}, Filter{}, nil)

	tests := []struct {
		name     string
		stmtType string
		params   string
		wantID   string
		wantName string
	}{
		{"data action mapped", TypeDataAction, "RUN,  T1/sap.epm.MODELX , 1", "MODELX", "Sales"},
		{"action unmapped", TypeEPMAction, "RUN, T1/sap.epm.OTHER", "OTHER", NoMapping},
		{"mds mapped", TypeMDS, "a,b,c,/q/MODELX_qs_1", "MODELX", "Sales"},
		{"mds unmapped", TypeMDS, "a,b,c,/q/M2", "M2", NoMapping},
		{"mds view", TypeMDS, "a,View,c", "View", "View"},
		{"other", TypeHierarchy, "", NotAvailable, NotAvailable},
		{"close is not an action", TypeEPMClose, "", NotAvailable, NotAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, name, err := b.resolveModel(tt.stmtType, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestResolveModelMalformedParams(t *testing.T) {
	b := NewSummaryBuilder(nil, Filter{}, nil)
	for _, tc := range []struct{ stmtType, params string }{
		{TypeDataAction, "single"},
		{TypeDataAction, "a, noslash"},
		{TypeDataAction, "a, t/sap.epm"},
		{TypeMDS, "a,b"},
		{TypeMDS, "a,b,c,d"},
	} {
		_, _, err := b.resolveModel(tc.stmtType, tc.params)
		assert.Error(t, err, tc.params)
	}
}

func TestBuildFiltersAndCollectsStatements(t *testing.T) {
	rows := []StatementRow{
		stmtValues("2024-04-26 10:00:00.100000000", "ALICE", "h1", "SELECT 1", ""),
		stmtValues("2024-04-26 10:00:01.100000000", "BOB", "h1", "SELECT 1 -- later text", ""),
		stmtValues("2024-04-26 10:00:02.100000000", "ALICE", "h2", "SELECT 2", ""),
		stmtValues("2024-04-26 10:00:03.100000000", "BOB", "h3", "SELECT 3", ""),
	}

	b := NewSummaryBuilder(nil, Filter{Username: "ALICE", StmtType: "all"}, nil)
	s, err := b.Build(rows)
	require.NoError(t, err)

	require.Len(t, s.Records, 2)
	assert.Equal(t, []string{"h1", "h2"}, s.Order)
	assert.Equal(t, "SELECT 1", s.Text("h1"))
	assert.Equal(t, 1, s.Statements["h1"].Executions)
	assert.Equal(t, "", s.Text("missing"))
	assert.NotContains(t, s.Statements, "h3")
	assert.Len(t, StatementCatalog(s), 2)
}

func TestBuildReportsRowOnError(t *testing.T) {
	rows := []StatementRow{
		stmtValues("2024-04-26 10:00:00.100000000", "ALICE", "h1", "SELECT 1", ""),
		stmtValues("2024-04-26 10:00:00", "ALICE", "h2", "SELECT 1", ""),
	}
	_, err := NewSummaryBuilder(nil, Filter{}, nil).Build(rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3 (hash h2)")
}
