package main

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	ts, err := parseTimestamp("2024-04-26 10:00:00.123456000")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 26, 10, 0, 0, 123456000, time.UTC), ts)

	ts, err = parseTimestamp("2024-04-26 10:00:00.5000")
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, time.Duration(ts.Nanosecond()))

	for _, bad := range []string{
		"2024-04-26 10:00:00.123456",
		"2024-04-26 10:00:00",
		"2024-04-26 10:00:00.000",
		"2024-04-26 10:00:00.1234567000",
		"2024-04-26T10:00:00.123456000",
		"2024-04-26 10:00:00.+12000",
	} {
		_, err := parseTimestamp(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatValues(t *testing.T) {
	assert.Equal(t, "2024-04-26 10:00:00.123456", formatTimestamp(time.Date(2024, 4, 26, 10, 0, 0, 123456000, time.UTC)))
	assert.Equal(t, "2024-04-26 10:00:00", formatTimestamp(time.Date(2024, 4, 26, 10, 0, 0, 0, time.UTC)))

	assert.Equal(t, "2.0", formatFloat(2))
	assert.Equal(t, "0.1", formatFloat(0.1))
	assert.Equal(t, "1048576.0", formatFloat(1048576))
	assert.Equal(t, "0.0", formatFloat(0))
	assert.Equal(t, "1e+16", formatFloat(1e16))
	assert.Equal(t, "True", formatBool(true))
	assert.Equal(t, "False", formatBool(false))
}

func TestOutputBase(t *testing.T) {
	assert.Equal(t, "/data/Q2_CPU", outputBase("/data/Q2_CPU.csv"))
	assert.Equal(t, "/data/Q2_CPU", outputBase("/data/Q2_CPU.csv.zst"))
	assert.Equal(t, "/data/export", outputBase("/data/export"))
}

func TestSummaryCSVRoundTrip(t *testing.T) {
	records := []SummaryRecord{
		{StartTime: baseTime, User: "ALICE", StatementHash: "h1", StatementType: TypeMDS, ApplicationName: "app, with comma",
			DurationS: 1.1, CPUTimeS: 2.5, ParallelFactor: 2.3, MemorySize: 1024, ModelID: "View", ModelName: "View"},
		{StartTime: baseTime.Add(time.Second), User: "BOB", StatementHash: "h2", StatementType: TypeOther, ApplicationName: `say "hi"`,
			ModelID: NotAvailable, ModelName: NotAvailable},
	}
	path := filepath.Join(t.TempDir(), "out_summary.csv")
	require.NoError(t, WriteCSV(path, SummaryKeys, records))

	header, rows, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, SummaryKeys, header)
	require.Len(t, rows, len(records))

	for i, rec := range records {
		assert.Equal(t, rec.Values(), rows[i])
	}
	assert.Equal(t, "app, with comma", rows[0]["APPLICATION_NAME"])
	assert.Equal(t, "0.0", rows[1]["DURATION_S"])
}

func TestWriteCSVBlankMissingKeys(t *testing.T) {
	var sb strings.Builder
	rows := []MDSRecord{{Summary: SummaryRecord{StartTime: baseTime, User: "ALICE"}}}
	require.NoError(t, writeCSV(&sb, MDSKeys, rows))

	lines := strings.Split(strings.TrimSuffix(sb.String(), "\r\n"), "\r\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(MDSKeys, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2024-04-26 10:00:00,ALICE,"))
	assert.True(t, strings.HasSuffix(lines[1], ",,,,,,,,,"))
}
