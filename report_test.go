package main

import (
    "errors"
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestReportQueriesAreParameterized(t *testing.T) {
    require.NotEmpty(t, reportQueries)
    for name, q := range reportQueries {
        assert.Contains(t, q, "%[1]s", name)
        assert.Contains(t, q, "?", name)
    }
}

func TestRenderReport(t *testing.T) {
    results := []QueryResult{
        {
            Name:    "1. By statement type",
            Columns: []string{"statement_type", "executions"},
            Rows:    [][]interface{}{{"MDS", int64(12)}, {"<script>", int64(1)}},
        },
        {Name: "2. By model", Error: errors.New("table missing")},
    }

    var sb strings.Builder
    require.NoError(t, renderReport(&sb, "q2-run", results))
    page := sb.String()

    assert.Contains(t, page, `<li class="nav-heading">q2-run</li>`)
    assert.Contains(t, page, "<th>statement_type</th>")
    assert.Contains(t, page, ">MDS</td>")
    assert.Contains(t, page, ">12</td>")
    assert.Contains(t, page, "Error: table missing")
    assert.NotContains(t, page, "<script>")
}
