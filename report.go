package main

import (
    "context"
    "database/sql"
    "fmt"
    "html/template"
    "io"
    "net/http"
    "sort"
    "time"

    _ "github.com/go-sql-driver/mysql"
    "go.uber.org/zap"
)

type QueryResult struct {
    Name    string
    Columns []string
    Rows    [][]interface{}
    Error   error
}

// ReportOptions configures the report web server.
type ReportOptions struct {
    DSN       string
    RunName   string
    TableName string
    Port      string
    Lang      string
}

// reportQueries 中的 %[1]s 为表名，? 为运行名称
var reportQueries = map[string]string{
    "1. By statement type": `SELECT
            statement_type,
            COUNT(*) AS exec_cnts,
            round(SUM(cpu_time_s),1) AS cpu_s,
            round(SUM(duration_s),1) AS duration_s,
            round(AVG(parallel_factor),2) AS avg_parallel,
            round(MAX(memory_size)/1024/1024,1) AS max_memory_mb
        FROM %[1]s
        WHERE run_name = ?
        GROUP BY statement_type
        ORDER BY SUM(cpu_time_s) DESC`,
    "2. By model": `SELECT
            model_id, model_name,
            COUNT(*) AS exec_cnts,
            round(SUM(cpu_time_s),1) AS cpu_s,
            round(SUM(duration_s),1) AS duration_s,
            round(MAX(memory_size)/1024/1024,1) AS max_memory_mb
        FROM %[1]s
        WHERE run_name = ? AND model_id <> 'N/A'
        GROUP BY model_id, model_name
        ORDER BY SUM(cpu_time_s) DESC
        LIMIT 100`,
    "3. By user": `SELECT
            app_user,
            COUNT(*) AS exec_cnts,
            COUNT(DISTINCT statement_hash) AS statements,
            round(SUM(cpu_time_s),1) AS cpu_s,
            round(SUM(duration_s),1) AS duration_s
        FROM %[1]s
        WHERE run_name = ?
        GROUP BY app_user
        ORDER BY SUM(cpu_time_s) DESC
        LIMIT 100`,
    "4. Duration bands": `SELECT
            CASE
                WHEN duration_s < 1 THEN '1. <1s'
                WHEN duration_s < 10 THEN '2. 1s~10s'
                WHEN duration_s < 60 THEN '3. 10s~60s'
                WHEN duration_s < 600 THEN '4. 1min~10min'
                ELSE '5. >10min'
            END AS band,
            COUNT(*) AS exec_cnts,
            round(SUM(cpu_time_s),1) AS cpu_s,
            round(AVG(parallel_factor),2) AS avg_parallel
        FROM %[1]s
        WHERE run_name = ?
        GROUP BY band
        ORDER BY band`,
    "5. Top statements": `SELECT
            statement_hash, statement_type, model_name,
            COUNT(*) AS exec_cnts,
            round(SUM(cpu_time_s),1) AS cpu_s,
            round(MAX(duration_s),1) AS max_duration_s,
            round(MAX(memory_size)/1024/1024,1) AS max_memory_mb
        FROM %[1]s
        WHERE run_name = ?
        GROUP BY statement_hash, statement_type, model_name
        ORDER BY SUM(cpu_time_s) DESC
        LIMIT 50`,
    "6. Low parallelism": `SELECT
            statement_type, model_name,
            COUNT(*) AS exec_cnts,
            round(AVG(parallel_factor),2) AS avg_parallel,
            round(SUM(duration_s),1) AS duration_s
        FROM %[1]s
        WHERE run_name = ? AND duration_s >= 1 AND parallel_factor < 1
        GROUP BY statement_type, model_name
        ORDER BY SUM(duration_s) DESC
        LIMIT 50`,
}

const reportTemplate = `
<!DOCTYPE html>
<html>
<head>
    <title>expensive statements report</title>
    <style>
        body {
            margin: 0;
            padding: 0;
            display: flex;
        }
        nav {
            position: fixed; /* 将导航栏固定在页面左侧 */
            left: 0;
            top: 0;
            height: 100%;
            width: 240px;
            background-color: #F5F5F5;
            padding: 20px;
            padding-top: 36px;
            box-sizing: border-box;
            overflow-y: auto;
        }
        nav a {
            text-decoration: none;
            font-weight: bold;
            color: #1e88e5;
        }
        nav ul {
            list-style: none;
            padding: 0;
            margin: 0;
        }
        nav ul li {
            margin-bottom: 10px;
        }
        main {
            flex: 1;
            padding: 20px;
            margin-left: 240px; /* 留出导航栏的空间 */
        }
        .blue-bar {
            background-color: rgba(173, 216, 230, 0.05);
            color: #333;
            font-size: 20px;
            font-weight: bold;
            padding: 10px;
            margin: 10px 0;
            text-align: center;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        .nav-heading {
            font-size: 20px;
            font-weight: bold;
            color: navy;
            margin-bottom: 20px;
        }
        table {
            border-collapse: collapse;
            width: 100%;
            table-layout: fixed;
            margin-bottom: 30px;
        }
        th, td {
            border: 1px solid #ddd;
            padding: 8px;
            text-align: left;
            overflow: hidden;
            white-space: nowrap;
            text-overflow: ellipsis;
        }
        th {
            background-color: #f2f2f2;
        }
    </style>
</head>
<body>
    <nav>
        <ul>
            <li class="nav-heading">{{ .Run }}</li>
            {{range .Results}}
            <li><a href="#{{ .Name }}">{{ .Name }}</a></li>
            {{end}}
        </ul>
    </nav>
    <main>
        {{range .Results}}
        <div class="blue-bar" id="{{ .Name }}">{{ .Name }}</div>
        {{with .Error}}
        <p>Error: {{ . }}</p>
        {{else}}
        <table>
            <tr>
                {{range .Columns}}
                <th>{{.}}</th>
                {{end}}
            </tr>
            {{range .Rows}}
            <tr>
                {{range .}}
                <td title="{{.}}">{{.}}</td>
                {{end}}
            </tr>
            {{end}}
        </table>
        {{end}}
        {{end}}
    </main>
</body>
</html>
`

var reportTmpl = template.Must(template.New("webpage").Parse(reportTemplate))

type reportPage struct {
    Run     string
    Results []QueryResult
}

func Report(ctx context.Context, opt ReportOptions, log *zap.Logger) error {
    if opt.DSN == "" || opt.RunName == "" {
        return fmt.Errorf("%s", i18n.T(opt.Lang, "report_usage"))
    }
    if !tableNameRe.MatchString(opt.TableName) {
        return fmt.Errorf("invalid table name %q", opt.TableName)
    }

    // 连接数据库
    db, err := sql.Open("mysql", opt.DSN)
    if err != nil {
        return fmt.Errorf("connect to db failed: %w", err)
    }
    defer db.Close()

    mux := http.NewServeMux()
    mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
        qctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
        defer cancel()

        results := runReportQueries(qctx, db, opt.TableName, opt.RunName)
        if err := renderReport(w, opt.RunName, results); err != nil {
            log.Error("render report", zap.Error(err))
        }
    })

    srv := &http.Server{Addr: opt.Port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
    go func() {
        <-ctx.Done()
        shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        srv.Shutdown(shutdownCtx)
    }()

    log.Info(i18n.T(opt.Lang, "report_listen"), zap.String("port", opt.Port), zap.String("run", opt.RunName))
    if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
        return err
    }
    return nil
}

// runReportQueries 按名称顺序执行所有报告查询，单个查询失败不影响其他查询
func runReportQueries(ctx context.Context, db *sql.DB, tableName, runName string) []QueryResult {
    names := make([]string, 0, len(reportQueries))
    for name := range reportQueries {
        names = append(names, name)
    }
    sort.Strings(names)

    results := make([]QueryResult, 0, len(names))
    for _, name := range names {
        results = append(results, runQuery(ctx, db, name, fmt.Sprintf(reportQueries[name], tableName), runName))
    }
    return results
}

func runQuery(ctx context.Context, db *sql.DB, name, query, runName string) QueryResult {
    rows, err := db.QueryContext(ctx, query, runName)
    if err != nil {
        return QueryResult{Name: name, Error: err}
    }
    defer rows.Close()

    columns, err := rows.Columns()
    if err != nil {
        return QueryResult{Name: name, Error: err}
    }

    var rowsData [][]interface{}
    for rows.Next() {
        values := make([]interface{}, len(columns))
        valuePtrs := make([]interface{}, len(columns))
        for i := range values {
            valuePtrs[i] = &values[i]
        }
        if err := rows.Scan(valuePtrs...); err != nil {
            return QueryResult{Name: name, Error: err}
        }
        rowData := make([]interface{}, len(columns))
        for i, v := range values {
            if b, ok := v.([]byte); ok {
                rowData[i] = string(b)
            } else {
                rowData[i] = v
            }
        }
        rowsData = append(rowsData, rowData)
    }
    if err := rows.Err(); err != nil {
        return QueryResult{Name: name, Error: err}
    }

    return QueryResult{Name: name, Columns: columns, Rows: rowsData}
}

func renderReport(w io.Writer, runName string, results []QueryResult) error {
    return reportTmpl.Execute(w, reportPage{Run: runName, Results: results})
}
