package main

import (
    "context"
    "flag"
    "fmt"
    "os"
    "os/signal"
    "slices"
    "strings"
    "syscall"

    "go.uber.org/zap"
)

func main() {
    var mode string
    flag.StringVar(&mode, "mode", "", "Mode of operation: parse, load, report")

    // 共用的标志
    var inPath, actionsPath, configPath, filterUsername, filterStmtType, dbConnStr, runName, tableName, Port, lang string
    var withStatements, debug bool
    flag.StringVar(&inPath, "in", "", "Expensive statements export (parse) or summary CSV files, comma separated globs (load)")
    flag.StringVar(&actionsPath, "actions", "", "User actions export to correlate data actions with")
    flag.StringVar(&configPath, "config", "", "YAML config with the model id to name table")
    flag.StringVar(&filterUsername, "username", "all", "Username to filter (default 'all',or username)")
    flag.StringVar(&filterStmtType, "stmttype", "all", "Statement type to filter (default 'all',or MDS, DATA_ACTION, ...)")
    flag.BoolVar(&withStatements, "statements", false, "Also write the distinct statements with their SQL digest")
    flag.StringVar(&dbConnStr, "db", "username:password@tcp(localhost:3306)/test", "Database connection string")
    flag.StringVar(&runName, "run", "", "Run name tagging loaded rows")
    flag.StringVar(&tableName, "table", "expensive_statements", "Name of the table to insert data into")
    flag.StringVar(&Port, "port", ":8081", "Report Web port")
    flag.StringVar(&lang, "lang", "en", "Message language (en, zh)")
    flag.BoolVar(&debug, "debug", false, "Debug logging")

    flag.Parse()

    if err := checkLang(lang); err != nil {
        fmt.Println(err)
        os.Exit(1)
    }

    if mode == "" {
        fmt.Println("Usage: ./sac-stmt -mode [parse|load|report]")
        fmt.Println("    1. " + i18n.T(lang, "usage"))
        fmt.Println("    2. " + i18n.T(lang, "load_usage"))
        fmt.Println("    3. " + i18n.T(lang, "report_usage"))
        os.Exit(1)
    }

    log, err := newLogger(debug)
    if err != nil {
        fmt.Println(err)
        os.Exit(1)
    }
    defer log.Sync()

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    switch mode {
    case "parse":
        err = runParse(inPath, actionsPath, configPath, Filter{Username: filterUsername, StmtType: filterStmtType}, withStatements, lang, log)
        if err != nil {
            log.Error(i18n.T(lang, "parsing_failed"), zap.Error(err))
        }
    case "load":
        err = LoadData(ctx, LoadOptions{DSN: dbConnStr, Inputs: splitList(inPath), RunName: runName, TableName: tableName, Lang: lang}, log)
        if err != nil {
            log.Error(i18n.T(lang, "load_failed"), zap.Error(err))
        }
    case "report":
        err = Report(ctx, ReportOptions{DSN: dbConnStr, RunName: runName, TableName: tableName, Port: Port, Lang: lang}, log)
        if err != nil {
            log.Error(i18n.T(lang, "report_failed"), zap.Error(err))
        }
    default:
        fmt.Println(i18n.T(lang, "invalid_mode"))
        os.Exit(1)
    }

    if err != nil {
        log.Sync()
        os.Exit(1)
    }
}

func runParse(inPath, actionsPath, configPath string, filter Filter, withStatements bool, lang string, log *zap.Logger) error {
    cfg, err := LoadConfig(configPath)
    if err != nil {
        return err
    }
    if filter.StmtType != "all" && !isKnownType(strings.ToUpper(filter.StmtType)) {
        return fmt.Errorf("unknown statement type %q, expected one of %s", filter.StmtType, strings.Join(StatementTypes, ", "))
    }
    _, err = ParseStatements(ParseOptions{
        StatementsPath:  inPath,
        ActionsPath:     actionsPath,
        Config:          cfg,
        Filter:          filter,
        WriteStatements: withStatements,
        Lang:            lang,
    }, log)
    return err
}

func checkLang(lang string) error {
    langs := i18n.Languages()
    if !slices.Contains(langs, lang) {
        return fmt.Errorf("unknown language %q, expected one of %s", lang, strings.Join(langs, ", "))
    }
    return nil
}

func splitList(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}
