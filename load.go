package main

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

const (
	batchSize = 1000
	workers   = 4

	dbTimeout = 30 * time.Second
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// summaryColumns maps summary CSV keys to table columns, in insert order.
var summaryColumns = []struct {
	key    string
	column string
	number bool
}{
	{"START_TIME", "start_time", false},
	{"USER", "app_user", false},
	{"STATEMENT_HASH", "statement_hash", false},
	{"STATEMENT_TYPE", "statement_type", false},
	{"APPLICATION_NAME", "application_name", false},
	{"DURATION_S", "duration_s", true},
	{"CPU_TIME_S", "cpu_time_s", true},
	{"PARALLEL_FACTOR", "parallel_factor", true},
	{"MEMORY_SIZE", "memory_size", true},
	{"MODEL_ID", "model_id", false},
	{"MODEL_NAME", "model_name", false},
}

// LoadOptions configures loading summary files into MySQL.
type LoadOptions struct {
	DSN       string
	Inputs    []string
	RunName   string
	TableName string
	Lang      string
}

func LoadData(ctx context.Context, opt LoadOptions, log *zap.Logger) error {
	if err := validateInputs(opt); err != nil {
		return err
	}

	log.Info("load settings", zap.Int("batch_size", batchSize), zap.Int("workers", workers))

	files, err := expandInputs(opt.Inputs)
	if err != nil {
		return err
	}
	if err := checkSummaryFiles(files); err != nil {
		return err
	}

	db, err := sql.Open("mysql", opt.DSN)
	if err != nil {
		return fmt.Errorf("connect to db failed: %w", err)
	}
	defer db.Close()

	log.Info(i18n.T(opt.Lang, "load_start"), zap.String("table", opt.TableName))
	if err := createTableIfNotExists(ctx, db, opt.TableName); err != nil {
		return fmt.Errorf("create table failed: %w", err)
	}

	if err := processFilesParallel(ctx, files, opt, db, log); err != nil {
		return fmt.Errorf("process files failed: %w", err)
	}
	return nil
}

func createTableIfNotExists(ctx context.Context, db *sql.DB, tableName string) error {
	createTableSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		run_name varchar(64) NOT NULL,
		file_name varchar(255) NOT NULL,
		start_time datetime(6) DEFAULT NULL,
		app_user varchar(255) DEFAULT NULL,
		statement_hash varchar(64) DEFAULT NULL,
		statement_type varchar(16) DEFAULT NULL,
		application_name varchar(255) DEFAULT NULL,
		duration_s double DEFAULT NULL,
		cpu_time_s double DEFAULT NULL,
		parallel_factor double DEFAULT NULL,
		memory_size double DEFAULT NULL,
		model_id varchar(64) DEFAULT NULL,
		model_name varchar(255) DEFAULT NULL,
		KEY idx_run_type (run_name, statement_type),
		KEY idx_run_hash (run_name, statement_hash)
	)`, tableName)

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	_, err := db.ExecContext(ctx, createTableSQL)
	return err
}

func processFilesParallel(ctx context.Context, filePaths []string, opt LoadOptions, db *sql.DB, log *zap.Logger) error {
	var wg sync.WaitGroup
	errChan := make(chan error, len(filePaths))
	semaphore := make(chan struct{}, workers)

	for _, filePath := range filePaths {
		wg.Add(1)
		go func(fp string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			fileName := filepath.Base(fp)
			n, err := processFile(ctx, fp, fileName, opt, db)
			if err != nil {
				errChan <- fmt.Errorf("process file %s failed: %w", fileName, err)
				return
			}
			log.Info(i18n.T(opt.Lang, "load_file_complete"), zap.String("file", fileName), zap.Int("rows", n))
		}(filePath)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}

func validateInputs(opt LoadOptions) error {
	if opt.DSN == "" || len(opt.Inputs) == 0 || opt.RunName == "" || opt.TableName == "" {
		return fmt.Errorf("%s", i18n.T(opt.Lang, "load_usage"))
	}
	if !tableNameRe.MatchString(opt.TableName) {
		return fmt.Errorf("invalid table name %q", opt.TableName)
	}
	return nil
}

// expandInputs resolves glob patterns into a de-duplicated file list.
func expandInputs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("find files failed: %w", err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no summary files match %s", strings.Join(patterns, ","))
	}
	return files, nil
}

func processFile(ctx context.Context, filePath, fileName string, opt LoadOptions, db *sql.DB) (int, error) {
	header, rows, err := ReadCSV(filePath)
	if err != nil {
		return 0, err
	}
	if err := checkSummaryHeader(header); err != nil {
		return 0, err
	}

	for i := 0; i < len(rows); i += batchSize {
		end := min(i+batchSize, len(rows))
		if err := insertBatch(ctx, rows[i:end], opt.RunName, fileName, opt.TableName, db); err != nil {
			return 0, fmt.Errorf("error inserting batch: %w", err)
		}
	}
	return len(rows), nil
}

// checkSummaryHeader accepts only the statement summary layout. MDS and
// data action summaries share its leading columns and must not be loaded.
func checkSummaryHeader(header []string) error {
	if !slices.Equal(header, SummaryKeys) {
		return fmt.Errorf("not a statement summary file, header is %s", strings.Join(header, ","))
	}
	return nil
}

// checkSummaryFiles validates every header before anything is inserted.
func checkSummaryFiles(files []string) error {
	for _, f := range files {
		header, err := ReadHeader(f)
		if err != nil {
			return err
		}
		if err := checkSummaryHeader(header); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(f), err)
		}
	}
	return nil
}

func insertBatch(ctx context.Context, rows []map[string]string, runName, fileName, tableName string, db *sql.DB) error {
	if len(rows) == 0 {
		return nil // No data to insert
	}

	query, args := buildInsertQuery(rows, runName, fileName, tableName)
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	_, err := db.ExecContext(ctx, query, args...)
	return err
}

func buildInsertQuery(rows []map[string]string, runName, fileName, tableName string) (string, []interface{}) {
	columns := make([]string, 0, len(summaryColumns)+2)
	columns = append(columns, "run_name", "file_name")
	for _, c := range summaryColumns {
		columns = append(columns, c.column)
	}
	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	valueStrings := make([]string, 0, len(rows))
	valueArgs := make([]interface{}, 0, len(rows)*len(columns))

	for _, row := range rows {
		valueStrings = append(valueStrings, placeholders)
		valueArgs = append(valueArgs, runName, fileName)
		for _, c := range summaryColumns {
			v := row[c.key]
			if v == "" || (c.number && v == NotAvailable) {
				valueArgs = append(valueArgs, nil)
				continue
			}
			valueArgs = append(valueArgs, v)
		}
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		tableName, strings.Join(columns, ", "), strings.Join(valueStrings, ","))
	return query, valueArgs
}
