// Package iostore persists monitoring reports to a SQL archive and reads them back.
package iostore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/schema"
	_ "modernc.org/sqlite" // SQLite driver
)

// Table names for the report archive.
const (
	monitoringRunsTable = "pvdrift_monitoring_runs"
	columnResultsTable  = "pvdrift_column_results"
)

// ReportStoreImpl implements the ReportStore interface.
type ReportStoreImpl struct {
	db         *sql.DB
	backend    schema.StoreBackend
	driverName string
}

var _ contract.ReportStore = &ReportStoreImpl{} // Compile-time check

// NewReportStore creates a new ReportStore with the specified backend.
func NewReportStore(backend schema.StoreBackend, connStr string) (contract.ReportStore, error) {
	var db *sql.DB
	var err error
	var driverName string

	switch backend {
	case schema.SQLiteBackend:
		driverName = "sqlite"
		dbPath := connStr
		if dbPath == "" {
			dbPath = contract.GetArchiveDBFilePath()
		}
		db, err = sql.Open(driverName, dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. The parent directory must exist and be writable", dbPath, err)
		}
		// A single connection keeps SQLite from returning "database is locked"
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		driverName = "mysql"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w. The connection string looks like user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		driverName = "pgx"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. The connection string looks like host=localhost port=5432 user=postgres dbname=pvdrift", err)
		}

	case schema.NoneBackend:
		// Return a no-op store for disabled archiving
		return &ReportStoreImpl{
			db:         nil,
			backend:    backend,
			driverName: "",
		}, nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}

	// sql.Open is lazy, ping before trusting the handle
	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Make sure MySQL is reachable at the configured address and the credentials match."
		case schema.PostgreSQLBackend:
			connDetail = "Make sure PostgreSQL is reachable at the configured address and the credentials match."
		default:
			connDetail = "Make sure the database server is up and reachable."
		}
		return nil, fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}

	if err := createArchiveTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create archive tables: %w", err)
	}

	return &ReportStoreImpl{
		db:         db,
		backend:    backend,
		driverName: driverName,
	}, nil
}

// createArchiveTables creates the report archive tables.
func createArchiveTables(db *sql.DB, backend schema.StoreBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{monitoringRunsTable, getCreateMonitoringRunsQuery(backend)},
		{columnResultsTable, getCreateColumnResultsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}

	return nil
}

// getCreateMonitoringRunsQuery returns the CREATE TABLE query for pvdrift_monitoring_runs.
func getCreateMonitoringRunsQuery(backend schema.StoreBackend) string {
	quotedTableName := quoteTableName(monitoringRunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				report_id VARCHAR(64) PRIMARY KEY,
				generated_at DATETIME(6) NOT NULL,
				method VARCHAR(16) NOT NULL,
				reference_rows INT NOT NULL,
				current_rows INT NOT NULL,
				drifted_columns INT NOT NULL,
				drift_share DOUBLE NOT NULL,
				dataset_drifted TINYINT(1) NOT NULL,
				config_params TEXT,
				report_json MEDIUMTEXT NOT NULL
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				report_id TEXT PRIMARY KEY,
				generated_at TIMESTAMPTZ NOT NULL,
				method TEXT NOT NULL,
				reference_rows INT NOT NULL,
				current_rows INT NOT NULL,
				drifted_columns INT NOT NULL,
				drift_share DOUBLE PRECISION NOT NULL,
				dataset_drifted BOOLEAN NOT NULL,
				config_params TEXT,
				report_json TEXT NOT NULL
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				report_id TEXT PRIMARY KEY,
				generated_at TEXT NOT NULL,
				method TEXT NOT NULL,
				reference_rows INTEGER NOT NULL,
				current_rows INTEGER NOT NULL,
				drifted_columns INTEGER NOT NULL,
				drift_share REAL NOT NULL,
				dataset_drifted INTEGER NOT NULL,
				config_params TEXT,
				report_json TEXT NOT NULL
			);
		`, quotedTableName)
	}
}

// getCreateColumnResultsQuery returns the CREATE TABLE query for pvdrift_column_results.
func getCreateColumnResultsQuery(backend schema.StoreBackend) string {
	quotedTableName := quoteTableName(columnResultsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				report_id VARCHAR(64) NOT NULL,
				column_name VARCHAR(128) NOT NULL,
				ref_mean DOUBLE NOT NULL,
				ref_std_dev DOUBLE NOT NULL,
				cur_mean DOUBLE NOT NULL,
				cur_std_dev DOUBLE NOT NULL,
				statistic DOUBLE NOT NULL,
				threshold DOUBLE NOT NULL,
				drifted TINYINT(1) NOT NULL,
				PRIMARY KEY (report_id, column_name)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				report_id TEXT NOT NULL,
				column_name TEXT NOT NULL,
				ref_mean DOUBLE PRECISION NOT NULL,
				ref_std_dev DOUBLE PRECISION NOT NULL,
				cur_mean DOUBLE PRECISION NOT NULL,
				cur_std_dev DOUBLE PRECISION NOT NULL,
				statistic DOUBLE PRECISION NOT NULL,
				threshold DOUBLE PRECISION NOT NULL,
				drifted BOOLEAN NOT NULL,
				PRIMARY KEY (report_id, column_name)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				report_id TEXT NOT NULL,
				column_name TEXT NOT NULL,
				ref_mean REAL NOT NULL,
				ref_std_dev REAL NOT NULL,
				cur_mean REAL NOT NULL,
				cur_std_dev REAL NOT NULL,
				statistic REAL NOT NULL,
				threshold REAL NOT NULL,
				drifted INTEGER NOT NULL,
				PRIMARY KEY (report_id, column_name)
			);
		`, quotedTableName)
	}
}

// SaveReport persists a finished report and its per-column rows in one transaction.
func (rs *ReportStoreImpl) SaveReport(report *schema.MonitoringReport, configParams map[string]any) error {
	// Archiving disabled
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}
	if report == nil {
		return fmt.Errorf("cannot archive a nil report")
	}

	// Serialize the full report for lossless retrieval
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	// Serialize config params to JSON, keeping NULL when none were given
	var configJSON any
	if configParams != nil {
		raw, err := json.Marshal(configParams)
		if err != nil {
			return fmt.Errorf("failed to marshal config params: %w", err)
		}
		configJSON = string(raw)
	}

	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertMonitoringRun(tx, rs.backend, report, configJSON, string(reportJSON)); err != nil {
		return err
	}
	if err := insertColumnResults(tx, rs.backend, report); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive transaction: %w", err)
	}

	return nil
}

// insertMonitoringRun writes the run summary row.
func insertMonitoringRun(tx *sql.Tx, backend schema.StoreBackend, report *schema.MonitoringReport, configJSON any, reportJSON string) error {
	quotedTableName := quoteTableName(monitoringRunsTable, backend)

	var query string
	switch backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`
			INSERT INTO %s (report_id, generated_at, method, reference_rows, current_rows,
			                drifted_columns, drift_share, dataset_drifted, config_params, report_json)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, quotedTableName)
	default: // SQLite and MySQL
		query = fmt.Sprintf(`
			INSERT INTO %s (report_id, generated_at, method, reference_rows, current_rows,
			                drifted_columns, drift_share, dataset_drifted, config_params, report_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, quotedTableName)
	}

	args := []any{
		report.ID, formatTime(report.GeneratedAt, backend), string(report.Method),
		report.Reference.Rows, report.Current.Rows,
		report.DriftedColumns, report.DriftShare, report.DatasetDrifted,
		configJSON, reportJSON,
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to insert monitoring run %s: %w", report.ID, err)
	}

	return nil
}

// insertColumnResults writes one row per column verdict.
func insertColumnResults(tx *sql.Tx, backend schema.StoreBackend, report *schema.MonitoringReport) error {
	quotedTableName := quoteTableName(columnResultsTable, backend)

	var query string
	switch backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`
			INSERT INTO %s (report_id, column_name, ref_mean, ref_std_dev, cur_mean, cur_std_dev,
			                statistic, threshold, drifted)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, quotedTableName)
	default: // SQLite and MySQL
		query = fmt.Sprintf(`
			INSERT INTO %s (report_id, column_name, ref_mean, ref_std_dev, cur_mean, cur_std_dev,
			                statistic, threshold, drifted)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, quotedTableName)
	}

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare column result insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, col := range report.Columns {
		_, err := stmt.Exec(
			report.ID, col.Column, col.RefMean, col.RefStdDev, col.CurMean, col.CurStdDev,
			col.Statistic, col.Threshold, col.Drifted,
		)
		if err != nil {
			return fmt.Errorf("failed to insert column result for %s: %w", col.Column, err)
		}
	}

	return nil
}

// GetReport loads one archived report by its ID.
func (rs *ReportStoreImpl) GetReport(reportID string) (*schema.MonitoringReport, error) {
	// Archiving disabled
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	quotedTableName := quoteTableName(monitoringRunsTable, rs.backend)

	var query string
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`SELECT report_json FROM %s WHERE report_id = $1`, quotedTableName)
	default: // SQLite and MySQL
		query = fmt.Sprintf(`SELECT report_json FROM %s WHERE report_id = ?`, quotedTableName)
	}

	var reportJSON string
	if err := rs.db.QueryRow(query, reportID).Scan(&reportJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no archived report with ID %s", reportID)
		}
		return nil, fmt.Errorf("failed to load report %s: %w", reportID, err)
	}

	var report schema.MonitoringReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to decode archived report %s: %w", reportID, err)
	}

	return &report, nil
}

// ListRuns returns the most recent archived runs, newest first.
func (rs *ReportStoreImpl) ListRuns(limit int) ([]schema.MonitoringRunRecord, error) {
	// Archiving disabled
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		return nil, fmt.Errorf("run limit must be positive, got %d", limit)
	}

	quotedTableName := quoteTableName(monitoringRunsTable, rs.backend)

	var query string
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`
			SELECT report_id, generated_at, method, reference_rows, current_rows,
			       drifted_columns, drift_share, dataset_drifted, config_params, report_json
			FROM %s ORDER BY generated_at DESC LIMIT $1`, quotedTableName)
	default: // SQLite and MySQL
		query = fmt.Sprintf(`
			SELECT report_id, generated_at, method, reference_rows, current_rows,
			       drifted_columns, drift_share, dataset_drifted, config_params, report_json
			FROM %s ORDER BY generated_at DESC LIMIT ?`, quotedTableName)
	}

	rows, err := rs.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list monitoring runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.MonitoringRunRecord
	for rows.Next() {
		record, err := scanRunRecord(rows, rs.backend)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate monitoring runs: %w", err)
	}

	return records, nil
}

// scanRunRecord reads one pvdrift_monitoring_runs row, handling per-backend time storage.
func scanRunRecord(rows *sql.Rows, backend schema.StoreBackend) (schema.MonitoringRunRecord, error) {
	var record schema.MonitoringRunRecord

	switch backend {
	case schema.SQLiteBackend:
		var generatedAtStr string
		err := rows.Scan(
			&record.ReportID, &generatedAtStr, &record.Method,
			&record.ReferenceRows, &record.CurrentRows, &record.DriftedColumns,
			&record.DriftShare, &record.DatasetDrifted, &record.ConfigParams, &record.ReportJSON,
		)
		if err != nil {
			return record, fmt.Errorf("failed to scan monitoring run: %w", err)
		}
		generatedAt, err := time.Parse(time.RFC3339Nano, generatedAtStr)
		if err != nil {
			return record, fmt.Errorf("failed to parse generated_at: %w", err)
		}
		record.GeneratedAt = generatedAt
	default: // MySQL and PostgreSQL store as native datetime
		err := rows.Scan(
			&record.ReportID, &record.GeneratedAt, &record.Method,
			&record.ReferenceRows, &record.CurrentRows, &record.DriftedColumns,
			&record.DriftShare, &record.DatasetDrifted, &record.ConfigParams, &record.ReportJSON,
		)
		if err != nil {
			return record, fmt.Errorf("failed to scan monitoring run: %w", err)
		}
	}

	return record, nil
}

// ListColumnResults returns the per-column rows recorded for a report.
func (rs *ReportStoreImpl) ListColumnResults(reportID string) ([]schema.ColumnResultRecord, error) {
	// Archiving disabled
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	quotedTableName := quoteTableName(columnResultsTable, rs.backend)

	var query string
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`
			SELECT report_id, column_name, ref_mean, ref_std_dev, cur_mean, cur_std_dev,
			       statistic, threshold, drifted
			FROM %s WHERE report_id = $1 ORDER BY column_name`, quotedTableName)
	default: // SQLite and MySQL
		query = fmt.Sprintf(`
			SELECT report_id, column_name, ref_mean, ref_std_dev, cur_mean, cur_std_dev,
			       statistic, threshold, drifted
			FROM %s WHERE report_id = ? ORDER BY column_name`, quotedTableName)
	}

	rows, err := rs.db.Query(query, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to list column results for %s: %w", reportID, err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.ColumnResultRecord
	for rows.Next() {
		var record schema.ColumnResultRecord
		err := rows.Scan(
			&record.ReportID, &record.Column, &record.RefMean, &record.RefStdDev,
			&record.CurMean, &record.CurStdDev, &record.Statistic, &record.Threshold, &record.Drifted,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column result: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate column results: %w", err)
	}

	return records, nil
}

// GetStatus returns status information about the report archive.
func (rs *ReportStoreImpl) GetStatus() (schema.ArchiveStatus, error) {
	status := schema.ArchiveStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}

	if rs.backend == schema.NoneBackend || rs.db == nil {
		return status, nil
	}

	// Get total reports
	runsQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(monitoringRunsTable, rs.backend))
	row := rs.db.QueryRow(runsQuery)
	if err := row.Scan(&status.TotalReports); err != nil {
		return status, fmt.Errorf("failed to get total reports: %w", err)
	}

	// Get drifted reports
	driftedQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE dataset_drifted = %s",
		quoteTableName(monitoringRunsTable, rs.backend), trueLiteral(rs.backend))
	row = rs.db.QueryRow(driftedQuery)
	if err := row.Scan(&status.DriftedReports); err != nil {
		return status, fmt.Errorf("failed to get drifted reports: %w", err)
	}

	if status.TotalReports > 0 {
		// Get last report info
		lastQuery := fmt.Sprintf("SELECT report_id, generated_at FROM %s ORDER BY generated_at DESC LIMIT 1", quoteTableName(monitoringRunsTable, rs.backend))
		row = rs.db.QueryRow(lastQuery)

		switch rs.backend {
		case schema.SQLiteBackend:
			var lastTimeStr string
			if err := row.Scan(&status.LastReportID, &lastTimeStr); err != nil {
				return status, fmt.Errorf("failed to get last report info: %w", err)
			}
			lastTime, err := time.Parse(time.RFC3339Nano, lastTimeStr)
			if err != nil {
				return status, fmt.Errorf("failed to parse last report time: %w", err)
			}
			status.LastReportTime = lastTime
		default: // MySQL and PostgreSQL store as native datetime
			if err := row.Scan(&status.LastReportID, &status.LastReportTime); err != nil {
				return status, fmt.Errorf("failed to get last report info: %w", err)
			}
		}

		// Get oldest report time
		oldestQuery := fmt.Sprintf("SELECT generated_at FROM %s ORDER BY generated_at ASC LIMIT 1", quoteTableName(monitoringRunsTable, rs.backend))
		row = rs.db.QueryRow(oldestQuery)

		switch rs.backend {
		case schema.SQLiteBackend:
			var oldestTimeStr string
			if err := row.Scan(&oldestTimeStr); err != nil {
				return status, fmt.Errorf("failed to get oldest report time: %w", err)
			}
			oldestTime, err := time.Parse(time.RFC3339Nano, oldestTimeStr)
			if err != nil {
				return status, fmt.Errorf("failed to parse oldest report time: %w", err)
			}
			status.OldestReportTime = oldestTime
		default: // MySQL and PostgreSQL store as native datetime
			if err := row.Scan(&status.OldestReportTime); err != nil {
				return status, fmt.Errorf("failed to get oldest report time: %w", err)
			}
		}
	}

	// Row counts per table
	tables := []string{monitoringRunsTable, columnResultsTable}
	for _, table := range tables {
		quotedTable := quoteTableName(table, rs.backend)
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedTable)
		row = rs.db.QueryRow(countQuery)
		var count int64
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// Clear removes all archived runs and column results.
func (rs *ReportStoreImpl) Clear() error {
	// Archiving disabled
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	tables := []string{columnResultsTable, monitoringRunsTable}
	for _, table := range tables {
		query := fmt.Sprintf("DELETE FROM %s", quoteTableName(table, rs.backend))
		if _, err := rs.db.Exec(query); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}

	return nil
}

// Close closes the underlying connection.
func (rs *ReportStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// quoteTableName quotes an identifier in the backend's dialect.
func quoteTableName(name string, backend schema.StoreBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // PostgreSQL and SQLite
		return fmt.Sprintf("\"%s\"", name)
	}
}

// trueLiteral returns the SQL literal for boolean true on the given backend.
func trueLiteral(backend schema.StoreBackend) string {
	switch backend {
	case schema.PostgreSQLBackend:
		return "TRUE"
	default: // SQLite and MySQL store booleans as integers
		return "1"
	}
}

// formatTime converts a time value to the appropriate format for the backend.
// SQLite stores times as RFC3339Nano strings, the SQL servers take time.Time directly.
func formatTime(t time.Time, backend schema.StoreBackend) any {
	if backend == schema.SQLiteBackend {
		return t.Format(time.RFC3339Nano)
	}
	return t
}
