package pii

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	_ "github.com/lib/pq"
)

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	Database     string
	Username     string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// Memory retention constants
const (
	// DefaultMaxLogEntries is the default maximum number of in-memory log entries to retain
	DefaultMaxLogEntries = 5000
	// MaxLogMessageSize is the maximum size of a log message in bytes
	MaxLogMessageSize = 50 * 1024
)

// LoggingDB stores an audit trail of redacted texts. Messages handed to it
// must already be redacted; only placeholder labels are kept per entity.
type LoggingDB interface {
	// InsertLog inserts a log entry
	InsertLog(ctx context.Context, message string, direction string, entities []Entity) error

	// GetLogs retrieves log entries, newest first
	GetLogs(ctx context.Context, limit int, offset int) ([]LogRecord, error)

	// GetLogsCount returns the total number of log entries
	GetLogsCount(ctx context.Context) (int, error)

	// ClearLogs removes all log entries
	ClearLogs(ctx context.Context) error

	// CleanupOldLogs removes entries older than the given duration
	CleanupOldLogs(ctx context.Context, olderThan time.Duration) (int64, error)

	// Close releases the underlying storage
	Close() error
}

// LogEntry summarises one placeholder written into a logged message
type LogEntry struct {
	PIIType     string `json:"pii_type"`
	Placeholder string `json:"placeholder"`
}

// LogRecord is a stored audit row
type LogRecord struct {
	ID          int64      `json:"id"`
	Timestamp   time.Time  `json:"timestamp"`
	Direction   string     `json:"direction"`
	Message     string     `json:"message"`
	DetectedPII []LogEntry `json:"detected_pii"`
}

// PostgresLoggingDB implements LoggingDB for PostgreSQL
type PostgresLoggingDB struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresLoggingDB opens a PostgreSQL connection and ensures the schema exists
func NewPostgresLoggingDB(ctx context.Context, config DatabaseConfig) (*PostgresLoggingDB, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.Username, config.Password, config.Database, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.MaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := NewPostgresLoggingDBWithConn(db)
	if err := store.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return store, nil
}

// NewPostgresLoggingDBWithConn wraps an already opened connection
func NewPostgresLoggingDBWithConn(db *sql.DB) *PostgresLoggingDB {
	return &PostgresLoggingDB{db: db, now: time.Now}
}

func (s *PostgresLoggingDB) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS redaction_logs (
			id BIGSERIAL PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			direction TEXT NOT NULL,
			message TEXT,
			detected_pii JSONB NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_redaction_logs_created_at ON redaction_logs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_redaction_logs_direction ON redaction_logs(direction)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute: %s: %w", query, err)
		}
	}
	return nil
}

// InsertLog inserts a log entry into the redaction_logs table
func (s *PostgresLoggingDB) InsertLog(ctx context.Context, message string, direction string, entities []Entity) error {
	detectedPIIJSON, err := json.Marshal(toLogEntries(entities))
	if err != nil {
		return fmt.Errorf("failed to marshal detected PII: %w", err)
	}

	query := `
	INSERT INTO redaction_logs (created_at, direction, message, detected_pii)
	VALUES ($1, $2, $3, $4)
	`
	_, err = s.db.ExecContext(ctx, query, s.now().UTC(), direction, truncateMessage(message), string(detectedPIIJSON))
	if err != nil {
		return fmt.Errorf("failed to insert log: %w", err)
	}
	return nil
}

// GetLogs retrieves log entries from the database
func (s *PostgresLoggingDB) GetLogs(ctx context.Context, limit int, offset int) ([]LogRecord, error) {
	query := `
	SELECT id, created_at, direction, message, detected_pii
	FROM redaction_logs
	ORDER BY created_at DESC, id DESC
	LIMIT $1 OFFSET $2
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	defer rows.Close()

	logs := []LogRecord{}
	for rows.Next() {
		var record LogRecord
		var message sql.NullString
		var detectedPIIJSON []byte

		if err := rows.Scan(&record.ID, &record.Timestamp, &record.Direction, &message, &detectedPIIJSON); err != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", err)
		}
		if message.Valid {
			record.Message = message.String
		}
		record.DetectedPII = []LogEntry{}
		if len(detectedPIIJSON) > 0 {
			if err := json.Unmarshal(detectedPIIJSON, &record.DetectedPII); err != nil {
				return nil, fmt.Errorf("failed to unmarshal detected PII: %w", err)
			}
		}
		logs = append(logs, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating log rows: %w", err)
	}
	return logs, nil
}

// GetLogsCount returns the total number of log entries
func (s *PostgresLoggingDB) GetLogsCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM redaction_logs`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get logs count: %w", err)
	}
	return count, nil
}

// ClearLogs removes all log entries from the database
func (s *PostgresLoggingDB) ClearLogs(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM redaction_logs`); err != nil {
		return fmt.Errorf("failed to clear logs: %w", err)
	}
	return nil
}

// CleanupOldLogs removes entries older than the given duration
func (s *PostgresLoggingDB) CleanupOldLogs(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-olderThan)
	result, err := s.db.ExecContext(ctx, `DELETE FROM redaction_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup logs: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection
func (s *PostgresLoggingDB) Close() error {
	return s.db.Close()
}

func toLogEntries(entities []Entity) []LogEntry {
	entries := make([]LogEntry, 0, len(entities))
	for _, entity := range entities {
		entries = append(entries, LogEntry{
			PIIType:     entity.Label,
			Placeholder: entity.Placeholder,
		})
	}
	return entries
}

// truncateMessage caps message at MaxLogMessageSize bytes without splitting a rune
func truncateMessage(message string) string {
	if len(message) <= MaxLogMessageSize {
		return message
	}
	cut := MaxLogMessageSize
	for cut > 0 && !utf8.RuneStart(message[cut]) {
		cut--
	}
	return message[:cut] + "... [truncated]"
}
