package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/apresai/creatorpilot/internal/progress"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder stores history in a local SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the database at dbPath and migrates it.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Debug("sqlite recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id        TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			fan_id    TEXT NOT NULL,
			message   TEXT,
			response  TEXT,
			type      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_fan_ts ON messages(fan_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS progress_reports (
			id                TEXT PRIMARY KEY,
			timestamp         INTEGER NOT NULL,
			overall_status    TEXT,
			avg_progress      REAL,
			weekly_revenue    REAL,
			new_subscribers   INTEGER,
			self_check_status TEXT,
			report_json       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_ts ON progress_reports(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordMessage(ctx context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = r.now()
	}
	if e.ID == "" {
		id, err := newID(e.Timestamp)
		if err != nil {
			return err
		}
		e.ID = id
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO messages
		(id, timestamp, fan_id, message, response, type)
		VALUES (?,?,?,?,?,?)`,
		e.ID, e.Timestamp.UnixMilli(), e.FanID, e.Message, e.Response, e.Type,
	)
	if err != nil {
		return fmt.Errorf("record message: %w", err)
	}
	return nil
}

// RecentMessages returns up to limit entries, oldest first. An empty fanID
// matches every fan.
func (r *SQLiteRecorder) RecentMessages(ctx context.Context, fanID string, limit int) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, timestamp, fan_id, message, response, type
		FROM messages
		WHERE (? = '' OR fan_id = ?)
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, fanID, fanID, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			ts int64
		)
		if err := rows.Scan(&e.ID, &ts, &e.FanID, &e.Message, &e.Response, &e.Type); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *SQLiteRecorder) RecordReport(ctx context.Context, rep progress.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := rep.Timestamp
	if ts.IsZero() {
		ts = r.now()
	}
	id, err := newID(ts)
	if err != nil {
		return err
	}
	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO progress_reports
		(id, timestamp, overall_status, avg_progress, weekly_revenue, new_subscribers, self_check_status, report_json)
		VALUES (?,?,?,?,?,?,?,?)`,
		id, ts.UnixMilli(), string(rep.OverallStatus), rep.AvgProgress,
		rep.RevenueMetrics.WeeklyRevenue, rep.RevenueMetrics.NewSubscribers,
		string(rep.SelfCheckStatus), string(body),
	)
	if err != nil {
		return fmt.Errorf("record report: %w", err)
	}
	return nil
}

// Reports returns up to limit stored reports, newest first.
func (r *SQLiteRecorder) Reports(ctx context.Context, limit int) ([]ReportRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, timestamp, overall_status, avg_progress,
		weekly_revenue, new_subscribers, self_check_status, report_json
		FROM progress_reports
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var out []ReportRow
	for rows.Next() {
		var (
			row     ReportRow
			ts      int64
			overall string
			check   string
			body    string
		)
		if err := rows.Scan(&row.ID, &ts, &overall, &row.AvgProgress,
			&row.WeeklyRevenue, &row.NewSubscribers, &check, &body); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		row.Timestamp = time.UnixMilli(ts)
		row.OverallStatus = progress.OverallStatus(overall)
		row.SelfCheckStatus = progress.SelfCheckStatus(check)
		if err := json.Unmarshal([]byte(body), &row.Report); err != nil {
			return nil, fmt.Errorf("decode report %s: %w", row.ID, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
