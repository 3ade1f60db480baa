package logging

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// #region log-decision
// LogDecision writes a provenance entry to the provenance_log table.
func LogDecision(ctx context.Context, db *sql.DB, entry ProvenanceEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO provenance_log (board_id, respawn_id, idempotency_key, trigger_type, decision, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.BoardID,
		nullIfEmpty(entry.RespawnID),
		nullIfEmpty(entry.IdempotencyKey),
		entry.TriggerType,
		entry.Decision,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}
// #endregion log-decision

// #region provenance-log
// ProvenanceLog binds LogDecision to a database handle.
type ProvenanceLog struct {
	db *sql.DB
}

// NewProvenanceLog returns a log writing to db. The provenance_log table must
// already exist (artifact.NewStore creates it).
func NewProvenanceLog(db *sql.DB) *ProvenanceLog {
	return &ProvenanceLog{db: db}
}

// Record writes one entry.
func (l *ProvenanceLog) Record(ctx context.Context, entry ProvenanceEntry) error {
	return LogDecision(ctx, l.db, entry)
}

// Recent returns up to limit entries for boardID, newest first.
func (l *ProvenanceLog) Recent(ctx context.Context, boardID string, limit int) ([]ProvenanceEntry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT board_id, respawn_id, idempotency_key, trigger_type, decision, reason, created_at
		 FROM provenance_log WHERE board_id = ? ORDER BY id DESC LIMIT ?`,
		boardID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list provenance: %w", err)
	}
	defer rows.Close()

	var entries []ProvenanceEntry
	for rows.Next() {
		var e ProvenanceEntry
		var respawnID, key, reason sql.NullString
		var createdStr string
		if err := rows.Scan(&e.BoardID, &respawnID, &key, &e.TriggerType, &e.Decision, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.RespawnID = respawnID.String
		e.IdempotencyKey = key.String
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
// #endregion provenance-log

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
