package artifact

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	board_id      TEXT NOT NULL,
	artifact_type TEXT NOT NULL,
	artifact_id   TEXT,
	payload       TEXT NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submissions_board_type
	ON submissions (board_id, artifact_type, seq);

CREATE TABLE IF NOT EXISTS provenance_log (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	board_id        TEXT NOT NULL,
	respawn_id      TEXT,
	idempotency_key TEXT,
	trigger_type    TEXT NOT NULL,
	decision        TEXT NOT NULL,
	reason          TEXT,
	created_at      TEXT NOT NULL
);
`
// #endregion schema

// #region store-struct
// Store is an append-only artifact log in SQLite. Nothing is ever updated or
// deleted; "latest" always means the highest sequence number.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations. The pragmas travel in
// the DSN so every pooled connection gets them; concurrent writers then wait
// on the busy timeout instead of failing with SQLITE_BUSY.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Shutdown closes the store when its injector shuts down.
func (s *Store) Shutdown() error {
	return s.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion close

// #region write
// Write appends payload as an artifact of artifactType for boardID and returns
// its reference, "<type>:<seq>".
func (s *Store) Write(ctx context.Context, boardID, artifactType string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal %s payload: %w", artifactType, err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (board_id, artifact_type, artifact_id, payload, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		boardID, artifactType, nullIfEmpty(artifactID(artifactType, data)), string(data),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", artifactType, err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("insert %s: last id: %w", artifactType, err)
	}
	return ref(artifactType, seq), nil
}
// #endregion write

// #region latest
// Latest returns the most recently written payload of artifactType for
// boardID. The boolean is false when none exists.
func (s *Store) Latest(ctx context.Context, boardID, artifactType string) (json.RawMessage, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM submissions
		 WHERE board_id = ? AND artifact_type = ?
		 ORDER BY seq DESC LIMIT 1`,
		boardID, artifactType,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get latest %s: %w", artifactType, err)
	}
	return json.RawMessage(payload), true, nil
}
// #endregion latest

// #region by-id
// ByID returns the most recent payload of artifactType for boardID whose
// identifying field equals id.
func (s *Store) ByID(ctx context.Context, boardID, artifactType, id string) (json.RawMessage, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM submissions
		 WHERE board_id = ? AND artifact_type = ? AND artifact_id = ?
		 ORDER BY seq DESC LIMIT 1`,
		boardID, artifactType, id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s %s: %w", artifactType, id, err)
	}
	return json.RawMessage(payload), true, nil
}
// #endregion by-id

// #region recent
// Recent returns up to limit payloads of artifactType for boardID, newest first.
func (s *Store) Recent(ctx context.Context, boardID, artifactType string, limit int) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM submissions
		 WHERE board_id = ? AND artifact_type = ?
		 ORDER BY seq DESC LIMIT ?`,
		boardID, artifactType, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent %s: %w", artifactType, err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, json.RawMessage(payload))
	}
	return out, rows.Err()
}
// #endregion recent

// #region state
// State returns every submission in write order.
func (s *Store) State(ctx context.Context) (State, error) {
	return s.query(ctx, `SELECT seq, board_id, artifact_type, payload, created_at
		FROM submissions ORDER BY seq ASC`)
}

// BoardState returns the submissions for one board in write order.
func (s *Store) BoardState(ctx context.Context, boardID string) (State, error) {
	return s.query(ctx, `SELECT seq, board_id, artifact_type, payload, created_at
		FROM submissions WHERE board_id = ? ORDER BY seq ASC`, boardID)
}

func (s *Store) query(ctx context.Context, q string, args ...any) (State, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return State{}, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	st := State{Submissions: []Submission{}}
	for rows.Next() {
		var sub Submission
		var payload, createdStr string
		if err := rows.Scan(&sub.Seq, &sub.Artifacts.BoardID, &sub.Artifacts.Type, &payload, &createdStr); err != nil {
			return State{}, fmt.Errorf("scan row: %w", err)
		}
		sub.Artifacts.Payload = json.RawMessage(payload)
		sub.Ref = ref(sub.Artifacts.Type, sub.Seq)
		sub.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		st.Submissions = append(st.Submissions, sub)
	}
	return st, rows.Err()
}
// #endregion state

// #region helpers
func ref(artifactType string, seq int64) string {
	return fmt.Sprintf("%s:%d", artifactType, seq)
}

// artifactID pulls the identifying field out of a payload, if the type has one.
func artifactID(artifactType string, payload []byte) string {
	field, ok := idFields[artifactType]
	if !ok {
		return ""
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(payload, &doc); err != nil {
		return ""
	}
	var id string
	if err := json.Unmarshal(doc[field], &id); err != nil {
		return ""
	}
	return id
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
