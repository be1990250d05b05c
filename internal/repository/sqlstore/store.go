package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Rrens/ollama-chat/internal/domain"
	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Dialect names accepted by Open
const (
	DialectSQLite = "sqlite"
	DialectMySQL  = "mysql"
)

var schemas = map[string][]string{
	DialectSQLite: {
		`CREATE TABLE IF NOT EXISTS chat_sessions (
			id         INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			position   INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			session_id INTEGER NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
			seq        INTEGER NOT NULL,
			role       TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (session_id, seq)
		)`,
	},
	DialectMySQL: {
		`CREATE TABLE IF NOT EXISTS chat_sessions (
			id         BIGINT PRIMARY KEY,
			name       VARCHAR(255) NOT NULL,
			position   INT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			session_id BIGINT NOT NULL,
			seq        INT NOT NULL,
			role       VARCHAR(16) NOT NULL,
			content    LONGTEXT NOT NULL,
			created_at BIGINT NOT NULL,
			PRIMARY KEY (session_id, seq),
			FOREIGN KEY (session_id) REFERENCES chat_sessions(id) ON DELETE CASCADE
		)`,
	},
}

// Store persists sessions in a relational database through database/sql
type Store struct {
	db      *sql.DB
	dialect string
}

// OpenSQLite opens (or creates) the database file at path and ensures the schema exists
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// a single writer avoids SQLITE_BUSY between the transaction and readers
	db.SetMaxOpenConns(1)

	return open(ctx, db, DialectSQLite)
}

// OpenMySQL connects to a MySQL server and ensures the schema exists
func OpenMySQL(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return open(ctx, db, DialectMySQL)
}

func open(ctx context.Context, db *sql.DB, dialect string) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", dialect, err)
	}

	for _, stmt := range schemas[dialect] {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return &Store{db: db, dialect: dialect}, nil
}

// Dialect returns the backing database kind
func (s *Store) Dialect() string {
	return s.dialect
}

// Load reads the whole session set in store order
func (s *Store) Load(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM chat_sessions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	index := make(map[int64]int)
	for rows.Next() {
		var sess domain.Session
		var createdAt int64
		if err := rows.Scan(&sess.ID, &sess.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sess.CreatedAt = fromUnix(createdAt)
		sess.Messages = []domain.Message{}
		index[sess.ID] = len(sessions)
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	msgRows, err := s.db.QueryContext(ctx, `SELECT session_id, role, content, created_at FROM chat_messages ORDER BY session_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer msgRows.Close()

	for msgRows.Next() {
		var sessionID, createdAt int64
		var role, content string
		if err := msgRows.Scan(&sessionID, &role, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		i, ok := index[sessionID]
		if !ok {
			continue
		}
		r, err := domain.ParseRole(role)
		if err != nil {
			return nil, fmt.Errorf("session %d: %w", sessionID, err)
		}
		sessions[i].Messages = append(sessions[i].Messages, domain.Message{
			Role:      r,
			Content:   content,
			CreatedAt: fromUnix(createdAt),
		})
	}
	if err := msgRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return sessions, nil
}

// Save replaces the stored set with sessions in one transaction
func (s *Store) Save(ctx context.Context, sessions []domain.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages`); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_sessions`); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}

	sessStmt, err := tx.PrepareContext(ctx, `INSERT INTO chat_sessions (id, name, position, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare session insert: %w", err)
	}
	defer sessStmt.Close()

	msgStmt, err := tx.PrepareContext(ctx, `INSERT INTO chat_messages (session_id, seq, role, content, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare message insert: %w", err)
	}
	defer msgStmt.Close()

	for pos, sess := range sessions {
		if _, err := sessStmt.ExecContext(ctx, sess.ID, sess.Name, pos, toUnix(sess.CreatedAt)); err != nil {
			return fmt.Errorf("failed to save session %d: %w", sess.ID, err)
		}
		for seq, m := range sess.Messages {
			if _, err := msgStmt.ExecContext(ctx, sess.ID, seq, string(m.Role), m.Content, toUnix(m.CreatedAt)); err != nil {
				return fmt.Errorf("failed to save message %d of session %d: %w", seq, sess.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sessions: %w", err)
	}
	return nil
}

// Ping verifies database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
