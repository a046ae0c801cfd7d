// Package store writes loaded transcripts, annotations and plans to a
// SQLite database so they can be queried outside the viewer.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/pbrown/agent-transcripts/internal/transcript"
)

const schema = `
	CREATE TABLE IF NOT EXISTS transcripts (
		key TEXT PRIMARY KEY,
		phase TEXT NOT NULL,
		tool TEXT NOT NULL,
		display_name TEXT NOT NULL,
		model TEXT
	);

	CREATE TABLE IF NOT EXISTS messages (
		transcript_key TEXT NOT NULL REFERENCES transcripts(key) ON DELETE CASCADE,
		original_index INTEGER NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		raw TEXT,
		raw_label TEXT,
		tool_use_id TEXT,
		model TEXT,
		PRIMARY KEY (transcript_key, original_index)
	);

	CREATE TABLE IF NOT EXISTS annotations (
		phase TEXT NOT NULL,
		position INTEGER NOT NULL,
		tool TEXT NOT NULL,
		message_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		highlight TEXT,
		PRIMARY KEY (phase, position)
	);

	CREATE TABLE IF NOT EXISTS plans (
		tool TEXT PRIMARY KEY,
		content TEXT NOT NULL
	);
`

// Source is anything that can load the data directory contents.
type Source interface {
	Phases() []string
	LoadTranscript(phase string, tool transcript.Tool) transcript.Transcript
	LoadAnnotations(phase string) []transcript.Annotation
	LoadPlans() transcript.Plans
}

// Store is a SQLite export target.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveTranscript replaces the stored transcript for phase and tool.
func (s *Store) SaveTranscript(phase string, tool transcript.Tool, t transcript.Transcript) error {
	key := transcript.Key(phase, tool)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE transcript_key = ?`, key); err != nil {
		return fmt.Errorf("clear messages %s: %w", key, err)
	}
	if _, err := tx.Exec(`
		INSERT INTO transcripts (key, phase, tool, display_name, model)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			display_name = excluded.display_name,
			model = excluded.model
	`, key, phase, string(tool), t.Tool, nullString(t.Model)); err != nil {
		return fmt.Errorf("insert transcript %s: %w", key, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO messages (transcript_key, original_index, role, content, raw, raw_label, tool_use_id, model)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare message insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range t.Messages {
		if _, err := stmt.Exec(key, m.OriginalIndex, string(m.Role), m.Content,
			nullString(m.Raw), nullString(m.RawLabel), nullString(m.ToolCallID), nullString(m.Model)); err != nil {
			return fmt.Errorf("insert message %s/%d: %w", key, m.OriginalIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transcript %s: %w", key, err)
	}
	return nil
}

// SaveAnnotations replaces the stored annotations for a phase, keeping
// their file order.
func (s *Store) SaveAnnotations(phase string, annotations []transcript.Annotation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM annotations WHERE phase = ?`, phase); err != nil {
		return fmt.Errorf("clear annotations %s: %w", phase, err)
	}

	for i, a := range annotations {
		if _, err := tx.Exec(`
			INSERT INTO annotations (phase, position, tool, message_index, content, highlight)
			VALUES (?, ?, ?, ?, ?, ?)
		`, phase, i, string(a.Tool), a.MessageIndex, a.Content, nullString(a.Highlight)); err != nil {
			return fmt.Errorf("insert annotation %s/%d: %w", phase, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit annotations %s: %w", phase, err)
	}
	return nil
}

// SavePlans replaces both stored plans.
func (s *Store) SavePlans(plans transcript.Plans) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for tool, content := range map[transcript.Tool]string{
		transcript.ToolClaude: plans.Claude,
		transcript.ToolCodex:  plans.Codex,
	} {
		if _, err := tx.Exec(`
			INSERT INTO plans (tool, content) VALUES (?, ?)
			ON CONFLICT(tool) DO UPDATE SET content = excluded.content
		`, string(tool), content); err != nil {
			return fmt.Errorf("insert plan %s: %w", tool, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit plans: %w", err)
	}
	return nil
}

// Summary counts what an export wrote.
type Summary struct {
	Transcripts int
	Messages    int
	Annotations int
}

// Export writes every transcript, annotation list and plan src can load.
func (s *Store) Export(src Source) (Summary, error) {
	var sum Summary

	for _, phase := range src.Phases() {
		for _, tool := range transcript.Tools() {
			t := src.LoadTranscript(phase, tool)
			if err := s.SaveTranscript(phase, tool, t); err != nil {
				return sum, err
			}
			sum.Transcripts++
			sum.Messages += len(t.Messages)
		}

		annotations := src.LoadAnnotations(phase)
		if err := s.SaveAnnotations(phase, annotations); err != nil {
			return sum, err
		}
		sum.Annotations += len(annotations)
	}

	if err := s.SavePlans(src.LoadPlans()); err != nil {
		return sum, err
	}
	return sum, nil
}

// Messages returns the stored messages for a transcript key, ordered by
// original index.
func (s *Store) Messages(key string) ([]transcript.RenderedMessage, error) {
	rows, err := s.db.Query(`
		SELECT original_index, role, content, raw, raw_label, tool_use_id, model
		FROM messages
		WHERE transcript_key = ?
		ORDER BY original_index ASC
	`, key)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	msgs := []transcript.RenderedMessage{}
	for rows.Next() {
		var m transcript.RenderedMessage
		var role string
		var raw, rawLabel, toolUseID, model sql.NullString
		if err := rows.Scan(&m.OriginalIndex, &role, &m.Content, &raw, &rawLabel, &toolUseID, &model); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Role = transcript.Role(role)
		m.Raw = raw.String
		m.RawLabel = rawLabel.String
		m.ToolCallID = toolUseID.String
		m.Model = model.String
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Annotations returns the stored annotations for a phase in file order.
func (s *Store) Annotations(phase string) ([]transcript.Annotation, error) {
	rows, err := s.db.Query(`
		SELECT tool, message_index, content, highlight
		FROM annotations
		WHERE phase = ?
		ORDER BY position ASC
	`, phase)
	if err != nil {
		return nil, fmt.Errorf("query annotations: %w", err)
	}
	defer rows.Close()

	annotations := []transcript.Annotation{}
	for rows.Next() {
		a := transcript.Annotation{Phase: phase}
		var tool string
		var highlight sql.NullString
		if err := rows.Scan(&tool, &a.MessageIndex, &a.Content, &highlight); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		a.Tool = transcript.Tool(tool)
		a.Highlight = highlight.String
		annotations = append(annotations, a)
	}
	return annotations, rows.Err()
}

// Model returns the stored model for a transcript key, or "" if none.
func (s *Store) Model(key string) (string, error) {
	var model sql.NullString
	err := s.db.QueryRow(`SELECT model FROM transcripts WHERE key = ?`, key).Scan(&model)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query transcript %s: %w", key, err)
	}
	return model.String, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
