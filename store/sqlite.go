// ABOUTME: Index is a SQLite-backed queryable mirror of a workspace's ndjson snapshot history.
// ABOUTME: Always rebuildable from the snapshot file; never the source of truth for running state.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/2389-research/chorus/core"
	"github.com/2389-research/chorus/snapshot"
)

// MessageRow is a row from the messages table for list query results.
type MessageRow struct {
	MessageID   string
	Source      string
	Destination string
	Channel     string
	Content     string
	Role        string
	Timestamp   uint64
	ReplyTo     string
}

// Index mirrors a workspace's routed messages and each agent's last known
// state into SQLite for fast queryable history across runs. It is always
// rebuildable from the ndjson snapshot file, which stays authoritative.
type Index struct {
	db *sql.DB
}

// Open opens or creates a SQLite index database at path and ensures its
// schema exists.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS messages (
			message_id  TEXT PRIMARY KEY,
			source      TEXT NOT NULL,
			destination TEXT NOT NULL,
			channel     TEXT NOT NULL,
			content     TEXT NOT NULL,
			role        TEXT NOT NULL,
			timestamp   INTEGER NOT NULL,
			reply_to    TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS agent_state (
			agent      TEXT PRIMARY KEY,
			state      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Index{db: db}, nil
}

// Close closes the underlying database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// ApplyEvent incrementally indexes one event, if it is a message event;
// lifecycle and diagnostic events are not mirrored.
func (idx *Index) ApplyEvent(ev core.Event) error {
	if ev.Type != core.EventMessage && ev.Type != core.EventTeamServiceRequest && ev.Type != core.EventTeamServiceResponse {
		return nil
	}
	m := ev.Message
	_, err := idx.db.Exec(
		`INSERT INTO messages (message_id, source, destination, channel, content, role, timestamp, reply_to)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(message_id) DO UPDATE SET
			source = excluded.source, destination = excluded.destination,
			channel = excluded.channel, content = excluded.content,
			role = excluded.role, timestamp = excluded.timestamp, reply_to = excluded.reply_to`,
		m.MessageID, string(m.Source), string(m.Destination), string(m.Channel),
		m.Content, string(m.Role), m.Timestamp, m.ReplyTo,
	)
	if err != nil {
		return fmt.Errorf("upsert message: %w", err)
	}
	return idx.setLastTick(m.Timestamp)
}

// ApplyState records an agent's most recent snapshotted state.
func (idx *Index) ApplyState(agent string, state any, tick uint64) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal agent state: %w", err)
	}
	_, err = idx.db.Exec(
		`INSERT INTO agent_state (agent, state, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(agent) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		agent, string(raw), tick,
	)
	if err != nil {
		return fmt.Errorf("upsert agent state: %w", err)
	}
	return nil
}

// ListMessagesFor returns every indexed message addressed to or from id,
// ordered by timestamp ascending.
func (idx *Index) ListMessagesFor(id string) ([]MessageRow, error) {
	rows, err := idx.db.Query(
		`SELECT message_id, source, destination, channel, content, role, timestamp, reply_to
		 FROM messages WHERE source = ? OR destination = ? ORDER BY timestamp ASC`,
		id, id)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []MessageRow
	for rows.Next() {
		var m MessageRow
		if err := rows.Scan(&m.MessageID, &m.Source, &m.Destination, &m.Channel, &m.Content, &m.Role, &m.Timestamp, &m.ReplyTo); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetAgentState returns the last indexed state for agent, if any.
func (idx *Index) GetAgentState(agent string) (json.RawMessage, bool, error) {
	var raw string
	err := idx.db.QueryRow("SELECT state FROM agent_state WHERE agent = ?", agent).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query agent state: %w", err)
	}
	return json.RawMessage(raw), true, nil
}

func (idx *Index) setLastTick(tick uint64) error {
	_, err := idx.db.Exec(
		`INSERT INTO meta (key, value) VALUES ('last_tick', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fmt.Sprintf("%d", tick))
	if err != nil {
		return fmt.Errorf("set last_tick: %w", err)
	}
	return nil
}

// LastTick returns the highest timestamp tick indexed so far.
func (idx *Index) LastTick() (uint64, bool, error) {
	var val string
	err := idx.db.QueryRow("SELECT value FROM meta WHERE key = 'last_tick'").Scan(&val)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query last_tick: %w", err)
	}
	var tick uint64
	if _, err := fmt.Sscanf(val, "%d", &tick); err != nil {
		return 0, false, fmt.Errorf("parse last_tick: %w", err)
	}
	return tick, true, nil
}

// RebuildFromSnapshot clears the index and rebuilds it by replaying every
// record in r, in order. This is the index's rebuild path: it is always
// safe to delete the database file and call this instead of trusting the
// index as a source of truth.
func (idx *Index) RebuildFromSnapshot(r *snapshot.Reader) error {
	if _, err := idx.db.Exec("DELETE FROM messages"); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	if _, err := idx.db.Exec("DELETE FROM agent_state"); err != nil {
		return fmt.Errorf("clear agent_state: %w", err)
	}
	if _, err := idx.db.Exec("DELETE FROM meta"); err != nil {
		return fmt.Errorf("clear meta: %w", err)
	}

	recs, err := r.All()
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	for _, rec := range recs {
		if rec.IsState {
			if err := idx.ApplyState(rec.State.Agent, rec.State.State, 0); err != nil {
				return err
			}
			continue
		}
		if err := idx.ApplyEvent(rec.Event); err != nil {
			return err
		}
	}
	return nil
}
