package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore keeps one JSON list of sessions per dataset in a key/value table.
// Every save reads, modifies and rewrites the whole list of its dataset.
type SQLStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLStore wraps an opened database. See Open.
func NewSQLStore(db *sql.DB, logger *slog.Logger) *SQLStore {
	return &SQLStore{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the time source used for UpdatedAt.
func (s *SQLStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Per-dataset sessions
// ============================================================================

// List returns the sessions of datasetID, most recently active first.
// Entries that do not decode as a SessionRecord are skipped.
func (s *SQLStore) List(ctx context.Context, datasetID string) ([]SessionRecord, error) {
	entries, err := s.readList(ctx, s.db, datasetID)
	if err != nil {
		return nil, err
	}
	list := make([]SessionRecord, 0, len(entries))
	for _, e := range entries {
		if e.rec != nil {
			list = append(list, *e.rec)
		}
	}
	return list, nil
}

// Save upserts rec by id and refreshes its UpdatedAt. New sessions are
// prepended. Other entries of the partition are written back unchanged.
func (s *SQLStore) Save(ctx context.Context, datasetID string, rec SessionRecord) (SessionRecord, error) {
	rec.UpdatedAt = s.now().UnixMilli()

	err := WithTx(ctx, s.db, func(tx *sql.Tx) error {
		entries, err := s.readList(ctx, tx, datasetID)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		saved := listEntry{raw: raw, id: rec.ID, rec: &rec}
		if idx := indexOf(entries, rec.ID); idx >= 0 {
			entries[idx] = saved
		} else {
			entries = append([]listEntry{saved}, entries...)
		}
		return writeList(ctx, tx, datasetID, entries)
	})
	if err != nil {
		return SessionRecord{}, fmt.Errorf("save session %s: %w", rec.ID, err)
	}
	return rec, nil
}

// Load returns the session or nil when it does not exist.
func (s *SQLStore) Load(ctx context.Context, datasetID, sessionID string) (*SessionRecord, error) {
	list, err := s.List(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == sessionID {
			return &list[i], nil
		}
	}
	return nil, nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (s *SQLStore) Delete(ctx context.Context, datasetID, sessionID string) error {
	err := WithTx(ctx, s.db, func(tx *sql.Tx) error {
		entries, err := s.readList(ctx, tx, datasetID)
		if err != nil {
			return err
		}
		idx := indexOf(entries, sessionID)
		if idx < 0 {
			return nil
		}
		entries = append(entries[:idx], entries[idx+1:]...)
		return writeList(ctx, tx, datasetID, entries)
	})
	if err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

// LatestFinishedQuiz returns the quiz session finished last, or nil.
func (s *SQLStore) LatestFinishedQuiz(ctx context.Context, datasetID string) (*SessionRecord, error) {
	finished, err := s.finishedQuizzes(ctx, datasetID)
	if err != nil || len(finished) == 0 {
		return nil, err
	}
	return &finished[0], nil
}

// LatestAnsweredResultsByQuestion maps question ids to their most recent
// result across finished quizzes. Sessions are scanned newest first and the
// first decodable result of a submitted question wins.
func (s *SQLStore) LatestAnsweredResultsByQuestion(ctx context.Context, datasetID string) (map[string]bool, error) {
	finished, err := s.finishedQuizzes(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]bool)
	for _, rec := range finished {
		submitted := make(map[string]struct{}, len(rec.Submitted))
		for _, qid := range rec.Submitted {
			submitted[qid] = struct{}{}
		}
		for _, qid := range rec.QuestionOrder {
			if _, done := latest[qid]; done {
				continue
			}
			if _, ok := submitted[qid]; !ok {
				continue
			}
			correct, ok := DecodeResult(rec.Results[qid])
			if !ok {
				continue
			}
			latest[qid] = correct
		}
	}
	return latest, nil
}

func (s *SQLStore) finishedQuizzes(ctx context.Context, datasetID string) ([]SessionRecord, error) {
	list, err := s.List(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	finished := make([]SessionRecord, 0, len(list))
	for _, rec := range list {
		if rec.IsFinishedQuiz() {
			finished = append(finished, rec)
		}
	}
	sort.SliceStable(finished, func(i, j int) bool {
		return *finished[i].FinishedAt > *finished[j].FinishedAt
	})
	return finished, nil
}

// ============================================================================
// Backup
// ============================================================================

// ExportAll returns every session partition keyed by its full storage key.
// Values that are not JSON lists are exported as empty lists, the same way
// ImportAll would store them.
func (s *SQLStore) ExportAll(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM kv WHERE key LIKE $1", SessionsPrefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		if !IsSessionKey(key) {
			continue
		}
		if !isJSONList([]byte(value)) {
			s.logger.Warn("exporting corrupt partition as empty", "key", key)
			value = "[]"
		}
		out[key] = json.RawMessage(value)
	}
	return out, rows.Err()
}

// ImportAll restores a backup produced by ExportAll and returns how many
// partitions were written. Keys outside the namespace are ignored and
// values that are not lists are replaced by empty lists.
func (s *SQLStore) ImportAll(ctx context.Context, payload []byte) (int, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return 0, ErrInvalidBackup
	}
	var backup map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &backup); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	keys := make([]string, 0, len(backup))
	for k := range backup {
		if IsSessionKey(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	err := WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, k := range keys {
			value := "[]"
			if v := bytes.TrimSpace(backup[k]); len(v) > 0 && v[0] == '[' {
				var compact bytes.Buffer
				if err := json.Compact(&compact, v); err == nil {
					value = compact.String()
				}
			}
			if err := putValue(ctx, tx, k, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("import backup: %w", err)
	}
	return len(keys), nil
}

// ClearAll removes every session partition and returns how many there were.
func (s *SQLStore) ClearAll(ctx context.Context) (int, error) {
	cleared := 0
	err := WithTx(ctx, s.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, "SELECT key FROM kv WHERE key LIKE $1", SessionsPrefix+"%")
		if err != nil {
			return err
		}
		var keys []string
		for rows.Next() {
			var k string
			if err := rows.Scan(&k); err != nil {
				rows.Close()
				return err
			}
			if IsSessionKey(k) {
				keys = append(keys, k)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		for _, k := range keys {
			if _, err := tx.ExecContext(ctx, "DELETE FROM kv WHERE key = $1", k); err != nil {
				return err
			}
		}
		cleared = len(keys)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("clear sessions: %w", err)
	}
	return cleared, nil
}

// ============================================================================
// Helpers
// ============================================================================

// listEntry is one element of a stored partition. raw is kept verbatim so
// that entries this store does not understand survive a rewrite. rec is nil
// when raw does not decode as a SessionRecord.
type listEntry struct {
	raw json.RawMessage
	id  string
	rec *SessionRecord
}

func (e listEntry) recency() int64 {
	if e.rec == nil {
		return 0
	}
	return e.rec.recency()
}

func decodeEntry(raw json.RawMessage) listEntry {
	e := listEntry{raw: raw}

	var head struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &head); err == nil {
		var id string
		if json.Unmarshal(head.ID, &id) == nil {
			e.id = id
		}
	}

	var rec SessionRecord
	if err := json.Unmarshal(raw, &rec); err == nil {
		e.rec = &rec
	}
	return e
}

// readList loads and sorts a partition. A missing partition is empty and a
// value that is not a JSON list is logged and treated as empty. Entries are
// decoded one by one so that a single foreign or malformed entry does not
// hide the others. Database errors are returned so that a failed read is
// never followed by an overwrite.
func (s *SQLStore) readList(ctx context.Context, q querier, datasetID string) ([]listEntry, error) {
	key := PartitionKey(datasetID)

	var value string
	err := q.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = $1", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return []listEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal([]byte(value), &raws); err != nil {
		s.logger.Error("corrupt session partition, treating as empty",
			"key", key,
			"error", err,
		)
		return []listEntry{}, nil
	}

	entries := make([]listEntry, 0, len(raws))
	skipped := 0
	for _, raw := range raws {
		e := decodeEntry(raw)
		if e.rec == nil {
			skipped++
		}
		entries = append(entries, e)
	}
	if skipped > 0 {
		s.logger.Warn("skipping undecodable session entries",
			"key", key,
			"count", skipped,
		)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].recency() > entries[j].recency()
	})
	return entries, nil
}

func writeList(ctx context.Context, q querier, datasetID string, entries []listEntry) error {
	raws := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		raws = append(raws, e.raw)
	}
	data, err := json.Marshal(raws)
	if err != nil {
		return err
	}
	return putValue(ctx, q, PartitionKey(datasetID), string(data))
}

func putValue(ctx context.Context, q querier, key, value string) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO kv (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

func isJSONList(value []byte) bool {
	v := bytes.TrimSpace(value)
	return len(v) > 0 && v[0] == '[' && json.Valid(v)
}

func indexOf(entries []listEntry, sessionID string) int {
	for i, e := range entries {
		if sessionID != "" && e.id == sessionID {
			return i
		}
	}
	return -1
}
