package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/redis/go-redis/v9"
)

// MySQLStore keeps documents in a single MySQL table (see database.Migrate)
// with the body stored as JSON.  Writers publish the collection path on a
// Redis channel and subscribers reload on every message.  Without Redis,
// subscribers poll.
type MySQLStore struct {
	DB           *sql.DB
	Redis        *redis.Client // optional change notifications
	Prefix       string        // Redis channel prefix
	PollInterval time.Duration // reload interval when Redis is nil
}

// NewMySQLStore wires a store over an open database.  rdb may be nil.
func NewMySQLStore(db *sql.DB, rdb *redis.Client, prefix string, poll time.Duration) *MySQLStore {
	if prefix == "" {
		prefix = "docs"
	}
	return &MySQLStore{DB: db, Redis: rdb, Prefix: prefix, PollInterval: poll}
}

func (s *MySQLStore) channel(path Path) string { return s.Prefix + ":" + path.String() }

func (s *MySQLStore) load(ctx context.Context, path Path) ([]Document, error) {
	rows, err := s.DB.QueryContext(ctx,
		"SELECT id, body FROM documents WHERE path=? ORDER BY created_at, id", path.String())
	if err != nil {
		return nil, fmt.Errorf("mysql store: query %s: %w", path, err)
	}
	defer rows.Close()
	var docs []Document
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("mysql store: scan %s: %w", path, err)
		}
		var f Fields
		if err := json.Unmarshal(body, &f); err != nil {
			glog.Warningf("mysql store: skip %s/%s: %v", path, id, err)
			continue
		}
		docs = append(docs, Document{ID: id, Fields: f})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mysql store: rows %s: %w", path, err)
	}
	return docs, nil
}

// publish tells subscribers the collection changed.  Failures only delay
// subscribers until the next change, so they are logged and swallowed.
func (s *MySQLStore) publish(ctx context.Context, path Path, id string) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Publish(ctx, s.channel(path), id).Err(); err != nil {
		glog.Warningf("mysql store: publish %s: %v", path, err)
	}
}

func (s *MySQLStore) Subscribe(ctx context.Context, path Path) (<-chan Snapshot, error) {
	notify := make(chan struct{}, 1)
	load := func(ctx context.Context) ([]Document, error) { return s.load(ctx, path) }

	if s.Redis == nil {
		go poll(ctx, s.PollInterval, notify)
		return watch(ctx, load, notify, nil), nil
	}

	ps := s.Redis.Subscribe(ctx, s.channel(path))
	// wait for the subscription to be confirmed so no write is missed
	// between the first load and the first message
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		glog.Warningf("mysql store: redis subscribe %s failed, polling: %v", path, err)
		go poll(ctx, s.PollInterval, notify)
		return watch(ctx, load, notify, nil), nil
	}
	go func() {
		msgs := ps.Channel()
		for {
			select {
			case _, ok := <-msgs:
				if !ok {
					return
				}
				signal(notify)
			case <-ctx.Done():
				return
			}
		}
	}()
	return watch(ctx, load, notify, func() { _ = ps.Close() }), nil
}

func (s *MySQLStore) Insert(ctx context.Context, path Path, fields Fields) (string, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("mysql store: marshal: %w", err)
	}
	id := NewID()
	if _, err := s.DB.ExecContext(ctx,
		"INSERT INTO documents (path, id, body) VALUES (?,?,?)",
		path.String(), id, body); err != nil {
		return "", fmt.Errorf("mysql store: insert %s: %w", path, err)
	}
	s.publish(ctx, path, id)
	return id, nil
}

// Overwrite relies on clientFoundRows=true in the DSN so that rewriting an
// identical body still reports one affected row.
func (s *MySQLStore) Overwrite(ctx context.Context, path Path, id string, fields Fields) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("mysql store: marshal: %w", err)
	}
	res, err := s.DB.ExecContext(ctx,
		"UPDATE documents SET body=? WHERE path=? AND id=?",
		body, path.String(), id)
	if err != nil {
		return fmt.Errorf("mysql store: overwrite %s/%s: %w", path, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mysql store: overwrite %s/%s: %w", path, id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	s.publish(ctx, path, id)
	return nil
}

func (s *MySQLStore) Delete(ctx context.Context, path Path, id string) error {
	if _, err := s.DB.ExecContext(ctx,
		"DELETE FROM documents WHERE path=? AND id=?", path.String(), id); err != nil {
		return fmt.Errorf("mysql store: delete %s/%s: %w", path, id, err)
	}
	s.publish(ctx, path, id)
	return nil
}

// Close is a no-op; the database and Redis clients belong to the caller.
func (s *MySQLStore) Close() error { return nil }
