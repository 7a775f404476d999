package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"nananom-farms/site/internal/store"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store keeps collections as jsonb rows in a single records table. Rows are
// filtered in Go through the shared query helpers so loose-equality and
// ordering behave exactly like the file backend.
type Store struct {
	pool *pgxpool.Pool

	mu           sync.Mutex
	lastInsertID int64
	affectedRows int64
}

const schema = `
create table if not exists records (
	collection text not null,
	id         bigint not null,
	data       jsonb not null,
	created_at timestamptz not null default now(),
	updated_at timestamptz not null default now(),
	primary key (collection, id)
);

create table if not exists record_backups (
	id         bigserial primary key,
	collection text not null,
	label      text not null,
	taken_at   timestamptz not null default now(),
	data       jsonb not null
);
`

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	ctxConn, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctxConn, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	ctxPing, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	defer cancelPing()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) setCounters(insertID, affected int64) {
	s.mu.Lock()
	s.lastInsertID = insertID
	s.affectedRows = affected
	s.mu.Unlock()
}

func (s *Store) Query(ctx context.Context, collection string) ([]store.Record, error) {
	rows, err := s.pool.Query(ctx, `
		select data from records
		where collection = $1
		order by id
	`, collection)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	out := []store.Record{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, wrapErr(err)
		}
		var rec store.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, wrapErr(err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Insert(ctx context.Context, collection string, fields map[string]any) (store.Record, error) {
	rec := store.Record{}
	for k, v := range fields {
		rec[k] = v
	}
	now := store.Timestamp(time.Now())
	if rec.String("created_at") == "" {
		rec["created_at"] = now
	}
	rec["updated_at"] = now

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s: %v", store.ErrUnavailable, collection, err)
	}

	// The id is computed in SQL; two racing inserts collide on the primary
	// key, so retry a couple of times on unique violations.
	var id int64
	for attempt := 0; ; attempt++ {
		err = s.pool.QueryRow(ctx, `
			insert into records (collection, id, data)
			select $1, next.id, $2::jsonb || jsonb_build_object('id', next.id)
			from (select coalesce(max(id), 0) + 1 as id from records where collection = $1) next
			returning id
		`, collection, string(data)).Scan(&id)
		if err == nil {
			break
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && attempt < 3 {
			continue
		}
		return nil, wrapErr(err)
	}

	rec["id"] = id
	s.setCounters(id, 1)
	return rec, nil
}

func (s *Store) Select(ctx context.Context, collection string, conds store.Conditions, opts store.SelectOptions) ([]store.Record, error) {
	records, err := s.Query(ctx, collection)
	if err != nil {
		return nil, err
	}
	return store.ApplySelect(records, conds, opts), nil
}

func (s *Store) SelectOne(ctx context.Context, collection string, conds store.Conditions) (store.Record, error) {
	records, err := s.Select(ctx, collection, conds, store.SelectOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, store.ErrNotFound
	}
	return records[0], nil
}

func (s *Store) Update(ctx context.Context, collection string, conds store.Conditions, fields map[string]any) (int64, error) {
	matched, err := s.Select(ctx, collection, conds, store.SelectOptions{})
	if err != nil {
		return 0, err
	}
	if len(matched) == 0 {
		s.setCounters(0, 0)
		return 0, nil
	}

	patch := map[string]any{}
	for k, v := range fields {
		if k == "id" || k == "created_at" {
			continue
		}
		patch[k] = v
	}
	patch["updated_at"] = store.Timestamp(time.Now())

	data, err := json.Marshal(patch)
	if err != nil {
		return 0, fmt.Errorf("%w: encode %s: %v", store.ErrUnavailable, collection, err)
	}

	ids := recordIDs(matched)
	tag, err := s.pool.Exec(ctx, `
		update records
		set data = data || $3::jsonb, updated_at = now()
		where collection = $1 and id = any($2)
	`, collection, ids, string(data))
	if err != nil {
		return 0, wrapErr(err)
	}

	count := tag.RowsAffected()
	s.setCounters(0, count)
	return count, nil
}

func (s *Store) Delete(ctx context.Context, collection string, conds store.Conditions) (int64, error) {
	matched, err := s.Select(ctx, collection, conds, store.SelectOptions{})
	if err != nil {
		return 0, err
	}
	if len(matched) == 0 {
		s.setCounters(0, 0)
		return 0, nil
	}

	tag, err := s.pool.Exec(ctx, `
		delete from records
		where collection = $1 and id = any($2)
	`, collection, recordIDs(matched))
	if err != nil {
		return 0, wrapErr(err)
	}

	count := tag.RowsAffected()
	s.setCounters(0, count)
	return count, nil
}

func (s *Store) Join(ctx context.Context, primary, secondary, primaryKey, foreignKey string, conds store.Conditions) ([]store.Record, error) {
	primaries, err := s.Select(ctx, primary, conds, store.SelectOptions{})
	if err != nil {
		return nil, err
	}
	secondaries, err := s.Query(ctx, secondary)
	if err != nil {
		return nil, err
	}
	return store.MergeJoin(primaries, secondaries, secondary, primaryKey, foreignKey), nil
}

func (s *Store) Backup(ctx context.Context, collection string) error {
	records, err := s.Query(ctx, collection)
	if err != nil {
		return err
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: backup %s: %v", store.ErrUnavailable, collection, err)
	}

	label := fmt.Sprintf("%s_%s", collection, time.Now().Format("2006-01-02_15-04-05"))
	_, err = s.pool.Exec(ctx, `
		insert into record_backups (collection, label, data)
		values ($1, $2, $3::jsonb)
	`, collection, label, string(data))
	if err != nil {
		return wrapErr(err)
	}
	return nil
}

func (s *Store) LastInsertID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastInsertID
}

func (s *Store) AffectedRows() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.affectedRows
}

func recordIDs(records []store.Record) []int64 {
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID())
	}
	return ids
}

func wrapErr(err error) error {
	return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
}
