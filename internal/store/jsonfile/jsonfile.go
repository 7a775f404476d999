package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"nananom-farms/site/internal/logger"
	"nananom-farms/site/internal/store"
)

// Store keeps one pretty-printed JSON array per collection under dataDir.
// The on-disk shape is shared with pre-existing data files and migration
// tooling, so records stay flat objects with id/created_at/updated_at.
type Store struct {
	dataDir string

	mu           sync.Mutex
	locks        map[string]*sync.Mutex
	lastInsertID int64
	affectedRows int64
}

func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{
		dataDir: dataDir,
		locks:   make(map[string]*sync.Mutex),
	}, nil
}

// collectionLock serializes writers per collection. Two concurrent updates
// to the same file would otherwise race read-modify-write and silently
// drop the loser.
func (s *Store) collectionLock(collection string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[collection]
	if !ok {
		l = &sync.Mutex{}
		s.locks[collection] = l
	}
	return l
}

func (s *Store) path(collection string) string {
	return filepath.Join(s.dataDir, collection+".json")
}

func (s *Store) read(collection string) ([]store.Record, error) {
	data, err := os.ReadFile(s.path(collection))
	if err != nil {
		if os.IsNotExist(err) {
			return []store.Record{}, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", store.ErrUnavailable, collection, err)
	}

	var records []store.Record
	if err := json.Unmarshal(data, &records); err != nil {
		// Malformed content is served as an empty collection rather than
		// taking the site down with it.
		logger.Warnf("collection %s is malformed, treating as empty: %v", collection, err)
		return []store.Record{}, nil
	}
	if records == nil {
		records = []store.Record{}
	}
	return records, nil
}

func (s *Store) write(collection string, records []store.Record) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", store.ErrUnavailable, collection, err)
	}

	tmp := s.path(collection) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", store.ErrUnavailable, collection, err)
	}
	if err := os.Rename(tmp, s.path(collection)); err != nil {
		return fmt.Errorf("%w: write %s: %v", store.ErrUnavailable, collection, err)
	}
	return nil
}

func (s *Store) setCounters(insertID, affected int64) {
	s.mu.Lock()
	s.lastInsertID = insertID
	s.affectedRows = affected
	s.mu.Unlock()
}

func (s *Store) Query(_ context.Context, collection string) ([]store.Record, error) {
	l := s.collectionLock(collection)
	l.Lock()
	defer l.Unlock()
	return s.read(collection)
}

func (s *Store) Insert(_ context.Context, collection string, fields map[string]any) (store.Record, error) {
	l := s.collectionLock(collection)
	l.Lock()
	defer l.Unlock()

	records, err := s.read(collection)
	if err != nil {
		return nil, err
	}

	rec := store.Record{}
	for k, v := range fields {
		rec[k] = v
	}

	id := store.NextID(records)
	now := store.Timestamp(time.Now())
	rec["id"] = id
	if rec.String("created_at") == "" {
		rec["created_at"] = now
	}
	rec["updated_at"] = now

	records = append(records, rec)
	if err := s.write(collection, records); err != nil {
		return nil, err
	}

	s.setCounters(id, 1)
	return rec, nil
}

func (s *Store) Select(_ context.Context, collection string, conds store.Conditions, opts store.SelectOptions) ([]store.Record, error) {
	l := s.collectionLock(collection)
	l.Lock()
	records, err := s.read(collection)
	l.Unlock()
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

func (s *Store) Update(_ context.Context, collection string, conds store.Conditions, fields map[string]any) (int64, error) {
	l := s.collectionLock(collection)
	l.Lock()
	defer l.Unlock()

	records, err := s.read(collection)
	if err != nil {
		return 0, err
	}

	now := store.Timestamp(time.Now())
	var count int64
	for i, rec := range records {
		if !store.Matches(rec, conds) {
			continue
		}
		for k, v := range fields {
			// id and created_at are immutable once assigned.
			if k == "id" || k == "created_at" {
				continue
			}
			rec[k] = v
		}
		rec["updated_at"] = now
		records[i] = rec
		count++
	}

	if count > 0 {
		if err := s.write(collection, records); err != nil {
			return 0, err
		}
	}
	s.setCounters(0, count)
	return count, nil
}

func (s *Store) Delete(_ context.Context, collection string, conds store.Conditions) (int64, error) {
	l := s.collectionLock(collection)
	l.Lock()
	defer l.Unlock()

	records, err := s.read(collection)
	if err != nil {
		return 0, err
	}

	kept := make([]store.Record, 0, len(records))
	var count int64
	for _, rec := range records {
		if store.Matches(rec, conds) {
			count++
			continue
		}
		kept = append(kept, rec)
	}

	if count > 0 {
		if err := s.write(collection, kept); err != nil {
			return 0, err
		}
	}
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

func (s *Store) Backup(_ context.Context, collection string) error {
	l := s.collectionLock(collection)
	l.Lock()
	records, err := s.read(collection)
	l.Unlock()
	if err != nil {
		return err
	}

	backupDir := filepath.Join(s.dataDir, "backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		logger.Warnf("backup of %s failed: %v", collection, err)
		return fmt.Errorf("%w: backup %s: %v", store.ErrUnavailable, collection, err)
	}

	name := fmt.Sprintf("%s_%s.json", collection, time.Now().Format("2006-01-02_15-04-05"))
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: backup %s: %v", store.ErrUnavailable, collection, err)
	}
	if err := os.WriteFile(filepath.Join(backupDir, name), data, 0o644); err != nil {
		logger.Warnf("backup of %s failed: %v", collection, err)
		return fmt.Errorf("%w: backup %s: %v", store.ErrUnavailable, collection, err)
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
