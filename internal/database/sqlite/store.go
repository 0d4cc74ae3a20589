// Package sqlite holds the embedded job-board database. The whole database
// lives in memory; the file on disk is a snapshot rewritten by Flush.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fdeworld/internal/database"
	"fdeworld/internal/database/migration"
	"fdeworld/internal/metrics"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const driverName = "sqlite3"

const DefaultFlushInterval = time.Second

var ErrCorrupt = errors.New("database file failed integrity check")

type Options struct {
	Path          string
	FlushInterval time.Duration
	// ImportMinBytes rejects import payloads smaller than this.
	ImportMinBytes int
	Logger         *zap.SugaredLogger
	Now            func() time.Time
}

// Store is the single handle on the database. One mutex serialises open,
// reads, writes, flushes and resets.
type Store struct {
	mu sync.Mutex

	path           string
	flushInterval  time.Duration
	importMinBytes int
	logger         *zap.SugaredLogger
	now            func() time.Time
	migrator       migration.Runner

	db        *sql.DB
	conn      *sql.Conn
	dirty     bool
	lastFlush time.Time
	opens     int
}

var _ database.DB = (*Store)(nil)

func New(opts Options) *Store {
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultFlushInterval
	}
	if opts.ImportMinBytes <= 0 {
		opts.ImportMinBytes = DefaultImportMinBytes
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		path:           opts.Path,
		flushInterval:  opts.FlushInterval,
		importMinBytes: opts.ImportMinBytes,
		logger:         opts.Logger,
		now:            opts.Now,
		migrator:       migration.NewRunner(opts.Logger),
	}
}

// Open loads the database file eagerly. A missing file yields an empty
// database; an unreadable or corrupt one is an error.
func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureOpenLocked(ctx)
}

func (s *Store) Path() string { return s.path }

func (s *Store) Status() database.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return database.Status{
		Path:      s.path,
		Loaded:    s.conn != nil,
		Dirty:     s.dirty,
		LastFlush: s.lastFlush,
		Opens:     s.opens,
	}
}

func (s *Store) Query(ctx context.Context, query string, args ...any) (*database.ResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureOpenLocked(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	rs, err := database.Materialize(rows)
	metrics.StoreQuerySeconds.WithLabelValues("query").Observe(time.Since(start).Seconds())
	return rs, err
}

func (s *Store) Exec(ctx context.Context, d database.Durability, query string, args ...any) (database.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureOpenLocked(ctx); err != nil {
		return database.Result{}, err
	}

	start := time.Now()
	res, err := s.conn.ExecContext(ctx, query, args...)
	metrics.StoreQuerySeconds.WithLabelValues("exec").Observe(time.Since(start).Seconds())
	if err != nil {
		return database.Result{}, errors.Wrap(err, "exec")
	}
	s.dirty = true

	out := toResult(res)
	return out, s.persistLocked(ctx, d)
}

func (s *Store) Tx(ctx context.Context, d database.Durability, fn func(tx database.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureOpenLocked(ctx); err != nil {
		return err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	if err := fn(txAdapter{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	s.dirty = true

	return s.persistLocked(ctx, d)
}

// Flush writes the database file now, whatever the debounce state.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	return s.flushLocked(ctx)
}

// FlushIfDirty persists lazy writes the debounce window skipped.
func (s *Store) FlushIfDirty(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil || !s.dirty {
		return false, nil
	}
	return true, s.flushLocked(ctx)
}

// Reset discards the in-memory database without flushing. The next call
// reloads from disk.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

// Close flushes pending writes and releases the handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.conn != nil && s.dirty {
		err = s.flushLocked(context.Background())
	}
	s.closeLocked()
	return err
}

func (s *Store) closeLocked() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	s.conn = nil
	s.db = nil
	s.dirty = false
}

func (s *Store) ensureOpenLocked(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}

	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return errors.Wrap(err, "open in-memory database")
	}
	// One connection: every :memory: connection is a separate database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return errors.Wrap(err, "acquire connection")
	}

	loaded, err := s.loadFile(ctx, conn)
	if err != nil {
		_ = conn.Close()
		_ = db.Close()
		return err
	}

	if _, err := s.migrator.Run(ctx, conn); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return errors.Wrap(err, "migrate")
	}

	s.db = db
	s.conn = conn
	s.dirty = true
	s.opens++

	s.logger.Infow("[Store] opened",
		"path", s.path,
		"from_file", loaded,
		"opens", s.opens,
	)

	return s.persistLocked(ctx, database.Lazy)
}

// loadFile copies the on-disk database into conn with the online backup API.
func (s *Store) loadFile(ctx context.Context, conn *sql.Conn) (bool, error) {
	info, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		s.logger.Infow("[Store] no database file, starting empty", "path", s.path)
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "stat %s", s.path)
	}
	if info.IsDir() {
		return false, errors.Newf("%s is a directory", s.path)
	}

	src, err := sql.Open(driverName, "file:"+s.path+"?mode=ro")
	if err != nil {
		return false, errors.Wrapf(err, "open %s", s.path)
	}
	defer src.Close()

	srcConn, err := src.Conn(ctx)
	if err != nil {
		return false, errors.Wrapf(err, "open %s", s.path)
	}
	defer srcConn.Close()

	err = conn.Raw(func(dc any) error {
		dst, ok := dc.(*sqlite3.SQLiteConn)
		if !ok {
			return errors.Newf("unexpected driver connection %T", dc)
		}
		return srcConn.Raw(func(sc any) error {
			from, ok := sc.(*sqlite3.SQLiteConn)
			if !ok {
				return errors.Newf("unexpected driver connection %T", sc)
			}
			return backup(dst, from)
		})
	})
	if err != nil {
		return false, errors.Wrapf(err, "load %s", s.path)
	}

	if err := quickCheck(ctx, conn); err != nil {
		return false, errors.Wrapf(err, "load %s", s.path)
	}

	s.logger.Infow("[Store] loaded database file",
		"path", s.path,
		"size", humanize.Bytes(uint64(info.Size())),
	)
	return true, nil
}

func backup(dst, src *sqlite3.SQLiteConn) error {
	b, err := dst.Backup("main", src, "main")
	if err != nil {
		return err
	}
	done, err := b.Step(-1)
	if err != nil {
		_ = b.Finish()
		return err
	}
	if !done {
		_ = b.Finish()
		return errors.New("backup did not complete")
	}
	return b.Finish()
}

func quickCheck(ctx context.Context, conn *sql.Conn) error {
	var res string
	if err := conn.QueryRowContext(ctx, `PRAGMA quick_check`).Scan(&res); err != nil {
		return errors.Wrap(err, "quick_check")
	}
	if res != "ok" {
		return errors.Wrapf(ErrCorrupt, "%s", res)
	}
	return nil
}

func (s *Store) persistLocked(ctx context.Context, d database.Durability) error {
	if d == database.Durable {
		return s.flushLocked(ctx)
	}

	if !s.lastFlush.IsZero() && s.now().Sub(s.lastFlush) < s.flushInterval {
		metrics.StoreFlushSkippedTotal.Inc()
		return nil
	}
	if err := s.flushLocked(ctx); err != nil {
		// The write itself succeeded; the store stays dirty for the next flush.
		s.logger.Warnw("[Store] lazy flush failed", "path", s.path, "error", err)
	}
	return nil
}

// flushLocked rewrites the file copy-on-write: VACUUM INTO a sibling temp
// file, fsync, then rename over the canonical path.
func (s *Store) flushLocked(ctx context.Context) error {
	start := time.Now()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		metrics.StoreFlushesTotal.WithLabelValues("error").Inc()
		return errors.Wrapf(err, "create %s", dir)
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%d.tmp", filepath.Base(s.path), time.Now().UnixNano()))
	if _, err := s.conn.ExecContext(ctx, `VACUUM INTO ?`, tmp); err != nil {
		_ = os.Remove(tmp)
		metrics.StoreFlushesTotal.WithLabelValues("error").Inc()
		return errors.Wrap(err, "serialise database")
	}

	size, err := syncFile(tmp)
	if err != nil {
		_ = os.Remove(tmp)
		metrics.StoreFlushesTotal.WithLabelValues("error").Inc()
		return err
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		metrics.StoreFlushesTotal.WithLabelValues("error").Inc()
		return errors.Wrapf(err, "replace %s", s.path)
	}

	s.dirty = false
	s.lastFlush = s.now()

	elapsed := time.Since(start)
	metrics.StoreFlushesTotal.WithLabelValues("ok").Inc()
	metrics.StoreFlushSeconds.Observe(elapsed.Seconds())
	metrics.StoreFileBytes.Set(float64(size))
	s.logger.Debugw("[Store] flushed",
		"path", s.path,
		"size", humanize.Bytes(uint64(size)),
		"took", elapsed,
	)
	return nil
}

func syncFile(path string) (int64, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return 0, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	if err := f.Sync(); err != nil {
		return 0, errors.Wrapf(err, "sync %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		return 0, errors.Wrapf(err, "stat %s", path)
	}
	return info.Size(), nil
}

func toResult(res sql.Result) database.Result {
	var out database.Result
	if res == nil {
		return out
	}
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	return out
}

type txAdapter struct {
	tx *sql.Tx
}

func (t txAdapter) Query(ctx context.Context, query string, args ...any) (*database.ResultSet, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	return database.Materialize(rows)
}

func (t txAdapter) Exec(ctx context.Context, query string, args ...any) (database.Result, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return database.Result{}, errors.Wrap(err, "exec")
	}
	return toResult(res), nil
}
