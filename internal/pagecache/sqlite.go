// Package pagecache persists fetched page bodies so repeated runs do not
// re-hit the origin server.
package pagecache

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Cache is a SQLite-backed page cache with per-entry expiry.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
}

// New opens a SQLite database at the given path, configures WAL mode and
// runs the migration. Entries expire ttl after they are stored.
func New(path string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "pagecache: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "pagecache: exec %s", pragma)
		}
	}

	c := &Cache{db: db, ttl: ttl}
	if err := c.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS pages (
	url        TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	fetched_at DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pages_expires_at ON pages(expires_at);
`

func (c *Cache) migrate(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "pagecache: migrate")
}

// Get returns the cached body for url. The second return is false on a miss
// or when the entry has expired.
func (c *Cache) Get(ctx context.Context, url string) ([]byte, bool, error) {
	var body []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT body FROM pages WHERE url = ? AND expires_at > ?`,
		url, time.Now().UTC(),
	).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "pagecache: get %s", url)
	}
	return body, true, nil
}

// Put stores the body for url, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, url string, body []byte) error {
	now := time.Now().UTC()
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO pages (url, body, fetched_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET body = excluded.body,
			fetched_at = excluded.fetched_at, expires_at = excluded.expires_at`,
		url, body, now, now.Add(c.ttl),
	)
	return eris.Wrapf(err, "pagecache: put %s", url)
}

// DeleteExpired removes entries past their expiry and reports how many.
func (c *Cache) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM pages WHERE expires_at <= ?`, time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "pagecache: delete expired")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "pagecache: rows affected")
	}
	return n, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}
