// Package nvs emulates a namespaced non-volatile key/value partition on top of
// SQLite, for running the controller on a host.
package nvs

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"libdb.so/presetglow/settings"

	_ "modernc.org/sqlite" // register sqlite driver
)

// MaxKeyLen mirrors the key length limit of the ESP-IDF NVS.
const MaxKeyLen = 15

// Partition is one namespace of the key/value store.
type Partition struct {
	db        *sql.DB
	namespace string
}

var _ settings.KV = (*Partition)(nil)

// Open opens or creates the database at path and returns the given
// namespace of it.
func Open(ctx context.Context, path, namespace string) (*Partition, error) {
	if namespace == "" {
		return nil, errors.New("namespace is empty")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite db")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping sqlite db")
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to set wal mode")
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS blobs (
  namespace TEXT NOT NULL,
  key TEXT NOT NULL,
  value BLOB NOT NULL,
  PRIMARY KEY (namespace, key)
);`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to migrate sqlite db")
	}

	return &Partition{db: db, namespace: namespace}, nil
}

// Close closes the underlying database.
func (p *Partition) Close() error {
	return p.db.Close()
}

// Namespace returns the namespace of the partition.
func (p *Partition) Namespace() string {
	return p.namespace
}

// Blob implements settings.KV.
func (p *Partition) Blob(key string, buf []byte) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}

	var value []byte
	err := p.db.QueryRow(
		`SELECT value FROM blobs WHERE namespace = ? AND key = ?`,
		p.namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to read %s/%s", p.namespace, key)
	}

	if len(value) > len(buf) {
		return nil, true, errors.Wrapf(settings.ErrBufferTooSmall,
			"%s/%s holds %d bytes, buffer has %d", p.namespace, key, len(value), len(buf))
	}
	return buf[:copy(buf, value)], true, nil
}

// SetBlob implements settings.KV.
func (p *Partition) SetBlob(key string, data []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}

	_, err := p.db.Exec(
		`INSERT INTO blobs (namespace, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value`,
		p.namespace, key, data,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to write %s/%s", p.namespace, key)
	}
	return nil
}

// Erase removes key from the partition. Erasing an absent key is not an
// error.
func (p *Partition) Erase(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	_, err := p.db.Exec(
		`DELETE FROM blobs WHERE namespace = ? AND key = ?`,
		p.namespace, key,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to erase %s/%s", p.namespace, key)
	}
	return nil
}

func checkKey(key string) error {
	if key == "" {
		return errors.New("key is empty")
	}
	if len(key) > MaxKeyLen {
		return errors.Errorf("key %q longer than %d bytes", key, MaxKeyLen)
	}
	return nil
}
