package steganos

import (
	"crypto/sha1"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrChecksumMismatch is returned by Verify when a decoded image does not
// match what was recorded when it was encoded.
var ErrChecksumMismatch = errors.New("steganos: checksum mismatch")

// Catalog is a sqlite database of every file encoded with it attached.
type Catalog struct {
	db *sql.DB
}

// Entry is a single encoded file.
type Entry struct {
	Title       string
	Image       string
	SHA1        string
	Size        int64
	Dimension   int
	Compression string
	Created     time.Time
}

func NewCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS file (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE, size INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS image (id INTEGER PRIMARY KEY NOT NULL, path TEXT NOT NULL UNIQUE, title TEXT NOT NULL, file_id INTEGER NOT NULL, dimension INTEGER NOT NULL, compression TEXT NOT NULL, created INTEGER NOT NULL, FOREIGN KEY(file_id) REFERENCES file(id))"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

func checksum(b []byte) string {
	return fmt.Sprintf("%X", sha1.Sum(b))
}

func addFile(tx *sql.Tx, sha string, size int64) (int64, error) {
	if _, err := tx.Exec("INSERT OR IGNORE INTO file (sha1, size) VALUES (?, ?)", sha, size); err != nil {
		return 0, err
	}

	var id int64
	if err := tx.QueryRow("SELECT id FROM file WHERE sha1 = ?", sha).Scan(&id); err != nil {
		return 0, err
	}

	return id, nil
}

// Record stores the encoding of b, titled title, to the image at path.
func (c *Catalog) Record(title, path string, b []byte, img *Image) (err error) {
	if path, err = filepath.Abs(path); err != nil {
		return err
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	file, err := addFile(tx, checksum(b), int64(len(b)))
	if err != nil {
		return err
	}

	if _, err = tx.Exec("INSERT OR REPLACE INTO image (path, title, file_id, dimension, compression, created) VALUES (?, ?, ?, ?, ?, ?)", path, title, file, img.Dimensions.Height, img.Metadata.Compression, time.Now().Unix()); err != nil {
		return err
	}

	return tx.Commit()
}

const selectEntry = "SELECT i.title, i.path, f.sha1, f.size, i.dimension, i.compression, i.created FROM image AS i JOIN file AS f ON i.file_id = f.id"

func scanEntry(row interface{ Scan(...interface{}) error }) (*Entry, error) {
	var e Entry
	var created int64
	if err := row.Scan(&e.Title, &e.Image, &e.SHA1, &e.Size, &e.Dimension, &e.Compression, &created); err != nil {
		return nil, err
	}
	e.Created = time.Unix(created, 0)
	return &e, nil
}

// List returns every recorded image ordered by path.
func (c *Catalog) List() ([]*Entry, error) {
	rows, err := c.db.Query(selectEntry + " ORDER BY i.path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// FindByImage returns the entry for the image at path, or nil if there isn't
// one. Paths are compared in absolute form.
func (c *Catalog) FindByImage(path string) (*Entry, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	switch e, err := scanEntry(c.db.QueryRow(selectEntry+" WHERE i.path = ?", path)); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return e, nil
	default:
		return nil, err
	}
}

// Verify decodes the image at path in memory and checks the result against
// the catalog.
func (s *Steganos) Verify(path string) (*Entry, error) {
	if s.catalog == nil {
		return nil, errors.New("steganos: no catalog")
	}

	e, err := s.catalog.FindByImage(path)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("steganos: %s is not in the catalog", path)
	}

	b, _, err := s.load(path)
	if err != nil {
		return nil, err
	}

	if sha := checksum(b); sha != e.SHA1 {
		return e, fmt.Errorf("%w: %s is %s, expected %s", ErrChecksumMismatch, path, sha, e.SHA1)
	}

	return e, nil
}
