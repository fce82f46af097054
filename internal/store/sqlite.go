package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements FavoriteStore on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
	// maxFavorites caps the table like MemoryStore; <= 0 is unlimited.
	maxFavorites int
}

// NewSQLiteStore opens (or creates) the database at path and applies the schema.
func NewSQLiteStore(path string, maxFavorites int, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open favorites db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil && logger != nil {
		logger.Warn("could not set WAL mode", zap.Error(err))
	}

	schema := `CREATE TABLE IF NOT EXISTS favorites (
        id TEXT PRIMARY KEY,
        place_name TEXT NOT NULL,
        place_description TEXT NOT NULL,
        created_at TEXT NOT NULL
    );`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create favorites schema: %w", err)
	}
	return &SQLiteStore{db: db, maxFavorites: maxFavorites}, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Favorite, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, place_name, place_description, created_at FROM favorites ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Favorite, 0)
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Favorite, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, place_name, place_description, created_at FROM favorites WHERE id = ?`, id)
	f, err := scanFavorite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Favorite{}, ErrNotFound
	}
	return f, err
}

func (s *SQLiteStore) Create(ctx context.Context, f Favorite) (Favorite, error) {
	f = NewFavorite(f.PlaceName, f.PlaceDescription)
	f.ID = uuid.NewString()
	f.CreatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Favorite{}, fmt.Errorf("begin insert favorite: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO favorites(id, place_name, place_description, created_at) VALUES(?,?,?,?)`,
		f.ID, f.PlaceName, f.PlaceDescription, f.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Favorite{}, fmt.Errorf("insert favorite: %w", err)
	}

	if s.maxFavorites > 0 {
		// Oldest rows go first, same as MemoryStore.
		_, err = tx.ExecContext(ctx,
			`DELETE FROM favorites WHERE rowid NOT IN (SELECT rowid FROM favorites ORDER BY rowid DESC LIMIT ?)`,
			s.maxFavorites,
		)
		if err != nil {
			return Favorite{}, fmt.Errorf("evict favorites: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Favorite{}, fmt.Errorf("commit favorite: %w", err)
	}
	return f, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFavorite(row scanner) (Favorite, error) {
	var (
		f       Favorite
		created string
	)
	if err := row.Scan(&f.ID, &f.PlaceName, &f.PlaceDescription, &created); err != nil {
		return Favorite{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Favorite{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	f.CreatedAt = t
	return f, nil
}
