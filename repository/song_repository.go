package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"EchoFM/model"

	"github.com/go-sql-driver/mysql"
)

// SongRepository defines the interface for song catalog operations.
type SongRepository interface {
	CreateSong(song *model.Song) (int64, error)
	GetSongByID(id int64) (*model.Song, error)
	GetAllSongs() ([]*model.Song, error)
	SearchSongsByTitle(title string) ([]*model.Song, error)
	GetSongBySongPath(songPath string) (*model.Song, error)
}

// mysqlSongRepository implements SongRepository for MySQL.
type mysqlSongRepository struct {
	db *sql.DB
}

// NewMySQLSongRepository creates a new instance of mysqlSongRepository.
func NewMySQLSongRepository(db *sql.DB) SongRepository {
	return &mysqlSongRepository{db: db}
}

// CreateSong adds a new song to the catalog.
func (r *mysqlSongRepository) CreateSong(song *model.Song) (int64, error) {
	query := `INSERT INTO songs (title, author, song_path, cover_path, duration)
	           VALUES (?, ?, ?, ?, ?)`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateSong: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(song.Title, song.Author, song.SongPath, song.CoverPath, song.Duration)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return 0, ErrDuplicateSong
		}
		return 0, fmt.Errorf("failed to execute CreateSong: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateSong: %w", err)
	}
	return id, nil
}

// GetSongByID retrieves a song by its ID.
func (r *mysqlSongRepository) GetSongByID(id int64) (*model.Song, error) {
	query := `SELECT id, title, author, song_path, COALESCE(cover_path, ''), COALESCE(duration, 0), created_at, updated_at
	           FROM songs WHERE id = ?`
	row := r.db.QueryRow(query, id)

	song := &model.Song{}
	err := row.Scan(&song.ID, &song.Title, &song.Author, &song.SongPath, &song.CoverPath, &song.Duration, &song.CreatedAt, &song.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Song not found
		}
		return nil, fmt.Errorf("failed to scan song by ID %d: %w", id, err)
	}
	return song, nil
}

// GetAllSongs retrieves the full catalog, newest first.
func (r *mysqlSongRepository) GetAllSongs() ([]*model.Song, error) {
	query := `SELECT id, title, author, song_path, COALESCE(cover_path, ''), COALESCE(duration, 0), created_at, updated_at
	           FROM songs ORDER BY created_at DESC`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	return scanSongs(rows)
}

// SearchSongsByTitle retrieves songs whose title matches the query, newest first.
func (r *mysqlSongRepository) SearchSongsByTitle(title string) ([]*model.Song, error) {
	query := `SELECT id, title, author, song_path, COALESCE(cover_path, ''), COALESCE(duration, 0), created_at, updated_at
	           FROM songs WHERE title LIKE ? ORDER BY created_at DESC`
	rows, err := r.db.Query(query, "%"+title+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search songs by title %q: %w", title, err)
	}
	defer rows.Close()

	return scanSongs(rows)
}

// GetSongBySongPath retrieves a song by its storage path to check for existence.
func (r *mysqlSongRepository) GetSongBySongPath(songPath string) (*model.Song, error) {
	query := `SELECT id, title, author, song_path, COALESCE(cover_path, ''), COALESCE(duration, 0), created_at, updated_at
	           FROM songs WHERE song_path = ?`
	row := r.db.QueryRow(query, songPath)

	song := &model.Song{}
	err := row.Scan(&song.ID, &song.Title, &song.Author, &song.SongPath, &song.CoverPath, &song.Duration, &song.CreatedAt, &song.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Song not found
		}
		return nil, fmt.Errorf("failed to scan song by path %s: %w", songPath, err)
	}
	return song, nil
}

func scanSongs(rows *sql.Rows) ([]*model.Song, error) {
	songs := make([]*model.Song, 0)
	for rows.Next() {
		song := &model.Song{}
		err := rows.Scan(&song.ID, &song.Title, &song.Author, &song.SongPath, &song.CoverPath, &song.Duration, &song.CreatedAt, &song.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song row: %w", err)
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during song rows iteration: %w", err)
	}

	return songs, nil
}
