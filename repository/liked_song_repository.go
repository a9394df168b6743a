package repository

import (
	"context"
	"database/sql"
	"fmt"

	"EchoFM/model"
)

// LikedSongRepository defines the interface for the like join table.
// 唯一性约束由 (user_id, song_id) 复合主键保证。
type LikedSongRepository interface {
	// IsLiked does a point lookup; a missing row means false.
	IsLiked(ctx context.Context, userID, songID int64) (bool, error)
	// Like inserts the join record. Inserting an already liked pair is a no-op.
	Like(ctx context.Context, userID, songID int64) error
	// Unlike deletes the join record. Deleting a missing pair is a no-op.
	Unlike(ctx context.Context, userID, songID int64) error
	// GetLikedSongs returns the user's liked songs, most recently liked first.
	GetLikedSongs(ctx context.Context, userID int64) ([]*model.Song, error)
}

// mysqlLikedSongRepository implements LikedSongRepository for MySQL.
type mysqlLikedSongRepository struct {
	db *sql.DB
}

// NewMySQLLikedSongRepository creates a new mysqlLikedSongRepository.
func NewMySQLLikedSongRepository(db *sql.DB) LikedSongRepository {
	return &mysqlLikedSongRepository{db: db}
}

// IsLiked reports whether the (user, song) join record exists.
func (r *mysqlLikedSongRepository) IsLiked(ctx context.Context, userID, songID int64) (bool, error) {
	query := "SELECT 1 FROM liked_songs WHERE user_id = ? AND song_id = ?"
	var one int
	err := r.db.QueryRowContext(ctx, query, userID, songID).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to check liked state for user %d song %d: %w", userID, songID, err)
	}
	return true, nil
}

// Like inserts the join record for (user, song).
func (r *mysqlLikedSongRepository) Like(ctx context.Context, userID, songID int64) error {
	// INSERT IGNORE 保证重复点赞不报错也不产生第二条记录
	query := "INSERT IGNORE INTO liked_songs (user_id, song_id) VALUES (?, ?)"
	_, err := r.db.ExecContext(ctx, query, userID, songID)
	if err != nil {
		return fmt.Errorf("failed to like song %d for user %d: %w", songID, userID, err)
	}
	return nil
}

// Unlike deletes the join record for (user, song).
func (r *mysqlLikedSongRepository) Unlike(ctx context.Context, userID, songID int64) error {
	query := "DELETE FROM liked_songs WHERE user_id = ? AND song_id = ?"
	_, err := r.db.ExecContext(ctx, query, userID, songID)
	if err != nil {
		return fmt.Errorf("failed to unlike song %d for user %d: %w", songID, userID, err)
	}
	return nil
}

// GetLikedSongs returns the user's liked songs joined with catalog data.
func (r *mysqlLikedSongRepository) GetLikedSongs(ctx context.Context, userID int64) ([]*model.Song, error) {
	query := `SELECT s.id, s.title, s.author, s.song_path, COALESCE(s.cover_path, ''), COALESCE(s.duration, 0), s.created_at, s.updated_at
	           FROM liked_songs ls
	           JOIN songs s ON s.id = ls.song_id
	           WHERE ls.user_id = ?
	           ORDER BY ls.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query liked songs for user %d: %w", userID, err)
	}
	defer rows.Close()

	return scanSongs(rows)
}
