package model

import "time"

// Song represents a track in the streaming catalog.
// Songs are immutable from the client's point of view; rows are written
// by the upload endpoint and the library ingest watcher only.
type Song struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	SongPath  string    `json:"-"`         // Object path inside the songs bucket, not exposed directly
	CoverPath string    `json:"coverPath"` // Object path of the cover image
	Duration  float32   `json:"duration"`  // Duration in seconds
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LikedSong is the join record between a user and a song.
// Existence implies "liked"; at most one row per (user, song) pair.
type LikedSong struct {
	UserID    int64     `json:"userId"`
	SongID    int64     `json:"songId"`
	CreatedAt time.Time `json:"createdAt"`
}
