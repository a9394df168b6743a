package db

import (
	"database/sql"
	"fmt"
	"log"

	"EchoFM/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
// Billing tables (customers/products/prices/subscriptions) are migrated
// separately through GORM, see gorm.go.
func InitDB() error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createSongsTable(); err != nil {
		return err
	}
	if err := createLikedSongsTable(); err != nil {
		return err
	}

	log.Println("Database initialization completed.")
	return nil
}

func createUsersTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(100) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		avatar_url VARCHAR(767),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	log.Println("Users table initialized successfully (or already exists).")
	return nil
}

func createSongsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS songs (
		id INT AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		author VARCHAR(255),
		song_path VARCHAR(767) NOT NULL,
		cover_path VARCHAR(767),
		duration FLOAT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT uq_song_path UNIQUE (song_path)
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create songs table: %w", err)
	}
	log.Println("Songs table initialized successfully (or already exists).")
	return nil
}

func createLikedSongsTable() error {
	// 复合主键保证同一用户对同一首歌至多一条点赞记录
	query := `
	CREATE TABLE IF NOT EXISTS liked_songs (
		user_id INT NOT NULL,
		song_id INT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, song_id),
		CONSTRAINT fk_liked_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT fk_liked_song FOREIGN KEY (song_id) REFERENCES songs(id) ON DELETE CASCADE
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create liked_songs table: %w", err)
	}
	log.Println("Liked songs table initialized successfully (or already exists).")
	return nil
}
