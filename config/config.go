package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO配置，songs存储桶存放音频和封面
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool
	MinioPublicURL string // 对外解析歌曲/封面地址用的基础URL

	// JWT配置
	JWTSecret string

	// Stripe配置
	StripeSecretKey string

	// SiteURL is the public base URL of the web app, used to build
	// checkout success/cancel URLs and portal return URLs.
	SiteURL string

	// IngestDir is watched for new audio files to import into the library.
	IngestDir string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// Attempt to load .env file. godotenv.Load() will not override existing env vars.
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // For password, better not to have a hardcoded default
		DBName:     getEnv("DB_NAME", "echofm"),

		// Redis配置，使用默认值
		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""), // 默认无密码
		RedisDB:       getEnvInt("REDIS_DB", 0),     // 默认使用0号数据库

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "songs"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioPublicURL: getEnv("MINIO_PUBLIC_URL", "http://127.0.0.1:9000"),

		JWTSecret: getEnv("JWT_SECRET", "echofm-dev-secret"),

		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),

		SiteURL: getEnv("SITE_URL", "http://localhost:3000/"),

		IngestDir: getEnv("INGEST_DIR", "ingest"),
	}
}

// GetURL returns the site base URL with a guaranteed trailing slash,
// so callers can append paths like "account" directly.
func (c *Config) GetURL() string {
	if strings.HasSuffix(c.SiteURL, "/") {
		return c.SiteURL
	}
	return c.SiteURL + "/"
}
