package server

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"EchoFM/billing"
	"EchoFM/cache"
	"EchoFM/config"
	"EchoFM/core/auth"
	"EchoFM/core/entitlement"
	"EchoFM/core/likes"
	"EchoFM/core/player"
	"EchoFM/db"
	"EchoFM/logger"
	"EchoFM/repository"
	"EchoFM/storage"

	"github.com/gorilla/mux"
	"github.com/minio/minio-go/v7"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.InfoLevel,
		OutputPath: "logs/echofm.log",
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     30,
		Compress:   true,
	})

	auth.SetJWTSecret(cfg.JWTSecret)

	// 设置服务器超时
	server := &http.Server{
		Addr:         ":8080",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 初始化 MinIO 客户端
	if err := storage.InitMinio(cfg); err != nil {
		log.Fatalf("Failed to initialize MinIO: %v", err)
	}

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.DB.Close()

	// Initialize database schema
	if err := db.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 订阅计费表走 GORM
	if err := db.ConnectGormDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database with GORM: %v", err)
	}
	defer db.CloseGormDB()
	if err := db.MigrateBillingModels(); err != nil {
		log.Fatalf("Failed to migrate billing models: %v", err)
	}

	// Connect to Redis
	if err := cache.ConnectRedis(cfg); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer cache.CloseRedis()
	log.Println("Successfully connected to Redis")

	userRepo := repository.NewMySQLUserRepository(db.DB)
	songRepo := repository.NewMySQLSongRepository(db.DB)
	likedRepo := repository.NewMySQLLikedSongRepository(db.DB)
	billingRepo := repository.NewGormBillingRepository(db.GormDB)

	likeRegistry := likes.NewRegistry(likedRepo)
	selector := player.NewRedisSelector()
	hub := player.NewHub()
	entitlements := entitlement.NewStore(userRepo, billingRepo)
	provider := billing.NewStripeProvider(cfg.StripeSecretKey)
	checkout := billing.NewCheckout(cfg, billingRepo, provider)

	// 初始化处理器
	apiHandler := NewAPIHandler(userRepo, songRepo, billingRepo, likeRegistry, selector, hub, entitlements, checkout, cfg)

	// 使用 gorilla/mux 创建路由器
	router := mux.NewRouter()

	// 添加 CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// 用户认证相关的API端点
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/me", apiHandler.AuthMiddleware(apiHandler.MeHandler)).Methods(http.MethodGet)

	// 歌曲目录，浏览无需登录。注意 /api/songs/liked 要注册在 {id} 之前
	router.HandleFunc("/api/songs/liked", apiHandler.AuthMiddleware(apiHandler.LikedSongsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/songs", apiHandler.ListSongsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}", apiHandler.GetSongHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/upload", apiHandler.AuthMiddleware(apiHandler.UploadSongHandler)).Methods(http.MethodPost)

	// 点赞相关的API端点，匿名访问交给门禁处理
	router.HandleFunc("/api/songs/{id}/like", apiHandler.OptionalAuthMiddleware(apiHandler.LikeStateHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}/like", apiHandler.OptionalAuthMiddleware(apiHandler.ToggleLikeHandler)).Methods(http.MethodPost)

	// 播放器相关的API端点
	router.HandleFunc("/api/player/play", apiHandler.OptionalAuthMiddleware(apiHandler.PlayHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player", apiHandler.AuthMiddleware(apiHandler.PlayerStateHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/player", apiHandler.AuthMiddleware(apiHandler.ResetPlayerHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/ws/player", apiHandler.WSPlayerHandler).Methods(http.MethodGet)

	// 订阅计费相关的API端点
	router.HandleFunc("/api/products", apiHandler.ProductsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/subscription", apiHandler.AuthMiddleware(apiHandler.SubscriptionHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/create-checkout-session", apiHandler.OptionalAuthMiddleware(apiHandler.CreateCheckoutSessionHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/create-portal-link", apiHandler.OptionalAuthMiddleware(apiHandler.CreatePortalLinkHandler)).Methods(http.MethodPost)

	// 添加MinIO文件服务路由（音频与封面）
	router.PathPrefix("/static/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		objectPath := strings.TrimPrefix(r.URL.Path, "/static/")
		client := storage.GetMinioClient()
		if client == nil {
			http.Error(w, "MinIO client not available", http.StatusInternalServerError)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		object, err := client.GetObject(ctx, cfg.MinioBucket, objectPath, minio.GetObjectOptions{})
		if err != nil {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		defer object.Close()

		w.Header().Set("Content-Type", storage.ContentTypeFor(objectPath))
		w.Header().Set("Cache-Control", "public, max-age=31536000") // 缓存一年

		_, err = io.Copy(w, object)
		if err != nil {
			log.Printf("Error serving file from MinIO: %v", err)
		}
	})

	server.Handler = router

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 在goroutine中启动服务器
	go func() {
		log.Println("Server starting on :8080...")
		log.Println("Browse the catalog via GET /api/songs")
		log.Println("Start playback via POST /api/player/play")
		log.Println("Subscribe via POST /api/create-checkout-session")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待中断信号
	<-stop
	log.Println("Shutting down server...")

	// 创建一个5秒超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
