package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"EchoFM/config"
	"EchoFM/core/ingest"
	"EchoFM/db"
	"EchoFM/repository"
	"EchoFM/storage"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "启动曲库导入监听器",
	Long:  `监听本地导入目录，新增的音频文件会自动上传到MinIO并写入歌曲库。`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.DB.Close()

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to initialize MinIO: %v", err)
		}

		songRepo := repository.NewMySQLSongRepository(db.DB)
		watcher, err := ingest.NewWatcher(cfg, songRepo)
		if err != nil {
			log.Fatalf("Failed to create ingest watcher: %v", err)
		}

		if err := watcher.Start(); err != nil {
			log.Fatalf("Failed to start ingest watcher: %v", err)
		}
		fmt.Printf("Watching %s for new audio files...\n", cfg.IngestDir)

		// 等待中断信号
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		watcher.Stop()
		fmt.Println("Ingest watcher stopped.")
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
