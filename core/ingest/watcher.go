package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"EchoFM/config"
	"EchoFM/logger"
	"EchoFM/model"
	"EchoFM/repository"
	"EchoFM/storage"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// Watcher 监听本地导入目录，新出现的音频文件上传到MinIO并写入歌曲库。
// 运维向曲库批量投放文件时不需要走上传接口。
type Watcher struct {
	cfg      *config.Config
	songRepo repository.SongRepository
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewWatcher creates an ingest watcher for cfg.IngestDir.
func NewWatcher(cfg *config.Config, songRepo repository.SongRepository) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监听器失败: %w", err)
	}

	return &Watcher{
		cfg:      cfg,
		songRepo: songRepo,
		watcher:  w,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching the ingest directory in a background goroutine.
func (w *Watcher) Start() error {
	if err := os.MkdirAll(w.cfg.IngestDir, 0755); err != nil {
		return fmt.Errorf("创建导入目录失败: %w", err)
	}
	if err := w.watcher.Add(w.cfg.IngestDir); err != nil {
		return fmt.Errorf("监听目录失败: %w", err)
	}

	go w.run()
	logger.Info("[Ingest] 曲库导入监听已启动", logger.String("dir", w.cfg.IngestDir))
	return nil
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
}

func (w *Watcher) run() {
	defer close(w.done)

	// 文件稳定性检查的延迟队列：写入事件后等到文件不再变化才导入
	pendingFiles := make(map[string]time.Time)
	checkTicker := time.NewTicker(500 * time.Millisecond)
	defer checkTicker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 && isAudioFile(event.Name) {
				pendingFiles[event.Name] = time.Now()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("[Ingest] 文件监听错误", logger.ErrorField(err))

		case <-checkTicker.C:
			now := time.Now()
			for path, lastEvent := range pendingFiles {
				if now.Sub(lastEvent) < time.Second {
					continue // 文件可能还在写入
				}
				delete(pendingFiles, path)

				if err := w.importFile(path); err != nil {
					logger.Error("[Ingest] 导入文件失败",
						logger.String("file", path),
						logger.ErrorField(err))
				}
			}
		}
	}
}

// importFile uploads one audio file to the songs bucket and records it in
// the catalog. The local file is removed after a successful import.
func (w *Watcher) importFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("打开文件失败: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("读取文件信息失败: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	objectPath := fmt.Sprintf("audio/%s%s", uuid.NewString(), ext)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := storage.UploadObject(ctx, objectPath, storage.ContentTypeFor(objectPath), f, info.Size()); err != nil {
		return err
	}

	// 文件名约定 "Author - Title.ext"，没有分隔符时整个文件名作为标题
	title := strings.TrimSuffix(filepath.Base(path), ext)
	author := ""
	if parts := strings.SplitN(title, " - ", 2); len(parts) == 2 {
		author = strings.TrimSpace(parts[0])
		title = strings.TrimSpace(parts[1])
	}

	song := &model.Song{
		Title:    title,
		Author:   author,
		SongPath: objectPath,
	}

	id, err := w.songRepo.CreateSong(song)
	if err != nil {
		// 入库失败时清掉已上传的对象，避免存储桶里留孤儿文件
		if rmErr := storage.RemoveObject(ctx, objectPath); rmErr != nil {
			logger.Warn("[Ingest] 清理孤儿对象失败", logger.ErrorField(rmErr))
		}
		return fmt.Errorf("写入歌曲库失败: %w", err)
	}

	if err := os.Remove(path); err != nil {
		logger.Warn("[Ingest] 删除本地文件失败", logger.String("file", path), logger.ErrorField(err))
	}

	logger.Info("[Ingest] 歌曲导入成功",
		logger.Int64("songId", id),
		logger.String("title", title),
		logger.String("object", objectPath))
	return nil
}

func isAudioFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".flac", ".wav", ".m4a", ".ogg":
		return true
	default:
		return false
	}
}
