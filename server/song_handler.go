package server

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"EchoFM/logger"
	"EchoFM/model"
	"EchoFM/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// SongResponse 歌曲响应，带上可直接播放的对象存储URL
type SongResponse struct {
	*model.Song
	SongURL  string `json:"songUrl"`
	CoverURL string `json:"coverUrl,omitempty"`
}

func (h *APIHandler) toSongResponse(song *model.Song) *SongResponse {
	return &SongResponse{
		Song:     song,
		SongURL:  storage.PublicURL(h.cfg, song.SongPath),
		CoverURL: storage.PublicURL(h.cfg, song.CoverPath),
	}
}

func (h *APIHandler) toSongResponses(songs []*model.Song) []*SongResponse {
	out := make([]*SongResponse, 0, len(songs))
	for _, s := range songs {
		out = append(out, h.toSongResponse(s))
	}
	return out
}

// ListSongsHandler returns the catalog, newest first. ?title= filters by
// title substring. Browsing is public; playback is gated elsewhere.
func (h *APIHandler) ListSongsHandler(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))

	var songs []*model.Song
	var err error
	if title != "" {
		songs, err = h.songRepo.SearchSongsByTitle(title)
	} else {
		songs, err = h.songRepo.GetAllSongs()
	}
	if err != nil {
		logger.Error("[Songs] 查询歌曲列表失败", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, h.toSongResponses(songs))
}

// GetSongHandler returns a single song by id.
func (h *APIHandler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid song ID", http.StatusBadRequest)
		return
	}

	song, err := h.songRepo.GetSongByID(id)
	if err != nil {
		logger.Error("[Songs] 查询歌曲失败", logger.Int64("songId", id), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if song == nil {
		http.Error(w, "Song not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, h.toSongResponse(song))
}

// LikedSongsHandler returns the caller's liked songs, most recently liked
// first. Requires a signed-in user.
func (h *APIHandler) LikedSongsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	songs, err := h.likes.LikedSongs(r.Context(), userID)
	if err != nil {
		logger.Error("[Songs] 查询收藏列表失败",
			logger.Int64("userId", userID),
			logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, h.toSongResponses(songs))
}

// UploadSongHandler ingests a song from a multipart form: the audio file
// plus title/author fields, with an optional cover image.
func (h *APIHandler) UploadSongHandler(w http.ResponseWriter, r *http.Request) {
	// 限制上传体积 100MB
	if err := r.ParseMultipartForm(100 << 20); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	author := strings.TrimSpace(r.FormValue("author"))
	if title == "" || author == "" {
		http.Error(w, "Title and author are required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("song")
	if err != nil {
		http.Error(w, "Song file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	objectPath := "audio/" + uuid.NewString() + ext
	if err := storage.UploadObject(r.Context(), objectPath, storage.ContentTypeFor(objectPath), file, header.Size); err != nil {
		logger.Error("[Upload] 上传音频失败", logger.ErrorField(err))
		http.Error(w, "Failed to store song file", http.StatusInternalServerError)
		return
	}

	coverPath := ""
	if cover, coverHeader, err := r.FormFile("cover"); err == nil {
		defer cover.Close()
		coverExt := strings.ToLower(filepath.Ext(coverHeader.Filename))
		coverPath = "covers/" + uuid.NewString() + coverExt
		if err := storage.UploadObject(r.Context(), coverPath, storage.ContentTypeFor(coverPath), cover, coverHeader.Size); err != nil {
			logger.Warn("[Upload] 上传封面失败，跳过封面", logger.ErrorField(err))
			coverPath = ""
		}
	}

	song := &model.Song{
		Title:     title,
		Author:    author,
		SongPath:  objectPath,
		CoverPath: coverPath,
	}
	songID, err := h.songRepo.CreateSong(song)
	if err != nil {
		// 入库失败时清掉已上传的对象，避免留下孤儿文件
		_ = storage.RemoveObject(r.Context(), objectPath)
		if coverPath != "" {
			_ = storage.RemoveObject(r.Context(), coverPath)
		}
		logger.Error("[Upload] 歌曲入库失败", logger.ErrorField(err))
		http.Error(w, "Failed to create song", http.StatusInternalServerError)
		return
	}
	song.ID = songID

	logger.Info("[Upload] 歌曲上传成功",
		logger.Int64("songId", songID),
		logger.String("title", title))

	writeJSON(w, http.StatusOK, h.toSongResponse(song))
}
