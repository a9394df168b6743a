package server

import (
	"errors"
	"net/http"
	"strconv"

	"EchoFM/core/entitlement"
	"EchoFM/core/likes"
	"EchoFM/logger"

	"github.com/gorilla/mux"
)

// LikeStateHandler reports whether the caller has liked the song.
// Anonymous callers always see false.
func (h *APIHandler) LikeStateHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid song ID", http.StatusBadRequest)
		return
	}

	userID := UserIDOrZero(r.Context())
	if userID == 0 {
		writeJSON(w, http.StatusOK, map[string]bool{"liked": false})
		return
	}

	liked, err := h.likes.IsLiked(r.Context(), userID, songID)
	if err != nil {
		logger.Error("[Likes] 查询点赞状态失败",
			logger.Int64("songId", songID),
			logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

// ToggleLikeHandler flips the caller's liked state for the song. Liking
// needs a signed-in user but no subscription; anonymous callers get the
// sign-in prompt.
func (h *APIHandler) ToggleLikeHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid song ID", http.StatusBadRequest)
		return
	}

	ent, err := h.entitlements.Resolve(r.Context(), UserIDOrZero(r.Context()))
	if err != nil {
		logger.Error("[Likes] 解析用户会话失败", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if d := entitlement.CheckAuthOnly(ent); d != entitlement.Allow {
		writeGateDecision(w, d)
		return
	}

	song, err := h.songRepo.GetSongByID(songID)
	if err != nil {
		logger.Error("[Likes] 查询歌曲失败", logger.Int64("songId", songID), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if song == nil {
		http.Error(w, "Song not found", http.StatusNotFound)
		return
	}

	liked, err := h.likes.Toggle(r.Context(), ent.User.ID, songID)
	if err != nil {
		if errors.Is(err, likes.ErrToggleInFlight) {
			// 同一首歌的上一次点赞还在进行中
			http.Error(w, "Toggle already in progress", http.StatusConflict)
			return
		}
		logger.Error("[Likes] 点赞切换失败",
			logger.Int64("userId", ent.User.ID),
			logger.Int64("songId", songID),
			logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}
