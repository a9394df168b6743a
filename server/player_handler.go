package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"EchoFM/core/entitlement"
	"EchoFM/core/player"
	"EchoFM/logger"
	"EchoFM/model"
)

// PlayRequest asks to start playback of one song, optionally replacing
// the queue with the surrounding list in one shot.
type PlayRequest struct {
	SongID  int64   `json:"songId"`
	SongIDs []int64 `json:"songIds,omitempty"`
}

// PlayHandler is the gated play entry point. The gate runs before any
// state mutation: anonymous callers are told to sign in, signed-in users
// without a subscription are told to subscribe, and only entitled users
// reach the selector.
func (h *APIHandler) PlayHandler(w http.ResponseWriter, r *http.Request) {
	var req PlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SongID <= 0 {
		http.Error(w, "songId is required", http.StatusBadRequest)
		return
	}

	ent, err := h.entitlements.Resolve(r.Context(), UserIDOrZero(r.Context()))
	if err != nil {
		logger.Error("[Player] 解析用户会话失败", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// 播放是订阅特权，门禁在任何状态变更之前执行
	if d := entitlement.Check(ent); d != entitlement.Allow {
		writeGateDecision(w, d)
		return
	}
	userID := ent.User.ID

	if len(req.SongIDs) > 0 {
		if err := h.selector.SetIDs(r.Context(), userID, req.SongIDs); err != nil {
			logger.Error("[Player] 更新播放队列失败",
				logger.Int64("userId", userID),
				logger.ErrorField(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	if err := h.selector.SetID(r.Context(), userID, req.SongID); err != nil {
		if errors.Is(err, player.ErrNotInQueue) {
			http.Error(w, "Song is not in the queue", http.StatusUnprocessableEntity)
			return
		}
		logger.Error("[Player] 设置当前歌曲失败",
			logger.Int64("userId", userID),
			logger.Int64("songId", req.SongID),
			logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	state, err := h.selector.State(r.Context(), userID)
	if err != nil {
		logger.Error("[Player] 读取播放状态失败", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// 推送给该用户所有已连接的客户端
	h.hub.Publish(userID, *state)

	writeJSON(w, http.StatusOK, state)
}

// PlayerStateHandler returns the caller's current queue and active song.
func (h *APIHandler) PlayerStateHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	state, err := h.selector.State(r.Context(), userID)
	if err != nil {
		logger.Error("[Player] 读取播放状态失败",
			logger.Int64("userId", userID),
			logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// ResetPlayerHandler clears the caller's queue and active song, the state
// a lapsed subscription leaves the player in.
func (h *APIHandler) ResetPlayerHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.selector.Reset(r.Context(), userID); err != nil {
		logger.Error("[Player] 重置播放状态失败",
			logger.Int64("userId", userID),
			logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.hub.Publish(userID, model.PlayerState{})

	writeJSON(w, http.StatusOK, map[string]string{"message": "player reset"})
}
