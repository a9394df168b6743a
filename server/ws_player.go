package server

import (
	"net/http"
	"time"

	"EchoFM/core/auth"
	"EchoFM/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 跨域由统一的CORS中间件管理，这里直接放行
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

// WSPlayerHandler upgrades the connection and streams player-state
// snapshots to the client. Browsers cannot set an Authorization header on
// a websocket handshake, so the token rides in the query string.
func (h *APIHandler) WSPlayerHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token is required", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ParseToken(token)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}
	userID := claims.UserID

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("[WS] 升级WebSocket连接失败", logger.ErrorField(err))
		return
	}

	updates := h.hub.Subscribe(userID)

	// 所有退出路径都在这里收尾。写失败时读端可能还活着，
	// 不能指望读循环来释放订阅
	defer func() {
		h.hub.Unsubscribe(userID, updates)
		conn.Close()
	}()

	logger.Info("[WS] 播放器连接建立", logger.Int64("userId", userID))

	// 连接后先推一次当前状态，客户端不用单独再拉
	if state, err := h.selector.State(r.Context(), userID); err == nil {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(state); err != nil {
			return
		}
	}

	// 读循环只用于感知客户端断开
	readClosed := make(chan struct{})
	go func() {
		defer close(readClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-readClosed:
			return
		case state, ok := <-updates:
			if !ok {
				// 订阅已被外部取消
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(state); err != nil {
				logger.Warn("[WS] 推送播放状态失败",
					logger.Int64("userId", userID),
					logger.ErrorField(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
