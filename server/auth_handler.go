package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"EchoFM/core/auth"
	"EchoFM/logger"
	"EchoFM/model"
	"EchoFM/repository"
)

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// LoginHandler handles user login requests
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"` // 可以是用户名或邮箱
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("[Login] 解析请求体失败", logger.ErrorField(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username/Email and password are required", http.StatusBadRequest)
		return
	}

	// 查询用户 - 支持用户名或邮箱登录
	var user *model.User
	var err error
	if strings.Contains(req.Username, "@") {
		user, err = h.userRepo.GetUserByEmail(req.Username)
	} else {
		user, err = h.userRepo.GetUserByUsername(req.Username)
	}

	if err != nil {
		logger.Error("[Login] 查询用户失败", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if user == nil {
		logger.Warn("[Login] 用户不存在", logger.String("username", req.Username))
		http.Error(w, "Invalid username/email or password", http.StatusUnauthorized)
		return
	}

	// 验证密码
	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		logger.Warn("[Login] 密码验证失败", logger.String("username", req.Username))
		http.Error(w, "Invalid username/email or password", http.StatusUnauthorized)
		return
	}

	// 生成JWT token
	token, err := auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		logger.Error("[Login] 生成Token失败", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logger.Info("[Login] 登录成功", logger.String("username", user.Username))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// RegisterHandler handles user registration requests
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Validate request
	if req.Username == "" || req.Password == "" || req.Email == "" {
		http.Error(w, "Username, password and email are required", http.StatusBadRequest)
		return
	}

	// Hash password
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Failed to process password", http.StatusInternalServerError)
		return
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
	}

	userID, err := h.userRepo.CreateUser(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			logger.Warn("[Register] 用户名或邮箱已存在",
				logger.String("username", req.Username),
				logger.String("email", req.Email))
			http.Error(w, "Username or email already exists", http.StatusConflict)
			return
		}
		logger.Error("[Register] 创建用户失败", logger.ErrorField(err))
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	// Generate JWT token
	token, err := auth.GenerateToken(userID, user.Username)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":       userID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// MeHandler returns the caller's user record plus their subscription, the
// projection the web app's session hook consumes.
func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ent, err := h.entitlements.Resolve(r.Context(), userID)
	if err != nil {
		logger.Error("[Me] 获取用户信息失败", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !ent.HasUser() {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":         ent.User,
		"subscription": ent.Subscription,
	})
}

// AuthMiddleware is a middleware function that checks for a valid JWT token
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Get the Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		// Check if the header has the correct format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		// Parse and validate the token
		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		// Add user info to the request context
		ctx := context.WithValue(r.Context(), "userID", claims.UserID)
		ctx = context.WithValue(ctx, "username", claims.Username)

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// OptionalAuthMiddleware resolves the session if a token is present but
// lets anonymous requests through. Gated endpoints need "no user" as a
// state they can answer with a sign-in prompt, not a hard rejection.
func (h *APIHandler) OptionalAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			// 带了无效token按匿名处理，由门禁决定如何响应
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), "userID", claims.UserID)
		ctx = context.WithValue(ctx, "username", claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value("userID").(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// UserIDOrZero returns the caller's user ID, or 0 for anonymous requests.
func UserIDOrZero(ctx context.Context) int64 {
	userID, ok := ctx.Value("userID").(int64)
	if !ok {
		return 0
	}
	return userID
}
