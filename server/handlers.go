package server

import (
	"encoding/json"
	"net/http"

	"EchoFM/billing"
	"EchoFM/config"
	"EchoFM/core/entitlement"
	"EchoFM/core/likes"
	"EchoFM/core/player"
	"EchoFM/repository"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	userRepo     repository.UserRepository
	songRepo     repository.SongRepository
	billingRepo  repository.BillingRepository
	likes        *likes.Registry
	selector     player.Selector
	hub          *player.Hub
	entitlements *entitlement.Store
	checkout     *billing.Checkout
	cfg          *config.Config
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(
	userRepo repository.UserRepository,
	songRepo repository.SongRepository,
	billingRepo repository.BillingRepository,
	likeRegistry *likes.Registry,
	selector player.Selector,
	hub *player.Hub,
	entitlements *entitlement.Store,
	checkout *billing.Checkout,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		userRepo:     userRepo,
		songRepo:     songRepo,
		billingRepo:  billingRepo,
		likes:        likeRegistry,
		selector:     selector,
		hub:          hub,
		entitlements: entitlements,
		checkout:     checkout,
		cfg:          cfg,
	}
}

// writeJSON 输出JSON响应
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeGateDecision 把门禁判定映射为HTTP响应
// 未登录 → 401 sign_in；未订阅 → 402 subscribe
func writeGateDecision(w http.ResponseWriter, d entitlement.Decision) {
	switch d {
	case entitlement.SignInRequired:
		writeJSON(w, http.StatusUnauthorized, map[string]string{"action": d.String()})
	case entitlement.SubscribeRequired:
		writeJSON(w, http.StatusPaymentRequired, map[string]string{"action": d.String()})
	}
}
