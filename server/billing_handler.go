package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"EchoFM/billing"
	"EchoFM/logger"
)

// CreateCheckoutSessionHandler starts a subscription checkout for the
// given price and hands back the provider session id for the client SDK
// redirect. Already subscribed callers get a friendly message instead of
// a second checkout.
func (h *APIHandler) CreateCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PriceID  string            `json:"price"`
		Quantity int64             `json:"quantity"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PriceID == "" {
		http.Error(w, "price is required", http.StatusBadRequest)
		return
	}

	ent, err := h.entitlements.Resolve(r.Context(), UserIDOrZero(r.Context()))
	if err != nil {
		logger.Error("[Billing] 解析用户会话失败", logger.ErrorField(err))
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}

	sessionID, err := h.checkout.Start(r.Context(), ent, req.PriceID, req.Quantity, req.Metadata)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrSignInRequired):
			writeJSON(w, http.StatusUnauthorized, map[string]string{"action": "sign_in"})
		case errors.Is(err, billing.ErrAlreadySubscribed):
			// 已订阅不算错误，告知用户即可
			writeJSON(w, http.StatusOK, map[string]string{"message": "You are already subscribed."})
		case errors.Is(err, billing.ErrCheckoutInFlight):
			http.Error(w, "Checkout already in progress", http.StatusConflict)
		case errors.Is(err, billing.ErrUnknownPrice):
			http.Error(w, "Unknown price", http.StatusBadRequest)
		default:
			logger.Error("[Billing] 创建结账会话失败", logger.ErrorField(err))
			// 不向客户端泄露支付侧错误细节
			http.Error(w, "Internal Error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"sessionId": sessionID})
}

// CreatePortalLinkHandler mints a customer-portal URL where the caller
// manages their subscription.
func (h *APIHandler) CreatePortalLinkHandler(w http.ResponseWriter, r *http.Request) {
	ent, err := h.entitlements.Resolve(r.Context(), UserIDOrZero(r.Context()))
	if err != nil {
		logger.Error("[Billing] 解析用户会话失败", logger.ErrorField(err))
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}

	url, err := h.checkout.PortalLink(r.Context(), ent)
	if err != nil {
		if errors.Is(err, billing.ErrSignInRequired) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"action": "sign_in"})
			return
		}
		logger.Error("[Billing] 创建客户门户会话失败", logger.ErrorField(err))
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// ProductsHandler lists the active products with their prices, formatted
// for the pricing page.
func (h *APIHandler) ProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := h.billingRepo.GetActiveProductsWithPrices(r.Context())
	if err != nil {
		logger.Error("[Billing] 查询产品列表失败", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	type priceView struct {
		ID            string `json:"id"`
		Currency      string `json:"currency"`
		UnitAmount    int64  `json:"unitAmount"`
		Interval      string `json:"interval"`
		IntervalCount int    `json:"intervalCount"`
		Display       string `json:"display"`
	}
	type productView struct {
		ID          string      `json:"id"`
		Name        string      `json:"name"`
		Description string      `json:"description,omitempty"`
		Image       string      `json:"image,omitempty"`
		Prices      []priceView `json:"prices"`
	}

	out := make([]productView, 0, len(products))
	for _, p := range products {
		pv := productView{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Image:       p.Image,
			Prices:      make([]priceView, 0, len(p.Prices)),
		}
		for _, price := range p.Prices {
			pv.Prices = append(pv.Prices, priceView{
				ID:            price.ID,
				Currency:      price.Currency,
				UnitAmount:    price.UnitAmount,
				Interval:      price.Interval,
				IntervalCount: price.IntervalCount,
				Display:       price.FormatAmount(),
			})
		}
		out = append(out, pv)
	}

	writeJSON(w, http.StatusOK, out)
}

// SubscriptionHandler returns the caller's active subscription, or null.
func (h *APIHandler) SubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sub, err := h.billingRepo.GetActiveSubscription(r.Context(), userID)
	if err != nil {
		logger.Error("[Billing] 查询订阅失败",
			logger.Int64("userId", userID),
			logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"subscription": sub})
}
