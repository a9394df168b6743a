package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"EchoFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkoutRequest(t *testing.T, body string, userID int64) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/api/create-checkout-session", strings.NewReader(body))
	return asUser(r, userID)
}

func TestCreateCheckoutSessionHandler(t *testing.T) {
	t.Run("anonymous caller is told to sign in", func(t *testing.T) {
		env := newTestEnv()

		w := record(env.handler.CreateCheckoutSessionHandler, checkoutRequest(t, `{"price":"price_month"}`, 0))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "sign_in", resp["action"])
		assert.Zero(t, env.provider.sessionCalls)
	})

	t.Run("signed in caller gets a session id", func(t *testing.T) {
		env := newTestEnv()

		w := record(env.handler.CreateCheckoutSessionHandler, checkoutRequest(t, `{"price":"price_month"}`, 1))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "cs_test", resp["sessionId"])
	})

	t.Run("already subscribed gets a message, not a session", func(t *testing.T) {
		env := newTestEnv()

		// 用户2已订阅
		w := record(env.handler.CreateCheckoutSessionHandler, checkoutRequest(t, `{"price":"price_month"}`, 2))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp["message"])
		assert.Empty(t, resp["sessionId"])
		assert.Zero(t, env.provider.sessionCalls)
	})

	t.Run("unknown price is a bad request", func(t *testing.T) {
		env := newTestEnv()
		w := record(env.handler.CreateCheckoutSessionHandler, checkoutRequest(t, `{"price":"price_nope"}`, 1))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("provider failure yields a bare internal error", func(t *testing.T) {
		env := newTestEnv()
		env.provider.sessionErr = errors.New("stripe exploded: secret sk_live_123")

		w := record(env.handler.CreateCheckoutSessionHandler, checkoutRequest(t, `{"price":"price_month"}`, 1))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		// 支付侧的错误细节不能泄露给客户端
		assert.Equal(t, "Internal Error", strings.TrimSpace(w.Body.String()))
	})

	t.Run("missing price is a bad request", func(t *testing.T) {
		env := newTestEnv()
		w := record(env.handler.CreateCheckoutSessionHandler, checkoutRequest(t, `{}`, 1))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCreatePortalLinkHandler(t *testing.T) {
	t.Run("anonymous caller is told to sign in", func(t *testing.T) {
		env := newTestEnv()
		r := asUser(httptest.NewRequest(http.MethodPost, "/api/create-portal-link", nil), 0)

		w := record(env.handler.CreatePortalLinkHandler, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("signed in caller gets the portal url", func(t *testing.T) {
		env := newTestEnv()
		r := asUser(httptest.NewRequest(http.MethodPost, "/api/create-portal-link", nil), 2)

		w := record(env.handler.CreatePortalLinkHandler, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "https://billing.example.com/portal", resp["url"])
	})
}

func TestProductsHandler(t *testing.T) {
	env := newTestEnv()
	env.billing.products = []*model.Product{
		{
			ID:   "prod_1",
			Name: "EchoFM Premium",
			Prices: []model.Price{
				{ID: "price_month", Currency: "usd", UnitAmount: 999, Interval: "month", IntervalCount: 1},
			},
		},
	}

	w := record(env.handler.ProductsHandler, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Prices []struct {
			ID      string `json:"id"`
			Display string `json:"display"`
		} `json:"prices"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	require.Len(t, resp[0].Prices, 1)
	assert.Equal(t, "$9.99", resp[0].Prices[0].Display)
}

func TestSubscriptionHandler(t *testing.T) {
	env := newTestEnv()

	t.Run("subscriber sees their subscription", func(t *testing.T) {
		r := asUser(httptest.NewRequest(http.MethodGet, "/api/subscription", nil), 2)
		w := record(env.handler.SubscriptionHandler, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Subscription *model.Subscription `json:"subscription"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Subscription)
		assert.Equal(t, "sub_2", resp.Subscription.ID)
	})

	t.Run("non subscriber sees null", func(t *testing.T) {
		r := asUser(httptest.NewRequest(http.MethodGet, "/api/subscription", nil), 1)
		w := record(env.handler.SubscriptionHandler, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Subscription *model.Subscription `json:"subscription"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Nil(t, resp.Subscription)
	})
}
