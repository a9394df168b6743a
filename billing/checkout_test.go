package billing

import (
	"context"
	"errors"
	"testing"

	"EchoFM/config"
	"EchoFM/core/entitlement"
	"EchoFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	customerCalls int
	sessionCalls  int
	portalCalls   int

	sessionErr error
	lastParams CheckoutParams

	block   chan struct{} // 非nil时CreateCheckoutSession阻塞
	entered chan struct{}
}

func (f *fakeProvider) CreateCustomer(ctx context.Context, email string, userID int64) (string, error) {
	f.customerCalls++
	return "cus_test", nil
}

func (f *fakeProvider) CreateCheckoutSession(ctx context.Context, customerID string, params CheckoutParams) (string, error) {
	f.sessionCalls++
	f.lastParams = params
	if f.entered != nil {
		close(f.entered)
	}
	if f.block != nil {
		<-f.block
	}
	if f.sessionErr != nil {
		return "", f.sessionErr
	}
	return "cs_test", nil
}

func (f *fakeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	f.portalCalls++
	return "https://billing.example.com/portal", nil
}

type fakeBillingRepo struct {
	customers map[int64]*model.Customer
	prices    map[string]*model.Price

	customerErr error
}

func newFakeBillingRepo() *fakeBillingRepo {
	return &fakeBillingRepo{
		customers: make(map[int64]*model.Customer),
		prices: map[string]*model.Price{
			"price_month": {ID: "price_month", Active: true, Currency: "usd", UnitAmount: 999},
			"price_year":  {ID: "price_year", Active: true, Currency: "usd", UnitAmount: 9999},
			"price_gone":  {ID: "price_gone", Active: false},
		},
	}
}

func (f *fakeBillingRepo) GetCustomerByUserID(ctx context.Context, userID int64) (*model.Customer, error) {
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	return f.customers[userID], nil
}

func (f *fakeBillingRepo) CreateCustomer(ctx context.Context, customer *model.Customer) error {
	f.customers[customer.UserID] = customer
	return nil
}

func (f *fakeBillingRepo) GetActiveSubscription(ctx context.Context, userID int64) (*model.Subscription, error) {
	return nil, nil
}

func (f *fakeBillingRepo) GetActiveProductsWithPrices(ctx context.Context) ([]*model.Product, error) {
	return nil, nil
}

func (f *fakeBillingRepo) GetPriceByID(ctx context.Context, priceID string) (*model.Price, error) {
	return f.prices[priceID], nil
}

func testConfig() *config.Config {
	return &config.Config{SiteURL: "https://echofm.example.com"}
}

func signedIn() *entitlement.Entitlement {
	return &entitlement.Entitlement{User: &model.User{ID: 1, Email: "ada@example.com"}}
}

func subscribed() *entitlement.Entitlement {
	return &entitlement.Entitlement{
		User:         &model.User{ID: 1, Email: "ada@example.com"},
		Subscription: &model.Subscription{ID: "sub_1", Status: model.SubscriptionStatusActive},
	}
}

func TestCheckoutStart(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous caller never reaches the provider", func(t *testing.T) {
		provider := &fakeProvider{}
		c := NewCheckout(testConfig(), newFakeBillingRepo(), provider)

		_, err := c.Start(ctx, &entitlement.Entitlement{}, "price_month", 1, nil)
		assert.ErrorIs(t, err, ErrSignInRequired)
		assert.Zero(t, provider.customerCalls)
		assert.Zero(t, provider.sessionCalls)
	})

	t.Run("subscribed caller never reaches the provider", func(t *testing.T) {
		provider := &fakeProvider{}
		c := NewCheckout(testConfig(), newFakeBillingRepo(), provider)

		_, err := c.Start(ctx, subscribed(), "price_month", 1, nil)
		assert.ErrorIs(t, err, ErrAlreadySubscribed)
		assert.Zero(t, provider.customerCalls)
		assert.Zero(t, provider.sessionCalls)
	})

	t.Run("unknown or inactive price is rejected", func(t *testing.T) {
		provider := &fakeProvider{}
		c := NewCheckout(testConfig(), newFakeBillingRepo(), provider)

		_, err := c.Start(ctx, signedIn(), "price_missing", 1, nil)
		assert.ErrorIs(t, err, ErrUnknownPrice)

		_, err = c.Start(ctx, signedIn(), "price_gone", 1, nil)
		assert.ErrorIs(t, err, ErrUnknownPrice)
		assert.Zero(t, provider.sessionCalls)
	})

	t.Run("first checkout creates the customer mapping", func(t *testing.T) {
		provider := &fakeProvider{}
		repo := newFakeBillingRepo()
		c := NewCheckout(testConfig(), repo, provider)

		sessionID, err := c.Start(ctx, signedIn(), "price_month", 1, map[string]string{"plan": "monthly"})
		require.NoError(t, err)
		assert.Equal(t, "cs_test", sessionID)
		assert.Equal(t, 1, provider.customerCalls)
		require.NotNil(t, repo.customers[1])
		assert.Equal(t, "cus_test", repo.customers[1].StripeCustomerID)

		assert.Equal(t, "https://echofm.example.com/account", provider.lastParams.SuccessURL)
		assert.Equal(t, "https://echofm.example.com/", provider.lastParams.CancelURL)
		assert.Equal(t, map[string]string{"plan": "monthly"}, provider.lastParams.Metadata)
	})

	t.Run("existing customer mapping is reused", func(t *testing.T) {
		provider := &fakeProvider{}
		repo := newFakeBillingRepo()
		repo.customers[1] = &model.Customer{UserID: 1, StripeCustomerID: "cus_existing"}
		c := NewCheckout(testConfig(), repo, provider)

		_, err := c.Start(ctx, signedIn(), "price_month", 1, nil)
		require.NoError(t, err)
		assert.Zero(t, provider.customerCalls)
	})

	t.Run("customer lookup failure stops before the provider", func(t *testing.T) {
		provider := &fakeProvider{}
		repo := newFakeBillingRepo()
		repo.customerErr = errors.New("db down")
		c := NewCheckout(testConfig(), repo, provider)

		_, err := c.Start(ctx, signedIn(), "price_month", 1, nil)
		require.Error(t, err)
		assert.Zero(t, provider.sessionCalls)
	})

	t.Run("provider failure surfaces", func(t *testing.T) {
		provider := &fakeProvider{sessionErr: errors.New("stripe down")}
		c := NewCheckout(testConfig(), newFakeBillingRepo(), provider)

		_, err := c.Start(ctx, signedIn(), "price_month", 1, nil)
		assert.Error(t, err)
	})
}

func TestCheckoutInFlight(t *testing.T) {
	ctx := context.Background()

	provider := &fakeProvider{
		block:   make(chan struct{}),
		entered: make(chan struct{}),
	}
	repo := newFakeBillingRepo()
	repo.customers[1] = &model.Customer{UserID: 1, StripeCustomerID: "cus_existing"}
	c := NewCheckout(testConfig(), repo, provider)

	done := make(chan struct{})
	go func() {
		defer close(done)
		sessionID, err := c.Start(ctx, signedIn(), "price_month", 1, nil)
		assert.NoError(t, err)
		assert.Equal(t, "cs_test", sessionID)
	}()

	// 等第一次结账进入支付侧调用
	<-provider.entered

	// 同一价格的第二次结账被拒绝
	_, err := c.Start(ctx, signedIn(), "price_month", 1, nil)
	assert.ErrorIs(t, err, ErrCheckoutInFlight)

	close(provider.block)
	<-done

	// 完成后同一价格可以再次结账
	provider.block = nil
	provider.entered = nil
	_, err = c.Start(ctx, signedIn(), "price_month", 1, nil)
	assert.NoError(t, err)
}

func TestPortalLink(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous caller is rejected", func(t *testing.T) {
		provider := &fakeProvider{}
		c := NewCheckout(testConfig(), newFakeBillingRepo(), provider)

		_, err := c.PortalLink(ctx, nil)
		assert.ErrorIs(t, err, ErrSignInRequired)
		assert.Zero(t, provider.portalCalls)
	})

	t.Run("signed in caller gets a portal url", func(t *testing.T) {
		provider := &fakeProvider{}
		repo := newFakeBillingRepo()
		repo.customers[1] = &model.Customer{UserID: 1, StripeCustomerID: "cus_existing"}
		c := NewCheckout(testConfig(), repo, provider)

		url, err := c.PortalLink(ctx, signedIn())
		require.NoError(t, err)
		assert.Equal(t, "https://billing.example.com/portal", url)
	})
}
