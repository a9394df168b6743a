package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"EchoFM/config"
	"EchoFM/core/entitlement"
	"EchoFM/logger"
	"EchoFM/model"
	"EchoFM/repository"
)

var (
	// ErrSignInRequired 未登录不能发起结账
	ErrSignInRequired = errors.New("must be signed in")
	// ErrAlreadySubscribed 已有生效订阅，不需要再次结账
	ErrAlreadySubscribed = errors.New("already subscribed")
	// ErrCheckoutInFlight 同一价格已有一次结账在进行中
	ErrCheckoutInFlight = errors.New("a checkout for this price is already in flight")
	// ErrUnknownPrice 价格不存在或未上架
	ErrUnknownPrice = errors.New("unknown price")
)

// Checkout drives the checkout and customer-portal flows against the
// payment provider. Gating happens before any provider call: an
// unauthenticated or already subscribed caller never reaches the network.
type Checkout struct {
	cfg      *config.Config
	billing  repository.BillingRepository
	provider Provider

	// 每个价格同时只允许一次结账；不同价格可以并发
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewCheckout creates the checkout service.
func NewCheckout(cfg *config.Config, billingRepo repository.BillingRepository, provider Provider) *Checkout {
	return &Checkout{
		cfg:      cfg,
		billing:  billingRepo,
		provider: provider,
		inFlight: make(map[string]struct{}),
	}
}

// Start begins a checkout for the given price on behalf of the caller.
// Returns the provider session id for the client SDK redirect.
func (c *Checkout) Start(ctx context.Context, ent *entitlement.Entitlement, priceID string, quantity int64, metadata map[string]string) (string, error) {
	if !ent.HasUser() {
		return "", ErrSignInRequired
	}
	if ent.IsSubscribed() {
		return "", ErrAlreadySubscribed
	}

	c.mu.Lock()
	if _, busy := c.inFlight[priceID]; busy {
		c.mu.Unlock()
		return "", ErrCheckoutInFlight
	}
	c.inFlight[priceID] = struct{}{}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inFlight, priceID)
		c.mu.Unlock()
	}()

	price, err := c.billing.GetPriceByID(ctx, priceID)
	if err != nil {
		return "", fmt.Errorf("failed to look up price %s: %w", priceID, err)
	}
	if price == nil || !price.Active {
		return "", ErrUnknownPrice
	}

	customerID, err := c.ensureCustomer(ctx, ent.User)
	if err != nil {
		return "", err
	}

	sessionID, err := c.provider.CreateCheckoutSession(ctx, customerID, CheckoutParams{
		PriceID:    priceID,
		Quantity:   quantity,
		Metadata:   metadata,
		SuccessURL: c.cfg.GetURL() + "account",
		CancelURL:  c.cfg.GetURL(),
	})
	if err != nil {
		return "", err
	}

	logger.Info("[Checkout] 结账会话已创建",
		logger.Int64("userId", ent.User.ID),
		logger.String("priceId", priceID))
	return sessionID, nil
}

// PortalLink mints a customer-portal URL for the caller.
func (c *Checkout) PortalLink(ctx context.Context, ent *entitlement.Entitlement) (string, error) {
	if !ent.HasUser() {
		return "", ErrSignInRequired
	}

	customerID, err := c.ensureCustomer(ctx, ent.User)
	if err != nil {
		return "", err
	}

	return c.provider.CreatePortalSession(ctx, customerID, c.cfg.GetURL()+"account")
}

// ensureCustomer looks up the user's billing customer, creating one at
// the provider on first use.
func (c *Checkout) ensureCustomer(ctx context.Context, user *model.User) (string, error) {
	existing, err := c.billing.GetCustomerByUserID(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to look up customer for user %d: %w", user.ID, err)
	}
	if existing != nil {
		return existing.StripeCustomerID, nil
	}

	customerID, err := c.provider.CreateCustomer(ctx, user.Email, user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to create customer for user %d: %w", user.ID, err)
	}

	if err := c.billing.CreateCustomer(ctx, &model.Customer{
		UserID:           user.ID,
		StripeCustomerID: customerID,
	}); err != nil {
		return "", fmt.Errorf("failed to persist customer mapping for user %d: %w", user.ID, err)
	}

	return customerID, nil
}
