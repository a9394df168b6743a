package billing

import "context"

// CheckoutParams describes one checkout attempt.
type CheckoutParams struct {
	PriceID    string
	Quantity   int64
	Metadata   map[string]string
	SuccessURL string
	CancelURL  string
}

// Provider is the payment processor boundary. The real implementation
// talks to Stripe; tests substitute a fake to assert call counts.
type Provider interface {
	// CreateCustomer registers a billing customer and returns the
	// provider's customer id.
	CreateCustomer(ctx context.Context, email string, userID int64) (string, error)
	// CreateCheckoutSession mints a checkout session scoped to the
	// customer and price, returning the session id the client SDK
	// redirects with.
	CreateCheckoutSession(ctx context.Context, customerID string, params CheckoutParams) (string, error)
	// CreatePortalSession mints a billing portal URL for the customer.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}
