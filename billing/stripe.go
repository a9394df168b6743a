package billing

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	portalsession "github.com/stripe/stripe-go/v76/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/customer"
)

// stripeProvider Stripe支付实现
type stripeProvider struct{}

// NewStripeProvider configures the Stripe SDK with the secret key and
// returns the provider.
func NewStripeProvider(secretKey string) Provider {
	stripe.Key = secretKey
	return &stripeProvider{}
}

// CreateCustomer 在Stripe创建客户，metadata里带上本地用户ID便于对账
func (p *stripeProvider) CreateCustomer(ctx context.Context, email string, userID int64) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			"userId": strconv.FormatInt(userID, 10),
		},
	}
	params.Context = ctx
	// 幂等键防止重试时重复建客户
	params.IdempotencyKey = stripe.String(uuid.NewString())

	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe customer: %w", err)
	}
	return c.ID, nil
}

// CreateCheckoutSession 创建订阅模式的Checkout会话
func (p *stripeProvider) CreateCheckoutSession(ctx context.Context, customerID string, cp CheckoutParams) (string, error) {
	quantity := cp.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	params := &stripe.CheckoutSessionParams{
		Customer:                 stripe.String(customerID),
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		Mode:                     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		AllowPromotionCodes:      stripe.Bool(true),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(cp.PriceID),
				Quantity: stripe.Int64(quantity),
			},
		},
		SuccessURL: stripe.String(cp.SuccessURL),
		CancelURL:  stripe.String(cp.CancelURL),
	}
	if len(cp.Metadata) > 0 {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: cp.Metadata,
		}
	}
	params.Context = ctx

	s, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return s.ID, nil
}

// CreatePortalSession 创建客户门户会话，返回门户URL
func (p *stripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	s, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}
	return s.URL, nil
}
