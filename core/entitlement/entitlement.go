package entitlement

import (
	"context"
	"fmt"

	"EchoFM/model"
	"EchoFM/repository"
)

// Entitlement is the read projection that gating decisions are made from:
// who the caller is and whether they hold an active subscription.
type Entitlement struct {
	User         *model.User
	Subscription *model.Subscription
}

// HasUser reports whether the caller is authenticated.
func (e *Entitlement) HasUser() bool {
	return e != nil && e.User != nil
}

// IsSubscribed reports whether the caller holds an entitling subscription.
func (e *Entitlement) IsSubscribed() bool {
	return e != nil && e.Subscription != nil && e.Subscription.IsActive()
}

// Store resolves entitlements. It is a pure read projection over the user
// and subscription records; nothing here mutates state.
type Store struct {
	users   repository.UserRepository
	billing repository.BillingRepository
}

// NewStore creates an entitlement store.
func NewStore(users repository.UserRepository, billing repository.BillingRepository) *Store {
	return &Store{users: users, billing: billing}
}

// Resolve builds the caller's entitlement. userID为0表示匿名访问，
// 返回空的Entitlement而不是错误——"未登录"是一种状态，不是失败。
//
// The subscription is read fresh on every call: a user whose plan lapses
// mid-session is gated again on the very next attempt.
func (s *Store) Resolve(ctx context.Context, userID int64) (*Entitlement, error) {
	if userID == 0 {
		return &Entitlement{}, nil
	}

	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user %d: %w", userID, err)
	}
	if user == nil {
		return &Entitlement{}, nil
	}

	sub, err := s.billing.GetActiveSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subscription for user %d: %w", userID, err)
	}

	return &Entitlement{User: user, Subscription: sub}, nil
}
